package sim

type Config struct {
	// Ts is the sampling interval; inputs are held constant across it.
	Ts            float64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Ts:            1.0,
		ValidateState: true,
	}
}
