package signal

import (
	"errors"
	"math"
	"testing"
)

func TestGBNValuesAreBounds(t *testing.T) {
	src := NewSource(7)
	seq, err := GBN(src, GBNParams{N: 4001, SwitchProb: 0.05, Low: 0.4, High: 0.6})
	if err != nil {
		t.Fatalf("GBN failed: %v", err)
	}
	if len(seq) != 4001 {
		t.Fatalf("expected 4001 samples, got %d", len(seq))
	}
	for i, v := range seq {
		if v != 0.4 && v != 0.6 {
			t.Fatalf("sample %d = %v is not a configured bound", i, v)
		}
	}
}

func TestGBNSwitchRate(t *testing.T) {
	src := NewSource(11)
	seq, err := GBN(src, GBNParams{N: 4001, SwitchProb: 0.05, Low: 20, High: 40, Tol: DefaultGBNTol})
	if err != nil {
		t.Fatalf("GBN failed: %v", err)
	}

	switches := 0
	for i := 1; i < len(seq); i++ {
		if seq[i] != seq[i-1] {
			switches++
		}
	}
	rate := float64(switches) / float64(len(seq))
	if rate < 0.03 || rate > 0.07 {
		t.Errorf("switch rate %.4f far from 0.05", rate)
	}
}

func TestGBNExtremeProbabilities(t *testing.T) {
	seq, err := GBN(NewSource(1), GBNParams{N: 100, SwitchProb: 0, Low: -1, High: 1})
	if err != nil {
		t.Fatalf("GBN failed: %v", err)
	}
	for i := range seq {
		if seq[i] != seq[0] {
			t.Fatalf("zero switch probability changed level at %d", i)
		}
	}

	seq, err = GBN(NewSource(1), GBNParams{N: 100, SwitchProb: 1, Low: -1, High: 1})
	if err != nil {
		t.Fatalf("GBN failed: %v", err)
	}
	for i := 2; i < len(seq); i++ {
		if seq[i] == seq[i-1] {
			t.Fatalf("unit switch probability held level at %d", i)
		}
	}
}

func TestGBNMinHold(t *testing.T) {
	seq, err := GBN(NewSource(3), GBNParams{N: 500, SwitchProb: 1, Low: 0, High: 1, MinHold: 4})
	if err != nil {
		t.Fatalf("GBN failed: %v", err)
	}
	run := 1
	for i := 1; i < len(seq); i++ {
		if seq[i] == seq[i-1] {
			run++
			continue
		}
		if i > 5 && run < 4 {
			t.Fatalf("level held %d samples before index %d, want at least 4", run, i)
		}
		run = 1
	}
}

func TestGBNInvalidParams(t *testing.T) {
	tests := []struct {
		name string
		p    GBNParams
	}{
		{"negative prob", GBNParams{N: 10, SwitchProb: -0.1, Low: 0, High: 1}},
		{"prob above one", GBNParams{N: 10, SwitchProb: 1.5, Low: 0, High: 1}},
		{"inverted range", GBNParams{N: 10, SwitchProb: 0.1, Low: 2, High: 1}},
		{"negative hold", GBNParams{N: 10, SwitchProb: 0.1, Low: 0, High: 1, MinHold: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GBN(NewSource(1), tt.p)
			if !errors.Is(err, ErrInvalidParams) {
				t.Errorf("expected ErrInvalidParams, got %v", err)
			}
		})
	}
}

func TestRandomWalk(t *testing.T) {
	rw, err := RandomWalk(NewSource(5), 4001, 10.0, 0.01)
	if err != nil {
		t.Fatalf("RandomWalk failed: %v", err)
	}
	if len(rw) != 4001 {
		t.Fatalf("expected 4001 samples, got %d", len(rw))
	}
	if rw[0] != 10.0 {
		t.Errorf("first sample should equal initial value, got %v", rw[0])
	}

	moved := false
	for i := 1; i < len(rw); i++ {
		if math.Abs(rw[i]-rw[i-1]) > 0.1 {
			t.Fatalf("increment %d is implausibly large for sigma 0.01: %v", i, rw[i]-rw[i-1])
		}
		if rw[i] != rw[i-1] {
			moved = true
		}
	}
	if !moved {
		t.Error("random walk never moved")
	}
}

func TestRandomWalkEdgeCases(t *testing.T) {
	rw, err := RandomWalk(NewSource(5), 0, 1, 1)
	if err != nil || len(rw) != 0 {
		t.Errorf("expected empty walk, got %v, %v", rw, err)
	}

	flat, err := RandomWalk(NewSource(5), 20, 25, 0)
	if err != nil {
		t.Fatalf("RandomWalk failed: %v", err)
	}
	for _, v := range flat {
		if v != 25 {
			t.Fatalf("zero sigma walk moved: %v", flat)
		}
	}

	if _, err := RandomWalk(NewSource(5), 10, 0, -1); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("expected ErrInvalidParams, got %v", err)
	}
}

func TestWhiteNoiseVariance(t *testing.T) {
	n := 20000
	noise, err := WhiteNoise(NewSource(9), n, []float64{0.001, 0.04})
	if err != nil {
		t.Fatalf("WhiteNoise failed: %v", err)
	}
	if len(noise) != 2 || len(noise[0]) != n || len(noise[1]) != n {
		t.Fatalf("unexpected noise shape")
	}

	for ch, want := range []float64{0.001, 0.04} {
		mean, sq := 0.0, 0.0
		for _, v := range noise[ch] {
			mean += v
		}
		mean /= float64(n)
		for _, v := range noise[ch] {
			sq += (v - mean) * (v - mean)
		}
		got := sq / float64(n-1)
		if math.Abs(got-want)/want > 0.1 {
			t.Errorf("channel %d variance %.5f, want ~%.5f", ch, got, want)
		}
	}
}

func TestAddNoise(t *testing.T) {
	clean := [][]float64{{1, 2}, {3, 4}}
	noise := [][]float64{{0.1, 0.2}, {-0.3, 0}}
	y, err := AddNoise(clean, noise)
	if err != nil {
		t.Fatalf("AddNoise failed: %v", err)
	}
	if math.Abs(y[0][1]-2.2) > 1e-12 || math.Abs(y[1][0]-2.7) > 1e-12 {
		t.Errorf("unexpected sum %v", y)
	}

	if _, err := AddNoise(clean, noise[:1]); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("expected ErrInvalidParams for channel mismatch, got %v", err)
	}
}

func TestSeedReproducibility(t *testing.T) {
	gen := func() ([]float64, []float64) {
		src := NewSource(42)
		g, _ := GBN(src, GBNParams{N: 300, SwitchProb: 0.05, Low: 0.4, High: 0.6})
		w, _ := RandomWalk(src, 300, 10, 0.01)
		return g, w
	}

	g1, w1 := gen()
	g2, w2 := gen()
	for i := range g1 {
		if g1[i] != g2[i] || w1[i] != w2[i] {
			t.Fatalf("sequences differ at %d with identical seeds", i)
		}
	}
}
