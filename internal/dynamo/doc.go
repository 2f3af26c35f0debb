// Package dynamo provides core simulation primitives for sampled-data
// process simulation.
//
// The package defines the fundamental interfaces and types:
//
//   - [State]: vector representing plant state
//   - [Control]: input vector, held constant over one sampling interval
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical integrator interface
//   - [Metric], [Observer]: per-step hooks used by the simulator
//
// # Example
//
//	plant := models.NewCSTR()
//	integ := integrators.NewZeroOrderHold(integrators.NewRK4(), 5)
//	s := sim.New(plant, integ)
//	result, _ := s.Run(ctx, x0, inputs, sim.Config{Ts: 1})
package dynamo
