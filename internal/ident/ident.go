// Package ident is the boundary between generated process data and system
// identification back-ends.
//
// A back-end implements [Identifier]: it receives output and input
// trajectories plus an order specification and returns a [Model] whose
// simulated output can be compared with the data. Back-ends are looked up
// by method name in a [Registry], so alternative estimators can be plugged
// in without touching the simulation code.
package ident

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Method names used by the default experiment.
const (
	MethodARX     = "ARX"
	MethodARMAX   = "ARMAX"
	MethodPARSIMK = "PARSIM-K"
)

var (
	ErrUnknownMethod     = errors.New("ident: no identifier registered for method")
	ErrInsufficientData  = errors.New("ident: not enough samples for the requested orders")
	ErrOrderMismatch     = errors.New("ident: order specification does not match data dimensions")
	ErrDataShape         = errors.New("ident: output and input trajectories have different lengths")
	ErrEstimationFailure = errors.New("ident: estimation failed")
)

// Data holds sampled trajectories, one row per channel and one column per
// sample.
type Data struct {
	Y  *mat.Dense
	U  *mat.Dense
	Ts float64
}

// Dims returns the number of outputs, inputs and samples.
func (d Data) Dims() (p, m, n int) {
	p, n = d.Y.Dims()
	m, _ = d.U.Dims()
	return p, m, n
}

func (d Data) validate() error {
	if d.Y == nil || d.U == nil {
		return fmt.Errorf("%w: missing trajectory", ErrDataShape)
	}
	_, ny := d.Y.Dims()
	_, nu := d.U.Dims()
	if ny != nu {
		return fmt.Errorf("%w: %d output samples, %d input samples", ErrDataShape, ny, nu)
	}
	return nil
}

// Orders is the order specification of a model structure. Fields that do
// not apply to a method are ignored by it.
type Orders struct {
	// NA[i] is the autoregressive order of output i.
	NA []int
	// NB[i][j] is the number of coefficients from input j to output i.
	NB [][]int
	// NC[i] is the moving-average noise order of output i.
	NC []int
	// Theta[i][j] is the input delay in samples from input j to output i.
	Theta [][]int
	// SSOrder is the state dimension of subspace methods.
	SSOrder int
	// MaxIterations bounds iterative estimators.
	MaxIterations int
}

type Centering string

const (
	CenteringNone Centering = "None"
	CenteringMean Centering = "MeanVal"
	CenteringInit Centering = "InitVal"
)

// ParseCentering accepts the canonical names case-insensitively; the empty
// string means no centering.
func ParseCentering(s string) (Centering, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CenteringNone, nil
	case "meanval", "mean":
		return CenteringMean, nil
	case "initval", "init":
		return CenteringInit, nil
	default:
		return "", fmt.Errorf("ident: unknown centering %q", s)
	}
}

type Options struct {
	Centering Centering
}

// Model is a fitted model.
type Model interface {
	Method() string
	// Yid is the model output simulated over the identification inputs,
	// with the same shape as the identification outputs.
	Yid() *mat.Dense
}

// StateSpaceModel is implemented by models that expose a discrete-time
// state-space realization.
type StateSpaceModel interface {
	Model
	StateSpace() *StateSpace
}

type Identifier interface {
	Identify(ctx context.Context, data Data, orders Orders, opts Options) (Model, error)
}

// IdentifierFunc adapts a function to the Identifier interface.
type IdentifierFunc func(ctx context.Context, data Data, orders Orders, opts Options) (Model, error)

func (f IdentifierFunc) Identify(ctx context.Context, data Data, orders Orders, opts Options) (Model, error) {
	return f(ctx, data, orders, opts)
}

type Registry struct {
	identifiers map[string]Identifier
}

// NewRegistry returns a registry with the built-in least-squares ARX
// back-end registered.
func NewRegistry() *Registry {
	r := &Registry{identifiers: make(map[string]Identifier)}
	r.Register(MethodARX, NewARX())
	return r
}

func (r *Registry) Register(method string, id Identifier) {
	r.identifiers[method] = id
}

func (r *Registry) Get(method string) (Identifier, error) {
	id, ok := r.identifiers[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	return id, nil
}

// Identify dispatches to the identifier registered for method.
func (r *Registry) Identify(ctx context.Context, method string, data Data, orders Orders, opts Options) (Model, error) {
	id, err := r.Get(method)
	if err != nil {
		return nil, err
	}
	if err := data.validate(); err != nil {
		return nil, err
	}
	return id.Identify(ctx, data, orders, opts)
}

func (r *Registry) Methods() []string {
	names := make([]string, 0, len(r.identifiers))
	for name := range r.identifiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
