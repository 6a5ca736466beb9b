package accel

import (
	"context"
	"math"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// ErrModuleNotReady is returned when a routine is requested before the
// module finished initializing, or after initialization failed.
var ErrModuleNotReady = errors.New("accel: computation module not ready")

// Loader produces an initialized Module. It runs once per Runtime.
type Loader func(ctx context.Context) (Module, error)

// Runtime owns the one-time asynchronous initialization of a Module and
// gates access to it until the module signals readiness.
type Runtime struct {
	load   Loader
	logger hclog.Logger

	once  sync.Once
	ready chan struct{}

	// written before ready is closed, read only after
	mod Module
	err error
}

// NewRuntime creates a runtime that will initialize its module with load.
// A nil load uses LoadNative.
func NewRuntime(load Loader, logger hclog.Logger) *Runtime {
	if load == nil {
		load = LoadNative
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Runtime{
		load:   load,
		logger: logger.Named("accel"),
		ready:  make(chan struct{}),
	}
}

// Start begins initialization on a new goroutine. Calling Start more than
// once has no effect.
func (r *Runtime) Start(ctx context.Context) {
	r.once.Do(func() {
		go r.init(ctx)
	})
}

func (r *Runtime) init(ctx context.Context) {
	defer close(r.ready)
	mod, err := r.load(ctx)
	if err == nil && mod == nil {
		err = errors.New("accel: loader returned no module")
	}
	if err != nil {
		r.err = errors.Wrap(err, "accel: initialization failed")
		r.logger.Error("computation module failed to initialize", "error", err)
		return
	}
	r.mod = mod
	r.logger.Info("computation module ready", "impl", mod.Name())
}

// Ready is closed once initialization has finished, successfully or not.
func (r *Runtime) Ready() <-chan struct{} { return r.ready }

// Module returns the initialized module. Before readiness it returns
// ErrModuleNotReady; after a failed initialization it returns the failure
// wrapped around ErrModuleNotReady's message so callers can match either.
func (r *Runtime) Module() (Module, error) {
	select {
	case <-r.ready:
	default:
		return nil, ErrModuleNotReady
	}
	if r.err != nil {
		return nil, &initError{cause: r.err}
	}
	return r.mod, nil
}

// Wait blocks until the module is ready or ctx is done.
func (r *Runtime) Wait(ctx context.Context) (Module, error) {
	select {
	case <-r.ready:
		return r.Module()
	case <-ctx.Done():
		return nil, &initError{cause: ctx.Err()}
	}
}

// initError reports a failed or abandoned initialization. It matches ErrModuleNotReady
// with errors.Is so the host treats it as the same blocking condition.
type initError struct {
	cause error
}

func (e *initError) Error() string        { return ErrModuleNotReady.Error() + ": " + e.cause.Error() }
func (e *initError) Unwrap() error        { return e.cause }
func (e *initError) Is(target error) bool { return target == ErrModuleNotReady }

// LoadNative initializes the built-in module after running a short self
// check of its transform and spline routines.
func LoadNative(ctx context.Context) (Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := NewNative()

	v := Translate(12, -7).Multiply(Scale(2.5, 2.5))
	inv, ok := m.Invert(v)
	if !ok {
		return nil, errors.New("self check: view transform not invertible")
	}
	p := Pt(31.25, -4)
	q := m.Transform(inv, m.Transform(v, p))
	if math.Abs(q.X-p.X) > 1e-9 || math.Abs(q.Y-p.Y) > 1e-9 {
		return nil, errors.Errorf("self check: round trip drifted to %v", q)
	}
	s := m.CatmullRom([]Point{Pt(0, 0), Pt(10, 0)}, 4, 0.5)
	if len(s) != 5 || s[0] != Pt(0, 0) || s[4] != Pt(10, 0) {
		return nil, errors.New("self check: spline endpoints drifted")
	}
	return m, nil
}
