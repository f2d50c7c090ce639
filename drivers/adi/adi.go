// Package adi validates and routes operations on the eight ports of an ADI
// expander. It tracks nothing the hardware already knows except analog
// calibration and encoder direction; port configuration is always read back
// through the Facade.
package adi

import (
	"context"
	"errors"
	"math"
	"time"

	"adicode-go/errcode"
	"adicode-go/types"
	"adicode-go/x/timex"
)

// ErrValue is returned as the value of any failed operation.
const ErrValue = math.MaxInt32

type ADI struct {
	reg   registry
	sleep func(time.Duration)
	last  errcode.Last
}

type Option func(*ADI)

// WithSleep replaces the suspension used between calibration samples.
func WithSleep(fn func(time.Duration)) Option {
	return func(a *ADI) { a.sleep = fn }
}

func New(f Facade, opts ...Option) *ADI {
	a := &ADI{reg: registry{f: f}, sleep: timex.Delay}
	for _, o := range opts {
		o(a)
	}
	return a
}

// LastError returns the code of the most recent failed operation.
func (a *ADI) LastError() errcode.Code { return a.last.Get() }

// ClearLastError resets LastError to OK.
func (a *ADI) ClearLastError() { a.last.Clear() }

// fail stamps op onto err, records it as the last error and returns the
// error sentinel.
func (a *ADI) fail(op string, err error) (int32, error) {
	var e *errcode.E
	if c, ok := err.(errcode.Code); ok {
		err = &errcode.E{C: c, Op: op}
	} else if errors.As(err, &e) {
		if e.Op == "" {
			e.Op = op
		}
	} else {
		err = &errcode.E{C: errcode.Of(err), Op: op, Err: err}
	}
	a.last.Set(err)
	return ErrValue, err
}

// SetPortConfig configures port unconditionally. It returns 1.
func (a *ADI) SetPortConfig(ctx context.Context, port int, cfg types.PortConfig) (int32, error) {
	const op = "port_config_set"
	idx, err := PortIndex(port)
	if err != nil {
		return a.fail(op, err)
	}
	if err := a.reg.setConfig(ctx, idx, cfg); err != nil {
		return a.fail(op, err)
	}
	return 1, nil
}

// GetPortConfig reads the configuration of port back from the expander.
// When err is non-nil the returned configuration is meaningless; Undefined
// is returned only as a placeholder.
func (a *ADI) GetPortConfig(ctx context.Context, port int) (types.PortConfig, error) {
	const op = "port_config_get"
	idx, err := PortIndex(port)
	if err != nil {
		_, err = a.fail(op, err)
		return types.Undefined, err
	}
	cfg, err := a.reg.getConfig(ctx, idx)
	if err != nil {
		_, err = a.fail(op, err)
		return types.Undefined, err
	}
	return cfg, nil
}

// Ports returns the configuration of all ports, indexed 0..7.
func (a *ADI) Ports(ctx context.Context) ([types.NumPorts]types.PortConfig, error) {
	var out [types.NumPorts]types.PortConfig
	for i := range out {
		cfg, err := a.reg.getConfig(ctx, i)
		if err != nil {
			_, err = a.fail("port_config_get", err)
			return out, err
		}
		out[i] = cfg
	}
	return out, nil
}

// ValueSet writes v to port without checking its configuration. It returns 1.
func (a *ADI) ValueSet(ctx context.Context, port int, v int32) (int32, error) {
	const op = "value_set"
	idx, err := PortIndex(port)
	if err != nil {
		return a.fail(op, err)
	}
	if err := a.reg.valueSet(ctx, idx, v); err != nil {
		return a.fail(op, err)
	}
	return 1, nil
}

// ValueGet reads port without checking its configuration.
func (a *ADI) ValueGet(ctx context.Context, port int) (int32, error) {
	const op = "value_get"
	idx, err := PortIndex(port)
	if err != nil {
		return a.fail(op, err)
	}
	v, err := a.reg.valueGet(ctx, idx)
	if err != nil {
		return a.fail(op, err)
	}
	return v, nil
}

// checked translates port and validates it against allowed.
func (a *ADI) checked(ctx context.Context, port int, allowed configSet) (int, error) {
	idx, err := PortIndex(port)
	if err != nil {
		return 0, err
	}
	if err := a.reg.validate(ctx, idx, allowed); err != nil {
		return 0, err
	}
	return idx, nil
}
