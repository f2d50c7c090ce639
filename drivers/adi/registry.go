package adi

import (
	"context"
	"sync/atomic"

	"adicode-go/errcode"
	"adicode-go/types"
)

// numTwoWire is the number of two-wire slots; slot = canonical index / 2.
const numTwoWire = types.NumPorts / 2

// analogState is the per-port auxiliary state the expander does not keep.
type analogState struct {
	calib atomic.Int32 // baseline at 4 extra bits of precision
	mult  atomic.Int32 // reserved
	value atomic.Int32 // last raw sample seen
	typ   atomic.Uint32
}

// AnalogState is a snapshot of one port's analog bookkeeping.
type AnalogState struct {
	Calibration int32
	Multiplier  int32
	LastValue   int32
	Type        types.AnalogType
}

// registry owns the facade and all auxiliary per-port state. Every hardware
// access goes through tx, which claims the facade for exactly one
// transaction.
type registry struct {
	f        Facade
	analog   [types.NumPorts]analogState
	reversed [numTwoWire]atomic.Bool
}

func (r *registry) tx(ctx context.Context, fn func(Transport) error) error {
	t, err := r.f.Claim(ctx)
	if err != nil {
		return err
	}
	defer r.f.Release()
	if err := fn(t); err != nil {
		if errcode.Of(err) != errcode.Error {
			return err
		}
		return &errcode.E{C: errcode.Error, Err: err}
	}
	return nil
}

func (r *registry) setConfig(ctx context.Context, idx int, cfg types.PortConfig) error {
	return r.tx(ctx, func(t Transport) error { return t.ConfigSet(idx, cfg) })
}

func (r *registry) getConfig(ctx context.Context, idx int) (types.PortConfig, error) {
	var cfg types.PortConfig
	err := r.tx(ctx, func(t Transport) (err error) {
		cfg, err = t.ConfigGet(idx)
		return err
	})
	return cfg, err
}

func (r *registry) valueSet(ctx context.Context, idx int, v int32) error {
	return r.tx(ctx, func(t Transport) error { return t.ValueSet(idx, v) })
}

func (r *registry) valueGet(ctx context.Context, idx int) (int32, error) {
	var v int32
	err := r.tx(ctx, func(t Transport) (err error) {
		v, err = t.ValueGet(idx)
		return err
	})
	return v, err
}

// analogGet reads a raw sample and records it as the port's last value.
func (r *registry) analogGet(ctx context.Context, idx int) (int32, error) {
	v, err := r.valueGet(ctx, idx)
	if err != nil {
		return 0, err
	}
	r.analog[idx].value.Store(v)
	return v, nil
}

func (r *registry) snapshot(idx int) AnalogState {
	a := &r.analog[idx]
	return AnalogState{
		Calibration: a.calib.Load(),
		Multiplier:  a.mult.Load(),
		LastValue:   a.value.Load(),
		Type:        types.AnalogType(a.typ.Load()),
	}
}
