package adi

import (
	"context"

	"adicode-go/errcode"
	"adicode-go/types"
)

// DigitalRead returns 1 if a digital-input port reads high, else 0.
func (a *ADI) DigitalRead(ctx context.Context, port int) (int32, error) {
	const op = "digital_read"
	idx, err := a.checked(ctx, port, digitalInFamily)
	if err != nil {
		return a.fail(op, err)
	}
	v, err := a.reg.valueGet(ctx, idx)
	if err != nil {
		return a.fail(op, err)
	}
	if v != 0 {
		return 1, nil
	}
	return 0, nil
}

// DigitalWrite drives a digital-output port. It returns 1.
func (a *ADI) DigitalWrite(ctx context.Context, port int, value bool) (int32, error) {
	const op = "digital_write"
	idx, err := a.checked(ctx, port, digitalOutOnly)
	if err != nil {
		return a.fail(op, err)
	}
	var v int32
	if value {
		v = 1
	}
	if err := a.reg.valueSet(ctx, idx, v); err != nil {
		return a.fail(op, err)
	}
	return 1, nil
}

// PinMode configures port from an Arduino-style mode. It returns 1.
func (a *ADI) PinMode(ctx context.Context, port int, mode types.PinMode) (int32, error) {
	var cfg types.PortConfig
	switch mode {
	case types.Input:
		cfg = types.DigitalIn
	case types.Output:
		cfg = types.DigitalOut
	case types.InputAnalog:
		cfg = types.AnalogIn
	case types.OutputAnalog:
		cfg = types.AnalogOut
	default:
		return a.fail("pin_mode", errcode.InvalidArgument)
	}
	if _, err := a.SetPortConfig(ctx, port, cfg); err != nil {
		return ErrValue, err
	}
	return 1, nil
}
