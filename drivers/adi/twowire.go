package adi

import (
	"context"

	"adicode-go/errcode"
	"adicode-go/types"
)

// Encoder is a handle to a quadrature encoder: the canonical 0-based index
// of its port pair.
type Encoder int

// Ultrasonic is a handle to an ultrasonic range finder: the 0-based index of
// its echo port.
type Ultrasonic int

// EncoderInit configures the pair (top, bottom) as a legacy encoder.
func (a *ADI) EncoderInit(ctx context.Context, top, bottom int, reverse bool) (Encoder, error) {
	const op = "encoder_init"
	idx, _, err := resolveIDs(top, bottom)
	if err != nil {
		_, err = a.fail(op, err)
		return ErrValue, err
	}
	if err := a.reg.setConfig(ctx, idx, types.LegacyEncoder); err != nil {
		_, err = a.fail(op, err)
		return ErrValue, err
	}
	// Only a configured pair takes the new direction.
	a.reg.reversed[idx/2].Store(reverse)
	return Encoder(idx), nil
}

// EncoderGet returns the tick count, negated for reversed encoders.
func (a *ADI) EncoderGet(ctx context.Context, enc Encoder) (int32, error) {
	const op = "encoder_get"
	idx, err := a.handle(ctx, int(enc), encoderOnly)
	if err != nil {
		return a.fail(op, err)
	}
	v, err := a.reg.valueGet(ctx, idx)
	if err != nil {
		return a.fail(op, err)
	}
	if a.reg.reversed[idx/2].Load() {
		return -v, nil
	}
	return v, nil
}

// EncoderReset zeroes the tick count. It returns 1.
func (a *ADI) EncoderReset(ctx context.Context, enc Encoder) (int32, error) {
	const op = "encoder_reset"
	idx, err := a.handle(ctx, int(enc), encoderOnly)
	if err != nil {
		return a.fail(op, err)
	}
	if err := a.reg.valueSet(ctx, idx, 0); err != nil {
		return a.fail(op, err)
	}
	return 1, nil
}

// EncoderShutdown returns the encoder's port to the unconfigured state. It
// returns 1.
func (a *ADI) EncoderShutdown(ctx context.Context, enc Encoder) (int32, error) {
	return a.shutdown(ctx, "encoder_shutdown", int(enc), encoderOnly)
}

// UltrasonicInit configures the pair (echo, ping) as a legacy ultrasonic
// sensor. The echo wire must be on the lower port of the pair.
func (a *ADI) UltrasonicInit(ctx context.Context, echo, ping int) (Ultrasonic, error) {
	const op = "ultrasonic_init"
	idx, echoIdx, err := resolveIDs(echo, ping)
	if err == nil && echoIdx != idx {
		err = &errcode.E{C: errcode.InvalidPair, Msg: "echo must be the lower port"}
	}
	if err != nil {
		_, err = a.fail(op, err)
		return ErrValue, err
	}
	if err := a.reg.setConfig(ctx, idx, types.LegacyUltrasonic); err != nil {
		_, err = a.fail(op, err)
		return ErrValue, err
	}
	return Ultrasonic(idx), nil
}

// UltrasonicGet returns the last measured distance.
func (a *ADI) UltrasonicGet(ctx context.Context, ult Ultrasonic) (int32, error) {
	const op = "ultrasonic_get"
	idx, err := a.handle(ctx, int(ult), ultrasonicOnly)
	if err != nil {
		return a.fail(op, err)
	}
	v, err := a.reg.valueGet(ctx, idx)
	if err != nil {
		return a.fail(op, err)
	}
	return v, nil
}

// UltrasonicShutdown returns the sensor's port to the unconfigured state.
// It returns 1.
func (a *ADI) UltrasonicShutdown(ctx context.Context, ult Ultrasonic) (int32, error) {
	return a.shutdown(ctx, "ultrasonic_shutdown", int(ult), ultrasonicOnly)
}

func (a *ADI) handle(ctx context.Context, h int, allowed configSet) (int, error) {
	if err := checkHandle(h); err != nil {
		return 0, err
	}
	if err := a.reg.validate(ctx, h, allowed); err != nil {
		return 0, err
	}
	return h, nil
}

func (a *ADI) shutdown(ctx context.Context, op string, h int, allowed configSet) (int32, error) {
	idx, err := a.handle(ctx, h, allowed)
	if err != nil {
		return a.fail(op, err)
	}
	if err := a.reg.setConfig(ctx, idx, types.Undefined); err != nil {
		return a.fail(op, err)
	}
	return 1, nil
}
