package adi

import (
	"context"

	"adicode-go/x/mathx"
)

// Legacy motor speed range. The expander reports speed offset by MotorMaxSpeed.
const (
	MotorMaxSpeed = 127
	MotorMinSpeed = -128
)

// MotorSet drives a legacy PWM motor or servo. speed is clamped to
// [MotorMinSpeed, MotorMaxSpeed]; the clamped value is returned.
func (a *ADI) MotorSet(ctx context.Context, port int, speed int) (int32, error) {
	const op = "motor_set"
	idx, err := a.checked(ctx, port, motorFamily)
	if err != nil {
		return a.fail(op, err)
	}
	v := int32(mathx.Clamp(speed, MotorMinSpeed, MotorMaxSpeed))
	if err := a.reg.valueSet(ctx, idx, v); err != nil {
		return a.fail(op, err)
	}
	return v, nil
}

// MotorGet returns the last speed commanded to a legacy motor.
func (a *ADI) MotorGet(ctx context.Context, port int) (int32, error) {
	const op = "motor_get"
	idx, err := a.checked(ctx, port, motorFamily)
	if err != nil {
		return a.fail(op, err)
	}
	v, err := a.reg.valueGet(ctx, idx)
	if err != nil {
		return a.fail(op, err)
	}
	return v - MotorMaxSpeed, nil
}

// MotorStop writes 0 to a legacy motor. It returns 1.
func (a *ADI) MotorStop(ctx context.Context, port int) (int32, error) {
	const op = "motor_stop"
	idx, err := a.checked(ctx, port, motorFamily)
	if err != nil {
		return a.fail(op, err)
	}
	if err := a.reg.valueSet(ctx, idx, 0); err != nil {
		return a.fail(op, err)
	}
	return 1, nil
}
