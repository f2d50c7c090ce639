package adi

import (
	"context"
	"time"

	"adicode-go/types"
	"adicode-go/x/mathx"
)

const (
	// CalibrateSamples is the number of raw reads averaged by AnalogCalibrate.
	CalibrateSamples = 512
	// CalibrateInterval is the suspension between calibration samples.
	CalibrateInterval = time.Millisecond

	// calibration is stored with this many extra bits of precision
	calibExtraBits = 4
)

// AnalogRead returns the raw value of an analog-configured port.
func (a *ADI) AnalogRead(ctx context.Context, port int) (int32, error) {
	const op = "analog_read"
	idx, err := a.checked(ctx, port, analogFamily)
	if err != nil {
		return a.fail(op, err)
	}
	v, err := a.reg.analogGet(ctx, idx)
	if err != nil {
		return a.fail(op, err)
	}
	return v, nil
}

// AnalogCalibrate samples port CalibrateSamples times and stores the
// baseline for the calibrated reads. It returns the baseline at normal
// precision. Once sampling starts it runs to completion; ctx cancellation
// is ignored from that point on.
func (a *ADI) AnalogCalibrate(ctx context.Context, port int) (int32, error) {
	const op = "analog_calibrate"
	idx, err := a.checked(ctx, port, analogFamily)
	if err != nil {
		return a.fail(op, err)
	}
	ctx = context.WithoutCancel(ctx)

	var total uint32
	for i := 0; i < CalibrateSamples; i++ {
		v, err := a.reg.analogGet(ctx, idx)
		if err != nil {
			return a.fail(op, err)
		}
		total += uint32(v)
		a.sleep(CalibrateInterval)
	}

	st := &a.reg.analog[idx]
	st.calib.Store(int32(mathx.RoundShift(total, 5)))
	st.typ.Store(uint32(types.AnalogPlain))
	return int32(mathx.RoundShift(total, 9)), nil
}

// AnalogReadCalibrated returns the raw value minus the stored baseline.
func (a *ADI) AnalogReadCalibrated(ctx context.Context, port int) (int32, error) {
	const op = "analog_read_calibrated"
	idx, err := a.checked(ctx, port, analogFamily)
	if err != nil {
		return a.fail(op, err)
	}
	v, err := a.reg.analogGet(ctx, idx)
	if err != nil {
		return a.fail(op, err)
	}
	return v - a.reg.analog[idx].calib.Load()>>calibExtraBits, nil
}

// AnalogReadCalibratedHR is AnalogReadCalibrated with the baseline's extra
// precision kept: the result is scaled by 16.
func (a *ADI) AnalogReadCalibratedHR(ctx context.Context, port int) (int32, error) {
	const op = "analog_read_calibrated_hr"
	idx, err := a.checked(ctx, port, analogFamily)
	if err != nil {
		return a.fail(op, err)
	}
	v, err := a.reg.analogGet(ctx, idx)
	if err != nil {
		return a.fail(op, err)
	}
	return v<<calibExtraBits - a.reg.analog[idx].calib.Load(), nil
}

// AnalogState returns the calibration bookkeeping for port.
func (a *ADI) AnalogState(port int) (AnalogState, error) {
	idx, err := PortIndex(port)
	if err != nil {
		_, err = a.fail("analog_state", err)
		return AnalogState{}, err
	}
	return a.reg.snapshot(idx), nil
}
