package adi

import (
	"context"
	"strconv"

	"adicode-go/errcode"
	"adicode-go/types"
)

// configSet is the set of configurations an operation family accepts.
type configSet []types.PortConfig

func (s configSet) has(c types.PortConfig) bool {
	for _, x := range s {
		if x == c {
			return true
		}
	}
	return false
}

var (
	analogFamily = configSet{
		types.AnalogIn, types.LegacyPot, types.LegacyLineSensor,
		types.LegacyLightSensor, types.LegacyAccelerometer, types.SmartPot,
	}
	digitalInFamily = configSet{types.DigitalIn, types.LegacyButton, types.SmartButton}
	digitalOutOnly  = configSet{types.DigitalOut}
	motorFamily     = configSet{types.LegacyPWM, types.LegacyServo}
	encoderOnly     = configSet{types.LegacyEncoder}
	ultrasonicOnly  = configSet{types.LegacyUltrasonic}
)

// validate fails with ConfigMismatch unless the configuration of idx is in
// allowed. It only reads configuration; no value is touched.
func (r *registry) validate(ctx context.Context, idx int, allowed configSet) error {
	cfg, err := r.getConfig(ctx, idx)
	if err != nil {
		return err
	}
	if !allowed.has(cfg) {
		return &errcode.E{
			C:   errcode.ConfigMismatch,
			Msg: "port " + strconv.Itoa(idx+1) + " is " + cfg.String(),
		}
	}
	return nil
}
