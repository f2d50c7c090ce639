package adi

import (
	"context"

	"adicode-go/bus"
	adicore "adicode-go/drivers/adi"
	"adicode-go/errcode"
	"adicode-go/types"
)

// configVerbs change port configuration; the retained port state is
// republished before the reply goes out.
var configVerbs = map[string]bool{
	"config_set": true,
	"pin_mode":   true,
}

// handlePort serves adi/port/<n>/control/<verb>.
func (s *Service) handlePort(ctx context.Context, m *bus.Message) {
	port, err := portToken(m.Topic.At(2))
	if err != nil {
		s.replyErr(m, errcode.Of(err))
		return
	}
	verb, _ := m.Topic.At(4).(string)

	var v int32
	switch verb {
	case "config_set":
		p, derr := decode[types.ConfigSet](m.Payload)
		if derr != nil {
			s.replyErr(m, errcode.InvalidPayload)
			return
		}
		cfg, perr := types.ParsePortConfig(p.Type)
		if perr != nil {
			s.replyErr(m, errcode.InvalidArgument)
			return
		}
		v, err = s.adi.SetPortConfig(ctx, port, cfg)
	case "config_get":
		var cfg types.PortConfig
		cfg, err = s.adi.GetPortConfig(ctx, port)
		v = int32(cfg)
	case "value_get":
		v, err = s.adi.ValueGet(ctx, port)
	case "value_set":
		p, derr := decode[types.ValueSet](m.Payload)
		if derr != nil {
			s.replyErr(m, errcode.InvalidPayload)
			return
		}
		v, err = s.adi.ValueSet(ctx, port, p.Value)
	case "analog_read":
		v, err = s.adi.AnalogRead(ctx, port)
	case "analog_calibrate":
		s.calibrate(ctx, m, port)
		return
	case "analog_read_calibrated":
		v, err = s.adi.AnalogReadCalibrated(ctx, port)
	case "analog_read_calibrated_hr":
		v, err = s.adi.AnalogReadCalibratedHR(ctx, port)
	case "digital_read":
		v, err = s.adi.DigitalRead(ctx, port)
	case "digital_write":
		p, derr := decode[types.DigitalWrite](m.Payload)
		if derr != nil {
			s.replyErr(m, errcode.InvalidPayload)
			return
		}
		v, err = s.adi.DigitalWrite(ctx, port, p.Value)
	case "pin_mode":
		p, derr := decode[types.PinModeSet](m.Payload)
		if derr != nil {
			s.replyErr(m, errcode.InvalidPayload)
			return
		}
		mode, perr := types.ParsePinMode(p.Mode)
		if perr != nil {
			s.replyErr(m, errcode.InvalidArgument)
			return
		}
		v, err = s.adi.PinMode(ctx, port, mode)
	case "motor_set":
		p, derr := decode[types.MotorSet](m.Payload)
		if derr != nil {
			s.replyErr(m, errcode.InvalidPayload)
			return
		}
		v, err = s.adi.MotorSet(ctx, port, p.Speed)
	case "motor_get":
		v, err = s.adi.MotorGet(ctx, port)
	case "motor_stop":
		v, err = s.adi.MotorStop(ctx, port)
	default:
		s.replyErr(m, errcode.Unsupported)
		return
	}
	if err == nil && configVerbs[verb] {
		s.pubPorts(ctx)
	}
	s.reply(m, v, err)
}

// calibrate samples in the background; the reply is sent from the loop.
func (s *Service) calibrate(ctx context.Context, m *bus.Message, port int) {
	go func() {
		v, err := s.adi.AnalogCalibrate(ctx, port)
		select {
		case s.calibCh <- calibDone{msg: m, v: v, err: err}:
		case <-ctx.Done():
		}
	}()
}

// -----------------------------------------------------------------------------
// Two-wire devices
// -----------------------------------------------------------------------------

func (s *Service) handleEncoderInit(ctx context.Context, m *bus.Message) {
	p, err := decode[types.EncoderInit](m.Payload)
	if err != nil {
		s.replyErr(m, errcode.InvalidPayload)
		return
	}
	top, err1 := types.ParsePortID(p.Top)
	bot, err2 := types.ParsePortID(p.Bottom)
	if err1 != nil || err2 != nil {
		s.replyErr(m, errcode.InvalidPort)
		return
	}
	h, err := s.adi.EncoderInit(ctx, top, bot, p.Reverse)
	if err == nil {
		s.pubPorts(ctx)
	}
	s.reply(m, int32(h), err)
}

// handleEncoder serves adi/encoder/<h>/control/{get,reset,shutdown}.
func (s *Service) handleEncoder(ctx context.Context, m *bus.Message) {
	h, err := handleToken(m.Topic.At(2))
	if err != nil {
		s.replyErr(m, errcode.InvalidTopic)
		return
	}
	enc := adicore.Encoder(h)
	var v int32
	switch verb, _ := m.Topic.At(4).(string); verb {
	case "get":
		v, err = s.adi.EncoderGet(ctx, enc)
	case "reset":
		v, err = s.adi.EncoderReset(ctx, enc)
	case "shutdown":
		v, err = s.adi.EncoderShutdown(ctx, enc)
		if err == nil {
			s.pubPorts(ctx)
		}
	default:
		s.replyErr(m, errcode.Unsupported)
		return
	}
	s.reply(m, v, err)
}

func (s *Service) handleUltrasonicInit(ctx context.Context, m *bus.Message) {
	p, err := decode[types.UltrasonicInit](m.Payload)
	if err != nil {
		s.replyErr(m, errcode.InvalidPayload)
		return
	}
	echo, err1 := types.ParsePortID(p.Echo)
	ping, err2 := types.ParsePortID(p.Ping)
	if err1 != nil || err2 != nil {
		s.replyErr(m, errcode.InvalidPort)
		return
	}
	h, err := s.adi.UltrasonicInit(ctx, echo, ping)
	if err == nil {
		s.pubPorts(ctx)
	}
	s.reply(m, int32(h), err)
}

// handleUltrasonic serves adi/ultrasonic/<h>/control/{get,shutdown}.
func (s *Service) handleUltrasonic(ctx context.Context, m *bus.Message) {
	h, err := handleToken(m.Topic.At(2))
	if err != nil {
		s.replyErr(m, errcode.InvalidTopic)
		return
	}
	ult := adicore.Ultrasonic(h)
	var v int32
	switch verb, _ := m.Topic.At(4).(string); verb {
	case "get":
		v, err = s.adi.UltrasonicGet(ctx, ult)
	case "shutdown":
		v, err = s.adi.UltrasonicShutdown(ctx, ult)
		if err == nil {
			s.pubPorts(ctx)
		}
	default:
		s.replyErr(m, errcode.Unsupported)
		return
	}
	s.reply(m, v, err)
}
