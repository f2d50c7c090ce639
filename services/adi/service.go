// Package adi exposes an ADI expander on the bus. Layouts arrive on
// config/adi; controls arrive on adi/port/<n>/control/<verb> and the
// encoder and ultrasonic control trees, and are answered with
// types.ADIReply.
package adi

import (
	"context"

	"adicode-go/bus"
	adicore "adicode-go/drivers/adi"
	"adicode-go/errcode"
	"adicode-go/types"
	"adicode-go/x/timex"
)

const (
	kindEncoder    = "encoder"
	kindUltrasonic = "ultrasonic"

	// Result of a background calibration, handed back to the loop.
	calibQueueLen = 4
)

type calibDone struct {
	msg *bus.Message
	v   int32
	err error
}

type Service struct {
	conn *bus.Connection
	adi  *adicore.ADI

	cfgSub  *bus.Subscription
	portSub *bus.Subscription
	encSub  *bus.Subscription
	encInit *bus.Subscription
	ultSub  *bus.Subscription
	ultInit *bus.Subscription

	calibCh chan calibDone
	ready   bool
}

func New(conn *bus.Connection, a *adicore.ADI) *Service {
	return &Service{
		conn:    conn,
		adi:     a,
		calibCh: make(chan calibDone, calibQueueLen),
	}
}

// Run serves until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	s.cfgSub = s.conn.Subscribe(topicConfigADI())
	s.portSub = s.conn.Subscribe(portCtrlWildcard())
	s.encSub = s.conn.Subscribe(twoWireWildcard(kindEncoder))
	s.encInit = s.conn.Subscribe(twoWireInit(kindEncoder))
	s.ultSub = s.conn.Subscribe(twoWireWildcard(kindUltrasonic))
	s.ultInit = s.conn.Subscribe(twoWireInit(kindUltrasonic))
	defer func() {
		for _, sub := range []*bus.Subscription{s.cfgSub, s.portSub, s.encSub, s.encInit, s.ultSub, s.ultInit} {
			s.conn.Unsubscribe(sub)
		}
	}()

	s.pubState("idle", "awaiting_config")
	for {
		select {
		case <-ctx.Done():
			s.pubState("stopped", "context_cancelled")
			return
		case msg := <-s.cfgSub.Channel():
			cfg, err := decode[types.ADIConfig](msg.Payload)
			if err == nil {
				err = cfg.Validate()
			}
			if err != nil {
				println("[adi-svc] rejected config:", err.Error())
				continue
			}
			s.applyConfig(ctx, cfg)
			if !s.ready {
				s.ready = true
				s.pubState("ready", "")
			}
		case m := <-s.portSub.Channel():
			if s.gate(m) {
				s.handlePort(ctx, m)
			}
		case m := <-s.encInit.Channel():
			if s.gate(m) {
				s.handleEncoderInit(ctx, m)
			}
		case m := <-s.encSub.Channel():
			if s.gate(m) {
				s.handleEncoder(ctx, m)
			}
		case m := <-s.ultInit.Channel():
			if s.gate(m) {
				s.handleUltrasonicInit(ctx, m)
			}
		case m := <-s.ultSub.Channel():
			if s.gate(m) {
				s.handleUltrasonic(ctx, m)
			}
		case d := <-s.calibCh:
			s.reply(d.msg, d.v, d.err)
		}
	}
}

// gate rejects controls until a layout has been applied.
func (s *Service) gate(m *bus.Message) bool {
	if !s.ready {
		s.replyErr(m, errcode.HALNotReady)
	}
	return s.ready
}

// applyConfig is additive: ports not named keep their configuration.
// Failures are logged and the rest of the layout still applies.
func (s *Service) applyConfig(ctx context.Context, cfg types.ADIConfig) {
	for _, p := range cfg.Ports {
		id, _ := types.ParsePortID(p.Port)
		pc, _ := types.ParsePortConfig(p.Type)
		if _, err := s.adi.SetPortConfig(ctx, id, pc); err != nil {
			println("[adi-svc] port", p.Port, "config failed:", err.Error())
		}
	}
	for _, e := range cfg.Encoders {
		top, _ := types.ParsePortID(e.Top)
		bot, _ := types.ParsePortID(e.Bottom)
		h, err := s.adi.EncoderInit(ctx, top, bot, e.Reverse)
		if err != nil {
			println("[adi-svc] encoder", e.Top, e.Bottom, "failed:", err.Error())
			continue
		}
		println("[adi-svc] encoder handle", int(h))
	}
	for _, u := range cfg.Ultrasonics {
		echo, _ := types.ParsePortID(u.Echo)
		ping, _ := types.ParsePortID(u.Ping)
		h, err := s.adi.UltrasonicInit(ctx, echo, ping)
		if err != nil {
			println("[adi-svc] ultrasonic", u.Echo, u.Ping, "failed:", err.Error())
			continue
		}
		println("[adi-svc] ultrasonic handle", int(h))
	}
	for _, id := range cfg.Calibrate {
		port, _ := types.ParsePortID(id)
		v, err := s.adi.AnalogCalibrate(ctx, port)
		if err != nil {
			println("[adi-svc] calibrate", id, "failed:", err.Error())
			continue
		}
		println("[adi-svc] calibrated", id, "average", int(v))
	}
	s.pubPorts(ctx)
}

// pubPorts publishes the read-back configuration of every port, retained.
func (s *Service) pubPorts(ctx context.Context) {
	ports, err := s.adi.Ports(ctx)
	if err != nil {
		println("[adi-svc] port readback failed:", err.Error())
		return
	}
	now := timex.NowMs()
	for i, pc := range ports {
		s.conn.Publish(s.conn.NewMessage(
			topicPortConfig(i+1),
			types.PortState{Port: i + 1, Config: pc.String(), TS: now},
			true,
		))
	}
}

func (s *Service) pubState(level, status string) {
	s.conn.Publish(s.conn.NewMessage(
		topicState(),
		types.ADIState{Level: level, Status: status, TS: timex.NowMs()},
		true,
	))
}

// -----------------------------------------------------------------------------
// Replies
// -----------------------------------------------------------------------------

func (s *Service) reply(m *bus.Message, v int32, err error) {
	if err != nil {
		s.replyErr(m, errcode.Of(err))
		return
	}
	if m.CanReply() {
		s.conn.Reply(m, types.ADIReply{OK: true, Value: v}, false)
	}
}

func (s *Service) replyErr(m *bus.Message, code errcode.Code) {
	if !m.CanReply() {
		return
	}
	if code == "" || code == errcode.OK {
		code = errcode.Error
	}
	s.conn.Reply(m, types.ADIReply{OK: false, Error: string(code)}, false)
}
