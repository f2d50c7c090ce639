// Package telemetry polls configured ADI ports over the bus and publishes
// their readings on adi/port/<n>/value.
package telemetry

import (
	"context"
	"sort"
	"time"

	"adicode-go/bus"
	"adicode-go/types"
	"adicode-go/x/timex"
)

var (
	topicConfigADI = bus.T("config", "adi")
	topicPortCfgs  = bus.T("adi", "port", bus.SingleWild, "config")
)

// readVerb is the control used to sample a port of each configuration.
// Configurations not listed are not polled.
var readVerb = map[string]string{
	"analog_in":            "analog_read",
	"legacy_pot":           "analog_read",
	"legacy_line_sensor":   "analog_read",
	"legacy_light_sensor":  "analog_read",
	"legacy_accelerometer": "analog_read",
	"smart_pot":            "analog_read",
	"digital_in":           "digital_read",
	"legacy_button":        "digital_read",
	"smart_button":         "digital_read",
	"legacy_servo":         "motor_get",
	"legacy_pwm":           "motor_get",
}

type Service struct {
	conn     *bus.Connection
	interval time.Duration
	verbs    map[int]string // 1-based port -> verb
}

func New(conn *bus.Connection) *Service {
	return &Service{conn: conn, verbs: map[int]string{}}
}

func (s *Service) serviceLoop(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfigADI)
	portSub := s.conn.Subscribe(topicPortCfgs)
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(portSub)

	tick := time.NewTicker(time.Hour)
	tick.Stop()
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			println("[telemetry] stopping")
			return
		case msg := <-cfgSub.Channel():
			cfg, ok := msg.Payload.(types.ADIConfig)
			if !ok {
				continue
			}
			s.interval = time.Duration(cfg.PollMs) * time.Millisecond
			if s.interval > 0 {
				tick.Reset(s.interval)
				println("[telemetry] polling every", cfg.PollMs, "ms")
			} else {
				tick.Stop()
			}
		case msg := <-portSub.Channel():
			if st, ok := msg.Payload.(types.PortState); ok {
				if v, ok := readVerb[st.Config]; ok {
					s.verbs[st.Port] = v
				} else {
					delete(s.verbs, st.Port)
				}
			}
		case <-tick.C:
			s.poll(ctx)
		}
	}
}

// poll samples every known port in order. A port that fails to answer
// within half an interval is skipped this round.
func (s *Service) poll(ctx context.Context) {
	ports := make([]int, 0, len(s.verbs))
	for p := range s.verbs {
		ports = append(ports, p)
	}
	sort.Ints(ports)

	for _, p := range ports {
		rctx, cancel := context.WithTimeout(ctx, s.interval/2)
		r, err := s.conn.RequestWait(rctx, s.conn.NewMessage(
			bus.T("adi", "port", p, "control", s.verbs[p]), nil, false))
		cancel()
		if err != nil {
			continue
		}
		rep, ok := r.Payload.(types.ADIReply)
		if !ok || !rep.OK {
			continue
		}
		s.conn.Publish(s.conn.NewMessage(
			bus.T("adi", "port", p, "value"),
			types.PortValue{Port: p, Value: rep.Value, TS: timex.NowMs()},
			false,
		))
	}
}

// Start the telemetry poller.
func (s *Service) Start(ctx context.Context) error {
	go s.serviceLoop(ctx)
	return nil
}
