package types

import "adicode-go/errcode"

// ADI layout supplied on topic "config/adi".

type ADIConfig struct {
	Ports       []PortSpec       `json:"ports,omitempty" yaml:"ports,omitempty"`
	Encoders    []EncoderSpec    `json:"encoders,omitempty" yaml:"encoders,omitempty"`
	Ultrasonics []UltrasonicSpec `json:"ultrasonics,omitempty" yaml:"ultrasonics,omitempty"`
	Calibrate   []string         `json:"calibrate,omitempty" yaml:"calibrate,omitempty"` // port ids
	PollMs      int              `json:"poll_ms,omitempty" yaml:"poll_ms,omitempty"`     // 0 disables telemetry
}

type PortSpec struct {
	Port string `json:"port" yaml:"port"` // "1".."8" or "A".."H"
	Type string `json:"type" yaml:"type"` // PortConfig name
}

type EncoderSpec struct {
	Top     string `json:"top" yaml:"top"`
	Bottom  string `json:"bottom" yaml:"bottom"`
	Reverse bool   `json:"reverse,omitempty" yaml:"reverse,omitempty"`
}

type UltrasonicSpec struct {
	Echo string `json:"echo" yaml:"echo"`
	Ping string `json:"ping" yaml:"ping"`
}

// Validate checks that every port id parses and every type name is known.
// Range and pairing rules are left to the ADI layer.
func (c ADIConfig) Validate() error {
	for _, p := range c.Ports {
		if _, err := ParsePortID(p.Port); err != nil {
			return &errcode.E{C: errcode.InvalidPort, Op: "config", Msg: p.Port}
		}
		if _, err := ParsePortConfig(p.Type); err != nil {
			return &errcode.E{C: errcode.InvalidArgument, Op: "config", Msg: "unknown type " + p.Type}
		}
	}
	for _, e := range c.Encoders {
		if err := parseIDs("encoder", e.Top, e.Bottom); err != nil {
			return err
		}
	}
	for _, u := range c.Ultrasonics {
		if err := parseIDs("ultrasonic", u.Echo, u.Ping); err != nil {
			return err
		}
	}
	for _, id := range c.Calibrate {
		if _, err := ParsePortID(id); err != nil {
			return &errcode.E{C: errcode.InvalidPort, Op: "config", Msg: id}
		}
	}
	if c.PollMs < 0 {
		return &errcode.E{C: errcode.InvalidArgument, Op: "config", Msg: "negative poll_ms"}
	}
	return nil
}

func parseIDs(what string, ids ...string) error {
	for _, id := range ids {
		if _, err := ParsePortID(id); err != nil {
			return &errcode.E{C: errcode.InvalidPort, Op: "config", Msg: what + " port " + id}
		}
	}
	return nil
}
