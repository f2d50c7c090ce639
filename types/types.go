package types

// ---- Service state (retained on adi/state) ----

type ADIState struct {
	Level  string `json:"level"`  // "idle", "ready", "stopped"
	Status string `json:"status"` // freeform short code
	TS     int64  `json:"ts_ms"`
}

// PortState is published retained on adi/port/<n>/config.
type PortState struct {
	Port   int    `json:"port"` // 1-based
	Config string `json:"config"`
	TS     int64  `json:"ts_ms"`
}

// PortValue is published on adi/port/<n>/value by the telemetry poller.
type PortValue struct {
	Port  int   `json:"port"` // 1-based
	Value int32 `json:"value"`
	TS    int64 `json:"ts_ms"`
}

// ---- Replies ----

type ADIReply struct {
	OK    bool   `json:"ok"`
	Value int32  `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// ---- Control payloads ----

type ConfigSet struct {
	Type string `json:"type"`
}

type ValueSet struct {
	Value int32 `json:"value"`
}

type DigitalWrite struct {
	Value bool `json:"value"`
}

type PinModeSet struct {
	Mode string `json:"mode"`
}

type MotorSet struct {
	Speed int `json:"speed"`
}

type EncoderInit struct {
	Top     string `json:"top"`
	Bottom  string `json:"bottom"`
	Reverse bool   `json:"reverse,omitempty"`
}

type UltrasonicInit struct {
	Echo string `json:"echo"`
	Ping string `json:"ping"`
}
