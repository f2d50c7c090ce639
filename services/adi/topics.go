package adi

import "adicode-go/bus"

// Opaque-topic helpers

func topicConfigADI() bus.Topic { return bus.T("config", "adi") }
func topicState() bus.Topic     { return bus.T("adi", "state") }

// adi/port/<n>/config, n is 1-based
func topicPortConfig(n int) bus.Topic { return bus.T("adi", "port", n, "config") }

// adi/port/+/control/+
func portCtrlWildcard() bus.Topic {
	return bus.T("adi", "port", bus.SingleWild, "control", bus.SingleWild)
}

// adi/<kind>/control/init and adi/<kind>/<h>/control/<verb>
func twoWireInit(kind string) bus.Topic { return bus.T("adi", kind, "control", "init") }
func twoWireCtrl(kind string, h int, verb string) bus.Topic {
	return bus.T("adi", kind, h, "control", verb)
}
func twoWireWildcard(kind string) bus.Topic {
	return bus.T("adi", kind, bus.SingleWild, "control", bus.SingleWild)
}

// PortControl builds adi/port/<n>/control/<verb> for callers.
func PortControl(n int, verb string) bus.Topic { return bus.T("adi", "port", n, "control", verb) }

// EncoderControl and UltrasonicControl address handle h; h < 0 addresses init.
func EncoderControl(h int, verb string) bus.Topic {
	if h < 0 {
		return twoWireInit(kindEncoder)
	}
	return twoWireCtrl(kindEncoder, h, verb)
}

func UltrasonicControl(h int, verb string) bus.Topic {
	if h < 0 {
		return twoWireInit(kindUltrasonic)
	}
	return twoWireCtrl(kindUltrasonic, h, verb)
}
