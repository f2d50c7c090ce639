package types

import (
	"strconv"

	"adicode-go/errcode"
)

// NumPorts is the number of logical ports on one ADI expander.
const NumPorts = 8

// PortConfig is the device type a port is configured as. Values match the
// platform's wire enumeration.
type PortConfig uint8

const (
	AnalogIn            PortConfig = 0
	AnalogOut           PortConfig = 1
	DigitalIn           PortConfig = 2
	DigitalOut          PortConfig = 3
	SmartButton         PortConfig = 4
	SmartPot            PortConfig = 5
	LegacyButton        PortConfig = 6
	LegacyPot           PortConfig = 7
	LegacyLineSensor    PortConfig = 8
	LegacyLightSensor   PortConfig = 9
	LegacyGyro          PortConfig = 10
	LegacyAccelerometer PortConfig = 11
	LegacyServo         PortConfig = 12
	LegacyPWM           PortConfig = 13
	LegacyEncoder       PortConfig = 14
	LegacyUltrasonic    PortConfig = 15

	Undefined PortConfig = 255 // unconfigured
)

var portConfigNames = map[PortConfig]string{
	AnalogIn:            "analog_in",
	AnalogOut:           "analog_out",
	DigitalIn:           "digital_in",
	DigitalOut:          "digital_out",
	SmartButton:         "smart_button",
	SmartPot:            "smart_pot",
	LegacyButton:        "legacy_button",
	LegacyPot:           "legacy_pot",
	LegacyLineSensor:    "legacy_line_sensor",
	LegacyLightSensor:   "legacy_light_sensor",
	LegacyGyro:          "legacy_gyro",
	LegacyAccelerometer: "legacy_accelerometer",
	LegacyServo:         "legacy_servo",
	LegacyPWM:           "legacy_pwm",
	LegacyEncoder:       "legacy_encoder",
	LegacyUltrasonic:    "legacy_ultrasonic",
	Undefined:           "undefined",
}

func (c PortConfig) String() string {
	if s, ok := portConfigNames[c]; ok {
		return s
	}
	return "port_config(" + strconv.Itoa(int(c)) + ")"
}

// Valid reports whether c is a known configuration.
func (c PortConfig) Valid() bool {
	_, ok := portConfigNames[c]
	return ok
}

// ParsePortConfig is the inverse of PortConfig.String.
func ParsePortConfig(s string) (PortConfig, error) {
	for c, name := range portConfigNames {
		if name == s {
			return c, nil
		}
	}
	return Undefined, errcode.InvalidArgument
}

// PinMode is the Arduino-style mode accepted by the pin_mode shim.
type PinMode uint8

const (
	Input        PinMode = 0x00
	Output       PinMode = 0x01
	InputAnalog  PinMode = 0x02
	OutputAnalog PinMode = 0x03
)

// ParsePinMode maps "input", "output", "input_analog", "output_analog".
func ParsePinMode(s string) (PinMode, error) {
	switch s {
	case "input":
		return Input, nil
	case "output":
		return Output, nil
	case "input_analog":
		return InputAnalog, nil
	case "output_analog":
		return OutputAnalog, nil
	default:
		return 0, errcode.InvalidArgument
	}
}

// AnalogType distinguishes plain analog inputs from gyros.
type AnalogType uint8

const (
	AnalogPlain AnalogType = iota
	AnalogGyro
)

// ParsePortID converts "1".."8" or a single letter into the raw port
// identifier the ADI API accepts. Range checking happens at use.
func ParsePortID(s string) (int, error) {
	if len(s) == 1 {
		ch := s[0]
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') {
			return int(ch), nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errcode.InvalidPort
	}
	return n, nil
}
