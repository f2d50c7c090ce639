// Package gpiox backs ADI ports with host GPIO lines through periph.io.
// Only the digital configurations are supported; GPIO has no configuration
// readback, so the configuration of each port is shadowed here.
package gpiox

import (
	"sync"

	"adicode-go/drivers/adi"
	"adicode-go/errcode"
	"adicode-go/types"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Ensure compile-time conformance with adi.Transport.
var _ adi.Transport = (*Bank)(nil)

// Bank maps the eight ports onto GPIO pins. Unmapped ports are nil.
type Bank struct {
	mu   sync.Mutex
	pins [types.NumPorts]gpio.PinIO
	cfg  [types.NumPorts]types.PortConfig
}

// Open initialises the periph host drivers and resolves pin names such as
// "GPIO17". An empty name leaves the port unmapped.
func Open(names [types.NumPorts]string) (*Bank, error) {
	if _, err := host.Init(); err != nil {
		return nil, &errcode.E{C: errcode.Error, Op: "gpio init", Err: err}
	}
	var pins [types.NumPorts]gpio.PinIO
	for i, n := range names {
		if n == "" {
			continue
		}
		p := gpioreg.ByName(n)
		if p == nil {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "gpio open", Msg: "unknown pin " + n}
		}
		pins[i] = p
	}
	return NewBank(pins), nil
}

// NewBank wraps already-resolved pins.
func NewBank(pins [types.NumPorts]gpio.PinIO) *Bank {
	b := &Bank{pins: pins}
	for i := range b.cfg {
		b.cfg[i] = types.Undefined
	}
	return b
}

func (b *Bank) ConfigSet(port int, cfg types.PortConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.pin(port)
	if err != nil {
		return err
	}
	switch cfg {
	case types.DigitalIn, types.LegacyButton, types.SmartButton:
		err = p.In(gpio.PullUp, gpio.NoEdge)
	case types.DigitalOut:
		err = p.Out(gpio.Low)
	case types.Undefined:
		err = p.In(gpio.Float, gpio.NoEdge)
	default:
		return errcode.Unsupported
	}
	if err != nil {
		return &errcode.E{C: errcode.Error, Op: "gpio config", Err: err}
	}
	b.cfg[port] = cfg
	return nil
}

func (b *Bank) ConfigGet(port int) (types.PortConfig, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.pin(port); err != nil {
		return types.Undefined, err
	}
	return b.cfg[port], nil
}

func (b *Bank) ValueSet(port int, v int32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.pin(port)
	if err != nil {
		return err
	}
	if b.cfg[port] != types.DigitalOut {
		return errcode.Unsupported
	}
	if err := p.Out(gpio.Level(v != 0)); err != nil {
		return &errcode.E{C: errcode.Error, Op: "gpio out", Err: err}
	}
	return nil
}

func (b *Bank) ValueGet(port int) (int32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.pin(port)
	if err != nil {
		return 0, err
	}
	if p.Read() == gpio.High {
		return 1, nil
	}
	return 0, nil
}

func (b *Bank) pin(port int) (gpio.PinIO, error) {
	if port < 0 || port >= types.NumPorts {
		return nil, errcode.InvalidPort
	}
	if b.pins[port] == nil {
		return nil, errcode.Unsupported
	}
	return b.pins[port], nil
}
