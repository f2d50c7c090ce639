// Package sim is an in-memory ADI expander for hosts without hardware.
package sim

import (
	"sync"

	"adicode-go/drivers/adi"
	"adicode-go/errcode"
	"adicode-go/types"
)

// Ensure compile-time conformance with adi.Transport.
var _ adi.Transport = (*Expander)(nil)

// Stats counts primitive calls since construction.
type Stats struct {
	ConfigSets uint32
	ConfigGets uint32
	ValueSets  uint32
	ValueGets  uint32
}

// Expander models the port state the real expander keeps. Legacy motor
// ports store speed offset by adi.MotorMaxSpeed, as the hardware does.
type Expander struct {
	mu    sync.Mutex
	cfg   [types.NumPorts]types.PortConfig
	val   [types.NumPorts]int32
	src   [types.NumPorts]func() int32
	stats Stats
}

func New() *Expander {
	e := &Expander{}
	for i := range e.cfg {
		e.cfg[i] = types.Undefined
	}
	return e
}

// Drive attaches a live source to port; reads on it call fn instead of
// returning the stored value. A nil fn detaches.
func (e *Expander) Drive(port int, fn func() int32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if inRange(port) {
		e.src[port] = fn
	}
}

// Poke stores v on port as if the hardware had measured it.
func (e *Expander) Poke(port int, v int32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if inRange(port) {
		e.val[port] = v
	}
}

func (e *Expander) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Expander) ConfigSet(port int, cfg types.PortConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !inRange(port) {
		return errcode.InvalidPort
	}
	e.stats.ConfigSets++
	e.cfg[port] = cfg
	e.val[port] = 0
	if isMotor(cfg) {
		e.val[port] = adi.MotorMaxSpeed
	}
	return nil
}

func (e *Expander) ConfigGet(port int) (types.PortConfig, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !inRange(port) {
		return types.Undefined, errcode.InvalidPort
	}
	e.stats.ConfigGets++
	return e.cfg[port], nil
}

func (e *Expander) ValueSet(port int, v int32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !inRange(port) {
		return errcode.InvalidPort
	}
	e.stats.ValueSets++
	if isMotor(e.cfg[port]) {
		v += adi.MotorMaxSpeed
	}
	e.val[port] = v
	return nil
}

func (e *Expander) ValueGet(port int) (int32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !inRange(port) {
		return 0, errcode.InvalidPort
	}
	e.stats.ValueGets++
	if fn := e.src[port]; fn != nil {
		return fn(), nil
	}
	return e.val[port], nil
}

func inRange(port int) bool { return port >= 0 && port < types.NumPorts }

func isMotor(c types.PortConfig) bool {
	return c == types.LegacyPWM || c == types.LegacyServo
}
