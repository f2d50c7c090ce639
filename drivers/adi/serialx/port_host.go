//go:build !(rp2040 || rp2350)

package serialx

import (
	"time"

	"adicode-go/errcode"

	"github.com/tarm/serial"
)

// Config holds host serial port configuration.
type Config struct {
	// Device path (e.g. "/dev/ttyACM0", "COM3")
	Device string
	Baud   int
	// ReadTimeout bounds each read; a reply that does not arrive within a
	// few timeouts fails the call with errcode.Timeout.
	ReadTimeout time.Duration
}

// DefaultConfig returns 115200 baud with a 50 ms read timeout.
func DefaultConfig(device string) Config {
	return Config{Device: device, Baud: 115200, ReadTimeout: 50 * time.Millisecond}
}

// Open opens a host serial port and returns a link over it.
func Open(cfg Config) (*Link, error) {
	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, &errcode.E{C: errcode.Error, Op: "serial open", Msg: cfg.Device, Err: err}
	}
	return NewLink(p), nil
}
