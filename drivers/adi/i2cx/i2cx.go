// Package i2cx reaches an ADI expander through an I²C register window.
//
// Register map: configuration of port p at 0x00+p (one byte), value of
// port p at 0x10+4p (int32, little-endian).
package i2cx

import (
	"encoding/binary"

	"adicode-go/drivers/adi"
	"adicode-go/errcode"
	"adicode-go/types"

	"tinygo.org/x/drivers"
)

const (
	DefaultAddress = 0x30

	regConfig = 0x00
	regValue  = 0x10
)

// Ensure compile-time conformance with adi.Transport.
var _ adi.Transport = (*Device)(nil)

type Device struct {
	bus     drivers.I2C
	Address uint16

	w [5]byte
	r [4]byte
}

func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, Address: DefaultAddress}
}

func (d *Device) ConfigSet(port int, cfg types.PortConfig) error {
	if err := check(port); err != nil {
		return err
	}
	d.w[0] = regConfig + byte(port)
	d.w[1] = byte(cfg)
	return d.tx("config_set", d.w[:2], nil)
}

func (d *Device) ConfigGet(port int) (types.PortConfig, error) {
	if err := check(port); err != nil {
		return types.Undefined, err
	}
	d.w[0] = regConfig + byte(port)
	if err := d.tx("config_get", d.w[:1], d.r[:1]); err != nil {
		return types.Undefined, err
	}
	return types.PortConfig(d.r[0]), nil
}

func (d *Device) ValueSet(port int, v int32) error {
	if err := check(port); err != nil {
		return err
	}
	d.w[0] = valueReg(port)
	binary.LittleEndian.PutUint32(d.w[1:], uint32(v))
	return d.tx("value_set", d.w[:5], nil)
}

func (d *Device) ValueGet(port int) (int32, error) {
	if err := check(port); err != nil {
		return 0, err
	}
	d.w[0] = valueReg(port)
	if err := d.tx("value_get", d.w[:1], d.r[:4]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(d.r[:4])), nil
}

func (d *Device) tx(op string, w, r []byte) error {
	if err := d.bus.Tx(d.Address, w, r); err != nil {
		c := errcode.Of(err)
		if c == errcode.OK {
			c = errcode.Error
		}
		return &errcode.E{C: c, Op: "i2c " + op, Err: err}
	}
	return nil
}

func valueReg(port int) byte { return regValue + 4*byte(port) }

func check(port int) error {
	if port < 0 || port >= types.NumPorts {
		return errcode.InvalidPort
	}
	return nil
}
