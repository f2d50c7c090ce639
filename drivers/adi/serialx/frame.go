package serialx

import (
	"encoding/binary"
	"errors"
)

// Frame layout (10 bytes):
//
//	0x7E | seq | cmd | port | value int32 LE | crc16 LE
//
// The CRC covers seq..value.
const (
	FrameLen = 10
	Sync     = 0x7E
)

// Commands. Replies set ReplyBit on the request command, or use CmdError.
const (
	CmdConfigSet byte = 0x01
	CmdConfigGet byte = 0x02
	CmdValueSet  byte = 0x03
	CmdValueGet  byte = 0x04

	ReplyBit byte = 0x80
	CmdError byte = 0xFF
)

// Error values carried by a CmdError reply.
const (
	ErrRemotePort        int32 = 1
	ErrRemoteUnsupported int32 = 2
)

var (
	ErrShortFrame = errors.New("short_frame")
	ErrBadSync    = errors.New("bad_sync")
	ErrBadCRC     = errors.New("bad_crc")
)

type Frame struct {
	Seq   uint8
	Cmd   byte
	Port  uint8
	Value int32
}

// Encode writes f into buf, which must hold FrameLen bytes.
func Encode(buf []byte, f Frame) {
	_ = buf[FrameLen-1]
	buf[0] = Sync
	buf[1] = f.Seq
	buf[2] = f.Cmd
	buf[3] = f.Port
	binary.LittleEndian.PutUint32(buf[4:8], uint32(f.Value))
	binary.LittleEndian.PutUint16(buf[8:10], CRC16(buf[1:8]))
}

// Decode parses one frame from the start of buf.
func Decode(buf []byte) (Frame, error) {
	if len(buf) < FrameLen {
		return Frame{}, ErrShortFrame
	}
	if buf[0] != Sync {
		return Frame{}, ErrBadSync
	}
	if binary.LittleEndian.Uint16(buf[8:10]) != CRC16(buf[1:8]) {
		return Frame{}, ErrBadCRC
	}
	return Frame{
		Seq:   buf[1],
		Cmd:   buf[2],
		Port:  buf[3],
		Value: int32(binary.LittleEndian.Uint32(buf[4:8])),
	}, nil
}

// CRC16 is the CCITT variant used by Klipper-style serial links.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b ^= uint8(crc & 0xFF)
		b ^= b << 4
		b16 := uint16(b)
		crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
	}
	return crc
}
