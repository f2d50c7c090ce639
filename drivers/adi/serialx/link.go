// Package serialx reaches an ADI expander over a framed serial link.
package serialx

import (
	"io"

	"adicode-go/drivers/adi"
	"adicode-go/errcode"
	"adicode-go/types"
)

// Ensure compile-time conformance with adi.Transport.
var _ adi.Transport = (*Link)(nil)

// maxIdleReads bounds consecutive empty reads before a call times out.
const maxIdleReads = 3

// Link runs one request/reply exchange per primitive. The underlying port
// should return (0, nil) or an error when its read timeout elapses.
type Link struct {
	rw  io.ReadWriter
	seq uint8
	buf [FrameLen]byte
}

func NewLink(rw io.ReadWriter) *Link { return &Link{rw: rw} }

// Close closes the underlying port if it can be closed.
func (l *Link) Close() error {
	if c, ok := l.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (l *Link) ConfigSet(port int, cfg types.PortConfig) error {
	_, err := l.call(CmdConfigSet, port, int32(cfg))
	return err
}

func (l *Link) ConfigGet(port int) (types.PortConfig, error) {
	v, err := l.call(CmdConfigGet, port, 0)
	if err != nil {
		return types.Undefined, err
	}
	return types.PortConfig(v), nil
}

func (l *Link) ValueSet(port int, v int32) error {
	_, err := l.call(CmdValueSet, port, v)
	return err
}

func (l *Link) ValueGet(port int) (int32, error) {
	return l.call(CmdValueGet, port, 0)
}

func (l *Link) call(cmd byte, port int, v int32) (int32, error) {
	if port < 0 || port >= types.NumPorts {
		return 0, errcode.InvalidPort
	}
	l.seq++
	seq := l.seq
	Encode(l.buf[:], Frame{Seq: seq, Cmd: cmd, Port: uint8(port), Value: v})
	if _, err := l.rw.Write(l.buf[:]); err != nil {
		return 0, &errcode.E{C: errcode.Error, Op: "serial write", Err: err}
	}

	for {
		f, err := l.readFrame()
		if err != nil {
			return 0, err
		}
		if f.Seq != seq {
			// Late reply to an earlier, timed-out request.
			continue
		}
		switch f.Cmd {
		case cmd | ReplyBit:
			return f.Value, nil
		case CmdError:
			return 0, remoteErr(f.Value)
		default:
			return 0, &errcode.E{C: errcode.Error, Op: "serial", Msg: "unexpected reply command"}
		}
	}
}

// readFrame hunts for the sync byte and reads the rest of one frame.
func (l *Link) readFrame() (Frame, error) {
	if err := l.fill(l.buf[:1], true); err != nil {
		return Frame{}, err
	}
	if err := l.fill(l.buf[1:], false); err != nil {
		return Frame{}, err
	}
	f, err := Decode(l.buf[:])
	if err != nil {
		return Frame{}, &errcode.E{C: errcode.Error, Op: "serial read", Err: err}
	}
	return f, nil
}

// fill reads exactly len(p) bytes. With hunt set it discards bytes until the
// first byte read is Sync.
func (l *Link) fill(p []byte, hunt bool) error {
	idle := 0
	for n := 0; n < len(p); {
		m, err := l.rw.Read(p[n:])
		if err != nil && m == 0 {
			if err == io.EOF {
				return errcode.Timeout
			}
			return &errcode.E{C: errcode.Error, Op: "serial read", Err: err}
		}
		if m == 0 {
			idle++
			if idle >= maxIdleReads {
				return errcode.Timeout
			}
			continue
		}
		idle = 0
		if hunt && p[0] != Sync {
			continue
		}
		n += m
	}
	return nil
}

func remoteErr(v int32) error {
	switch v {
	case ErrRemotePort:
		return errcode.InvalidPort
	case ErrRemoteUnsupported:
		return errcode.Unsupported
	default:
		return &errcode.E{C: errcode.Error, Op: "serial", Msg: "remote error"}
	}
}
