//go:build rp2040 || rp2350

package serialx

import (
	"context"
	"machine"
	"time"

	"adicode-go/errcode"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// uartPort adapts a uartx UART to the link's io.ReadWriter. A read that
// sees nothing before timeout returns (0, nil).
type uartPort struct {
	u       *uartx.UART
	timeout time.Duration
}

func (p *uartPort) Write(b []byte) (int, error) { return p.u.Write(b) }

func (p *uartPort) Read(b []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	n, err := p.u.RecvSomeContext(ctx, b)
	if n == 0 && ctx.Err() != nil {
		return 0, nil
	}
	return n, err
}

// OpenUART configures u and returns a link over it.
func OpenUART(u *uartx.UART, baud uint32, tx, rx machine.Pin, timeout time.Duration) (*Link, error) {
	// Defaults inside uartx apply if baud is zero.
	if err := u.Configure(uartx.UARTConfig{BaudRate: baud, TX: tx, RX: rx}); err != nil {
		return nil, &errcode.E{C: errcode.Error, Op: "uart configure", Err: err}
	}
	if timeout <= 0 {
		timeout = 50 * time.Millisecond
	}
	return NewLink(&uartPort{u: u, timeout: timeout}), nil
}
