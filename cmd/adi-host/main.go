// cmd/adi-host runs the ADI service on a host against one of the
// transports: an in-memory simulator, a serial bridge, an I²C expander or
// a bank of GPIO lines.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	"adicode-go/bus"
	"adicode-go/drivers/adi"
	"adicode-go/drivers/adi/gpiox"
	"adicode-go/drivers/adi/i2cx"
	"adicode-go/drivers/adi/serialx"
	"adicode-go/drivers/adi/sim"
	"adicode-go/services/config"
	adisvc "adicode-go/services/adi"
	"adicode-go/types"
	"adicode-go/x/ramp"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

func printTopic(prefix string, t bus.Topic) {
	var sb strings.Builder
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			sb.WriteByte('/')
		}
		switch v := t.At(i).(type) {
		case string:
			sb.WriteString(v)
		case int:
			sb.WriteString(itoa(v))
		default:
			sb.WriteByte('?')
		}
	}
	println(prefix, sb.String())
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	b := len(buf)
	for i > 0 {
		b--
		buf[b] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		b--
		buf[b] = '-'
	}
	return string(buf[b:])
}

func fatal(msg string, err error) {
	println("[main]", msg+":", err.Error())
	os.Exit(1)
}

// simTransport drives analog port A with a triangle wave.
func simTransport(ctx context.Context) adi.Transport {
	exp := sim.New()
	var level atomic.Int32
	exp.Drive(0, level.Load)
	go ramp.Triangle(0, 4095, 2*time.Second, 64,
		func(d time.Duration) bool {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(d):
				return true
			}
		},
		level.Store)
	return exp
}

func openTransport(ctx context.Context, kind, dev string, baud int, i2cBus string, addr uint, pins string) (adi.Transport, func()) {
	noop := func() {}
	switch kind {
	case "sim":
		return simTransport(ctx), noop
	case "serial":
		cfg := serialx.DefaultConfig(dev)
		if baud > 0 {
			cfg.Baud = baud
		}
		l, err := serialx.Open(cfg)
		if err != nil {
			fatal("serial", err)
		}
		return l, func() { _ = l.Close() }
	case "i2c":
		if _, err := host.Init(); err != nil {
			fatal("periph init", err)
		}
		b, err := i2creg.Open(i2cBus)
		if err != nil {
			fatal("i2c open", err)
		}
		d := i2cx.New(b)
		d.Address = uint16(addr)
		return d, func() { _ = b.Close() }
	case "gpio":
		var names [types.NumPorts]string
		for i, n := range strings.Split(pins, ",") {
			if i < len(names) {
				names[i] = strings.TrimSpace(n)
			}
		}
		bank, err := gpiox.Open(names)
		if err != nil {
			fatal("gpio", err)
		}
		return bank, noop
	}
	println("[main] unknown transport:", kind)
	os.Exit(2)
	return nil, noop
}

func main() {
	var (
		transport = flag.String("transport", "sim", "sim, serial, i2c or gpio")
		dev       = flag.String("dev", "/dev/ttyACM0", "serial device")
		baud      = flag.Int("baud", 115200, "serial baud rate")
		i2cBus    = flag.String("i2c", "", "I²C bus name (empty for the first bus)")
		addr      = flag.Uint("addr", i2cx.DefaultAddress, "I²C expander address")
		pins      = flag.String("pins", "", "comma-separated GPIO names for ports 1..8")
		cfgPath   = flag.String("config", "", "layout file (.yaml, .yml or .json)")
		device    = flag.String("device", "sim", "embedded layout when -config is empty")
		monitor   = flag.Bool("monitor", true, "print adi/# traffic")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	t, closeT := openTransport(ctx, *transport, *dev, *baud, *i2cBus, *addr, *pins)
	defer closeT()

	println("[main] bootstrapping bus …")
	b := bus.NewBus(16)
	ui := b.NewConnection("ui")

	if *monitor {
		mon := ui.Subscribe(bus.T("adi", bus.MultiWild))
		go func() {
			for m := range mon.Channel() {
				printTopic("[monitor] <-", m.Topic)
			}
		}()
	}

	svc := adisvc.New(b.NewConnection("adi"), adi.New(adi.NewFacade(t)))
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	cfgCtx := context.WithValue(ctx, config.CtxDeviceKey, *device)
	if err := config.NewConfigService(*cfgPath).Publish(cfgCtx, b.NewConnection("config")); err != nil {
		fatal("config", err)
	}

	// Periodic readout of port A once the layout is applied.
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			<-done
			println("[main] stopped")
			return
		case <-tick.C:
			rctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
			r, err := ui.RequestWait(rctx, ui.NewMessage(adisvc.PortControl(1, "analog_read"), nil, false))
			cancel()
			if err != nil {
				continue
			}
			if rep, ok := r.Payload.(types.ADIReply); ok {
				if rep.OK {
					println("[main] port 1:", int(rep.Value))
				} else {
					println("[main] port 1:", rep.Error)
				}
			}
		}
	}
}
