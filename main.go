//go:build rp2040 || rp2350

package main

import (
	"context"
	"time"

	"adicode-go/bus"
	"adicode-go/drivers/adi"
	"adicode-go/drivers/adi/i2cx"
	"adicode-go/drivers/adi/serialx"
	"adicode-go/services/config"
	adisvc "adicode-go/services/adi"
	"adicode-go/types"

	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// The expander is on i2c0 unless linkUART selects the serial bridge on uart1.
const (
	linkUART = false
	device   = "bench"
)

func transport() (adi.Transport, error) {
	if linkUART {
		l, err := serialx.OpenUART(uartx.UART1, 115200, machine.GP4, machine.GP5, 50*time.Millisecond)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	b := machine.I2C0
	if err := b.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	}); err != nil {
		return nil, err
	}
	return i2cx.New(b), nil
}

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	ctx := context.Background()
	b := bus.NewBus(8)
	ui := b.NewConnection("ui")

	tr, err := transport()
	if err != nil {
		println("[main] transport:", err.Error())
		for {
			time.Sleep(time.Hour)
		}
	}
	svc := adisvc.New(b.NewConnection("adi"), adi.New(adi.NewFacade(tr)))
	go svc.Run(ctx)

	cfgCtx := context.WithValue(ctx, config.CtxDeviceKey, device)
	config.NewConfigService("").Start(cfgCtx, b.NewConnection("config"))

	state := ui.Subscribe(bus.T("adi", "state"))
	go func() {
		for m := range state.Channel() {
			if st, ok := m.Payload.(types.ADIState); ok {
				println("[main] adi", st.Level, st.Status)
			}
		}
	}()

	// Heartbeat with the first digital input.
	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()
	for t := range tick.C {
		rctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
		r, err := ui.RequestWait(rctx, ui.NewMessage(adisvc.PortControl(1, "digital_read"), nil, false))
		cancel()
		if err != nil {
			println(t.Format("15:04:05"), "Heartbeat")
			continue
		}
		if rep, ok := r.Payload.(types.ADIReply); ok && rep.OK {
			println(t.Format("15:04:05"), "Heartbeat port 1 =", int(rep.Value))
		} else if ok {
			println(t.Format("15:04:05"), "Heartbeat", rep.Error)
		}
	}
}
