package adi

import (
	"context"
	"errors"
	"testing"
	"time"

	"adicode-go/errcode"
	"adicode-go/types"
)

// ---- Test doubles ----

type call struct {
	op   string
	port int
	v    int32
}

// fakeTransport records every primitive call. Value reads come from next
// when set, else from val.
type fakeTransport struct {
	cfg   [types.NumPorts]types.PortConfig
	val   [types.NumPorts]int32
	next  func(port int) int32
	err   error
	// cfgErr fails ConfigSet without touching the stored configuration.
	cfgErr error
	calls  []call
}

func newFake() *fakeTransport {
	f := &fakeTransport{}
	for i := range f.cfg {
		f.cfg[i] = types.Undefined
	}
	return f
}

func (f *fakeTransport) ConfigSet(port int, cfg types.PortConfig) error {
	f.calls = append(f.calls, call{"config_set", port, int32(cfg)})
	if f.cfgErr != nil {
		return f.cfgErr
	}
	f.cfg[port] = cfg
	return nil
}

func (f *fakeTransport) ConfigGet(port int) (types.PortConfig, error) {
	f.calls = append(f.calls, call{"config_get", port, 0})
	return f.cfg[port], nil
}

func (f *fakeTransport) ValueSet(port int, v int32) error {
	f.calls = append(f.calls, call{"value_set", port, v})
	if f.err != nil {
		return f.err
	}
	f.val[port] = v
	return nil
}

func (f *fakeTransport) ValueGet(port int) (int32, error) {
	f.calls = append(f.calls, call{"value_get", port, 0})
	if f.err != nil {
		return 0, f.err
	}
	if f.next != nil {
		return f.next(port), nil
	}
	return f.val[port], nil
}

// valueCalls counts value reads and writes, the only calls with hardware
// side effects beyond configuration.
func (f *fakeTransport) valueCalls() int {
	n := 0
	for _, c := range f.calls {
		if c.op == "value_get" || c.op == "value_set" {
			n++
		}
	}
	return n
}

func newADI(t *testing.T) (*ADI, *fakeTransport) {
	t.Helper()
	f := newFake()
	return New(NewFacade(f), WithSleep(func(time.Duration) {})), f
}

func wantCode(t *testing.T, err error, want errcode.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", want)
	}
	if got := errcode.Of(err); got != want {
		t.Fatalf("expected %s, got %s (%v)", want, got, err)
	}
}

// ---- Port addressing ----

func TestPortIndexForms(t *testing.T) {
	for n := 1; n <= 8; n++ {
		lower := 'a' + n - 1
		upper := 'A' + n - 1
		for _, id := range []int{n, lower, upper} {
			idx, err := PortIndex(id)
			if err != nil {
				t.Fatalf("PortIndex(%d): %v", id, err)
			}
			if idx != n-1 {
				t.Fatalf("PortIndex(%d)=%d want %d", id, idx, n-1)
			}
		}
	}
}

func TestPortIndexRejects(t *testing.T) {
	for _, id := range []int{0, -1, 9, 20, 'i', 'I', 'z', '@', '`'} {
		if _, err := PortIndex(id); errcode.Of(err) != errcode.InvalidPort {
			t.Fatalf("PortIndex(%d) should fail with invalid_port, got %v", id, err)
		}
	}
}

func TestBadPortTouchesNothing(t *testing.T) {
	a, f := newADI(t)
	ctx := context.Background()
	if v, err := a.SetPortConfig(ctx, 9, types.DigitalIn); v != ErrValue {
		t.Fatalf("expected sentinel, got %d", v)
	} else {
		wantCode(t, err, errcode.InvalidPort)
	}
	_, err := a.AnalogRead(ctx, 0)
	wantCode(t, err, errcode.InvalidPort)
	if len(f.calls) != 0 {
		t.Fatalf("expected no transport calls, got %v", f.calls)
	}
	if a.LastError() != errcode.InvalidPort {
		t.Fatalf("last error = %s", a.LastError())
	}
	a.ClearLastError()
	if a.LastError() != errcode.OK {
		t.Fatalf("after clear = %s", a.LastError())
	}
}

// ---- Registry ----

func TestConfigReadAfterWrite(t *testing.T) {
	a, _ := newADI(t)
	ctx := context.Background()
	cfgs := []types.PortConfig{
		types.AnalogIn, types.DigitalOut, types.LegacyServo, types.SmartButton,
		types.LegacyUltrasonic, types.Undefined, types.LegacyGyro, types.AnalogOut,
	}
	for i, cfg := range cfgs {
		port := i + 1
		if v, err := a.SetPortConfig(ctx, port, cfg); err != nil || v != 1 {
			t.Fatalf("set port %d: v=%d err=%v", port, v, err)
		}
		got, err := a.GetPortConfig(ctx, port)
		if err != nil || got != cfg {
			t.Fatalf("port %d: got %s err=%v want %s", port, got, err, cfg)
		}
		// Earlier ports are untouched.
		for j := 0; j < i; j++ {
			prev, _ := a.GetPortConfig(ctx, 'A'+j)
			if prev != cfgs[j] {
				t.Fatalf("port %d changed to %s after writing port %d", j+1, prev, port)
			}
		}
	}
	all, err := a.Ports(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for i, cfg := range cfgs {
		if all[i] != cfg {
			t.Fatalf("Ports()[%d]=%s want %s", i, all[i], cfg)
		}
	}
}

func TestRawValueAccess(t *testing.T) {
	a, f := newADI(t)
	ctx := context.Background()
	if v, err := a.ValueSet(ctx, 'c', 77); err != nil || v != 1 {
		t.Fatalf("ValueSet: v=%d err=%v", v, err)
	}
	if f.val[2] != 77 {
		t.Fatalf("value not written to index 2: %v", f.val)
	}
	if v, err := a.ValueGet(ctx, 3); err != nil || v != 77 {
		t.Fatalf("ValueGet: v=%d err=%v", v, err)
	}
}

// ---- Analog ----

func TestAnalogCalibrateConstantStream(t *testing.T) {
	f := newFake()
	sleeps := 0
	a := New(NewFacade(f), WithSleep(func(d time.Duration) {
		if d != CalibrateInterval {
			t.Fatalf("unexpected suspension %v", d)
		}
		sleeps++
	}))
	ctx := context.Background()
	const V = 1000
	f.cfg[0] = types.AnalogIn
	f.val[0] = V

	base, err := a.AnalogCalibrate(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if base != V {
		t.Fatalf("baseline %d want %d", base, V)
	}
	if sleeps != CalibrateSamples {
		t.Fatalf("suspended %d times want %d", sleeps, CalibrateSamples)
	}
	st, _ := a.AnalogState(1)
	if st.Calibration != 16*V {
		t.Fatalf("calibration %d want %d", st.Calibration, 16*V)
	}
	if st.LastValue != V {
		t.Fatalf("last value %d want %d", st.LastValue, V)
	}

	f.val[0] = V + 25
	if v, _ := a.AnalogReadCalibrated(ctx, 1); v != 25 {
		t.Fatalf("calibrated read %d want 25", v)
	}
	if v, _ := a.AnalogReadCalibratedHR(ctx, 1); v != 25*16 {
		t.Fatalf("calibrated HR read %d want %d", v, 25*16)
	}
}

func TestAnalogCalibrateRounding(t *testing.T) {
	a, f := newADI(t)
	ctx := context.Background()
	f.cfg[4] = types.LegacyPot
	// Alternate 10 and 11: sum = 256*21 = 5376.
	n := 0
	f.next = func(int) int32 {
		n++
		return int32(10 + n%2)
	}
	base, err := a.AnalogCalibrate(ctx, 'E')
	if err != nil {
		t.Fatal(err)
	}
	if base != (5376+256)>>9 {
		t.Fatalf("baseline %d", base)
	}
	st, _ := a.AnalogState('e')
	if st.Calibration != (5376+16)>>5 {
		t.Fatalf("calibration %d", st.Calibration)
	}
}

func TestCalibratedMatchesHRWithZeroBaseline(t *testing.T) {
	a, f := newADI(t)
	ctx := context.Background()
	f.cfg[1] = types.AnalogIn
	for _, raw := range []int32{0, 1, 15, 16, 4095, -3} {
		f.val[1] = raw
		lo, err := a.AnalogReadCalibrated(ctx, 2)
		if err != nil {
			t.Fatal(err)
		}
		hr, err := a.AnalogReadCalibratedHR(ctx, 2)
		if err != nil {
			t.Fatal(err)
		}
		if lo != hr>>4 {
			t.Fatalf("raw %d: calibrated %d, HR>>4 %d", raw, lo, hr>>4)
		}
	}
}

func TestAnalogFamilyAccepted(t *testing.T) {
	a, f := newADI(t)
	ctx := context.Background()
	for _, cfg := range analogFamily {
		f.cfg[0] = cfg
		if _, err := a.AnalogRead(ctx, 1); err != nil {
			t.Fatalf("%s should be readable as analog: %v", cfg, err)
		}
	}
}

func TestCalibrateAbortsOnTransportError(t *testing.T) {
	a, f := newADI(t)
	ctx := context.Background()
	f.cfg[0] = types.AnalogIn
	f.err = errors.New("bus fault")
	_, err := a.AnalogCalibrate(ctx, 1)
	wantCode(t, err, errcode.Error)
	if st, _ := a.AnalogState(1); st.Calibration != 0 {
		t.Fatalf("calibration stored after failure: %d", st.Calibration)
	}
}

// Other users get the expander between samples, and cancelling the caller's
// context mid-run does not cut the baseline short.
func TestCalibrateYieldsAndIgnoresCancel(t *testing.T) {
	f := newFake()
	f.cfg[0] = types.AnalogIn
	f.val[0] = 100
	fc := NewFacade(f)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	claims := 0
	a := New(fc, WithSleep(func(time.Duration) {
		cancel()
		cctx, ccancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer ccancel()
		if _, err := fc.Claim(cctx); err != nil {
			t.Fatalf("facade held between samples: %v", err)
		}
		claims++
		fc.Release()
	}))

	base, err := a.AnalogCalibrate(ctx, 1)
	if err != nil {
		t.Fatalf("calibrate after cancel: %v", err)
	}
	if base != 100 {
		t.Fatalf("baseline %d want 100", base)
	}
	if claims != CalibrateSamples {
		t.Fatalf("claims between samples %d want %d", claims, CalibrateSamples)
	}
	if st, _ := a.AnalogState(1); st.Calibration != 16*100 {
		t.Fatalf("calibration %d want %d", st.Calibration, 16*100)
	}
}

// ---- Digital ----

func TestDigitalReadWrite(t *testing.T) {
	a, f := newADI(t)
	ctx := context.Background()
	f.cfg[0] = types.LegacyButton
	f.val[0] = 4095
	if v, err := a.DigitalRead(ctx, 1); err != nil || v != 1 {
		t.Fatalf("DigitalRead: v=%d err=%v", v, err)
	}
	f.cfg[1] = types.DigitalOut
	if v, err := a.DigitalWrite(ctx, 2, true); err != nil || v != 1 {
		t.Fatalf("DigitalWrite: v=%d err=%v", v, err)
	}
	if f.val[1] != 1 {
		t.Fatalf("high not written: %d", f.val[1])
	}
	_, _ = a.DigitalWrite(ctx, 2, false)
	if f.val[1] != 0 {
		t.Fatalf("low not written: %d", f.val[1])
	}
}

func TestPinMode(t *testing.T) {
	a, f := newADI(t)
	ctx := context.Background()
	cases := []struct {
		mode types.PinMode
		want types.PortConfig
	}{
		{types.Input, types.DigitalIn},
		{types.Output, types.DigitalOut},
		{types.InputAnalog, types.AnalogIn},
		{types.OutputAnalog, types.AnalogOut},
	}
	for _, c := range cases {
		if v, err := a.PinMode(ctx, 'h', c.mode); err != nil || v != 1 {
			t.Fatalf("PinMode(%d): v=%d err=%v", c.mode, v, err)
		}
		if f.cfg[7] != c.want {
			t.Fatalf("mode %d configured %s want %s", c.mode, f.cfg[7], c.want)
		}
	}
	n := len(f.calls)
	_, err := a.PinMode(ctx, 'h', types.PinMode(9))
	wantCode(t, err, errcode.InvalidArgument)
	if len(f.calls) != n {
		t.Fatal("unknown mode reached the transport")
	}
	if a.LastError() != errcode.InvalidArgument {
		t.Fatalf("last error %s", a.LastError())
	}
}

// ---- Motor ----

func TestMotorClamp(t *testing.T) {
	a, f := newADI(t)
	ctx := context.Background()
	f.cfg[2] = types.LegacyPWM
	cases := []struct {
		in   int
		want int32
	}{
		{200, 127}, {-200, -128}, {127, 127}, {-128, -128}, {0, 0}, {-5, -5},
	}
	for _, c := range cases {
		v, err := a.MotorSet(ctx, 3, c.in)
		if err != nil {
			t.Fatal(err)
		}
		if v != c.want || f.val[2] != c.want {
			t.Fatalf("MotorSet(%d): returned %d wrote %d want %d", c.in, v, f.val[2], c.want)
		}
	}
}

func TestMotorGetAndStop(t *testing.T) {
	a, f := newADI(t)
	ctx := context.Background()
	f.cfg[3] = types.LegacyServo
	f.val[3] = 127 + 127
	if v, _ := a.MotorGet(ctx, 4); v != 127 {
		t.Fatalf("MotorGet=%d want 127", v)
	}
	f.val[3] = 0
	if v, _ := a.MotorGet(ctx, 4); v != -127 {
		t.Fatalf("MotorGet=%d want -127", v)
	}
	f.val[3] = 55
	if v, err := a.MotorStop(ctx, 4); err != nil || v != 1 || f.val[3] != 0 {
		t.Fatalf("MotorStop: v=%d err=%v val=%d", v, err, f.val[3])
	}
}

// ---- Two-wire devices ----

func TestResolvePair(t *testing.T) {
	cases := []struct {
		a, b int
		want int
		ok   bool
	}{
		{1, 2, 1, true},
		{2, 1, 1, true},
		{3, 4, 3, true},
		{5, 6, 5, true},
		{0, 1, 0, false}, // even anchor
		{2, 3, 0, false},
		{0, 2, 0, false}, // not adjacent
		{3, 3, 0, false}, // same port
	}
	for _, c := range cases {
		got, err := ResolvePair(c.a, c.b)
		if c.ok {
			if err != nil || got != c.want {
				t.Fatalf("ResolvePair(%d,%d)=%d,%v want %d", c.a, c.b, got, err, c.want)
			}
			continue
		}
		wantCode(t, err, errcode.InvalidPair)
	}
}

func TestEncoderInitValidation(t *testing.T) {
	a, f := newADI(t)
	ctx := context.Background()
	bad := [][2]int{{1, 3}, {2, 2}, {1, 2}, {'a', 'b'}, {3, 4}}
	for _, p := range bad {
		_, err := a.EncoderInit(ctx, p[0], p[1], false)
		wantCode(t, err, errcode.InvalidPair)
	}
	_, err := a.EncoderInit(ctx, 8, 9, false)
	wantCode(t, err, errcode.InvalidPort)
	if len(f.calls) != 0 {
		t.Fatalf("rejected pairs reached the transport: %v", f.calls)
	}

	for _, p := range [][2]int{{2, 3}, {3, 2}, {'B', 'c'}} {
		h, err := a.EncoderInit(ctx, p[0], p[1], false)
		if err != nil || h != 1 {
			t.Fatalf("EncoderInit(%d,%d)=%d,%v", p[0], p[1], h, err)
		}
	}
	if f.cfg[1] != types.LegacyEncoder {
		t.Fatalf("canonical port configured %s", f.cfg[1])
	}
	if h, err := a.EncoderInit(ctx, 7, 6, false); err != nil || h != 5 {
		t.Fatalf("EncoderInit(7,6)=%d,%v", h, err)
	}
}

func TestEncoderReverse(t *testing.T) {
	for _, reverse := range []bool{true, false} {
		a, f := newADI(t)
		ctx := context.Background()
		enc, err := a.EncoderInit(ctx, 2, 3, reverse)
		if err != nil {
			t.Fatal(err)
		}
		f.val[enc] = 360
		got, err := a.EncoderGet(ctx, enc)
		if err != nil {
			t.Fatal(err)
		}
		want := int32(360)
		if reverse {
			want = -360
		}
		if got != want {
			t.Fatalf("reverse=%v: got %d want %d", reverse, got, want)
		}
	}
}

func TestEncoderInitFailureKeepsDirection(t *testing.T) {
	a, f := newADI(t)
	ctx := context.Background()
	enc, err := a.EncoderInit(ctx, 2, 3, false)
	if err != nil {
		t.Fatal(err)
	}
	f.val[enc] = 10

	f.cfgErr = errcode.Timeout
	_, err = a.EncoderInit(ctx, 2, 3, true)
	wantCode(t, err, errcode.Timeout)

	f.cfgErr = nil
	if got, err := a.EncoderGet(ctx, enc); err != nil || got != 10 {
		t.Fatalf("after failed re-init got %d,%v want 10", got, err)
	}
}

func TestEncoderResetAndShutdown(t *testing.T) {
	a, f := newADI(t)
	ctx := context.Background()
	enc, err := a.EncoderInit(ctx, 4, 5, false)
	if err != nil {
		t.Fatal(err)
	}
	f.val[enc] = 99
	if v, err := a.EncoderReset(ctx, enc); err != nil || v != 1 || f.val[enc] != 0 {
		t.Fatalf("reset: v=%d err=%v val=%d", v, err, f.val[enc])
	}
	if v, err := a.EncoderShutdown(ctx, enc); err != nil || v != 1 {
		t.Fatalf("shutdown: v=%d err=%v", v, err)
	}
	if f.cfg[enc] != types.Undefined {
		t.Fatalf("port left as %s", f.cfg[enc])
	}
	_, err = a.EncoderGet(ctx, enc)
	wantCode(t, err, errcode.ConfigMismatch)
	_, err = a.EncoderGet(ctx, Encoder(12))
	wantCode(t, err, errcode.InvalidPort)
}

func TestUltrasonic(t *testing.T) {
	a, f := newADI(t)
	ctx := context.Background()

	_, err := a.UltrasonicInit(ctx, 3, 2) // echo is the upper wire
	wantCode(t, err, errcode.InvalidPair)
	_, err = a.UltrasonicInit(ctx, 4, 6)
	wantCode(t, err, errcode.InvalidPair)

	ult, err := a.UltrasonicInit(ctx, 'b', 'c')
	if err != nil || ult != 1 {
		t.Fatalf("UltrasonicInit=%d,%v", ult, err)
	}
	f.val[1] = 250
	if v, err := a.UltrasonicGet(ctx, ult); err != nil || v != 250 {
		t.Fatalf("UltrasonicGet=%d,%v", v, err)
	}
	// An ultrasonic handle is not an encoder.
	_, err = a.EncoderGet(ctx, Encoder(ult))
	wantCode(t, err, errcode.ConfigMismatch)

	if v, err := a.UltrasonicShutdown(ctx, ult); err != nil || v != 1 {
		t.Fatalf("shutdown=%d,%v", v, err)
	}
	_, err = a.UltrasonicGet(ctx, ult)
	wantCode(t, err, errcode.ConfigMismatch)
}

// ---- Validation ordering ----

func TestMismatchHasNoValueSideEffect(t *testing.T) {
	ctx := context.Background()
	ops := map[string]func(a *ADI) error{
		"digital_write": func(a *ADI) error { _, err := a.DigitalWrite(ctx, 1, true); return err },
		"digital_read":  func(a *ADI) error { _, err := a.DigitalRead(ctx, 1); return err },
		"motor_set":     func(a *ADI) error { _, err := a.MotorSet(ctx, 1, 50); return err },
		"motor_get":     func(a *ADI) error { _, err := a.MotorGet(ctx, 1); return err },
		"motor_stop":    func(a *ADI) error { _, err := a.MotorStop(ctx, 1); return err },
		"encoder_get":   func(a *ADI) error { _, err := a.EncoderGet(ctx, 0); return err },
		"encoder_reset": func(a *ADI) error { _, err := a.EncoderReset(ctx, 0); return err },
		"encoder_stop":  func(a *ADI) error { _, err := a.EncoderShutdown(ctx, 0); return err },
		"ultra_get":     func(a *ADI) error { _, err := a.UltrasonicGet(ctx, 0); return err },
		"ultra_stop":    func(a *ADI) error { _, err := a.UltrasonicShutdown(ctx, 0); return err },
	}
	for name, op := range ops {
		a, f := newADI(t)
		f.cfg[0] = types.AnalogIn
		err := op(a)
		wantCode(t, err, errcode.ConfigMismatch)
		if n := f.valueCalls(); n != 0 {
			t.Fatalf("%s: %d value calls after mismatch", name, n)
		}
		if f.cfg[0] != types.AnalogIn {
			t.Fatalf("%s: configuration changed to %s", name, f.cfg[0])
		}
		if errcode.ClassOf(a.LastError()) != errcode.ClassInvalid {
			t.Fatalf("%s: last error %s not invalid-argument class", name, a.LastError())
		}
	}

	a, f := newADI(t)
	f.cfg[0] = types.DigitalOut
	for _, read := range []func() (int32, error){
		func() (int32, error) { return a.AnalogRead(ctx, 1) },
		func() (int32, error) { return a.AnalogCalibrate(ctx, 1) },
		func() (int32, error) { return a.AnalogReadCalibrated(ctx, 1) },
		func() (int32, error) { return a.AnalogReadCalibratedHR(ctx, 1) },
	} {
		v, err := read()
		wantCode(t, err, errcode.ConfigMismatch)
		if v != ErrValue {
			t.Fatalf("expected sentinel, got %d", v)
		}
	}
	if n := f.valueCalls(); n != 0 {
		t.Fatalf("%d value calls after analog mismatch", n)
	}
}

func TestTransportErrorPropagates(t *testing.T) {
	a, f := newADI(t)
	ctx := context.Background()
	f.cfg[0] = types.DigitalOut
	f.err = errcode.Timeout
	_, err := a.DigitalWrite(ctx, 1, true)
	wantCode(t, err, errcode.Timeout)
	var e *errcode.E
	if !errors.As(err, &e) || e.Op != "digital_write" {
		t.Fatalf("error lacks op: %#v", err)
	}
}

// ---- Facade ----

func TestFacadeClaimHonoursContext(t *testing.T) {
	fc := NewFacade(newFake())
	if _, err := fc.Claim(context.Background()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := fc.Claim(ctx)
	wantCode(t, err, errcode.Busy)
	fc.Release()
	if _, err := fc.Claim(context.Background()); err != nil {
		t.Fatalf("claim after release: %v", err)
	}
	fc.Release()
}

func TestEveryTransactionReleases(t *testing.T) {
	f := newFake()
	fc := NewFacade(f)
	a := New(fc, WithSleep(func(time.Duration) {}))
	ctx := context.Background()
	f.cfg[0] = types.AnalogIn
	_, _ = a.DigitalWrite(ctx, 1, true) // mismatch after a config read
	_, _ = a.AnalogCalibrate(ctx, 1)
	f.err = errors.New("boom")
	_, _ = a.AnalogRead(ctx, 1)

	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if _, err := fc.Claim(ctx); err != nil {
		t.Fatalf("facade left claimed: %v", err)
	}
	fc.Release()
}
