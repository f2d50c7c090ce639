// bus/bus_test.go
package bus

import (
	"context"
	"sort"
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("adi", "state"))
	conn.Publish(conn.NewMessage(T("adi", "state"), "ready", false))

	expectOne(t, sub, "ready")
}

func TestRetainedReplayAndClear(t *testing.T) {
	b := NewBus(8)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("adi", "port", 1, "config"), "analog_in", true))
	c.Publish(b.NewMessage(T("adi", "port", 2, "config"), "digital_out", true))
	c.Publish(b.NewMessage(T("adi", "port", 1, "config"), nil, true))

	s := c.Subscribe(T("adi", "port", SingleWild, "config"))
	got := drain(t, s, 1)
	if got[0] != "digital_out" {
		t.Fatalf("expected only port 2 after clear, got %v", got)
	}
}

func TestIntAndStringTokensDiffer(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")

	sInt := c.Subscribe(T("adi", "port", 3))
	sStr := c.Subscribe(T("adi", "port", "3"))
	c.Publish(b.NewMessage(T("adi", "port", 3), "n", false))

	expectOne(t, sInt, "n")
	expectNone(t, sStr)
}

// -----------------------------------------------------------------------------
// Wildcards
// -----------------------------------------------------------------------------

func TestSingleLevelWildcard(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	sVerb := c.Subscribe(T("adi", "port", SingleWild, "control", SingleWild))
	sRead := c.Subscribe(T("adi", "port", SingleWild, "control", "analog_read"))
	sPort2 := c.Subscribe(T("adi", "port", 2, "control", SingleWild))

	c.Publish(b.NewMessage(T("adi", "port", 1, "control", "analog_read"), "m1", false))
	expectOne(t, sVerb, "m1")
	expectOne(t, sRead, "m1")
	expectNone(t, sPort2)

	c.Publish(b.NewMessage(T("adi", "port", 2, "control", "motor_set"), "m2", false))
	expectOne(t, sVerb, "m2")
	expectOne(t, sPort2, "m2")
	expectNone(t, sRead)

	// Too short for the pattern.
	c.Publish(b.NewMessage(T("adi", "port", 2, "control"), "m3", false))
	expectNone(t, sVerb)
	expectNone(t, sPort2)
}

func TestMultiLevelWildcard(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	sADI := c.Subscribe(T("adi", MultiWild))
	sAll := c.Subscribe(T(MultiWild))
	sExact := c.Subscribe(T("adi"))

	c.Publish(b.NewMessage(T("adi"), "p1", false))
	expectOne(t, sADI, "p1")
	expectOne(t, sAll, "p1")
	expectOne(t, sExact, "p1")

	c.Publish(b.NewMessage(T("adi", "encoder", 0, "control", "get"), "p2", false))
	expectOne(t, sADI, "p2")
	expectOne(t, sAll, "p2")
	expectNone(t, sExact)

	c.Publish(b.NewMessage(T("config", "adi"), "p3", false))
	expectOne(t, sAll, "p3")
	expectNone(t, sADI)
}

func TestWildcardRetainedDelivery(t *testing.T) {
	b := NewBus(32)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("adi", "state"), "r0", true))
	c.Publish(b.NewMessage(T("adi", "port", 1, "config"), "r1", true))
	c.Publish(b.NewMessage(T("adi", "port", 2, "config"), "r2", true))
	c.Publish(b.NewMessage(T("config", "adi"), "r3", true))

	sADI := c.Subscribe(T("adi", MultiWild))
	assertUnordered(t, drain(t, sADI, 3), []string{"r0", "r1", "r2"})

	sPorts := c.Subscribe(T("adi", "port", SingleWild, "config"))
	assertUnordered(t, drain(t, sPorts, 2), []string{"r1", "r2"})
}

// -----------------------------------------------------------------------------
// Delivery
// -----------------------------------------------------------------------------

func TestFullQueueDropsOldest(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	s := c.Subscribe(T("x"))

	for _, p := range []string{"a", "b", "c"} {
		c.Publish(b.NewMessage(T("x"), p, false))
	}
	assertUnordered(t, drain(t, s, 2), []string{"b", "c"})
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	s := c.Subscribe(T("a", "b"))
	s.Unsubscribe()

	if _, ok := <-s.Channel(); ok {
		t.Fatal("channel still open after Unsubscribe")
	}
	// Publishing to a pruned topic must not panic.
	c.Publish(b.NewMessage(T("a", "b"), "late", false))
	// Second unsubscribe is a no-op.
	s.Unsubscribe()
}

func TestDisconnect(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("svc")
	s1 := c.Subscribe(T("a"))
	s2 := c.Subscribe(T("b", MultiWild))
	c.Disconnect()

	for _, s := range []*Subscription{s1, s2} {
		if _, ok := <-s.Channel(); ok {
			t.Fatalf("%v still open after Disconnect", s.Topic())
		}
	}
}

// -----------------------------------------------------------------------------
// Request–Reply
// -----------------------------------------------------------------------------

func TestRequestWait(t *testing.T) {
	b := NewBus(8)
	reqConn := b.NewConnection("requester")
	respConn := b.NewConnection("responder")

	reqTopic := T("adi", "port", 1, "control", "analog_read")
	respSub := respConn.Subscribe(reqTopic)
	defer respConn.Unsubscribe(respSub)

	go func() {
		if msg, ok := <-respSub.Channel(); ok {
			respConn.Reply(msg, "OK", false)
		}
	}()

	req := b.NewMessage(reqTopic, nil, false)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	reply, err := reqConn.RequestWait(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error waiting for reply: %v", err)
	}
	if got, ok := reply.Payload.(string); !ok || got != "OK" {
		t.Fatalf("unexpected reply payload: %#v", reply.Payload)
	}
	if !topicsEqual(reply.Topic, req.ReplyTo) {
		t.Fatalf("reply topic %v != request ReplyTo %v", reply.Topic, req.ReplyTo)
	}
}

func TestRequestWaitTimeout(t *testing.T) {
	b := NewBus(8)
	reqConn := b.NewConnection("requester")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := reqConn.RequestWait(ctx, b.NewMessage(T("nobody"), nil, false)); err == nil {
		t.Fatal("expected timeout error, got nil")
	}
}

func TestReplyWithoutReplyTo(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	s := c.Subscribe(T(MultiWild))
	c.Reply(b.NewMessage(T("a"), nil, false), "ignored", false)
	expectNone(t, s)
}

func TestTokenValidation(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for byte slice token")
		}
	}()
	_ = T("a", 1, []byte{1, 2, 3})
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func topicsEqual(a, b Topic) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func expectOne(t *testing.T, sub *Subscription, want string) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		s, ok := got.Payload.(string)
		if !ok || s != want {
			t.Fatalf("unexpected payload: %v (want %q)", got.Payload, want)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for %q", want)
	}
}

func expectNone(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		t.Fatalf("unexpected message: %#v", got)
	case <-time.After(40 * time.Millisecond):
	}
}

func drain(t *testing.T, sub *Subscription, n int) []string {
	t.Helper()
	var out []string
	deadline := time.Now().Add(300 * time.Millisecond)
	for len(out) < n && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			s, ok := m.Payload.(string)
			if !ok {
				t.Fatalf("non-string payload: %#v", m.Payload)
			}
			out = append(out, s)
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(out) != n {
		t.Fatalf("expected %d messages, got %d (%v)", n, len(out), out)
	}
	return out
}

func assertUnordered(t *testing.T, got, want []string) {
	t.Helper()
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
