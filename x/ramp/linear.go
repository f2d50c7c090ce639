// Package ramp steps a value linearly between two levels. The sim transport
// uses it to give analog ports a moving signal.
package ramp

import (
	"time"

	"adicode-go/x/mathx"
)

// Step receives each new level.
type Step func(level int32)

// Tick waits for d and reports whether to continue (false => cancelled).
type Tick func(d time.Duration) bool

// Linear moves from cur to to in steps over d, clamped to [lo, hi]. It is
// caller-driven: run it from a goroutine and use tick for timing and
// cancellation. steps <= 0 or d <= 0 snaps to to.
func Linear(cur, to, lo, hi int32, d time.Duration, steps int, tick Tick, set Step) {
	to = mathx.Clamp(to, lo, hi)
	if steps <= 0 || d <= 0 {
		set(to)
		return
	}
	delta := to - cur
	st := int32(steps)
	acc := int32(0)
	stepDur := d / time.Duration(steps)
	if stepDur <= 0 {
		stepDur = time.Millisecond
	}

	for i := 1; i < steps; i++ {
		if !tick(stepDur) {
			return
		}
		acc += delta
		if inc := acc / st; inc != 0 {
			acc -= inc * st
			cur = mathx.Clamp(cur+inc, lo, hi)
			set(cur)
		}
	}
	if tick(stepDur) {
		set(to)
	}
}

// Triangle ramps between lo and hi forever, one leg per period, until tick
// reports cancellation.
func Triangle(lo, hi int32, period time.Duration, steps int, tick Tick, set Step) {
	cancelled := false
	t := func(d time.Duration) bool {
		if !tick(d) {
			cancelled = true
			return false
		}
		return true
	}
	cur, to := lo, hi
	set(cur)
	for !cancelled {
		Linear(cur, to, lo, hi, period, steps, t, set)
		cur, to = to, cur
	}
}
