package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Delay suspends the calling goroutine for at least d, yielding the
// scheduler. d <= 0 still yields once.
func Delay(d time.Duration) {
	if d <= 0 {
		d = time.Nanosecond
	}
	time.Sleep(d)
}
