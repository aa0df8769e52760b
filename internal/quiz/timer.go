package quiz

import (
	"sync"
	"time"
)

// Clock abstracts the ticker source so session tests can drive time by hand.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realClock struct{}

func RealClock() Clock { return realClock{} }

func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// countdown is a cancellable per-question timer: one tick per second,
// onTick with the seconds remaining, onExpire when they run out. Cancel is
// safe to call more than once and from any goroutine; after Cancel neither
// callback fires again.
type countdown struct {
	once sync.Once
	stop chan struct{}
}

func startCountdown(clk Clock, seconds int, onTick func(remaining int), onExpire func()) *countdown {
	c := &countdown{stop: make(chan struct{})}
	t := clk.NewTicker(time.Second)
	go func() {
		defer t.Stop()
		remaining := seconds
		for {
			select {
			case <-c.stop:
				return
			case <-t.C():
				remaining--
				if remaining <= 0 {
					onExpire()
					return
				}
				onTick(remaining)
			}
		}
	}()
	return c
}

func (c *countdown) Cancel() {
	c.once.Do(func() { close(c.stop) })
}
