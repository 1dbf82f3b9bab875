package kernel

import (
	"math"

	"github.com/viant/minikernel/hal"
	"github.com/viant/minikernel/stats"
)

// clockInterrupt runs at hal.Level3 on every tick.
func (k *Kernel) clockInterrupt() {
	k.ticks++
	k.logger.WithField("tick", k.ticks).Debug("clock interrupt")
	delta := stats.Delta{Ticks: 1}
	switch {
	case k.idle:
		delta.IdleTicks = 1
	case k.current != nil:
		if k.hal.FromUserMode() {
			k.current.UserTicks++
		} else {
			k.current.SystemTicks++
		}
	}
	k.expireSleepers()
	k.stats.Update(delta)
}

// expireSleepers counts down every sleeping process and readies those reaching zero.
func (k *Kernel) expireSleepers() {
	for p := k.sleeping.Front(); p != nil; {
		next := k.sleeping.Next(p)
		p.SleepTicks--
		if p.SleepTicks == 0 {
			k.sleeping.Remove(p)
			k.processLogger(p).Info("sleep expired")
			k.wake(p)
		}
		p = next
	}
}

// sleep blocks the current process for seconds worth of ticks. A count past
// the int range is clamped to math.MaxInt ticks.
func (k *Kernel) sleep(seconds int) {
	if seconds <= 0 {
		return
	}
	level := k.hal.SetLevel(hal.Level3)
	defer k.hal.SetLevel(level)
	ticks := math.MaxInt
	if seconds <= math.MaxInt/k.limits.TicksPerSecond {
		ticks = seconds * k.limits.TicksPerSecond
	}
	k.current.SleepTicks = ticks
	k.block(k.sleeping)
}
