// Package clock is the wall-clock seam used for event and accounting
// timestamps. Kernel time is counted in ticks and never reads it.
package clock

import "time"

// NowFunc supplies wall-clock time; tests pin it to a fixed instant.
var NowFunc = time.Now

// Now returns the wall-clock time from NowFunc.
func Now() time.Time { return NowFunc() }
