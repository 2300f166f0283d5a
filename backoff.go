package blockbench

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// StabilityAdvice is shown to the operator when the clock speed never
// recovered.
const StabilityAdvice = `Sleeping longer probably won't make a difference. Giving up.
Things to try:
 1. Check if the device is in some energy-saving state.
    On Android, it may help to enable 'Stay Awake' in the dev settings.
 2. Check if the device is overheating.
    On some devices, system temperature is reported in
    /sys/class/thermal/thermal_zone*/temp
 3. Some system daemon might be playing with clock speeds.
    In particular, on Qualcomm devices, disable mpdecision
    by renaming /system/bin/mpdecision and rebooting.
 4. CPU frequency scaling might conceivably be the problem.
    In particular, Intel Turbo Boost. Try disabling that.`

// slowClockBackoff hands out doubling sleep intervals and tracks the total
// slept against the budget.
type slowClockBackoff struct {
	policy *backoff.ExponentialBackOff
	limit  time.Duration
	slept  time.Duration
}

func newSlowClockBackoff(cfg DriftConfig) *slowClockBackoff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = cfg.BackoffInitial
	policy.RandomizationFactor = 0
	policy.Multiplier = 2
	policy.MaxInterval = time.Duration(math.MaxInt64)
	policy.Reset()
	return &slowClockBackoff{policy: policy, limit: cfg.BackoffLimit}
}

// exhausted reports whether cumulative sleep has passed the budget.
func (b *slowClockBackoff) exhausted() bool {
	return b.slept > b.limit
}

// next returns the next interval and charges it to the budget.
func (b *slowClockBackoff) next() time.Duration {
	d := b.policy.NextBackOff()
	b.slept += d
	return d
}
