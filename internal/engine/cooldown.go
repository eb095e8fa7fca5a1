package engine

import "time"

// CooldownGate rate-limits one alert class globally, across all tracks.
// It is owned by the processing goroutine and is not safe for concurrent use.
type CooldownGate struct {
	cooldown time.Duration
	last     time.Time
	fired    bool
}

func NewCooldownGate(cooldown time.Duration) *CooldownGate {
	return &CooldownGate{cooldown: cooldown}
}

// TryFire returns true and records now when more than the cooldown has
// elapsed since the last successful fire. The first call always succeeds.
func (g *CooldownGate) TryFire(now time.Time) bool {
	if g.fired && now.Sub(g.last) <= g.cooldown {
		return false
	}
	g.last = now
	g.fired = true
	return true
}
