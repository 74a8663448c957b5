package evasion

import "time"

// Default pacing windows, matching conservative human-like browsing.
const (
	DefaultDelayMin = 2 * time.Second
	DefaultDelayMax = 4 * time.Second

	defaultLongPauseMin = 5 * time.Second
	defaultLongPauseMax = 15 * time.Second

	defaultExtendedPauseMin    = 30 * time.Second
	defaultExtendedPauseMax    = 60 * time.Second
	defaultExtendedPauseChance = 0.05

	defaultLongPauseEveryMin = 5
	defaultLongPauseEveryMax = 10
)

// Config tunes the delay schedule. Zero values fall back to defaults.
type Config struct {
	DelayMin time.Duration
	DelayMax time.Duration
	// Jitter adds a ±30% random variation on top of the base delay.
	Jitter bool

	// LongPauseEveryMin/Max bound the randomly drawn request boundary at
	// which a reading-break pause fires.
	LongPauseEveryMin int
	LongPauseEveryMax int
	LongPauseMin      time.Duration
	LongPauseMax      time.Duration

	// ExtendedPauseChance is the per-request probability of a stepped-away
	// break, independent of the long-pause boundary.
	ExtendedPauseChance float64
	ExtendedPauseMin    time.Duration
	ExtendedPauseMax    time.Duration
}

func (c Config) withDefaults() Config {
	if c.DelayMin <= 0 {
		c.DelayMin = DefaultDelayMin
	}
	if c.DelayMax < c.DelayMin {
		c.DelayMax = c.DelayMin + (DefaultDelayMax - DefaultDelayMin)
	}
	if c.LongPauseEveryMin <= 0 {
		c.LongPauseEveryMin = defaultLongPauseEveryMin
	}
	if c.LongPauseEveryMax < c.LongPauseEveryMin {
		c.LongPauseEveryMax = defaultLongPauseEveryMax
	}
	if c.LongPauseMin <= 0 {
		c.LongPauseMin = defaultLongPauseMin
	}
	if c.LongPauseMax < c.LongPauseMin {
		c.LongPauseMax = defaultLongPauseMax
	}
	if c.ExtendedPauseChance <= 0 {
		c.ExtendedPauseChance = defaultExtendedPauseChance
	}
	if c.ExtendedPauseMin <= 0 {
		c.ExtendedPauseMin = defaultExtendedPauseMin
	}
	if c.ExtendedPauseMax < c.ExtendedPauseMin {
		c.ExtendedPauseMax = defaultExtendedPauseMax
	}
	return c
}

// DelayDecision is the pacing verdict for a single upcoming request. It is
// computed fresh per request and never reused.
type DelayDecision struct {
	Base          time.Duration
	Jitter        time.Duration
	LongPause     time.Duration
	ExtendedPause time.Duration
}

// Total is the wall-clock duration the caller should suspend for.
func (d DelayDecision) Total() time.Duration {
	total := d.Base + d.Jitter + d.LongPause + d.ExtendedPause
	if total < 0 {
		return 0
	}
	return total
}

// IsLongPause reports whether the reading-break pause fired.
func (d DelayDecision) IsLongPause() bool { return d.LongPause > 0 }

// IsExtendedPause reports whether the stepped-away pause fired.
func (d DelayDecision) IsExtendedPause() bool { return d.ExtendedPause > 0 }

// NextDelay computes the delay before request requestIndex (1-based count of
// requests issued so far). The base is uniform in [DelayMin, DelayMax] with
// optional ±30% jitter. Every 5th-10th request (boundary re-drawn per call)
// adds a 5-15s long pause; independently each request has a 5% chance of a
// 30-60s extended pause. Both pauses may fire together and stack.
func (p *Policy) NextDelay(requestIndex int) DelayDecision {
	d := DelayDecision{Base: p.durationBetween(p.cfg.DelayMin, p.cfg.DelayMax)}

	if p.cfg.Jitter {
		// Uniform in [-30%, +30%] of the drawn base, floored so the total
		// never drops below the configured minimum.
		d.Jitter = time.Duration((p.rng.Float64()*0.6 - 0.3) * float64(d.Base))
		if d.Base+d.Jitter < p.cfg.DelayMin {
			d.Jitter = p.cfg.DelayMin - d.Base
		}
	}

	if requestIndex > 0 {
		boundary := p.cfg.LongPauseEveryMin
		if span := p.cfg.LongPauseEveryMax - p.cfg.LongPauseEveryMin; span > 0 {
			boundary += p.rng.Intn(span + 1)
		}
		if requestIndex%boundary == 0 {
			d.LongPause = p.durationBetween(p.cfg.LongPauseMin, p.cfg.LongPauseMax)
		}
	}

	if p.rng.Float64() < p.cfg.ExtendedPauseChance {
		d.ExtendedPause = p.durationBetween(p.cfg.ExtendedPauseMin, p.cfg.ExtendedPauseMax)
	}

	// Without a human-like pause the total stays within twice the window cap.
	if !d.IsLongPause() && !d.IsExtendedPause() {
		if limit := 2 * p.cfg.DelayMax; d.Base+d.Jitter > limit {
			d.Jitter = limit - d.Base
		}
	}

	return d
}

func (p *Policy) durationBetween(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(p.rng.Int63n(int64(hi-lo)))
}
