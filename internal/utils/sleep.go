package utils

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// session fatigue state — reset at the start of each hunt session.
var (
	sessionMu    sync.RWMutex
	sessionStart time.Time
)

// SetSessionStart records the start of a new hunt session. Call once each
// time a supervisor begins hunting. Sleep will then apply a progressive
// fatigue multiplier that rises from 1.0 to 1.25 over the first 3 hours,
// modelling the mild reaction-time slowdown of extended human play.
func SetSessionStart() {
	sessionMu.Lock()
	sessionStart = time.Now()
	sessionMu.Unlock()
}

// ResetSession clears the fatigue state, returning Sleep to a 1.0 baseline.
func ResetSession() {
	sessionMu.Lock()
	sessionStart = time.Time{}
	sessionMu.Unlock()
}

// sessionFatigue returns a multiplier in [1.0, 1.25] that grows linearly over
// the first 3 hours of a session and then plateaus. Returns 1.0 when no
// session has been started.
func sessionFatigue() float64 {
	sessionMu.RLock()
	start := sessionStart
	sessionMu.RUnlock()
	if start.IsZero() {
		return 1.0
	}
	f := time.Since(start).Hours() / 3.0
	if f > 1.0 {
		f = 1.0
	}
	return 1.0 + 0.25*f
}

// sampleGamma returns a sample from the Gamma(shape, scale) distribution using
// the Marsaglia-Tsang squeeze method. shape must be >= 1.
func sampleGamma(shape, scale float64) float64 {
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)
	for {
		x := rand.NormFloat64()
		v := 1.0 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		x2 := x * x
		u := rand.Float64()
		// Fast accept path
		if u < 1.0-0.0331*(x2*x2) {
			return d * v * scale
		}
		// Slow accept path
		if math.Log(u) < 0.5*x2+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// Sleep pauses for a duration drawn from a Gamma(4, 0.25) distribution centred
// on the requested millisecond value (mean multiplier = 1.0). Right-skewed,
// which resembles empirical human reaction-time data far better than flat
// uniform jitter. The multiplier is clamped to [0.4, 2.5] to prevent
// pathological extremes.
func Sleep(milliseconds int) {
	const shape = 4.0
	const scale = 0.25 // mean = shape*scale = 1.0
	multiplier := sampleGamma(shape, scale)
	if multiplier < 0.4 {
		multiplier = 0.4
	}
	if multiplier > 2.5 {
		multiplier = 2.5
	}
	sleepMs := int(float64(milliseconds) * multiplier * sessionFatigue())
	time.Sleep(time.Duration(sleepMs) * time.Millisecond)
}

// RandomDurationMs returns a uniformly distributed duration in [min, max] ms.
func RandomDurationMs(min, max int) time.Duration {
	if max <= min {
		return time.Duration(min) * time.Millisecond
	}
	return time.Duration(min+rand.Intn(max-min+1)) * time.Millisecond
}
