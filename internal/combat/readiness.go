package combat

import (
	"time"

	"github.com/kaelthys/atreia/internal/config"
)

// Evaluator answers readiness questions against the cooldown tracker and a
// caller-supplied clock. It never caches "now": every check re-derives the
// answer from the timestamps, so repeated calls with the same arguments and
// no intervening RecordUse are idempotent.
type Evaluator struct {
	cfg     *config.HunterCfg
	tracker *Tracker
}

func NewEvaluator(cfg *config.HunterCfg, tracker *Tracker) *Evaluator {
	return &Evaluator{cfg: cfg, tracker: tracker}
}

// SkillReady reports whether the keybind's individual cooldown has elapsed.
// A keybind that never fired is ready.
func (e *Evaluator) SkillReady(kb config.Keybind, now time.Time) bool {
	last, ok := e.tracker.LastUse(kb.String())
	if !ok {
		return true
	}
	return now.Sub(last) >= e.cfg.SkillCooldown(kb)
}

// SkillRemaining returns how long until the keybind is ready again, zero if
// ready now.
func (e *Evaluator) SkillRemaining(kb config.Keybind, now time.Time) time.Duration {
	last, ok := e.tracker.LastUse(kb.String())
	if !ok {
		return 0
	}
	remaining := e.cfg.SkillCooldown(kb) - now.Sub(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ComboReady reports whether the combo may fire: it must be enabled, its own
// cooldown satisfied, and every member skill individually ready. The member
// check prevents a combo from desynchronizing with skills still cooling down
// from unrelated prior use.
func (e *Evaluator) ComboReady(combo config.ComboSet, now time.Time) bool {
	if !combo.Enabled {
		return false
	}
	if last, ok := e.tracker.LastUse(combo.Name); ok && now.Sub(last) < combo.Cooldown() {
		return false
	}
	for _, kb := range combo.Skills {
		if !e.SkillReady(kb, now) {
			return false
		}
	}
	return true
}

// ComboRemaining returns the combo's own remaining cooldown, ignoring member
// skills. Used for dashboard display only.
func (e *Evaluator) ComboRemaining(combo config.ComboSet, now time.Time) time.Duration {
	last, ok := e.tracker.LastUse(combo.Name)
	if !ok {
		return 0
	}
	remaining := combo.Cooldown() - now.Sub(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// GlobalReady reports whether the shared single-skill cooldown has elapsed.
// It gates how soon after any single-skill action another may fire,
// independent of which keybind was used.
func (e *Evaluator) GlobalReady(now time.Time) bool {
	last, ok := e.tracker.LastUse(GlobalCooldownID)
	if !ok {
		return true
	}
	return now.Sub(last) >= e.cfg.GlobalCooldown()
}

// ReadySingleSkills filters the single-skill pool down to keybinds whose
// individual cooldown is ready. The global cooldown is checked separately
// via GlobalReady.
func (e *Evaluator) ReadySingleSkills(now time.Time) []config.Keybind {
	pool := e.cfg.SingleSkillPool()
	ready := make([]config.Keybind, 0, len(pool))
	for _, kb := range pool {
		if e.SkillReady(kb, now) {
			ready = append(ready, kb)
		}
	}
	return ready
}

// ReadyCombos filters the enabled combo sets to those fully ready now.
func (e *Evaluator) ReadyCombos(now time.Time) []config.ComboSet {
	combos := e.cfg.EnabledCombos()
	ready := make([]config.ComboSet, 0, len(combos))
	for _, combo := range combos {
		if e.ComboReady(combo, now) {
			ready = append(ready, combo)
		}
	}
	return ready
}
