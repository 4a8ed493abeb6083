package combat

import (
	"math/rand"
	"time"

	"github.com/kaelthys/atreia/internal/config"
	"github.com/kaelthys/atreia/internal/input"
)

// Plan is a resolved attack: the ordered primitive actions to dispatch and
// the cooldown ids to stamp once dispatch succeeds. The mode recorded here
// is the mode actually executed, after any fallback.
type Plan struct {
	Mode    Mode
	Skill   config.Keybind // set when Mode == ModeSingleSkill
	Combo   string         // combo name when Mode == ModeCombo
	Actions []input.Action

	cooldownIDs []string
}

// MutatesCooldowns reports whether committing this plan touches the tracker.
// Standard attacks never do.
func (p Plan) MutatesCooldowns() bool {
	return len(p.cooldownIDs) > 0
}

// Resolver turns a selected attack mode into a concrete plan, consulting the
// readiness evaluator and degrading along Combo → SingleSkill → Standard so
// an invocation always yields an action.
type Resolver struct {
	cfg  *config.HunterCfg
	eval *Evaluator
	rng  *rand.Rand
}

func NewResolver(cfg *config.HunterCfg, eval *Evaluator, rng *rand.Rand) *Resolver {
	return &Resolver{cfg: cfg, eval: eval, rng: rng}
}

// Resolve builds the action plan for the given mode against the target's
// click point. It only reads cooldown state; recording happens in Commit,
// after the dispatcher reports success.
func (r *Resolver) Resolve(mode Mode, x, y int, now time.Time) Plan {
	switch mode {
	case ModeCombo:
		if plan, ok := r.resolveCombo(x, y, now); ok {
			return plan
		}
		// No ready combo: degrade to the single-skill path.
		fallthrough
	case ModeSingleSkill:
		if plan, ok := r.resolveSingleSkill(x, y, now); ok {
			return plan
		}
	}

	// Standard double-click. Also the terminal fallback: never a no-op.
	return Plan{
		Mode:    ModeStandard,
		Actions: []input.Action{input.Click{X: x, Y: y, Button: input.LeftButton, Count: 2}},
	}
}

func (r *Resolver) resolveSingleSkill(x, y int, now time.Time) (Plan, bool) {
	if !r.eval.GlobalReady(now) {
		return Plan{}, false
	}
	ready := r.eval.ReadySingleSkills(now)
	if len(ready) == 0 {
		return Plan{}, false
	}

	kb := ready[r.rng.Intn(len(ready))]
	return Plan{
		Mode:  ModeSingleSkill,
		Skill: kb,
		Actions: []input.Action{
			input.Click{X: x, Y: y, Button: input.LeftButton, Count: 1},
			input.PressKey{Key: kb},
		},
		cooldownIDs: []string{kb.String(), GlobalCooldownID},
	}, true
}

func (r *Resolver) resolveCombo(x, y int, now time.Time) (Plan, bool) {
	ready := r.eval.ReadyCombos(now)
	if len(ready) == 0 {
		return Plan{}, false
	}

	// Uniform choice among ready combos, matching single-skill selection.
	combo := ready[r.rng.Intn(len(ready))]

	actions := make([]input.Action, 0, 2*len(combo.Skills))
	actions = append(actions, input.Click{X: x, Y: y, Button: input.LeftButton, Count: 1})
	ids := make([]string, 0, len(combo.Skills)+1)
	ids = append(ids, combo.Name)
	for i, kb := range combo.Skills {
		actions = append(actions, input.PressKey{Key: kb})
		if i < len(combo.Skills)-1 {
			actions = append(actions, input.Wait{Duration: r.jitteredDelay(combo.SkillDelay())})
		}
		ids = append(ids, kb.String())
	}

	return Plan{
		Mode:        ModeCombo,
		Combo:       combo.Name,
		Actions:     actions,
		cooldownIDs: ids,
	}, true
}

// Commit stamps every cooldown id of a dispatched plan with the same
// timestamp. Must be called only after the dispatcher reported success;
// a failed dispatch must not consume cooldowns.
func (r *Resolver) Commit(plan Plan, now time.Time) {
	if len(plan.cooldownIDs) == 0 {
		return
	}
	r.eval.tracker.RecordUseAll(plan.cooldownIDs, now)
}

// jitteredDelay spreads the configured inter-skill delay by the profile's
// jitter fraction so combo rotations do not tick with machine regularity.
func (r *Resolver) jitteredDelay(base time.Duration) time.Duration {
	j := r.cfg.Stealth.SkillDelayJitter
	if j <= 0 || base <= 0 {
		return base
	}
	factor := 1 + j*(2*r.rng.Float64()-1)
	return time.Duration(float64(base) * factor)
}
