package combat

import (
	"math/rand"

	"github.com/kaelthys/atreia/internal/config"
)

// Mode is the attack style picked for one tick.
type Mode int

const (
	ModeStandard Mode = iota
	ModeSingleSkill
	ModeCombo
)

func (m Mode) String() string {
	switch m {
	case ModeSingleSkill:
		return "single_skill"
	case ModeCombo:
		return "combo"
	default:
		return "standard"
	}
}

// ChooseMode draws an attack mode from the configured weight distribution.
// The ability gate is a hard precondition, not a probability adjustment:
// when it is closed only standard attacks are possible. A non-positive
// weight sum degrades to standard-only instead of dividing by zero.
// Selection is a pure function of its inputs and the supplied rand source.
func ChooseMode(w config.AttackWeights, gateOpen bool, r *rand.Rand) Mode {
	if !gateOpen {
		return ModeStandard
	}

	total := w.Standard + w.SingleSkill + w.Combo
	if total <= 0 {
		return ModeStandard
	}

	draw := r.Float64() * total
	if draw < w.Standard {
		return ModeStandard
	}
	if draw < w.Standard+w.SingleSkill {
		return ModeSingleSkill
	}
	return ModeCombo
}
