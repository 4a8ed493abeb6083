package detect

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/kaelthys/atreia/internal/config"
)

// Class is a detector output class. The model is trained on the AION HUD;
// the engine only cares about the mob classes, the target marker, the combat
// health indicator and the minimap dots.
type Class string

const (
	MobOnCursor     Class = "mob_oncursor"
	MobNear         Class = "mob_near"
	MobAway         Class = "mob_away"
	MobTarget       Class = "mob_target"
	MobCombatHealth Class = "mob_combat_health"
	MapDot          Class = "map_dot"
)

// targetPriority orders mob classes by engagement preference.
var targetPriority = map[Class]int{
	MobOnCursor: 0,
	MobNear:     1,
	MobAway:     2,
}

// Box is an axis-aligned bounding box in window pixel coordinates, with
// (X, Y) the top-left corner.
type Box struct {
	X, Y, W, H float64
}

func (b Box) Center() (float64, float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// IoU returns the intersection-over-union overlap of two boxes, 0 when they
// are disjoint.
func (b Box) IoU(o Box) float64 {
	ix1 := math.Max(b.X, o.X)
	iy1 := math.Max(b.Y, o.Y)
	ix2 := math.Min(b.X+b.W, o.X+o.W)
	iy2 := math.Min(b.Y+b.H, o.Y+o.H)
	if ix2 <= ix1 || iy2 <= iy1 {
		return 0
	}
	inter := (ix2 - ix1) * (iy2 - iy1)
	union := b.W*b.H + o.W*o.H - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Detection is one typed detector hit.
type Detection struct {
	Class      Class
	Box        Box
	Confidence float64
}

// Snapshot is the full detector output for one captured frame, together
// with the window size the coordinates are expressed in.
type Snapshot struct {
	Detections []Detection
	WindowW    int
	WindowH    int
	CapturedAt time.Time
}

// overlapThreshold is the minimum IoU for associating a marker or health bar
// with a mob box. Detector boxes rarely align exactly, so the bar is low.
const overlapThreshold = 0.05

// AbilityGate reports whether a combat health indicator is present — the
// precondition for skill and combo attack modes.
func (s Snapshot) AbilityGate() bool {
	for _, d := range s.Detections {
		if d.Class == MobCombatHealth {
			return true
		}
	}
	return false
}

// FindTarget picks the mob to engage: best class priority first, then mobs
// carrying a target marker, then smallest distance to the screen center
// (where the player stands). Detections below confThresh are ignored.
func (s Snapshot) FindTarget(confThresh float64) (Detection, bool) {
	type candidate struct {
		det       Detection
		priority  int
		marked    bool
		distance  float64
	}

	cx := float64(s.WindowW) / 2
	cy := float64(s.WindowH) / 2

	var candidates []candidate
	for _, d := range s.Detections {
		prio, isMob := targetPriority[d.Class]
		if !isMob || d.Confidence < confThresh {
			continue
		}
		marked := false
		for _, m := range s.Detections {
			if m.Class == MobTarget && d.Box.IoU(m.Box) > overlapThreshold {
				marked = true
				break
			}
		}
		mx, my := d.Box.Center()
		candidates = append(candidates, candidate{
			det:      d,
			priority: prio,
			marked:   marked,
			distance: math.Hypot(mx-cx, my-cy),
		})
	}

	if len(candidates) == 0 {
		return Detection{}, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		if a.marked != b.marked {
			return a.marked
		}
		return a.distance < b.distance
	})

	return candidates[0].det, true
}

// HealthFor reports whether a combat health bar overlaps the given target.
func (s Snapshot) HealthFor(target Detection) bool {
	for _, d := range s.Detections {
		if d.Class == MobCombatHealth && target.Box.IoU(d.Box) > overlapThreshold {
			return true
		}
	}
	return false
}

// ClickPoint selects where inside the target box to click: horizontally
// centered, vertically in the configured lower band of the box (the mob's
// body rather than its nameplate), plus pixel jitter. The point stays a
// click target even when jitter would push it past the window edge.
func ClickPoint(target Detection, stealth config.StealthCfg, rng *rand.Rand) (int, int) {
	band := stealth.ClickBandMin + rng.Float64()*(stealth.ClickBandMax-stealth.ClickBandMin)

	x := target.Box.X + target.Box.W/2
	y := target.Box.Y + target.Box.H*band

	if j := stealth.ClickJitterPx; j > 0 {
		x += float64(rng.Intn(2*j+1) - j)
		y += float64(rng.Intn(2*j+1) - j)
	}

	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return int(x), int(y)
}
