package audio

// ----- ADSR ----- //

const (
	stageIdle = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

// silence is the level below which a releasing envelope is considered done.
const silence = 0.0001

// quickReleaseMultiplier fades a force-released voice out in a few dozen
// samples.
const quickReleaseMultiplier = 0.75

/*
  1 +     _x_
    |   _/   \_
    |  /       \__
  s + /           x------x
    |/                    \_
    |                       \__
  0 +-----+-----+--------+-----x--
    |a    |d    |s       |r    |idle

  Every stage is a one-pole filter towards its target:
    level = target + (level - target) * multiplier
*/
type adsr struct {
	attackMultiplier  float64
	decayMultiplier   float64
	sustainLevel      float64
	releaseMultiplier float64
	level             float64
	stage             int
	quick             bool
}

func (a *adsr) setParams(p *envelopeCoefficients) {
	a.attackMultiplier = p.attack
	a.decayMultiplier = p.decay
	a.sustainLevel = p.sustain
	a.releaseMultiplier = p.release
}

func (a *adsr) reset() {
	a.level = 0
	a.stage = stageIdle
	a.quick = false
}

// noteOn restarts the attack from the current level, so a retriggered voice
// does not jump back to zero.
func (a *adsr) noteOn() {
	a.stage = stageAttack
	a.quick = false
}

func (a *adsr) noteOff() {
	if a.stage != stageIdle {
		a.stage = stageRelease
	}
}

// quickRelease enters the release stage with a very short release time. It
// survives later setParams calls until the next noteOn.
func (a *adsr) quickRelease() {
	if a.stage != stageIdle {
		a.stage = stageRelease
		a.quick = true
	}
}

func (a *adsr) isIdle() bool {
	return a.stage == stageIdle
}

// isGated reports whether the key that started the envelope is still down.
func (a *adsr) isGated() bool {
	return a.stage == stageAttack || a.stage == stageDecay || a.stage == stageSustain
}

func (a *adsr) step() float64 {
	switch a.stage {
	case stageAttack:
		a.level = 1 + (a.level-1)*a.attackMultiplier
		if a.level >= 0.9999 {
			a.stage = stageDecay
		}
	case stageDecay:
		a.level = a.sustainLevel + (a.level-a.sustainLevel)*a.decayMultiplier
		if d := a.level - a.sustainLevel; d < silence && d > -silence {
			a.stage = stageSustain
		}
	case stageSustain:
		// keep following the sustain level so that edits glide
		a.level = a.sustainLevel + (a.level-a.sustainLevel)*a.decayMultiplier
	case stageRelease:
		if a.quick {
			a.level *= quickReleaseMultiplier
		} else {
			a.level *= a.releaseMultiplier
		}
		if a.level < silence {
			a.level = 0
			a.stage = stageIdle
			a.quick = false
		}
	default:
		a.level = 0
	}
	return a.level
}
