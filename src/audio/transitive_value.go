package audio

// gainRampDuration is how long an output level change takes to settle.
const gainRampDuration = 50.0 // ms

// ----- Transitive Value ----- //

// transitiveValue glides linearly to its target over a fixed duration. A new
// target restarts the ramp from wherever the value currently is.
type transitiveValue struct {
	length       int // samples per ramp
	initialValue float64
	targetValue  float64
	value        float64
	pos          int
}

func (tv *transitiveValue) init(sampleRate float64, duration float64, value float64) {
	tv.length = int(sampleRate * duration / 1000)
	if tv.length < 1 {
		tv.length = 1
	}
	tv.reset(value)
}

// reset jumps to value without ramping.
func (tv *transitiveValue) reset(value float64) {
	tv.initialValue = value
	tv.targetValue = value
	tv.value = value
	tv.pos = tv.length
}

func (tv *transitiveValue) linear(targetValue float64) {
	if targetValue == tv.targetValue {
		return
	}
	tv.initialValue = tv.value
	tv.targetValue = targetValue
	tv.pos = 0
}

func (tv *transitiveValue) step() float64 {
	if tv.pos < tv.length {
		tv.pos++
		if tv.pos == tv.length {
			tv.value = tv.targetValue
		} else {
			t := float64(tv.pos) / float64(tv.length)
			tv.value = t*tv.targetValue + (1-t)*tv.initialValue
		}
	}
	return tv.value
}

