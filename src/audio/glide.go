package audio

// glideStart returns the pitch a newly triggered note starts from. With
// glide, the note slides in from the previous note; glideBend is added on
// top in every mode and slides away at the glide rate.
func glideStart(mode int, target float64, previous float64, hasPrevious bool, legato bool, bend float64) float64 {
	start := target
	if hasPrevious && (mode == GlideAlways || (mode == GlideLegato && legato)) {
		start = previous
	}
	return start + bend
}

// glideStep moves pitch towards target by one modulation tick.
func glideStep(pitch float64, target float64, rate float64) float64 {
	return pitch + (target-pitch)*rate
}
