package audio

const noiseSeed = 22222

// noise is a linear congruential generator. It is deterministic so that two
// renders of the same input are bit-identical.
type noise struct {
	seed uint32
}

func (n *noise) reset(seed uint32) {
	n.seed = seed
}

func (n *noise) step() float64 {
	n.seed = n.seed*196314165 + 907633515
	temp := int32(n.seed>>7) - 16777216
	return float64(temp) / 16777216
}
