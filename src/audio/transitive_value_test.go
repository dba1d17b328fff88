package audio

import (
	"math"
	"testing"
)

func TestTransitiveValue(t *testing.T) {
	tv := transitiveValue{}
	tv.init(1000, 10, 1)
	expectEqual(t, tv.length, 10)
	expectEqual(t, tv.step(), 1.0)

	tv.linear(0)
	prev := 1.0
	for i := 0; i < 10; i++ {
		v := tv.step()
		if prev-v > 0.1+1e-9 || v > prev {
			t.Fatalf("step %d: unexpected jump from %v to %v", i, prev, v)
		}
		prev = v
	}
	expectEqual(t, prev, 0.0)
	expectEqual(t, tv.step(), 0.0)
}

func TestTransitiveValueRetarget(t *testing.T) {
	tv := transitiveValue{}
	tv.init(48000, gainRampDuration, 0)
	tv.linear(1)
	prev := 0.0
	for i := 0; i < 1000; i++ {
		prev = tv.step()
	}
	tv.linear(-1)
	maxDelta := 2.0 / float64(tv.length)
	for i := 0; i < tv.length+10; i++ {
		v := tv.step()
		if math.Abs(v-prev) > maxDelta+1e-9 {
			t.Fatalf("step %d: unexpected jump from %v to %v", i, prev, v)
		}
		prev = v
	}
	expectEqual(t, prev, -1.0)

	tv.linear(-1)
	expectEqual(t, tv.step(), -1.0)
	tv.reset(0.5)
	expectEqual(t, tv.step(), 0.5)
}
