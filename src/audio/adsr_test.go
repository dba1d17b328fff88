package audio

import "testing"

func newTestADSR() *adsr {
	c := NewCoefficients(DefaultSnapshot(), 48000)
	a := &adsr{}
	a.setParams(&c.ampEnv)
	return a
}

func TestADSRAttackToDecay(t *testing.T) {
	a := newTestADSR()
	a.sustainLevel = 0.5
	expectEqual(t, a.isIdle(), true)
	a.noteOn()
	expectEqual(t, a.stage, stageAttack)
	prev := 0.0
	for i := 0; i < 48000 && a.stage == stageAttack; i++ {
		l := a.step()
		if l < prev {
			t.Fatalf("attack must rise, got %v after %v", l, prev)
		}
		prev = l
	}
	expectEqual(t, a.stage, stageDecay)
	for i := 0; i < 48000*10 && a.stage == stageDecay; i++ {
		a.step()
	}
	expectEqual(t, a.stage, stageSustain)
	expectNearlyEqual(t, a.level, 0.5)
	expectEqual(t, a.isGated(), true)
}

func TestADSRSustainFollowsLevelChanges(t *testing.T) {
	a := newTestADSR()
	a.noteOn()
	for i := 0; i < 48000; i++ {
		a.step()
	}
	expectNearlyEqual(t, a.level, 1)
	a.sustainLevel = 0.2
	for i := 0; i < 48000*10; i++ {
		a.step()
	}
	expectNearlyEqual(t, a.level, 0.2)
	expectEqual(t, a.isGated(), true)
}

func TestADSRReleaseToIdle(t *testing.T) {
	a := newTestADSR()
	a.noteOn()
	for i := 0; i < 1000; i++ {
		a.step()
	}
	a.noteOff()
	expectEqual(t, a.stage, stageRelease)
	expectEqual(t, a.isGated(), false)
	n := 0
	for ; n < 48000*10 && !a.isIdle(); n++ {
		a.step()
	}
	expectEqual(t, a.isIdle(), true)
	expectEqual(t, a.level, 0.0)
	for i := 0; i < 1000; i++ {
		expectEqual(t, a.step(), 0.0)
	}
	expectEqual(t, a.isIdle(), true)
}

func TestADSRSoftRetrigger(t *testing.T) {
	a := newTestADSR()
	a.noteOn()
	for i := 0; i < 1000; i++ {
		a.step()
	}
	a.noteOff()
	for i := 0; i < 2000; i++ {
		a.step()
	}
	level := a.level
	if level <= 0 || level >= 1 {
		t.Fatalf("expected a partly released envelope, got %v", level)
	}
	a.noteOn()
	expectEqual(t, a.stage, stageAttack)
	expectEqual(t, a.level, level)
	next := a.step()
	if next <= level {
		t.Errorf("retrigger must continue upwards from %v, got %v", level, next)
	}
}

func TestADSRNoteOffWhileIdle(t *testing.T) {
	a := newTestADSR()
	a.noteOff()
	expectEqual(t, a.isIdle(), true)
	a.reset()
	expectEqual(t, a.stage, stageIdle)
	expectEqual(t, a.level, 0.0)
}

func TestADSRQuickRelease(t *testing.T) {
	a := newTestADSR()
	a.releaseMultiplier = 0.99999
	a.noteOn()
	for i := 0; i < 2000; i++ {
		a.step()
	}
	a.quickRelease()
	expectEqual(t, a.stage, stageRelease)
	c := NewCoefficients(DefaultSnapshot(), 48000)
	a.setParams(&c.ampEnv)
	for i := 0; i < 40; i++ {
		a.step()
	}
	expectEqual(t, a.isIdle(), true)
	expectEqual(t, a.quick, false)

	a.noteOn()
	a.quickRelease()
	a.noteOn()
	expectEqual(t, a.quick, false)

	a.reset()
	a.quickRelease()
	expectEqual(t, a.isIdle(), true)
}
