package cards

import "testing"

func TestClassifyCaseInsensitive(t *testing.T) {
	for _, name := range []string{"Strike", "strike+", "STRIKE_R", "Anger", "Glass Knife"} {
		if got := Classify(name); got != Attack {
			t.Fatalf("expected %q to be attack, got %s", name, got)
		}
	}
	for _, name := range []string{"Defend", "defend_g+", "Shrug It Off", "Leap"} {
		if got := Classify(name); got != Skill {
			t.Fatalf("expected %q to be skill, got %s", name, got)
		}
	}
	for _, name := range []string{"Inflame", "Demon Form", "Echo Form"} {
		if got := Classify(name); got != Power {
			t.Fatalf("expected %q to be power, got %s", name, got)
		}
	}
}

func TestCountScenario(t *testing.T) {
	c := Count([]string{"Strike", "Strike+", "Defend", "Anger"})
	if c.Attack != 3 || c.Skill != 1 || c.Power != 0 || c.Upgraded != 1 {
		t.Fatalf("unexpected counts: %+v", c)
	}
}

func TestCountDoubleCountsOverlap(t *testing.T) {
	c := Count([]string{"Strike Defend"})
	if c.Attack != 1 || c.Skill != 1 {
		t.Fatalf("expected card counted in both buckets, got %+v", c)
	}
	if c.Power != -1 {
		t.Fatalf("expected negative power remainder, got %d", c.Power)
	}
}

func TestCountEmptyDeck(t *testing.T) {
	if c := Count(nil); c != (Counts{}) {
		t.Fatalf("expected zero counts, got %+v", c)
	}
}
