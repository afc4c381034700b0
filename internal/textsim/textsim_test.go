package textsim

import "testing"

func TestRatio_Reflexive(t *testing.T) {
	inputs := []string{
		"Auto-suggest meeting prep",
		"a",
		"memory and multi-agent teammate hooks",
	}
	for _, s := range inputs {
		if got := Ratio(s, s); got != 1.0 {
			t.Errorf("Ratio(%q, %q) = %v, want 1.0", s, s, got)
		}
	}
}

func TestRatio_CaseInsensitive(t *testing.T) {
	if got := Ratio("Meeting Prep", "meeting prep"); got != 1.0 {
		t.Errorf("Ratio case-insensitive = %v, want 1.0", got)
	}
}

func TestRatio_Empty(t *testing.T) {
	if got := Ratio("", ""); got != 1.0 {
		t.Errorf("Ratio(empty, empty) = %v, want 1.0", got)
	}
	if got := Ratio("", "something"); got != 0.0 {
		t.Errorf("Ratio(empty, x) = %v, want 0.0", got)
	}
}

func TestRatio_Dissimilar(t *testing.T) {
	got := Ratio("apple", "zebra")
	if got >= 0.3 {
		t.Errorf("Ratio(apple, zebra) = %v, want < 0.3", got)
	}
}

func TestRatio_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"apple", "zebra"},
		{"meeting prep", "meeting preparation"},
	}
	for _, p := range pairs {
		ab := Ratio(p[0], p[1])
		ba := Ratio(p[1], p[0])
		if ab != ba {
			t.Errorf("Ratio(%q, %q) = %v but reversed = %v", p[0], p[1], ab, ba)
		}
	}
}

func TestRatio_SubstringScoresHigher(t *testing.T) {
	contained := Ratio("meeting prep", "auto-suggest meeting prep")
	unrelated := Ratio("meeting prep", "quarterly tax filing tool")
	if contained <= unrelated {
		t.Errorf("substring containment %v should score above unrelated %v", contained, unrelated)
	}
	if contained < 0.5 {
		t.Errorf("substring containment = %v, want >= 0.5", contained)
	}
}

func TestRatio_Deterministic(t *testing.T) {
	a := "proactively surfaces attendee context before meetings"
	b := "auto-suggest meeting prep with attendee context"
	first := Ratio(a, b)
	for range 5 {
		if got := Ratio(a, b); got != first {
			t.Fatalf("Ratio not deterministic: %v then %v", first, got)
		}
	}
}
