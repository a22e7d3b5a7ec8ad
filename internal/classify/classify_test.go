package classify

import (
	"strings"
	"testing"
)

var testIndicators = Indicators{
	ActionKeywords:         []string{"follow up", "schedule"},
	OrganizationalKeywords: []string{"meeting", "project", "deadline"},
}

func countTrue(bs []bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}

func TestSignals_Individual(t *testing.T) {
	cases := []struct {
		name string
		text string
		idx  int
	}{
		{"long", strings.Repeat("x", 101), 0},
		{"newlines", "a\nb\nc\nd", 1},
		{"periods", "a. b. c. d.", 2},
		{"commas", "a, b, c, d, e, f", 3},
		{"action keyword", "Please FOLLOW UP with Sam", 4},
		{"organizational words", "meeting project deadline", 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Signals(tc.text, testIndicators)
			if len(s) != 6 {
				t.Fatalf("expected 6 signals, got %d", len(s))
			}
			if !s[tc.idx] {
				t.Fatalf("signal %d did not fire for %q: %v", tc.idx, tc.text, s)
			}
			if countTrue(s) != 1 {
				t.Fatalf("expected exactly one signal for %q, got %v", tc.text, s)
			}
		})
	}
}

func TestSignals_Boundaries(t *testing.T) {
	s := Signals(strings.Repeat("x", 100), testIndicators)
	if s[0] {
		t.Fatalf("exactly 100 chars must not count as long")
	}
	accented := strings.Repeat("é", 60) + ",,,,,"
	s = Signals(accented, testIndicators)
	if s[0] || !s[3] {
		t.Fatalf("65 accented characters must not count as long: %v", s)
	}
	if IsBrainDump(accented, testIndicators) {
		t.Fatalf("a single signal must not make a brain dump")
	}
	if s = Signals(strings.Repeat("日", 101), testIndicators); !s[0] {
		t.Fatalf("101 CJK characters must count as long")
	}
	s = Signals("a\nb\nc", testIndicators)
	if s[1] {
		t.Fatalf("two newlines must not fire")
	}
	s = Signals("meeting project", testIndicators)
	if s[5] {
		t.Fatalf("two organizational words must not fire")
	}
}

func TestIsBrainDump_MatchesSignalCount(t *testing.T) {
	texts := []string{
		"buy milk",
		strings.Repeat("x", 150),
		strings.Repeat("x", 150) + "\n\n\n",
		"Notes from the meeting:\n- project kickoff\n- deadline friday\n- follow up with design",
		"a, b, c, d, e. f. g. h. i.",
	}
	for _, text := range texts {
		want := countTrue(Signals(text, testIndicators)) >= 2
		if got := IsBrainDump(text, testIndicators); got != want {
			t.Fatalf("IsBrainDump(%q)=%v want %v", text, got, want)
		}
	}
	if IsBrainDump("buy milk", testIndicators) {
		t.Fatalf("short message classified as brain dump")
	}
	if !IsBrainDump(texts[3], testIndicators) {
		t.Fatalf("meeting notes not classified as brain dump")
	}
}

func TestHasExplicitTaskMarker(t *testing.T) {
	if !HasExplicitTaskMarker("TODO: call mom") || !HasExplicitTaskMarker("I need to file taxes") {
		t.Fatalf("expected marker")
	}
	if HasExplicitTaskMarker("a thought about clouds") {
		t.Fatalf("unexpected marker")
	}
}

func TestQuickClassify(t *testing.T) {
	long := "We discussed the roadmap and the hiring plan, then reviewed budget items; afterwards we went over the launch checklist"
	cases := []struct {
		text  string
		label string
		conf  float64
	}{
		{long, LabelBrainDump, 0.7},
		{"schedule dentist", LabelSimpleTask, 0.6},
		{"remember the wifi password", LabelSimpleNote, 0.6},
		{"what time is it", LabelMessageAnalysis, 0.5},
	}
	for _, tc := range cases {
		got := QuickClassify(tc.text)
		if got.Classification != tc.label || got.Confidence != tc.conf || got.Reasoning == "" {
			t.Fatalf("QuickClassify(%q)=%+v want %s/%v", tc.text, got, tc.label, tc.conf)
		}
		if !IsLabel(got.Classification) {
			t.Fatalf("unknown label %s", got.Classification)
		}
	}
}
