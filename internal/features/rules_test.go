package features

import "testing"

func TestNewPhraseSet_Expansion(t *testing.T) {
	ps := NewPhraseSet("test", []string{"s", "se"}, []string{"X pressure", "pressure of X"})

	want := []string{"s pressure", "se pressure", "pressure of s", "pressure of se"}
	if len(ps.Phrases) != len(want) {
		t.Fatalf("Phrases = %v, want %v", ps.Phrases, want)
	}
	for i := range want {
		if ps.Phrases[i] != want[i] {
			t.Errorf("Phrases[%d] = %q, want %q", i, ps.Phrases[i], want[i])
		}
	}
}

func TestPhraseSet_Find(t *testing.T) {
	ps := DefaultRules().Chalcogen

	tests := []struct {
		text      string
		wantMatch string
		wantOK    bool
	}{
		{"the sulfur pressure was", "sulfur pressure", true},
		{"(se vapor pressure)", "se vapor pressure", true},
		{"pressure of  s2 was", "pressure of  s2", true},
		{"pressure of sample", "", false},
		{"gas pressure", "", false},
		{"se2pressure", "", false},
	}

	for _, tt := range tests {
		got, ok := ps.Find(tt.text)
		if ok != tt.wantOK || got != tt.wantMatch {
			t.Errorf("Find(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.wantMatch, tt.wantOK)
		}
	}
}

func TestTokenSet_Find(t *testing.T) {
	ts := DefaultRules().PressureUnit

	tests := []struct {
		text      string
		wantMatch string
		wantOK    bool
	}{
		{"2 atm", "atm", true},
		{"10mbar", "mbar", true},
		{"at 5 kpa.", "kpa", true},
		{"50 mtorr", "mtorr", true},
		{"[pa]", "pa", true},
		{"atmospheric", "", false},
		{"barrier", "", false},
		{"paper", "", false},
		{"spa", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ts.Find(tt.text)
		if ok != tt.wantOK || got != tt.wantMatch {
			t.Errorf("Find(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.wantMatch, tt.wantOK)
		}
	}
}

func TestKeywordSet_FirstKeywordWins(t *testing.T) {
	ks := &KeywordSet{Name: "k", Keywords: []string{"quench", "quenched"}}
	got, ok := ks.Find("it was quenched")
	if !ok || got != "quench" {
		t.Errorf("Find() = (%q, %v), want (\"quench\", true)", got, ok)
	}
}

func TestAnyOf_Find(t *testing.T) {
	a := DefaultRules().Volume
	if got, ok := a.Find("a 20 cm³ quartz vessel"); !ok || got != "cm³" {
		t.Errorf("Find() = (%q, %v), want (\"cm³\", true)", got, ok)
	}
	if got, ok := a.Find("no container here"); ok {
		t.Errorf("Find() = (%q, true), want no match", got)
	}
}

func TestDefaultRules_MethodHintOrder(t *testing.T) {
	hints := DefaultRules().MethodHints
	want := []MethodHint{MethodSputtering, MethodSolution, MethodEvaporation}
	if len(hints) != len(want) {
		t.Fatalf("len(MethodHints) = %d, want %d", len(hints), len(want))
	}
	for i, h := range hints {
		if h.Hint != want[i] {
			t.Errorf("MethodHints[%d] = %s, want %s", i, h.Hint, want[i])
		}
	}
}

func TestDefaultRules_Shared(t *testing.T) {
	if DefaultRules() != DefaultRules() {
		t.Error("DefaultRules() returned different instances")
	}
	if New(nil).Rules() != DefaultRules() {
		t.Error("New(nil) did not use the default rules")
	}
}

func TestStages_CoverEveryField(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range Stages {
		for _, f := range s.Fields {
			if seen[f] {
				t.Errorf("field %s produced by more than one stage", f)
			}
			seen[f] = true
		}
	}
	for _, f := range append(BoolFields, FieldMethodHint) {
		if !seen[f] {
			t.Errorf("no stage produces %s", f)
		}
	}
}

func TestFromBools_RoundTrip(t *testing.T) {
	v := Classify("annealed at 550°C for 2 h, sputtered, 5 mg in an ampoule")
	got, err := FromBools(v.Bools(), v.SynthesisMethodHint)
	if err != nil {
		t.Fatalf("FromBools() error = %v", err)
	}
	if got != v {
		t.Errorf("FromBools(Bools()) = %+v, want %+v", got, v)
	}

	if _, err := FromBools([]bool{true}, MethodUnknown); err == nil {
		t.Error("FromBools() with wrong length should fail")
	}
}

func TestParseMethodHint(t *testing.T) {
	for _, h := range MethodHints {
		got, err := ParseMethodHint(string(h))
		if err != nil || got != h {
			t.Errorf("ParseMethodHint(%q) = (%v, %v)", h, got, err)
		}
	}
	if _, err := ParseMethodHint("CVD"); err == nil {
		t.Error("ParseMethodHint(\"CVD\") should fail")
	}
}

func TestTier_String(t *testing.T) {
	if TierHigh.String() != "high" || TierMedium.String() != "medium" || TierLow.String() != "low" {
		t.Errorf("unexpected tier names: %s %s %s", TierHigh, TierMedium, TierLow)
	}
}
