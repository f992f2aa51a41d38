package features

import (
	"regexp"
	"strings"
)

// Whitespace in extracted PDF text includes no-break and thin spaces.
const ws = `[\s\p{Zs}]`

// Unit tokens must stand alone: not preceded by a letter or a period (so the
// "g" of "e.g." is not grams) and not followed by a letter or digit.
const (
	unitBefore = `(?:^|[^\p{L}.])`
	unitAfter  = `(?:[^\p{L}\p{N}]|$)`
)

// Phrases must not be glued to a neighbouring letter or digit, so "gas
// pressure" never reads as "s pressure".
const (
	phraseBefore = `(?:^|[^\p{L}\p{N}])`
	phraseAfter  = `(?:[^\p{L}\p{N}]|$)`
)

// Matcher is a single named rule set. Find returns the first matching
// snippet of normalized text.
type Matcher interface {
	RuleName() string
	Find(text string) (string, bool)
}

// KeywordSet matches any keyword as a plain substring. Keywords double as
// word stems ("sputter" matches "sputtered").
type KeywordSet struct {
	Name     string
	Keywords []string
}

func (k *KeywordSet) RuleName() string { return k.Name }

func (k *KeywordSet) Find(text string) (string, bool) {
	for _, kw := range k.Keywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}

// TokenSet matches short unit tokens (mbar, mg, ml, ...) that stand alone.
// A leading number is allowed, so "10mbar" matches while "barrier" does not.
type TokenSet struct {
	Name   string
	Tokens []string
	re     *regexp.Regexp
}

// NewTokenSet compiles a token set. Tokens are tried in the order given.
func NewTokenSet(name string, tokens ...string) *TokenSet {
	return &TokenSet{
		Name:   name,
		Tokens: tokens,
		re:     regexp.MustCompile(unitBefore + "(" + alternation(tokens) + ")" + unitAfter),
	}
}

func (t *TokenSet) RuleName() string { return t.Name }

func (t *TokenSet) Find(text string) (string, bool) {
	m := t.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// PhraseSet matches every combination of a species name with a phrase
// template. Templates use "X" as the species placeholder, e.g.
// "partial pressure of X".
type PhraseSet struct {
	Name      string
	Species   []string
	Templates []string
	Phrases   []string
	re        *regexp.Regexp
}

// NewPhraseSet expands species into templates and compiles the result.
// Words in a phrase may be separated by any run of whitespace.
func NewPhraseSet(name string, species, templates []string) *PhraseSet {
	var phrases []string
	for _, tmpl := range templates {
		for _, sp := range species {
			phrases = append(phrases, strings.ReplaceAll(tmpl, "X", sp))
		}
	}

	alts := make([]string, len(phrases))
	for i, p := range phrases {
		words := strings.Fields(p)
		for j, w := range words {
			words[j] = regexp.QuoteMeta(w)
		}
		alts[i] = strings.Join(words, ws+"+")
	}

	return &PhraseSet{
		Name:      name,
		Species:   species,
		Templates: templates,
		Phrases:   phrases,
		re:        regexp.MustCompile(phraseBefore + "(" + strings.Join(alts, "|") + ")" + phraseAfter),
	}
}

func (p *PhraseSet) RuleName() string { return p.Name }

func (p *PhraseSet) Find(text string) (string, bool) {
	m := p.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Pattern is a named regular expression over normalized text.
type Pattern struct {
	Name string
	Expr string
	re   *regexp.Regexp
}

// NewPattern compiles expr and panics if it is invalid; rule tables are
// built once at init.
func NewPattern(name, expr string) *Pattern {
	return &Pattern{Name: name, Expr: expr, re: regexp.MustCompile(expr)}
}

func (p *Pattern) RuleName() string { return p.Name }

func (p *Pattern) Find(text string) (string, bool) {
	loc := p.re.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return strings.TrimSpace(text[loc[0]:loc[1]]), true
}

// AnyOf matches when any of its members matches, tried in order.
type AnyOf struct {
	Name     string
	Matchers []Matcher
}

func (a *AnyOf) RuleName() string { return a.Name }

func (a *AnyOf) Find(text string) (string, bool) {
	for _, m := range a.Matchers {
		if s, ok := m.Find(text); ok {
			return s, true
		}
	}
	return "", false
}

// HintRule assigns Hint when Match fires.
type HintRule struct {
	Hint  MethodHint
	Match Matcher
}

// Rules holds every rule table the classifier consults. A Rules value is
// built once and shared read-only between goroutines; callers must not
// modify it after construction.
type Rules struct {
	Temperature      *Pattern
	Duration         *Pattern
	CoolingMethod    *KeywordSet
	CoolingRate      *KeywordSet
	CoolingRateValue *Pattern
	PressureUnit     *TokenSet
	Chalcogen        *PhraseSet
	TinChalcogenide  *PhraseSet
	Mass             *AnyOf
	Volume           *AnyOf

	// MethodHints is evaluated in order; the first rule that fires wins.
	MethodHints []HintRule
}

var pressureTemplates = []string{
	"X pressure",
	"pressure of X",
	"X partial pressure",
	"partial pressure of X",
	"X vapour pressure",
	"X vapor pressure",
}

// NewRules builds the rule tables for CZTS/CZTSe anneal surveys.
func NewRules() *Rules {
	return &Rules{
		// Three digits only: two-digit values are usually room temperature.
		Temperature: NewPattern("temperature", `\d{3}`+ws+`?[°º˚]?c`),

		Duration: NewPattern("duration", `\d+`+ws+`?(?:min|hour|h\b)`),

		CoolingMethod: &KeywordSet{
			Name: "cooling-method",
			Keywords: []string{
				"quench", "quenched",
				"natural cooling", "natural cool", "cooled naturally",
				"furnace cool",
				"slow cool", "cooled slowly", "slowly cooled",
			},
		},

		CoolingRate: &KeywordSet{
			Name: "cooling-rate",
			Keywords: []string{
				"cooling rate", "cool rate", "quench rate",
				"cooled at a rate", "rate of cooling", "cooled at",
			},
		},

		// 10°c/min, 5 k/s, 10 k·min⁻¹, 2 °c min^-1, 3 k s−1
		CoolingRateValue: NewPattern("cooling-rate-value",
			`\d+`+ws+`*(?:[°º˚]|deg)?`+ws+`*[ck]`+
				`(?:`+ws+`*/`+ws+`*(?:min|s)`+
				`|[\s\p{Zs}.·⋅]*(?:min|s)`+ws+`*\^?`+ws+`*[-⁻−–]`+ws+`*[1¹])`+
				`(?:[^\p{L}\p{N}_]|$)`),

		PressureUnit: NewTokenSet("pressure-unit",
			"mbar", "mtorr", "torr", "atm", "bar", "kpa", "mpa", "hpa", "pa"),

		Chalcogen: NewPhraseSet("chalcogen-term",
			[]string{"sulfur", "sulphur", "selenium", "s2", "se2", "se", "s"},
			pressureTemplates),

		TinChalcogenide: NewPhraseSet("tin-chalcogenide-term",
			[]string{"tin sulfide", "tin sulphide", "tin selenide", "snse", "sns"},
			pressureTemplates),

		Mass: &AnyOf{
			Name: "mass-term",
			Matchers: []Matcher{
				&KeywordSet{Name: "mass-word", Keywords: []string{"weight", "amount"}},
				NewTokenSet("mass-unit", "mg", "g"),
			},
		},

		Volume: &AnyOf{
			Name: "volume-term",
			Matchers: []Matcher{
				&KeywordSet{Name: "container", Keywords: []string{
					"ampoule", "ampule", "tube", "graphite box", "crucible", "chamber volume",
				}},
				NewTokenSet("volume-unit", "cm3", "cm³", "ml"),
			},
		},

		MethodHints: []HintRule{
			{MethodSputtering, &KeywordSet{Name: "sputtering", Keywords: []string{"sputter"}}},
			{MethodSolution, &KeywordSet{Name: "solution", Keywords: []string{"spin", "sol-gel"}}},
			{MethodEvaporation, &KeywordSet{Name: "evaporation", Keywords: []string{"evaporat"}}},
		},
	}
}

var defaultRules = NewRules()

// DefaultRules returns the shared, read-only default rule tables.
func DefaultRules() *Rules {
	return defaultRules
}

// alternation quotes tokens into a regexp alternation.
func alternation(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return strings.Join(quoted, "|")
}
