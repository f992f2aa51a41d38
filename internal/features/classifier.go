package features

import "strings"

// Normalize lowercases text. Superscript digits, minus glyphs and every
// other character are left in place for the cooling-rate pattern.
func Normalize(text string) string {
	return strings.ToLower(text)
}

// Stage is one independent detector. Stages read normalized text and set
// only their own fields.
type Stage struct {
	Name   string
	Tier   Tier
	Fields []string
	detect func(r *Rules, text string, v *FeatureVector, ev *evidence)
}

// Stages lists the detectors in the order they run.
var Stages = []Stage{
	{Name: "temperature", Tier: TierHigh, Fields: []string{FieldTemperature}, detect: detectTemperature},
	{Name: "duration", Tier: TierHigh, Fields: []string{FieldTime}, detect: detectDuration},
	{Name: "cooling", Tier: TierMedium, Fields: []string{FieldCoolingInfo, FieldCoolingData}, detect: detectCooling},
	{Name: "explicit-pressure", Tier: TierMedium, Fields: []string{FieldChalcogenPressure, FieldTinChalcogenidePressure}, detect: detectExplicitPressure},
	{Name: "calculable-pressure", Tier: TierLow, Fields: []string{FieldPressureCalculable}, detect: detectCalculablePressure},
	{Name: "method-hint", Tier: TierLow, Fields: []string{FieldMethodHint}, detect: detectMethodHint},
}

// Classifier applies a fixed set of rules to document text. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	rules *Rules
}

// New returns a classifier over rules. A nil rules uses DefaultRules.
func New(rules *Rules) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Rules returns the rule tables the classifier was built with.
func (c *Classifier) Rules() *Rules {
	return c.rules
}

// Classify returns the feature vector for text. Every field is always set;
// text that matches nothing yields all false and MethodUnknown.
func (c *Classifier) Classify(text string) FeatureVector {
	return c.run(text, nil)
}

// Explain classifies text and also reports which rules fired.
func (c *Classifier) Explain(text string) Explanation {
	ev := &evidence{hits: []Hit{}}
	v := c.run(text, ev)
	return Explanation{Features: v, Hits: ev.hits}
}

func (c *Classifier) run(text string, ev *evidence) FeatureVector {
	norm := Normalize(text)
	v := FeatureVector{SynthesisMethodHint: MethodUnknown}
	for _, s := range Stages {
		ev.enter(s.Name)
		s.detect(c.rules, norm, &v, ev)
	}
	return v
}

var defaultClassifier = New(nil)

// Classify classifies text with the default rules.
func Classify(text string) FeatureVector {
	return defaultClassifier.Classify(text)
}

// evidence collects hits for Explain. A nil *evidence discards them.
type evidence struct {
	stage string
	hits  []Hit
}

func (e *evidence) enter(stage string) {
	if e != nil {
		e.stage = stage
	}
}

func (e *evidence) add(field string, m Matcher, match string) {
	if e == nil {
		return
	}
	e.hits = append(e.hits, Hit{Stage: e.stage, Field: field, Rule: m.RuleName(), Match: match})
}

func detectTemperature(r *Rules, text string, v *FeatureVector, ev *evidence) {
	if s, ok := r.Temperature.Find(text); ok {
		v.HasTemperature = true
		ev.add(FieldTemperature, r.Temperature, s)
	}
}

func detectDuration(r *Rules, text string, v *FeatureVector, ev *evidence) {
	if s, ok := r.Duration.Find(text); ok {
		v.HasTime = true
		ev.add(FieldTime, r.Duration, s)
	}
}

// detectCooling sets the qualitative flag from method keywords alone. The
// quantitative flag needs both a rate phrase and a numeric rate: the phrase
// alone may describe heating, the number alone may be any ratio.
func detectCooling(r *Rules, text string, v *FeatureVector, ev *evidence) {
	if s, ok := r.CoolingMethod.Find(text); ok {
		v.HasCoolingInfo = true
		ev.add(FieldCoolingInfo, r.CoolingMethod, s)
	}

	phrase, hasPhrase := r.CoolingRate.Find(text)
	if !hasPhrase {
		return
	}
	value, hasValue := r.CoolingRateValue.Find(text)
	if !hasValue {
		return
	}
	v.HasCoolingData = true
	ev.add(FieldCoolingData, r.CoolingRate, phrase)
	ev.add(FieldCoolingData, r.CoolingRateValue, value)
}

// detectExplicitPressure requires a pressure unit somewhere in the text so
// that papers which only mention "selenium" or "atmospheric pressure" are
// not counted. The two species paths are independent.
func detectExplicitPressure(r *Rules, text string, v *FeatureVector, ev *evidence) {
	unit, hasUnit := r.PressureUnit.Find(text)
	if !hasUnit {
		return
	}
	if s, ok := r.Chalcogen.Find(text); ok {
		v.HasChalcogenPressureExplicit = true
		ev.add(FieldChalcogenPressure, r.PressureUnit, unit)
		ev.add(FieldChalcogenPressure, r.Chalcogen, s)
	}
	if s, ok := r.TinChalcogenide.Find(text); ok {
		v.HasTinChalcogenidePressureExplicit = true
		ev.add(FieldTinChalcogenidePressure, r.PressureUnit, unit)
		ev.add(FieldTinChalcogenidePressure, r.TinChalcogenide, s)
	}
}

// detectCalculablePressure flags papers that report a mass and a container,
// the inputs to an ideal-gas estimate. Necessary, not sufficient.
func detectCalculablePressure(r *Rules, text string, v *FeatureVector, ev *evidence) {
	mass, hasMass := r.Mass.Find(text)
	if !hasMass {
		return
	}
	vol, hasVol := r.Volume.Find(text)
	if !hasVol {
		return
	}
	v.HasPressureCalculable = true
	ev.add(FieldPressureCalculable, r.Mass, mass)
	ev.add(FieldPressureCalculable, r.Volume, vol)
}

func detectMethodHint(r *Rules, text string, v *FeatureVector, ev *evidence) {
	for _, rule := range r.MethodHints {
		if s, ok := rule.Match.Find(text); ok {
			v.SynthesisMethodHint = rule.Hint
			ev.add(FieldMethodHint, rule.Match, s)
			return
		}
	}
}
