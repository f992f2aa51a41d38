package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/synthscan/internal/features"
)

func init() {
	rootCmd.AddCommand(rulesCmd)
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List detector stages and their rule tables",
	Long: `List the detector stages in the order they run, the confidence tier of
each stage, the fields it sets and the keyword, unit and phrase tables it
consults.`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

// StageInfo describes one detector stage.
type StageInfo struct {
	Name   string   `json:"name"`
	Tier   string   `json:"tier"`
	Fields []string `json:"fields"`
}

// RuleInfo describes one rule table.
type RuleInfo struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Entries []string `json:"entries"`
}

// RulesResponse is the response for the rules command.
type RulesResponse struct {
	Stages []StageInfo `json:"stages"`
	Rules  []RuleInfo  `json:"rules"`
}

func runRules(cmd *cobra.Command, args []string) error {
	resp := RulesResponse{Rules: describeRules(features.DefaultRules())}
	for _, s := range features.Stages {
		resp.Stages = append(resp.Stages, StageInfo{Name: s.Name, Tier: s.Tier.String(), Fields: s.Fields})
	}

	if !humanOutput {
		outputJSON(resp)
		return nil
	}

	fmt.Println("Stages:")
	for _, s := range resp.Stages {
		fmt.Printf("  %-20s %-7s %s\n", s.Name, s.Tier, strings.Join(s.Fields, ", "))
	}
	fmt.Println("\nRules:")
	for _, r := range resp.Rules {
		fmt.Printf("  %s (%s)\n", r.Name, r.Kind)
		for _, e := range r.Entries {
			fmt.Printf("    %s\n", e)
		}
	}
	return nil
}

// describeRules flattens the rule tables in the order stages consult them.
func describeRules(r *features.Rules) []RuleInfo {
	matchers := []features.Matcher{
		r.Temperature, r.Duration,
		r.CoolingMethod, r.CoolingRate, r.CoolingRateValue,
		r.PressureUnit, r.Chalcogen, r.TinChalcogenide,
		r.Mass, r.Volume,
	}
	for _, h := range r.MethodHints {
		matchers = append(matchers, h.Match)
	}

	var out []RuleInfo
	for _, m := range matchers {
		out = append(out, describeMatcher(m)...)
	}
	return out
}

func describeMatcher(m features.Matcher) []RuleInfo {
	switch v := m.(type) {
	case *features.KeywordSet:
		return []RuleInfo{{Name: v.Name, Kind: "keywords", Entries: v.Keywords}}
	case *features.TokenSet:
		return []RuleInfo{{Name: v.Name, Kind: "units", Entries: v.Tokens}}
	case *features.PhraseSet:
		return []RuleInfo{{Name: v.Name, Kind: "phrases", Entries: v.Phrases}}
	case *features.Pattern:
		return []RuleInfo{{Name: v.Name, Kind: "pattern", Entries: []string{v.Expr}}}
	case *features.AnyOf:
		var out []RuleInfo
		for _, sub := range v.Matchers {
			out = append(out, describeMatcher(sub)...)
		}
		return out
	default:
		return []RuleInfo{{Name: m.RuleName(), Kind: "custom"}}
	}
}
