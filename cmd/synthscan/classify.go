package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/synthscan/internal/features"
	"github.com/matsen/synthscan/internal/pdf"
)

var (
	classifyExplain bool
	classifyPages   int
)

func init() {
	classifyCmd.Flags().BoolVar(&classifyExplain, "explain", false, "Report which rules fired")
	classifyCmd.Flags().IntVar(&classifyPages, "pages", 0, "Pages of text to read per PDF (0 = all)")
	rootCmd.AddCommand(classifyCmd)
}

var classifyCmd = &cobra.Command{
	Use:   "classify <file>... | -",
	Short: "Classify individual documents",
	Long: `Classify one or more PDF or text files, or a PDF or text read from
stdin ("-").

Use --explain to see the rule and matched snippet behind each feature.

Examples:
  synthscan classify paper.pdf --explain --human
  pdftotext paper.pdf - | synthscan classify -
  curl -sL https://example.org/paper.pdf | synthscan classify -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

// ClassifyResult is the classification of one input.
type ClassifyResult struct {
	File     string                 `json:"file"`
	DOI      string                 `json:"doi,omitempty"`
	Features features.FeatureVector `json:"features"`
	Hits     []features.Hit         `json:"hits,omitempty"`
}

// ClassifyResponse is the response for the classify command.
type ClassifyResponse struct {
	Results []ClassifyResult `json:"results"`
	Skipped []string         `json:"skipped"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if cmd.Flags().Changed("pages") {
		cfg.MaxPages = classifyPages
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid flags: %v", err)
	}
	logger := mustNewLogger(cfg)
	defer logger.Sync()

	ctx := context.Background()
	extractor := pdf.NewExtractor(cfg.MaxPages, logger)
	classifier := features.New(nil)

	resp := ClassifyResponse{Results: []ClassifyResult{}, Skipped: []string{}}
	for _, arg := range args {
		text, ok, err := extractInput(ctx, extractor, arg, os.Stdin)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if !ok {
			resp.Skipped = append(resp.Skipped, arg)
			continue
		}
		resp.Results = append(resp.Results, classifyText(classifier, arg, text, classifyExplain))
	}

	if humanOutput {
		printClassifyHuman(resp)
	} else {
		outputJSON(resp)
	}

	if len(resp.Results) == 0 {
		os.Exit(ExitDataError)
	}
	return nil
}

// extractInput reads the text of one argument. "-" reads stdin, which may
// hold a PDF or plain text. Input with no text reports ok=false.
func extractInput(ctx context.Context, e *pdf.Extractor, arg string, stdin io.Reader) (text string, ok bool, err error) {
	if arg != "-" {
		text, ok = e.Extract(ctx, arg)
		return text, ok, nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", false, fmt.Errorf("reading stdin: %w", err)
	}
	text, ok = e.ExtractBytes(ctx, "stdin", data)
	return text, ok, nil
}

// classifyText builds the result for one input, with evidence if asked.
func classifyText(c *features.Classifier, name, text string, explain bool) ClassifyResult {
	result := ClassifyResult{File: name, DOI: pdf.FindDOI(text)}
	if explain {
		exp := c.Explain(text)
		result.Features = exp.Features
		result.Hits = exp.Hits
	} else {
		result.Features = c.Classify(text)
	}
	return result
}

func printClassifyHuman(resp ClassifyResponse) {
	for _, r := range resp.Results {
		fmt.Printf("%s\n", r.File)
		if r.DOI != "" {
			fmt.Printf("  doi: %s\n", r.DOI)
		}
		printFeatures(r.Features)
		for _, h := range r.Hits {
			fmt.Printf("    [%s] %s via %s: %q\n", h.Stage, h.Field, h.Rule, h.Match)
		}
		fmt.Println()
	}
	for _, name := range resp.Skipped {
		fmt.Printf("skipped (no text): %s\n", name)
	}
}

// printFeatures prints a feature vector in report column order.
func printFeatures(v features.FeatureVector) {
	bools := v.Bools()
	for i, field := range features.BoolFields {
		fmt.Printf("  %-40s %s\n", field, yesNo(bools[i]))
	}
	fmt.Printf("  %-40s %s\n", features.FieldMethodHint, v.SynthesisMethodHint)
}
