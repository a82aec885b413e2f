// Package main implements the one-shot ask command.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"socratic/internal/engine"
	"socratic/internal/knowledge"
	"socratic/internal/types"
)

var (
	askType       string
	askSession    string
	askComplexity string
	askJSON       bool
)

var askCmd = &cobra.Command{
	Use:   "ask [domain]",
	Short: "Generate a single adaptive question",
	Long: `Generates one question for the given domain (default: the configured
default domain) and prints it with its rationale and provenance.

Examples:
  socratic ask healthcare
  socratic ask finance --type technical --complexity advanced
  socratic ask chatbot --session abc123 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askType, "type", "t", "", "Question type (exploratory, clarifying, technical, validation, follow_up)")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "Session id to continue")
	askCmd.Flags().StringVar(&askComplexity, "complexity", "", "Complexity override (simple, moderate, advanced, expert)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the full bundle as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadCLIConfig()
	if err != nil {
		return err
	}

	src := knowledge.NewStaticSource()
	seedWorkflowSnippets(src)
	eng := engine.New(engine.Options{Config: cfg, Source: src})

	req := engine.GenerateRequest{
		SessionID:    askSession,
		QuestionType: types.QuestionType(askType),
	}
	if len(args) > 0 {
		req.Domain = types.DomainContext{
			Domain:     args[0],
			Confidence: 1,
			Source:     types.SourceConversation,
		}
	}
	if askComplexity != "" {
		tier := types.ComplexityTier(askComplexity)
		if !tier.Valid() {
			return fmt.Errorf("unknown complexity %q (want simple, moderate, advanced, or expert)", askComplexity)
		}
		level := types.SophisticationForTier(tier, types.MinDepth)
		req.Sophistication = &level
	}

	bundle, err := eng.GenerateQuestion(context.Background(), req)
	if err != nil {
		return err
	}

	if askJSON {
		data, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return fmt.Errorf("encode bundle: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(bundle.Question.Text)
	fmt.Println()
	fmt.Printf("Type:       %s\n", bundle.Question.Type)
	fmt.Printf("Complexity: %s (depth %d)\n", bundle.Question.Sophistication.Complexity, bundle.Question.Sophistication.Depth)
	fmt.Printf("Provenance: %s\n", bundle.Question.Provenance)
	fmt.Printf("Session:    %s%s\n", bundle.SessionID, newSessionSuffix(bundle.NewSession))
	fmt.Printf("Rationale:  %s\n", bundle.Rationale)
	if len(bundle.Warnings) > 0 {
		fmt.Printf("Warnings:   %s\n", strings.Join(bundle.Warnings, "; "))
	}
	return nil
}

func newSessionSuffix(isNew bool) string {
	if isNew {
		return " (new)"
	}
	return ""
}
