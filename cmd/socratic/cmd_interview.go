// Package main implements the interactive interview loop.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"socratic/internal/discovery"
	"socratic/internal/engine"
	"socratic/internal/interview"
	"socratic/internal/knowledge"
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Start an interactive requirements interview",
	Long: `Runs the staged interview loop: pick a workflow category, answer
questions while the engine adapts to your expertise, then review the
findings and a workflow outline.

Meta commands inside the loop:
  /advance         move to the next stage
  /progress        show session progress
  /state           show the conversation record
  /save [file]     export the conversation to JSON
  /load [file]     restore a conversation from JSON
  /reset           start over
  /help            list commands
  /quit            leave`,
	RunE: runInterview,
}

func runInterview(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted")
		cancel()
	}()

	cfg, err := loadCLIConfig()
	if err != nil {
		return err
	}

	src := knowledge.NewStaticSource()
	seedWorkflowSnippets(src)

	eng := engine.New(engine.Options{Config: cfg, Source: src})
	eng.Start(ctx)
	defer eng.Stop()

	disc := discovery.NewEngine()
	ctrl := interview.NewController(interview.Options{Engine: eng, Discovery: disc})

	if err := warmKnowledge(ctx, src, disc); err != nil {
		logger.Warn("Knowledge warmup incomplete", zap.Error(err))
	}

	printBanner(ctrl.SessionID())

	reader := bufio.NewReader(os.Stdin)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Print("\nyou> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := handleMetaCommand(ctrl, eng, input); quit {
				return nil
			}
			continue
		}

		turn, err := ctrl.ProcessInput(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Printf("error: %v\n", err)
			continue
		}
		printTurn(turn)
	}
}

// warmKnowledge preloads each workflow category's snippets into the
// discovery layer in parallel, so the first lookups answer warm.
func warmKnowledge(ctx context.Context, src *knowledge.StaticSource, disc *discovery.Engine) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, cat := range interview.WorkflowCategories {
		cat := cat
		g.Go(func() error {
			snippets, err := src.Query(ctx, "warmup", cat.Domain)
			if err != nil {
				return fmt.Errorf("warm %s: %w", cat.Domain, err)
			}
			disc.BuildKnowledge(cat.Domain, snippets)
			logger.Debug("Domain warmed",
				zap.String("domain", cat.Domain),
				zap.Int("snippets", len(snippets)))
			return nil
		})
	}
	return g.Wait()
}

// seedWorkflowSnippets gives the demo source something to say about each
// workflow category. A real host would plug in its retrieval stack here.
func seedWorkflowSnippets(src *knowledge.StaticSource) {
	src.Add("chatbot",
		"Intent routing and fallback handling",
		"Conversation history retention",
		"Channel integration (web, Slack, SMS)",
	)
	src.Add("data_analysis",
		"Data freshness requirements",
		"Aggregation windows and rollups",
		"Dashboard and report delivery",
	)
	src.Add("rag_workflow",
		"Document chunking strategy",
		"Embedding store selection",
		"Retrieval quality evaluation",
	)
	src.Add("content_generation",
		"Tone and brand guidelines",
		"Human review workflow",
		"Originality checking",
	)
}

func printBanner(sessionID string) {
	fmt.Println(strings.Repeat("─", 60))
	fmt.Println("Socratic Interview - type /help for commands, /quit to leave")
	fmt.Printf("Session: %s\n", sessionID)
	fmt.Println(strings.Repeat("─", 60))
	fmt.Println("\nSay hello to begin.")
}

func printTurn(turn *interview.Turn) {
	fmt.Println()
	fmt.Println(turn.Message)
	if turn.SuggestAdvance {
		fmt.Println("\n(You've covered a lot of ground. Type /advance when you're ready for the research summary.)")
	}
}

// handleMetaCommand processes /command inputs. Returns true to quit.
func handleMetaCommand(ctrl *interview.Controller, eng *engine.Engine, input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]

	switch cmd {
	case "/quit", "/exit", "/q":
		return true

	case "/help":
		fmt.Println(`Commands:
  /advance         move to the next stage
  /progress        show session progress
  /state           show the conversation record
  /save [file]     export the conversation to JSON (default: interview.json)
  /load [file]     restore a conversation from JSON
  /reset           start over with a fresh session
  /quit            leave`)

	case "/advance":
		stage := ctrl.AdvanceStage()
		fmt.Printf("Stage: %s. Say anything to continue.\n", stage)

	case "/progress":
		report, err := eng.Progress(ctrl.SessionID())
		if err != nil {
			fmt.Printf("No progress yet: %v\n", err)
			return false
		}
		fmt.Printf("Domain:     %s\n", report.Domain)
		fmt.Printf("Questions:  %d asked, %d answered (%.0f%% complete)\n",
			report.QuestionsAsked, report.QuestionsAnswered, report.CompletionPercent)
		fmt.Printf("Expertise:  %s (confidence %.2f, %s)\n",
			report.CurrentTier, report.CurrentConfidence, report.ExpertiseTrend)
		fmt.Printf("Velocity:   %.1f answered/min\n", report.LearningVelocity)

	case "/state":
		st := ctrl.State()
		data, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		fmt.Println(string(data))

	case "/save":
		path := "interview.json"
		if len(parts) > 1 {
			path = parts[1]
		}
		data, err := ctrl.ExportJSON()
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		fmt.Printf("Saved to %s\n", path)

	case "/load":
		path := "interview.json"
		if len(parts) > 1 {
			path = parts[1]
		}
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		if err := ctrl.ImportJSON(data); err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		st := ctrl.State()
		fmt.Printf("Restored %s (stage %s, depth %d)\n", st.SessionID, st.Stage, st.Depth)

	case "/reset":
		eng.EndSession(ctrl.SessionID())
		ctrl.Reset()
		fmt.Println("Fresh start. Say hello to begin.")

	default:
		fmt.Printf("Unknown command %s (try /help)\n", cmd)
	}
	return false
}
