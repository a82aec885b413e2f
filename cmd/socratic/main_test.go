package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"socratic/internal/config"
	"socratic/internal/discovery"
	"socratic/internal/engine"
	"socratic/internal/interview"
	"socratic/internal/knowledge"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{3 * 1024 * 1024, "3.0 MiB"},
	}
	for _, tc := range cases {
		if got := formatBytes(tc.in); got != tc.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewSessionSuffix(t *testing.T) {
	if got := newSessionSuffix(true); got != " (new)" {
		t.Errorf("expected ' (new)', got %q", got)
	}
	if got := newSessionSuffix(false); got != "" {
		t.Errorf("expected empty suffix, got %q", got)
	}
}

func TestSeedWorkflowSnippets(t *testing.T) {
	src := knowledge.NewStaticSource()
	seedWorkflowSnippets(src)

	for _, cat := range interview.WorkflowCategories {
		snippets, err := src.Query(context.Background(), "", cat.Domain)
		if err != nil {
			t.Fatalf("query %s: %v", cat.Domain, err)
		}
		if len(snippets) == 0 {
			t.Errorf("no snippets seeded for %s", cat.Domain)
		}
	}
}

func TestWarmKnowledge(t *testing.T) {
	logger = zap.NewNop()
	src := knowledge.NewStaticSource()
	seedWorkflowSnippets(src)
	disc := discovery.NewEngine()

	if err := warmKnowledge(context.Background(), src, disc); err != nil {
		t.Fatalf("warmKnowledge: %v", err)
	}
}

func TestRunAskPrintsQuestion(t *testing.T) {
	logger = zap.NewNop()
	workspace = t.TempDir()

	output := captureOutput(t, func() {
		if err := runAsk(&cobra.Command{}, []string{"healthcare"}); err != nil {
			t.Fatalf("runAsk returned error: %v", err)
		}
	})

	if !strings.Contains(output, "Provenance:") {
		t.Fatalf("expected provenance line, got: %s", output)
	}
	if !strings.Contains(output, "Session:") {
		t.Fatalf("expected session line, got: %s", output)
	}
}

func TestRunAskRejectsBadComplexity(t *testing.T) {
	logger = zap.NewNop()
	workspace = t.TempDir()
	askComplexity = "ludicrous"
	defer func() { askComplexity = "" }()

	if err := runAsk(&cobra.Command{}, nil); err == nil {
		t.Fatal("expected complexity validation error")
	}
}

func TestRunHealthReportsHealthy(t *testing.T) {
	logger = zap.NewNop()
	workspace = t.TempDir()

	output := captureOutput(t, func() {
		if err := runHealth(&cobra.Command{}, nil); err != nil {
			t.Fatalf("runHealth returned error: %v", err)
		}
	})

	if !strings.Contains(output, "healthy") {
		t.Fatalf("expected healthy status, got: %s", output)
	}
	if !strings.Contains(output, "Capabilities:") {
		t.Fatalf("expected capabilities line, got: %s", output)
	}
}

func TestHandleMetaCommands(t *testing.T) {
	logger = zap.NewNop()

	cfg := config.DefaultConfig()
	cfg.Templates.PacksDir = ""
	cfg.Templates.Watch = false
	eng := engine.New(engine.Options{Config: cfg})
	ctrl := interview.NewController(interview.Options{Engine: eng})

	if !handleMetaCommand(ctrl, eng, "/quit") {
		t.Error("/quit should signal exit")
	}
	if !handleMetaCommand(ctrl, eng, "/q") {
		t.Error("/q should signal exit")
	}

	output := captureOutput(t, func() {
		if handleMetaCommand(ctrl, eng, "/help") {
			t.Error("/help should not exit")
		}
	})
	if !strings.Contains(output, "/advance") {
		t.Fatalf("expected command list, got: %s", output)
	}

	output = captureOutput(t, func() {
		handleMetaCommand(ctrl, eng, "/advance")
	})
	if !strings.Contains(output, "inquiry") {
		t.Fatalf("expected stage report, got: %s", output)
	}

	output = captureOutput(t, func() {
		handleMetaCommand(ctrl, eng, "/bogus")
	})
	if !strings.Contains(output, "Unknown command") {
		t.Fatalf("expected unknown-command notice, got: %s", output)
	}
}

func TestLoadCLIConfigDefaultsWhenMissing(t *testing.T) {
	workspace = t.TempDir()
	configPath = ""

	cfg, err := loadCLIConfig()
	if err != nil {
		t.Fatalf("loadCLIConfig: %v", err)
	}
	if cfg.Engine.DefaultDomain != "general" {
		t.Errorf("expected default domain 'general', got %q", cfg.Engine.DefaultDomain)
	}
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	origErr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, rOut)
		_, _ = io.Copy(&buf, rErr)
		done <- buf.String()
	}()

	fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = origOut
	os.Stderr = origErr
	return <-done
}
