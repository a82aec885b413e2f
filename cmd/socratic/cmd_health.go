// Package main implements the health diagnostic command.
package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"socratic/internal/engine"
	"socratic/internal/knowledge"
)

var healthJSON bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Report engine health and configuration",
	Long: `Constructs the engine from the effective configuration and prints its
health report: degradation mode, capabilities, breaker states, and load
counters. Useful for verifying a config file before an interview.`,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "Print the report as JSON")
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := loadCLIConfig()
	if err != nil {
		return err
	}

	eng := engine.New(engine.Options{Config: cfg, Source: knowledge.NewStaticSource()})
	report := eng.Health()

	if healthJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Status:       %s\n", report.Status)
	fmt.Printf("Mode:         %s\n", report.Mode)
	fmt.Printf("Capabilities: knowledge=%v templates=%v caching=%v tracking=%v\n",
		report.Capabilities.ExternalQueries,
		report.Capabilities.AdvancedTemplates,
		report.Capabilities.Caching,
		report.Capabilities.ExpertiseTracking)
	for _, b := range report.Breakers {
		fmt.Printf("Breaker:      %s state=%s failures=%d\n", b.Name, b.State, b.ConsecutiveFails)
	}
	fmt.Printf("Sessions:     %d active\n", report.ActiveSessions)
	fmt.Printf("Knowledge:    %d cached domains\n", report.CachedDomains)
	fmt.Printf("Goroutines:   %d\n", report.GoroutineCount)
	fmt.Printf("Heap:         %s\n", formatBytes(report.HeapAllocBytes))
	if len(report.Notes) > 0 {
		fmt.Printf("Notes:        %s\n", strings.Join(report.Notes, "; "))
	}
	return nil
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
