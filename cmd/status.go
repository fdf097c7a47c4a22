package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chriserin/retrygen/internal/db"
	"github.com/chriserin/retrygen/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the last generated manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunStatus(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func RunStatus(ctx context.Context, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sqlDB, err := db.Open(cfg.Manifest)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	s, err := db.LoadSummary(ctx, sqlDB)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Features: %d\n", s.Features)
	fmt.Fprintf(w, "Scenarios: %d\n", s.Scenarios)
	fmt.Fprintf(w, "Retrying: %d\n", s.Retrying)
	for _, ac := range s.ByAttempts {
		ui.StatusLine(w, ui.PolicyLabel(ac.Attempts, ""), ac.Count)
	}
	if s.LastGenerated == "" {
		fmt.Fprintln(w, "Never generated")
	} else {
		fmt.Fprintf(w, "Last generated: %s\n", s.LastGenerated)
	}
	return nil
}
