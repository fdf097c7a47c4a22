package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chriserin/retrygen/internal/config"
	"github.com/chriserin/retrygen/internal/db"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize retrygen in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunInit(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func RunInit(w io.Writer) error {
	// configuration
	cfg := config.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		fmt.Fprintf(w, "%s already exists\n", configPath)
	} else {
		if err := cfg.Save(configPath); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s created\n", configPath)
	}

	// features/ directory
	const featuresDir = "features"
	_, err := os.Stat(featuresDir)
	featuresExist := err == nil
	if err := os.MkdirAll(featuresDir, 0o755); err != nil {
		return fmt.Errorf("creating features directory: %w", err)
	}
	if featuresExist {
		fmt.Fprintln(w, "features/ already exists")
	} else {
		fmt.Fprintln(w, "features/ created")
	}

	// manifest database
	_, err = os.Stat(cfg.Manifest)
	dbExists := err == nil
	sqlDB, err := db.Open(cfg.Manifest)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	sqlDB.Close()
	if dbExists {
		fmt.Fprintf(w, "%s already exists\n", cfg.Manifest)
	} else {
		fmt.Fprintf(w, "%s created\n", cfg.Manifest)
	}

	// gitignore
	msgs, err := ensureGitignore(cfg.Manifest)
	if err != nil {
		return fmt.Errorf("updating .gitignore: %w", err)
	}
	for _, msg := range msgs {
		fmt.Fprintln(w, msg)
	}

	return nil
}

func ensureGitignore(entry string) ([]string, error) {
	data, err := os.ReadFile(".gitignore")
	if os.IsNotExist(err) {
		if err := os.WriteFile(".gitignore", []byte(entry+"\n"), 0o644); err != nil {
			return nil, err
		}
		return []string{".gitignore created", entry + " added to .gitignore"}, nil
	}
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) == entry {
			return []string{entry + " already in .gitignore"}, nil
		}
	}

	content := string(data)
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"

	if err := os.WriteFile(".gitignore", []byte(content), 0o644); err != nil {
		return nil, err
	}
	return []string{entry + " added to .gitignore"}, nil
}
