package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open opens the manifest database at path, creating its directory and
// applying pending migrations.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating manifest directory: %w", err)
	}
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	for _, pragma := range []string{`PRAGMA foreign_keys = ON`, `PRAGMA journal_mode = WAL`} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if err := Migrate(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}

// Feature is the manifest entry for one generated feature file.
type Feature struct {
	Path      string
	Class     string
	Output    string
	Scenarios []Scenario
}

// Scenario is one generated test method and its retry policy.
type Scenario struct {
	FeaturePath string
	Name        string
	Method      string
	Attempts    int
	ExemptType  string
}

// RecordFeature upserts f and replaces its scenarios.
func RecordFeature(ctx context.Context, sqlDB *sql.DB, f Feature) error {
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO features (file_path, class_name, output_path) VALUES (?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			class_name = excluded.class_name,
			output_path = excluded.output_path,
			updated_at = datetime('now')
	`, f.Path, f.Class, f.Output)
	if err != nil {
		return fmt.Errorf("recording %s: %w", f.Path, err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM features WHERE file_path = ?`, f.Path).Scan(&id); err != nil {
		return fmt.Errorf("querying %s: %w", f.Path, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM scenarios WHERE feature_id = ?`, id); err != nil {
		return fmt.Errorf("clearing scenarios of %s: %w", f.Path, err)
	}
	for _, s := range f.Scenarios {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO scenarios (feature_id, name, method_name, attempts, exempt_type) VALUES (?, ?, ?, ?, ?)`,
			id, s.Name, s.Method, s.Attempts, s.ExemptType)
		if err != nil {
			return fmt.Errorf("inserting scenario %q: %w", s.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s: %w", f.Path, err)
	}
	return nil
}

// RecordGeneration logs one generate run.
func RecordGeneration(ctx context.Context, sqlDB *sql.DB, features, scenarios, retrying int) error {
	_, err := sqlDB.ExecContext(ctx,
		`INSERT INTO generations (feature_count, scenario_count, retry_count) VALUES (?, ?, ?)`,
		features, scenarios, retrying)
	if err != nil {
		return fmt.Errorf("recording generation: %w", err)
	}
	return nil
}

// Scenarios returns every recorded scenario ordered by file and insertion.
// With retryingOnly set, scenarios without retry are skipped.
func Scenarios(ctx context.Context, sqlDB *sql.DB, retryingOnly bool) ([]Scenario, error) {
	query := `
		SELECT f.file_path, s.name, s.method_name, s.attempts, s.exempt_type
		FROM scenarios s
		JOIN features f ON s.feature_id = f.id`
	if retryingOnly {
		query += ` WHERE s.attempts > 0`
	}
	query += ` ORDER BY f.file_path, s.id`

	rows, err := sqlDB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying scenarios: %w", err)
	}
	defer rows.Close()

	var out []Scenario
	for rows.Next() {
		var s Scenario
		if err := rows.Scan(&s.FeaturePath, &s.Name, &s.Method, &s.Attempts, &s.ExemptType); err != nil {
			return nil, fmt.Errorf("scanning scenario: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scenarios: %w", err)
	}
	return out, nil
}

// AttemptCount is the number of scenarios sharing an attempt count.
type AttemptCount struct {
	Attempts int
	Count    int
}

// Summary aggregates the manifest.
type Summary struct {
	Features      int
	Scenarios     int
	Retrying      int
	ByAttempts    []AttemptCount
	LastGenerated string // empty when generate has never run
}

// LoadSummary counts features and scenarios, grouping retrying scenarios
// by attempt count.
func LoadSummary(ctx context.Context, sqlDB *sql.DB) (Summary, error) {
	var s Summary
	err := sqlDB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM features),
			(SELECT COUNT(*) FROM scenarios),
			(SELECT COUNT(*) FROM scenarios WHERE attempts > 0),
			COALESCE((SELECT generated_at FROM generations ORDER BY id DESC LIMIT 1), '')
	`).Scan(&s.Features, &s.Scenarios, &s.Retrying, &s.LastGenerated)
	if err != nil {
		return s, fmt.Errorf("counting manifest: %w", err)
	}

	rows, err := sqlDB.QueryContext(ctx, `
		SELECT attempts, COUNT(*) AS cnt
		FROM scenarios
		WHERE attempts > 0
		GROUP BY attempts
		ORDER BY attempts
	`)
	if err != nil {
		return s, fmt.Errorf("querying attempt counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ac AttemptCount
		if err := rows.Scan(&ac.Attempts, &ac.Count); err != nil {
			return s, fmt.Errorf("scanning attempt count: %w", err)
		}
		s.ByAttempts = append(s.ByAttempts, ac)
	}
	return s, rows.Err()
}
