package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openManifest(t *testing.T) *sql.DB {
	t.Helper()
	sqlDB, err := Open(filepath.Join(t.TempDir(), ".retrygen", "manifest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return sqlDB
}

func loginFeature() Feature {
	return Feature{
		Path:   "features/login.feature",
		Class:  "LoginFeature",
		Output: "generated/LoginFeature.yaml",
		Scenarios: []Scenario{
			{Name: "User logs in", Method: "UserLogsIn", Attempts: 2},
			{Name: "User logs out", Method: "UserLogsOut"},
			{Name: "Admin logs in", Method: "AdminLogsIn", Attempts: 2, ExemptType: "FatalError"},
		},
	}
}

func TestOpen_CreatesDirectoryAndMigrates(t *testing.T) {
	sqlDB := openManifest(t)

	var version int
	require.NoError(t, sqlDB.QueryRow(`SELECT version FROM schema_version`).Scan(&version))
	assert.Equal(t, len(All), version)
}

func TestRecordFeature_InsertsScenarios(t *testing.T) {
	ctx := context.Background()
	sqlDB := openManifest(t)
	require.NoError(t, RecordFeature(ctx, sqlDB, loginFeature()))

	got, err := Scenarios(ctx, sqlDB, false)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, Scenario{
		FeaturePath: "features/login.feature",
		Name:        "Admin logs in",
		Method:      "AdminLogsIn",
		Attempts:    2,
		ExemptType:  "FatalError",
	}, got[2])

	retrying, err := Scenarios(ctx, sqlDB, true)
	require.NoError(t, err)
	assert.Len(t, retrying, 2)
}

func TestRecordFeature_ReplacesScenariosOnRegenerate(t *testing.T) {
	ctx := context.Background()
	sqlDB := openManifest(t)
	require.NoError(t, RecordFeature(ctx, sqlDB, loginFeature()))

	f := loginFeature()
	f.Class = "SignInFeature"
	f.Scenarios = f.Scenarios[:1]
	require.NoError(t, RecordFeature(ctx, sqlDB, f))

	var count int
	require.NoError(t, sqlDB.QueryRow(`SELECT COUNT(*) FROM features`).Scan(&count))
	assert.Equal(t, 1, count)

	var class string
	require.NoError(t, sqlDB.QueryRow(`SELECT class_name FROM features`).Scan(&class))
	assert.Equal(t, "SignInFeature", class)

	got, err := Scenarios(ctx, sqlDB, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "UserLogsIn", got[0].Method)
}

func TestLoadSummary(t *testing.T) {
	ctx := context.Background()
	sqlDB := openManifest(t)

	empty, err := LoadSummary(ctx, sqlDB)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, empty)

	require.NoError(t, RecordFeature(ctx, sqlDB, loginFeature()))
	require.NoError(t, RecordFeature(ctx, sqlDB, Feature{
		Path:      "features/cart.feature",
		Class:     "CartFeature",
		Output:    "generated/CartFeature.yaml",
		Scenarios: []Scenario{{Name: "Add item", Method: "AddItem", Attempts: 5}},
	}))
	require.NoError(t, RecordGeneration(ctx, sqlDB, 2, 4, 3))

	s, err := LoadSummary(ctx, sqlDB)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Features)
	assert.Equal(t, 4, s.Scenarios)
	assert.Equal(t, 3, s.Retrying)
	assert.Equal(t, []AttemptCount{{Attempts: 2, Count: 2}, {Attempts: 5, Count: 1}}, s.ByAttempts)
	assert.NotEmpty(t, s.LastGenerated)
}
