package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runShow(t *testing.T, file, scenario string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RunShow(&buf, file, scenario))
	return buf.String()
}

func TestShow_RequiresInit(t *testing.T) {
	inTempDir(t)
	var buf bytes.Buffer
	err := RunShow(&buf, "features/login.feature", "User logs in")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run `retrygen init` first")
}

func TestShow_HeaderAndPolicy(t *testing.T) {
	inTempDir(t)
	runInit(t)
	path := writeFeature(t, "login.feature", loginFeature)

	out := runShow(t, path, "User logs in")

	assert.Contains(t, out, path+":4")
	assert.Contains(t, out, "Policy: retry:2")
	assert.Contains(t, out, "Methods: UserLogsIn, UserLogsInInternal")
}

func TestShow_DisplaysGherkinContent(t *testing.T) {
	inTempDir(t)
	runInit(t)
	path := writeFeature(t, "login.feature", loginFeature)

	out := runShow(t, path, "User logs in")

	assert.Contains(t, out, "Scenario: User logs in")
	assert.Contains(t, out, "Given a user")
	assert.Contains(t, out, "When they log in")
	assert.NotContains(t, out, "Given a logged in user")
}

func TestShow_DisplaysGeneratedMethods(t *testing.T) {
	inTempDir(t)
	runInit(t)
	path := writeFeature(t, "login.feature", loginFeature)

	out := runShow(t, path, "User logs in")

	assert.Contains(t, out, "- name: UserLogsIn\n")
	assert.Contains(t, out, "- name: UserLogsInInternal\n")
	assert.NotContains(t, out, "name: UserLogsOut")
}

func TestShow_NoRetry(t *testing.T) {
	inTempDir(t)
	runInit(t)
	path := writeFeature(t, "login.feature", loginFeature)

	out := runShow(t, path, "User resets password")

	assert.Contains(t, out, "Policy: -")
	assert.Contains(t, out, "Methods: UserResetsPassword\n")
	assert.NotContains(t, out, "UserResetsPasswordInternal")
}

func TestShow_IncludesBackground(t *testing.T) {
	inTempDir(t)
	runInit(t)
	path := writeFeature(t, "cart.feature", `Feature: Cart
  Background:
    Given an empty cart

  @retry:1
  Scenario: Add item
    When I add an item
`)

	out := runShow(t, path, "Add item")

	assert.Contains(t, out, "Background:")
	assert.Contains(t, out, "Given an empty cart")
	assert.Contains(t, out, "When I add an item")
}

func TestShow_OutlineVariants(t *testing.T) {
	inTempDir(t)
	runInit(t)
	path := writeFeature(t, "math.feature", `Feature: Math
  @retry:2
  Scenario Outline: Add numbers
    Given <a> plus <b>

    Examples:
      | a | b |
      | one | two |
`)

	out := runShow(t, path, "Add numbers")

	assert.Contains(t, out, "Policy: retry:2")
	assert.Contains(t, out, "AddNumbers")
	assert.Contains(t, out, "AddNumbers_One")
	assert.Contains(t, out, "AddNumbers_OneInternal")
}

func TestShow_ScenarioNotFound(t *testing.T) {
	inTempDir(t)
	runInit(t)
	path := writeFeature(t, "login.feature", loginFeature)

	var buf bytes.Buffer
	err := RunShow(&buf, path, "Missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scenario "Missing" not found in `+path)
}

func TestExtractBackground(t *testing.T) {
	content := "Feature: F\n  Background:\n    Given a\n    And b\n\n  @tag\n  Scenario: S\n    Given c\n"
	assert.Equal(t, "  Background:\n    Given a\n    And b", extractBackground(content))
	assert.Empty(t, extractBackground("Feature: F\n  Scenario: S\n"))
}
