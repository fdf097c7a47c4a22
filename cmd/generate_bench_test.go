package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func generateFeatureFile(name string, scenarioCount int) string {
	var buf bytes.Buffer
	buf.WriteString("@retry:3\n")
	fmt.Fprintf(&buf, "Feature: %s\n", name)
	buf.WriteString("  Background:\n")
	buf.WriteString("    Given the system is running\n\n")
	for i := 1; i <= scenarioCount; i++ {
		if i%4 == 0 {
			buf.WriteString("  @retry:0\n")
		}
		fmt.Fprintf(&buf, "  Scenario: %s scenario %d\n", name, i)
		fmt.Fprintf(&buf, "    Given precondition %d\n", i)
		fmt.Fprintf(&buf, "    When action %d is taken\n", i)
		fmt.Fprintf(&buf, "    Then result %d is observed\n\n", i)
	}
	buf.WriteString("  Scenario Outline: Combine <left> and <right>\n")
	buf.WriteString("    Given <left> and <right>\n\n")
	buf.WriteString("    Examples:\n")
	buf.WriteString("      | left | right |\n")
	buf.WriteString("      | a    | b     |\n")
	buf.WriteString("      | c    | d     |\n")
	return buf.String()
}

func setupBenchProject(b *testing.B, fileCount, scenariosPerFile int) {
	b.Helper()
	dir := b.TempDir()
	orig, err := os.Getwd()
	require.NoError(b, err)
	require.NoError(b, os.Chdir(dir))
	b.Cleanup(func() { os.Chdir(orig) })

	var buf bytes.Buffer
	require.NoError(b, RunInit(&buf))

	for i := 0; i < fileCount; i++ {
		name := fmt.Sprintf("feature_%d", i)
		content := generateFeatureFile(name, scenariosPerFile)
		require.NoError(b, os.WriteFile(fmt.Sprintf("features/%s.feature", name), []byte(content), 0o644))
	}
}

func benchmarkGenerate(b *testing.B, fileCount, scenariosPerFile int) {
	setupBenchProject(b, fileCount, scenariosPerFile)
	var buf bytes.Buffer
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		require.NoError(b, RunGenerate(context.Background(), &buf, nil))
	}
}

// BenchmarkGenerate_Small: 5 files, 10 scenarios each
func BenchmarkGenerate_Small(b *testing.B) {
	benchmarkGenerate(b, 5, 10)
}

// BenchmarkGenerate_Medium: 20 files, 20 scenarios each
func BenchmarkGenerate_Medium(b *testing.B) {
	benchmarkGenerate(b, 20, 20)
}

// BenchmarkGenerate_Large: 50 files, 50 scenarios each
func BenchmarkGenerate_Large(b *testing.B) {
	benchmarkGenerate(b, 50, 50)
}

func BenchmarkList_Large(b *testing.B) {
	setupBenchProject(b, 50, 50)
	var buf bytes.Buffer
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		require.NoError(b, RunList(&buf, nil, false))
	}
}
