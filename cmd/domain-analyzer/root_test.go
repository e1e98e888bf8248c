package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ltdomains/domain-analyzer/internal/orchestrator"
)

func TestLoadDomains_DomainFlagTakesPrecedence(t *testing.T) {
	domains, err := loadDomains([]string{"ignored-file-path"}, "example.lt")
	require.NoError(t, err)
	assert.Equal(t, []string{"example.lt"}, domains)
}

func TestLoadDomains_NoInputReturnsError(t *testing.T) {
	_, err := loadDomains(nil, "")
	assert.Error(t, err)
}

func TestLoadDomains_ReadsNewlineDelimitedFileSkippingBlanksAndComments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "domains.txt")
	content := "example.lt\n\n# a comment\nanother.lt\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	domains, err := loadDomains([]string{path}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"example.lt", "another.lt"}, domains)
}

func TestLoadDomains_EmptyFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n# only comments\n"), 0o644))

	_, err := loadDomains([]string{path}, "")
	assert.Error(t, err)
}

func TestLoadDomains_MissingFileReturnsError(t *testing.T) {
	_, err := loadDomains([]string{"/nonexistent/path/domains.txt"}, "")
	assert.Error(t, err)
}

func TestWriteResults_WritesOneFilePerDomainUnderOutputDir(t *testing.T) {
	dir := t.TempDir()
	results := []orchestrator.ScanResult{
		{Domain: "example.lt", Status: "success"},
		{Domain: "another.lt", Status: "skipped"},
	}

	require.NoError(t, writeResults(results, dir))

	for _, r := range results {
		data, err := os.ReadFile(filepath.Join(dir, r.Domain+".json"))
		require.NoError(t, err)
		var decoded orchestrator.ScanResult
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, r.Domain, decoded.Domain)
		assert.Equal(t, r.Status, decoded.Status)
	}
}

func TestWriteResults_CreatesMissingOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	results := []orchestrator.ScanResult{{Domain: "example.lt", Status: "success"}}

	require.NoError(t, writeResults(results, dir))

	_, err := os.Stat(filepath.Join(dir, "example.lt.json"))
	assert.NoError(t, err)
}

func TestRun_MissingInputReturnsArgError(t *testing.T) {
	code := run([]string{})
	assert.Equal(t, exitArgErr, code)
}

func TestRun_UnknownFlagReturnsArgError(t *testing.T) {
	code := run([]string{"--bogus-flag"})
	assert.Equal(t, exitArgErr, code)
}
