package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/timecard-reconciler/internal/config"
)

// run executes the root command with a config file that keeps everything
// inside dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(dir, "config.yaml")
	yaml := "ocr:\n  enabled: false\n" +
		"database:\n  path: " + filepath.Join(dir, "timecard.db") + "\n" +
		"server:\n  upload_dir: " + filepath.Join(dir, "uploads") + "\n" +
		"allowlist:\n  source: none\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0644))

	var out bytes.Buffer
	root := NewRootCommand("test")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", cfgPath, "--env-file", filepath.Join(dir, "none.env"), "--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestCollectPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.PDF", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0755))

	paths, err := collectPaths([]string{"x.pdf", filepath.Join(dir, "b.pdf")}, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"x.pdf", filepath.Join(dir, "b.pdf"), filepath.Join(dir, "a.PDF")}, paths)

	_, err = collectPaths(nil, filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestApplyProcessFlags(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	applyProcessFlags(cfg, processOptions{output: "out.csv", allowlist: "nomes.txt", xlsx: true, persist: true, workers: 2})

	assert.Equal(t, "out.csv", cfg.Output.CSVPath)
	assert.Equal(t, config.AllowlistSourceFile, cfg.Allowlist.Source)
	assert.Equal(t, "nomes.txt", cfg.Allowlist.Path)
	assert.True(t, cfg.Output.XLSX)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, 2, cfg.Pipeline.Workers)
}

func TestProcess_FailedDocumentsStillSucceed(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out", "resultado.csv")

	out, err := run(t, dir, "process", "--pdf", filepath.Join(dir, "missing.pdf"), "--output", output, "--persist")
	require.NoError(t, err)

	assert.Contains(t, out, "1 documents, 0 reconciled, 1 failed")
	assert.Contains(t, out, "FALHA")
	assert.Contains(t, out, "run stored in database")
	assert.FileExists(t, output)
	assert.FileExists(t, filepath.Join(dir, "out", "resultado_falhas.csv"))

	failures, err := os.ReadFile(filepath.Join(dir, "out", "resultado_falhas.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(failures), "missing.pdf")
}

func TestProcess_NoInput(t *testing.T) {
	_, err := run(t, t.TempDir(), "process")
	assert.Error(t, err)
}

func TestEmployeesImportAndList(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "colaboradores.txt")
	require.NoError(t, os.WriteFile(list, []byte("Ana Costa\nBruno Reis\n"), 0644))

	out, err := run(t, dir, "employees", "import", list)
	require.NoError(t, err)
	assert.Contains(t, out, "2 active employees")

	out, err = run(t, dir, "employees", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana Costa\tativo")
	assert.Contains(t, out, "Bruno Reis\tativo")

	_, err = run(t, dir, "employees", "import")
	assert.Error(t, err)
}
