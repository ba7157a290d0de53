package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LISSConsulting/LISSTech.Whisker/internal/config"
	"github.com/LISSConsulting/LISSTech.Whisker/internal/repository"
)

func ptr(s string) *string { return &s }

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// initProjectDir scaffolds a project with labels cat and dog.
func initProjectDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "pets")
	_, err := execute(t, "init", dir, "--label", "cat,dog")
	require.NoError(t, err)
	return dir
}

func TestFormatScaffoldResult(t *testing.T) {
	tests := []struct {
		name     string
		created  []string
		contains []string
		excludes []string
	}{
		{
			name:     "nothing created",
			created:  nil,
			contains: []string{"nothing to create"},
			excludes: []string{"Created"},
		},
		{
			name:     "files listed in order",
			created:  []string{"/p/whisker.toml", "/p/images", "/p/dataset"},
			contains: []string{"Created /p/whisker.toml\n", "Created /p/images\n", "Created /p/dataset\n"},
			excludes: []string{"nothing to create"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatScaffoldResult(tt.created)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("output should contain %q\ngot:\n%s", want, got)
				}
			}
			for _, exclude := range tt.excludes {
				if strings.Contains(got, exclude) {
					t.Errorf("output should NOT contain %q\ngot:\n%s", exclude, got)
				}
			}
		})
	}
}

func TestRootCmdStructure(t *testing.T) {
	root := rootCmd()

	if root.Use != "whisker" {
		t.Errorf("root Use = %q, want %q", root.Use, "whisker")
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Fatal("missing --config persistent flag")
	}

	subs := map[string]bool{}
	for _, sub := range root.Commands() {
		subs[sub.Name()] = true
	}
	for _, want := range []string{"init", "annotate", "squash", "status"} {
		if !subs[want] {
			t.Errorf("missing subcommand %q", want)
		}
	}
}

func TestCmdFlags(t *testing.T) {
	root := rootCmd()
	want := map[string][]string{
		"init":     {"name", "label"},
		"annotate": {"author"},
	}
	for _, sub := range root.Commands() {
		for _, flag := range want[sub.Name()] {
			if sub.Flags().Lookup(flag) == nil {
				t.Errorf("%s: missing --%s flag", sub.Name(), flag)
			}
		}
	}
}

// --- End-to-end command execution tests ---

func TestInitCmdExecution(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pets")
	out, err := execute(t, "init", dir, "--label", "cat", "--label", "dog")
	require.NoError(t, err)

	for _, name := range []string{config.FileName, "images", ".whisker", ".gitignore", "dataset/meta.json"} {
		_, statErr := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, statErr, name)
	}
	assert.Contains(t, out, "Created "+filepath.Join(dir, "dataset"))

	repo, err := repository.Open(filepath.Join(dir, "dataset"), nil)
	require.NoError(t, err)
	assert.Equal(t, "pets", repo.Meta().Name)
	assert.Equal(t, []string{"cat", "dog"}, repo.Meta().Labels)
}

func TestInitCmd_Name(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "init", dir, "--label", "cat", "--name", "felines")
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "felines", cfg.Project.Name)
}

func TestInitCmdIdempotent(t *testing.T) {
	dir := initProjectDir(t)

	out, err := execute(t, "init", dir, "--label", "cat,dog")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to create")
}

func TestInitCmd_RequiresLabel(t *testing.T) {
	_, err := execute(t, "init", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "label")
}

func TestInitCmd_DuplicateLabels(t *testing.T) {
	_, err := execute(t, "init", t.TempDir(), "--label", "cat,cat")
	require.Error(t, err)
}

func TestStatusCmdExecution(t *testing.T) {
	dir := initProjectDir(t)

	out, err := execute(t, "status", "--config", filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	for _, want := range []string{"Whisker Status", "pets", "classification", "cat, dog", "not started"} {
		assert.Contains(t, out, want)
	}
}

func TestStatusCmd_NoConfig(t *testing.T) {
	_, err := execute(t, "status", "--config", filepath.Join(t.TempDir(), config.FileName))
	require.Error(t, err)
}

func TestSquashCmdExecution(t *testing.T) {
	dir := initProjectDir(t)
	cfgPath := filepath.Join(dir, config.FileName)

	out, err := execute(t, "squash", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to squash")

	repo, err := repository.Open(filepath.Join(dir, "dataset"), nil)
	require.NoError(t, err)
	sess, err := repo.Write("ann")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	img := filepath.Join(dir, "images", "a.png")
	require.NoError(t, os.WriteFile(img, []byte("png"), 0644))
	require.NoError(t, sess.Add("a", img, ptr("cat")))
	_, err = sess.Save()
	require.NoError(t, err)

	out, err = execute(t, "status", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "run 'whisker squash'")

	out, err = execute(t, "squash", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Squashed 1 session file(s). Dataset holds 1 record(s).")

	logData, err := os.ReadFile(filepath.Join(dir, ".whisker", "whisker.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), `"msg":"squashed"`)

	out, err = execute(t, "status", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 (1 annotated)")
}

func TestAnnotateCmd_NoConfig(t *testing.T) {
	_, err := execute(t, "annotate", "--config", filepath.Join(t.TempDir(), config.FileName))
	require.Error(t, err)
}
