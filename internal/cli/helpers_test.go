package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// testEnv isolates one CLI session in temporary config and data directories.
type testEnv struct {
	ConfigDir string
	DataDir   string
}

// runResult holds the output of one command.
type runResult struct {
	Stdout string
	Stderr string
	Err    error
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	t.Setenv("SLOWCOMB_CONFIG_DIR", "")
	t.Setenv("SLOWCOMB_DATA_DIR", "")
	return &testEnv{
		ConfigDir: filepath.Join(root, "config"),
		DataDir:   filepath.Join(root, "data"),
	}
}

// run executes the root command with the environment's directories.
func (e *testEnv) run(args ...string) runResult {
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config-dir", e.ConfigDir, "--data-dir", e.DataDir}, args...))
	err := root.Execute()
	return runResult{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}

// mustRun executes a command and fails the test on error.
func (e *testEnv) mustRun(t *testing.T, args ...string) runResult {
	t.Helper()
	res := e.run(args...)
	if res.Err != nil {
		t.Fatalf("slowcomb %v: %v\nstderr: %s", args, res.Err, res.Stderr)
	}
	return res
}

// writeConfig replaces config.yaml with content.
func (e *testEnv) writeConfig(t *testing.T, content string) {
	t.Helper()
	if err := os.MkdirAll(e.ConfigDir, 0o755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(e.ConfigDir, configFileExt), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// parseJSON decodes command output into T.
func parseJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("parse JSON %q: %v", s, err)
	}
	return v
}

// isUUIDv7 checks if a string looks like a version 7 UUID.
func isUUIDv7(s string) bool {
	if len(s) != 36 {
		return false
	}
	if s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
		return false
	}
	return s[14] == '7'
}
