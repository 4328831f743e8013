//go:build integration

package integration

import (
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const fakeClient = `#!/bin/sh
# usage: client -f <name>
case "$2" in
  *100KB*) echo "refused" >&2; exit 3 ;;
esac
cp "test_files/$2" "received/$2"
`

// Builds the CLI, points it at a shell-script client and checks the files a
// run leaves behind. Gated behind -tags=integration and XFERBENCH_INTEGRATION=1.
func TestRun_EndToEnd(t *testing.T) {
	if os.Getenv("XFERBENCH_INTEGRATION") != "1" {
		t.Skip("set XFERBENCH_INTEGRATION=1 to run")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("missing sh")
	}

	tmp := t.TempDir()
	bin := filepath.Join(tmp, "xferbench")
	run(t, "../..", "go", "build", "-o", bin, "./cmd/xferbench")

	work := filepath.Join(tmp, "work")
	writeFile(t, filepath.Join(work, "client"), fakeClient, 0o755)
	sizes := map[string]int{"test_1KB.dat": 1024, "test_10KB.dat": 10 * 1024, "test_100KB.dat": 100 * 1024, "test_1MB.dat": 1024 * 1024}
	for name, n := range sizes {
		writeFile(t, filepath.Join(work, "test_files", name), strings.Repeat("x", n), 0o644)
	}
	// test_10MB.dat is intentionally missing.

	out := runOut(t, tmp, bin, "run", "--work-dir", work, "--skip-build")
	if !strings.Contains(string(out), "TRANSFER ANALYSIS SUMMARY") {
		t.Fatalf("missing summary:\n%s", out)
	}

	data, err := os.ReadFile(filepath.Join(work, "transfer_results.json"))
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("parse results: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("results=%d want 3\n%s", len(items), data)
	}
	for _, it := range items {
		if it["filename"] == "test_100KB.dat" {
			t.Fatalf("failed transfer recorded: %v", it)
		}
	}

	if _, err := os.Stat(filepath.Join(work, "transfer_analysis.png")); err != nil {
		t.Fatalf("chart: %v", err)
	}
	if _, err := os.Stat(filepath.Join(work, "received", "test_1MB.dat")); err != nil {
		t.Fatalf("received: %v", err)
	}

	hist := runOut(t, tmp, bin, "history", "--config", writeConfig(t, tmp, work))
	lines := strings.Split(strings.TrimSpace(string(hist)), "\n")
	if len(lines) != 2 || strings.Contains(string(hist), "no recorded runs") {
		t.Fatalf("history:\n%s", hist)
	}
}

func TestRun_NoResultsExitsOne(t *testing.T) {
	if os.Getenv("XFERBENCH_INTEGRATION") != "1" {
		t.Skip("set XFERBENCH_INTEGRATION=1 to run")
	}

	tmp := t.TempDir()
	bin := filepath.Join(tmp, "xferbench")
	run(t, "../..", "go", "build", "-o", bin, "./cmd/xferbench")

	work := filepath.Join(tmp, "work")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cmd := exec.Command(bin, "run", "--work-dir", work, "--skip-build")
	out, err := cmd.CombinedOutput()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("err=%v\n%s", err, out)
	}
	if !strings.Contains(string(out), "No successful transfers to analyze") {
		t.Fatalf("output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(work, "transfer_analysis.png")); !os.IsNotExist(err) {
		t.Fatalf("chart should not exist: %v", err)
	}
}

func writeConfig(t *testing.T, dir, work string) string {
	t.Helper()
	path := filepath.Join(dir, "xferbench.yaml")
	writeFile(t, path, "bench:\n  work_dir: "+work+"\n", 0o644)
	return path
}

func writeFile(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func run(t *testing.T, dir, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("%s %v: %v\n%s", name, args, err, string(out))
	}
}

func runOut(t *testing.T, dir, name string, args ...string) []byte {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("%s %v: %v\n%s", name, args, err, string(out))
	}
	return out
}
