package cmd

import (
	"bytes"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/qpsolvers/open-qpbenchmark/internal/problem"
)

const (
	testID2      = "P:\n  data: [[1, 0], [0, 1]]\nq: [0, 0]\n"
	testSimplex3 = "P:\n  data: [[1, 0, 0], [0, 1, 0], [0, 0, 1]]\nq: [-1, -2, -3]\n" +
		"A:\n  data: [[1, 1, 1]]\nb: [1]\nlb: [0, 0, 0]\n"
	testMetadata = "problems:\n" +
		"  - name: SIMPLEX3\n    classification: QLR2-AN-3-1\n    provenance: Projection onto the simplex.\n" +
		"  - name: ID2\n    classification: QUR2-AN-2-0\n"
	testTestSet = "title: CLI test set\nknown_issues:\n  - {problem: SIMPLEX3, solver: highs}\n"
)

// setupWorkspace writes a qpbench.yaml, a data directory with two valid
// problems and returns the workspace root.
func setupWorkspace(t *testing.T, engine string) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"data/ID2.yaml":      testID2,
		"data/SIMPLEX3.yaml": testSimplex3,
		"data/metadata.yaml": testMetadata,
		"data/testset.yaml":  testTestSet,
		"qpbench.yaml": "data_dir: data\nresults_dir: results\nbenchmark:\n  tool: sh\n  script: " +
			engine + "\n  lock_timeout: 1s\n",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// execute runs the root command with args and returns what it wrote to its
// output writer.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	flagConfig, flagDataDir, flagVerbose = "", "", false
	addForce, convertForce, runDryRun = false, false, false
	flagSearchK = 20

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Version:    dev") {
		t.Errorf("unexpected version output:\n%s", out)
	}
}

func TestList(t *testing.T) {
	root := setupWorkspace(t, "engine.sh")
	out, err := execute(t, "list", "--config", filepath.Join(root, "qpbench.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"ID2", "SIMPLEX3", "QLR2-AN-3-1", "Projection onto the simplex.", "2 problem(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "metadata") {
		t.Errorf("metadata table listed as a problem:\n%s", out)
	}
}

func TestList_DataFlagOverridesConfig(t *testing.T) {
	root := setupWorkspace(t, "engine.sh")
	empty := t.TempDir()
	out, err := execute(t, "list", "--config", filepath.Join(root, "qpbench.yaml"), "--data", empty)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No problems in") {
		t.Errorf("expected empty listing, got:\n%s", out)
	}
}

func TestInspect(t *testing.T) {
	root := setupWorkspace(t, "engine.sh")
	out, err := execute(t, "inspect", "SIMPLEX3", "--config", filepath.Join(root, "qpbench.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"n=3  meq=1  mineq=0",
		"quadratic objective, linear constraints",
		"known issue with highs",
		"G   absent",
		"lb  3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}
}

func TestInspect_Unknown(t *testing.T) {
	root := setupWorkspace(t, "engine.sh")
	_, err := execute(t, "inspect", "NOPE", "--config", filepath.Join(root, "qpbench.yaml"))
	if err == nil {
		t.Fatal("expected error for unknown problem")
	}
}

func TestValidate(t *testing.T) {
	root := setupWorkspace(t, "engine.sh")
	cfg := filepath.Join(root, "qpbench.yaml")
	if _, err := execute(t, "validate", "--config", cfg); err != nil {
		t.Fatalf("valid store rejected: %v", err)
	}

	bad := "P:\n  data: [[1, 2], [0, 1]]\nq: [0, 0]\nlb: [1, 1]\nub: [0, 0]\n"
	if err := os.WriteFile(filepath.Join(root, "data", "BAD2.yaml"), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "validate", "--config", cfg)
	if err == nil || !strings.Contains(err.Error(), "1 of 3 problem(s) failed") {
		t.Fatalf("expected one failure, got %v", err)
	}

	if _, err := execute(t, "validate", "ID2", "--config", cfg); err != nil {
		t.Errorf("validating a single valid problem failed: %v", err)
	}
}

func TestAdd(t *testing.T) {
	root := setupWorkspace(t, "engine.sh")
	cfg := filepath.Join(root, "qpbench.yaml")

	src := filepath.Join(t.TempDir(), "BOX2.yaml")
	content := "P:\n  data: [[2, 1], [1, 2]]\nq: [-1, 1]\nlb: [-1, -1]\nub: [1, 1]\n"
	if err := os.WriteFile(src, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "add", src, "--config", cfg); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, "data", "BOX2.yaml")); err != nil {
		t.Errorf("problem not copied into the store: %v", err)
	}

	bad := filepath.Join(t.TempDir(), "NOQ.yaml")
	if err := os.WriteFile(bad, []byte("P:\n  data: [[1]]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "add", bad, "--config", cfg); err == nil {
		t.Error("expected malformed problem to be refused")
	}
	if _, err := os.Stat(filepath.Join(root, "data", "NOQ.yaml")); !os.IsNotExist(err) {
		t.Error("refused problem was stored")
	}
}

func TestConvert_RoundTrip(t *testing.T) {
	root := setupWorkspace(t, "engine.sh")
	cfg := filepath.Join(root, "qpbench.yaml")
	src := filepath.Join(root, "data", "SIMPLEX3.yaml")
	npz := filepath.Join(t.TempDir(), "SIMPLEX3.npz")
	back := filepath.Join(t.TempDir(), "SIMPLEX3.yaml")

	if _, err := execute(t, "convert", src, npz, "--config", cfg); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "convert", src, npz, "--config", cfg); err == nil {
		t.Error("expected refusal to overwrite without --force")
	}
	if _, err := execute(t, "convert", npz, back, "--config", cfg); err != nil {
		t.Fatal(err)
	}

	want, err := problem.Load(src)
	if err != nil {
		t.Fatal(err)
	}
	got, err := problem.Load(back)
	if err != nil {
		t.Fatal(err)
	}
	if !problem.ApproxEqual(want, got, problem.DefaultTolerance().Abs) {
		t.Errorf("round trip changed the problem:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestConvert_UnsupportedTarget(t *testing.T) {
	root := setupWorkspace(t, "engine.sh")
	_, err := execute(t, "convert", filepath.Join(root, "data", "ID2.yaml"),
		filepath.Join(t.TempDir(), "ID2.mat"), "--config", filepath.Join(root, "qpbench.yaml"))
	if err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestRun_DryRun(t *testing.T) {
	root := setupWorkspace(t, "engine.sh")
	out, err := execute(t, "run", "--dry-run", "--config", filepath.Join(root, "qpbench.yaml"), "--", "--solver", "osqp")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Test set: CLI test set", "Problems: 2", "Command:  sh engine.sh run --solver osqp"} {
		if !strings.Contains(out, want) {
			t.Errorf("dry run output missing %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "results")); !os.IsNotExist(err) {
		t.Error("dry run created the results directory")
	}
}

func TestRun_InvokesEngine(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("engine stub requires sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	engine := filepath.Join(t.TempDir(), "engine.sh")
	script := "#!/bin/sh\necho \"engine $*\"\ncp \"$QPBENCH_MANIFEST\" \"$QPBENCH_RESULTS\"\n"
	if err := os.WriteFile(engine, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	root := setupWorkspace(t, engine)

	out, err := execute(t, "run", "--config", filepath.Join(root, "qpbench.yaml"), "--", "--solver", "osqp")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "engine run --solver osqp") {
		t.Errorf("engine output not streamed:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(root, "results", "qpbenchmark_results.csv")); err != nil {
		t.Errorf("engine did not receive QPBENCH_RESULTS: %v", err)
	}
}

func TestRun_RefusesInvalidStore(t *testing.T) {
	root := setupWorkspace(t, "engine.sh")
	if err := os.WriteFile(filepath.Join(root, "data", "NOQ.yaml"), []byte("P:\n  data: [[1]]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "run", "--dry-run", "--config", filepath.Join(root, "qpbench.yaml"))
	if err == nil || !strings.Contains(err.Error(), "NOQ") {
		t.Fatalf("expected invalid store to abort the run, got %v", err)
	}
}

func TestDescribeHelpers(t *testing.T) {
	if got := describeMatrix(nil); got != "absent" {
		t.Errorf("describeMatrix(nil) = %q", got)
	}
	m := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	if got := describeMatrix(m); got != "2x2, 2 nonzeros (50.0%)" {
		t.Errorf("describeMatrix = %q", got)
	}
	if got := describeVector([]float64{1, math.Inf(1), math.Inf(-1)}); got != "3, 2 infinite" {
		t.Errorf("describeVector = %q", got)
	}
	if got := truncate("a  long\nline", 6); got != "a lon…" {
		t.Errorf("truncate = %q", got)
	}
}

func TestSearch(t *testing.T) {
	root := setupWorkspace(t, "engine.sh")
	out, err := execute(t, "search", "simplex", "--config", filepath.Join(root, "qpbench.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Results (1 found)") || !strings.Contains(out, "SIMPLEX3") {
		t.Errorf("unexpected search output:\n%s", out)
	}

	out, err = execute(t, "search", "unconstrained", "--config", filepath.Join(root, "qpbench.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "ID2") || strings.Contains(out, "SIMPLEX3") {
		t.Errorf("classification search should only match ID2:\n%s", out)
	}
}

func TestInit_ThenValidate(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ws")
	if _, err := execute(t, "init", root); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"qpbench.yaml", "data/metadata.yaml", "data/testset.yaml"} {
		if _, err := os.Stat(filepath.Join(root, name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}
	if _, err := execute(t, "init", root); err != nil {
		t.Errorf("second init should be a no-op: %v", err)
	}
	if _, err := execute(t, "validate", "--config", filepath.Join(root, "qpbench.yaml")); err != nil {
		t.Errorf("fresh store should validate: %v", err)
	}
}

func TestBundledStoreIsValid(t *testing.T) {
	out, err := execute(t, "run", "--dry-run", "--config", filepath.Join("..", "qpbench.yaml"))
	if err != nil {
		t.Fatalf("bundled data store rejected: %v", err)
	}
	if !strings.Contains(out, "LIMITS3") || !strings.Contains(out, "n=3 meq=1 mineq=3") {
		t.Errorf("double-sided problem not converted as expected:\n%s", out)
	}
}
