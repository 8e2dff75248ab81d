package solver

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cfdops/su2ctl/internal/tools"
)

type solverFakeRunner struct {
	streamed []tools.Invocation
}

func (r *solverFakeRunner) Run(name string, args ...string) ([]byte, []byte, int32, error) {
	return nil, nil, 0, nil
}

func (r *solverFakeRunner) Stream(ctx context.Context, inv tools.Invocation, stdout, stderr io.Writer) error {
	r.streamed = append(r.streamed, inv)
	return nil
}

func newTestBuilder(t *testing.T, cloneDir string, runner tools.CommandRunner, clone CloneFunc) *Builder {
	t.Helper()
	b, err := NewBuilder(BuilderConfig{
		RepoURL:   "https://github.com/su2code/SU2.git",
		CloneDir:  cloneDir,
		Prefix:    "/opt/su2-stack/su2",
		MPIPrefix: "/opt/su2-stack/mpich",
		Runner:    runner,
		Clone:     clone,
	})
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	return b
}

func TestCloneSkipsWhenDirPresent(t *testing.T) {
	cloneDir := filepath.Join(t.TempDir(), "SU2")
	if err := os.MkdirAll(cloneDir, 0o755); err != nil {
		t.Fatalf("mkdir clone dir: %v", err)
	}

	calls := 0
	b := newTestBuilder(t, cloneDir, &solverFakeRunner{}, func(context.Context, string, string) error {
		calls++
		return nil
	})

	cloned, err := b.Clone(context.Background())
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if cloned {
		t.Fatal("Clone reported work for a present dir")
	}
	if calls != 0 {
		t.Fatalf("clone func invoked %d times, want never", calls)
	}
}

func TestCloneFetchesWhenDirAbsent(t *testing.T) {
	cloneDir := filepath.Join(t.TempDir(), "SU2")

	var gotRepo, gotDir string
	b := newTestBuilder(t, cloneDir, &solverFakeRunner{}, func(_ context.Context, repo, dir string) error {
		gotRepo, gotDir = repo, dir
		return nil
	})

	cloned, err := b.Clone(context.Background())
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if !cloned {
		t.Fatal("Clone reported skip for an absent dir")
	}
	if gotRepo != "https://github.com/su2code/SU2.git" || gotDir != cloneDir {
		t.Fatalf("clone func called with repo=%q dir=%q", gotRepo, gotDir)
	}
}

func TestCloneWrapsFailure(t *testing.T) {
	cause := errors.New("remote hung up")
	b := newTestBuilder(t, filepath.Join(t.TempDir(), "SU2"), &solverFakeRunner{},
		func(context.Context, string, string) error { return cause })

	if _, err := b.Clone(context.Background()); !errors.Is(err, cause) {
		t.Fatalf("Clone = %v, want wrapped cause", err)
	}
}

func TestBuildRunsGeneratorThenExecutor(t *testing.T) {
	cloneDir := filepath.Join(t.TempDir(), "SU2")
	runner := &solverFakeRunner{}
	b := newTestBuilder(t, cloneDir, runner, nil)

	if err := b.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(runner.streamed) != 2 {
		t.Fatalf("streamed %d commands, want meson + ninja", len(runner.streamed))
	}

	meson := runner.streamed[0]
	if got := meson.Command(); got != "python3 meson.py build --prefix=/opt/su2-stack/su2" {
		t.Fatalf("generator command = %q", got)
	}
	if meson.Dir != cloneDir {
		t.Fatalf("generator dir = %q, want clone dir", meson.Dir)
	}

	ninja := runner.streamed[1]
	if got := ninja.Command(); got != "./ninja -C build install" {
		t.Fatalf("executor command = %q", got)
	}
	if ninja.Dir != cloneDir {
		t.Fatalf("executor dir = %q, want clone dir", ninja.Dir)
	}

	for _, inv := range runner.streamed {
		if inv.Env["CC"] != filepath.Join("/opt/su2-stack/mpich", "bin", "mpicc") {
			t.Fatalf("CC = %q", inv.Env["CC"])
		}
		if inv.Env["CXX"] != filepath.Join("/opt/su2-stack/mpich", "bin", "mpicxx") {
			t.Fatalf("CXX = %q", inv.Env["CXX"])
		}
		wantPrefix := filepath.Join("/opt/su2-stack/mpich", "bin") + string(os.PathListSeparator)
		if !strings.HasPrefix(inv.Env["PATH"], wantPrefix) {
			t.Fatalf("PATH = %q, want MPI bin first", inv.Env["PATH"])
		}
	}
}

func TestBuildEnvLeavesParentUntouched(t *testing.T) {
	before := os.Getenv("CC")
	b := newTestBuilder(t, filepath.Join(t.TempDir(), "SU2"), &solverFakeRunner{}, nil)
	_ = b.BuildEnv()
	if os.Getenv("CC") != before {
		t.Fatal("BuildEnv mutated the parent environment")
	}
}

func TestNewBuilderRequiresMPIPrefix(t *testing.T) {
	_, err := NewBuilder(BuilderConfig{
		RepoURL:  "https://github.com/su2code/SU2.git",
		CloneDir: "/tmp/SU2",
		Prefix:   "/tmp/su2",
	})
	if !errors.Is(err, ErrInvalidBuild) {
		t.Fatalf("NewBuilder = %v, want ErrInvalidBuild", err)
	}
}
