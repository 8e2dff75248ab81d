package solver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/rs/zerolog/log"

	"github.com/cfdops/su2ctl/internal/tools"
)

var ErrInvalidBuild = errors.New("solver: invalid build configuration")

// CloneFunc fetches repoURL into dir.
type CloneFunc func(ctx context.Context, repoURL, dir string) error

func gitClone(ctx context.Context, repoURL, dir string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:      repoURL,
		Progress: os.Stdout,
	})
	return err
}

// BuilderConfig describes one solver build.
type BuilderConfig struct {
	RepoURL   string
	CloneDir  string
	Prefix    string
	MPIPrefix string
	Runner    tools.CommandRunner
	Clone     CloneFunc
}

// Builder clones the solver sources and drives its meson/ninja build.
type Builder struct {
	repoURL   string
	cloneDir  string
	prefix    string
	mpiPrefix string
	runner    tools.CommandRunner
	clone     CloneFunc
}

func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if strings.TrimSpace(cfg.RepoURL) == "" {
		return nil, fmt.Errorf("%w: repo url is required", ErrInvalidBuild)
	}
	if strings.TrimSpace(cfg.CloneDir) == "" {
		return nil, fmt.Errorf("%w: clone dir is required", ErrInvalidBuild)
	}
	if strings.TrimSpace(cfg.Prefix) == "" {
		return nil, fmt.Errorf("%w: install prefix is required", ErrInvalidBuild)
	}
	if strings.TrimSpace(cfg.MPIPrefix) == "" {
		return nil, fmt.Errorf("%w: mpi prefix is required", ErrInvalidBuild)
	}

	runner := cfg.Runner
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	clone := cfg.Clone
	if clone == nil {
		clone = gitClone
	}

	return &Builder{
		repoURL:   cfg.RepoURL,
		cloneDir:  cfg.CloneDir,
		prefix:    cfg.Prefix,
		mpiPrefix: cfg.MPIPrefix,
		runner:    runner,
		clone:     clone,
	}, nil
}

// Clone fetches the solver sources unless the clone dir already exists.
// A present dir is trusted as-is, never validated or updated; false
// reports that nothing was cloned.
func (b *Builder) Clone(ctx context.Context) (bool, error) {
	if _, err := os.Stat(b.cloneDir); err == nil {
		log.Info().Str("dir", b.cloneDir).Msg("clone dir already present, keeping it")
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("solver: stat clone dir: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(b.cloneDir), 0o755); err != nil {
		return false, fmt.Errorf("solver: create clone parent: %w", err)
	}
	log.Info().Str("repo", b.repoURL).Str("dir", b.cloneDir).Msg("cloning solver")
	if err := b.clone(ctx, b.repoURL, b.cloneDir); err != nil {
		return false, fmt.Errorf("solver: clone repo=%s dir=%s: %w", b.repoURL, b.cloneDir, err)
	}
	return true, nil
}

// BuildEnv is the environment handed to the build child processes: the
// MPI compiler wrappers as CC/CXX and the MPI bin dir first on PATH.
// The parent process environment is never mutated.
func (b *Builder) BuildEnv() map[string]string {
	bin := filepath.Join(b.mpiPrefix, "bin")
	return map[string]string{
		"CC":   filepath.Join(bin, "mpicc"),
		"CXX":  filepath.Join(bin, "mpicxx"),
		"PATH": bin + string(os.PathListSeparator) + os.Getenv("PATH"),
	}
}

// Build runs the meson generator then the ninja executor inside the
// clone dir.
func (b *Builder) Build(ctx context.Context) error {
	env := b.BuildEnv()
	invocations := []tools.Invocation{
		{Name: "python3", Args: []string{"meson.py", "build", "--prefix=" + b.prefix}, Dir: b.cloneDir, Env: env},
		{Name: "./ninja", Args: []string{"-C", "build", "install"}, Dir: b.cloneDir, Env: env},
	}
	for _, inv := range invocations {
		log.Info().Str("cmd", inv.Command()).Str("dir", inv.Dir).Msg("solver exec")
		if err := b.runner.Stream(ctx, inv, os.Stdout, os.Stderr); err != nil {
			return fmt.Errorf("solver command failed cmd=%s dir=%s: %w", inv.Command(), inv.Dir, err)
		}
	}
	return nil
}
