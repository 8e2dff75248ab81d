package mpibuild

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cfdops/su2ctl/internal/tools"
)

var (
	ErrInvalidBuild = errors.New("mpibuild: invalid build configuration")
	ErrBadStatus    = errors.New("mpibuild: unexpected download status")
	ErrUnsafeEntry  = errors.New("mpibuild: archive entry escapes extract root")
)

// BuilderConfig describes one MPICH build.
type BuilderConfig struct {
	InstallRoot   string
	TarballURL    string
	TarballName   string
	SourceDirName string
	Prefix        string
	Jobs          int
	ConfigureArgs []string
	Runner        tools.CommandRunner
	Client        *http.Client
}

// Builder fetches the pinned MPICH release and builds it from source.
type Builder struct {
	installRoot   string
	tarballURL    string
	tarballName   string
	sourceDirName string
	prefix        string
	jobs          int
	configureArgs []string
	runner        tools.CommandRunner
	client        *http.Client
}

func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if strings.TrimSpace(cfg.InstallRoot) == "" {
		return nil, fmt.Errorf("%w: install root is required", ErrInvalidBuild)
	}
	if strings.TrimSpace(cfg.TarballURL) == "" {
		return nil, fmt.Errorf("%w: tarball url is required", ErrInvalidBuild)
	}
	if strings.TrimSpace(cfg.TarballName) == "" || strings.TrimSpace(cfg.SourceDirName) == "" {
		return nil, fmt.Errorf("%w: tarball and source dir names are required", ErrInvalidBuild)
	}
	if strings.TrimSpace(cfg.Prefix) == "" {
		return nil, fmt.Errorf("%w: install prefix is required", ErrInvalidBuild)
	}
	if cfg.Jobs < 1 {
		return nil, fmt.Errorf("%w: jobs must be positive, got %d", ErrInvalidBuild, cfg.Jobs)
	}

	runner := cfg.Runner
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}

	return &Builder{
		installRoot:   cfg.InstallRoot,
		tarballURL:    cfg.TarballURL,
		tarballName:   cfg.TarballName,
		sourceDirName: cfg.SourceDirName,
		prefix:        cfg.Prefix,
		jobs:          cfg.Jobs,
		configureArgs: cfg.ConfigureArgs,
		runner:        runner,
		client:        client,
	}, nil
}

// TarballPath is where the download lands inside the install root.
func (b *Builder) TarballPath() string {
	return filepath.Join(b.installRoot, b.tarballName)
}

// SourcePath is the extracted source tree.
func (b *Builder) SourcePath() string {
	return filepath.Join(b.installRoot, b.sourceDirName)
}

// Fetch downloads the tarball unless it already exists. A present file
// is trusted as-is and reported with false; the network is not touched.
func (b *Builder) Fetch(ctx context.Context) (bool, error) {
	path := b.TarballPath()
	if _, err := os.Stat(path); err == nil {
		log.Info().Str("tarball", path).Msg("tarball already present, keeping it")
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("mpibuild: stat tarball: %w", err)
	}

	if err := os.MkdirAll(b.installRoot, 0o755); err != nil {
		return false, fmt.Errorf("mpibuild: create install root: %w", err)
	}
	log.Info().Str("url", b.tarballURL).Str("dest", path).Msg("downloading mpich")
	if err := b.download(ctx, path); err != nil {
		return false, err
	}
	return true, nil
}

func (b *Builder) download(ctx context.Context, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.tarballURL, nil)
	if err != nil {
		return fmt.Errorf("mpibuild: build request url=%s: %w", b.tarballURL, err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("mpibuild: download url=%s: %w", b.tarballURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: url=%s status=%s", ErrBadStatus, b.tarballURL, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".mpich-download-*")
	if err != nil {
		return fmt.Errorf("mpibuild: create temp file: %w", err)
	}
	if err := copyAndClose(tmp, resp); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("mpibuild: write download: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("mpibuild: finalize download: %w", err)
	}
	return nil
}

// Build extracts the tarball and runs configure, make -j and make
// install in the source tree. Re-runs always rebuild; only the download
// is no-clobber.
func (b *Builder) Build(ctx context.Context) error {
	if err := b.extract(); err != nil {
		return err
	}

	src := b.SourcePath()
	configure := append([]string{"--prefix=" + b.prefix}, b.configureArgs...)
	invocations := []tools.Invocation{
		{Name: "./configure", Args: configure, Dir: src},
		{Name: "make", Args: []string{"-j" + strconv.Itoa(b.jobs)}, Dir: src},
		{Name: "make", Args: []string{"install"}, Dir: src},
	}
	for _, inv := range invocations {
		if err := b.stream(ctx, inv); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) stream(ctx context.Context, inv tools.Invocation) error {
	log.Info().Str("cmd", inv.Command()).Str("dir", inv.Dir).Msg("mpibuild exec")
	if err := b.runner.Stream(ctx, inv, os.Stdout, os.Stderr); err != nil {
		return fmt.Errorf("mpibuild command failed cmd=%s dir=%s: %w", inv.Command(), inv.Dir, err)
	}
	return nil
}
