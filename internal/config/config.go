package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	shellwords "github.com/mattn/go-shellwords"
	homedir "github.com/mitchellh/go-homedir"
)

// EnvConfigPath points at an explicit config file and wins over the
// well-known locations.
const EnvConfigPath = "SU2CTL_CONFIG"

const (
	DefaultMPIVersion     = "4.3.1"
	DefaultMPIURLTemplate = "https://www.mpich.org/static/downloads/%s/mpich-%s.tar.gz"
	DefaultSolverRepo     = "https://github.com/su2code/SU2.git"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// MPIConfig pins the MPICH release and where it lands.
type MPIConfig struct {
	Version     string
	URLTemplate string
	Prefix      string
}

// TarballURL renders the download URL for the pinned version.
func (c MPIConfig) TarballURL() string {
	return fmt.Sprintf(c.URLTemplate, c.Version, c.Version)
}

// TarballName is the basename the download is saved under.
func (c MPIConfig) TarballName() string {
	return fmt.Sprintf("mpich-%s.tar.gz", c.Version)
}

// SourceDir is the directory name the tarball extracts to.
func (c MPIConfig) SourceDir() string {
	return fmt.Sprintf("mpich-%s", c.Version)
}

// SolverConfig pins the SU2 repository and install layout.
type SolverConfig struct {
	RepoURL  string
	CloneDir string
	Prefix   string
}

// ShellConfig names the generated functions file and the startup files
// that get the guarded source line.
type ShellConfig struct {
	FunctionsFile string
	RCFiles       []string
}

type Config struct {
	InstallRoot        string
	Jobs               int
	ExtraConfigureArgs string
	MPI                MPIConfig
	Solver             SolverConfig
	Shell              ShellConfig
}

// ConfigureArgs splits the extra configure arguments with shell quoting
// rules so quoted values survive intact.
func (c Config) ConfigureArgs() ([]string, error) {
	if strings.TrimSpace(c.ExtraConfigureArgs) == "" {
		return nil, nil
	}
	args, err := shellwords.Parse(c.ExtraConfigureArgs)
	if err != nil {
		return nil, fmt.Errorf("%w: extra_configure_args: %v", ErrInvalidConfig, err)
	}
	return args, nil
}

// DefaultConfig is the compiled-in configuration; the binary runs on it
// when no overlay file exists.
func DefaultConfig() Config {
	home := homeDir()
	return defaultsAt(home, filepath.Join(home, "su2-stack"))
}

func defaultsAt(home, root string) Config {
	return Config{
		InstallRoot: root,
		Jobs:        0,
		MPI: MPIConfig{
			Version:     DefaultMPIVersion,
			URLTemplate: DefaultMPIURLTemplate,
			Prefix:      filepath.Join(root, "mpich"),
		},
		Solver: SolverConfig{
			RepoURL:  DefaultSolverRepo,
			CloneDir: filepath.Join(root, "SU2"),
			Prefix:   filepath.Join(root, "su2"),
		},
		Shell: ShellConfig{
			FunctionsFile: filepath.Join(home, ".su2ctl_functions"),
			RCFiles: []string{
				filepath.Join(home, ".bashrc"),
				filepath.Join(home, ".zshrc"),
				filepath.Join(home, ".profile"),
			},
		},
	}
}

func homeDir() string {
	home, err := homedir.Dir()
	if err != nil || home == "" {
		return "."
	}
	return home
}

type fileConfig struct {
	InstallRoot        string   `toml:"install_root"`
	Jobs               int      `toml:"jobs"`
	ExtraConfigureArgs string   `toml:"extra_configure_args"`
	MPIVersion         string   `toml:"mpi_version"`
	MPIURLTemplate     string   `toml:"mpi_url_template"`
	MPIPrefix          string   `toml:"mpi_prefix"`
	SolverRepo         string   `toml:"solver_repo"`
	SolverCloneDir     string   `toml:"solver_clone_dir"`
	SolverPrefix       string   `toml:"solver_prefix"`
	FunctionsFile      string   `toml:"functions_file"`
	RCFiles            []string `toml:"rc_files"`
}

// Load overlays the TOML file at path onto the defaults. Only keys
// present in the file override; install_root rebuilds the dependent
// paths before the remaining keys apply.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("install_root") {
		root, err := expandPath(raw.InstallRoot)
		if err != nil {
			return Config{}, err
		}
		if root != "" {
			cfg = defaultsAt(homeDir(), root)
		}
	}
	if meta.IsDefined("jobs") {
		cfg.Jobs = raw.Jobs
	}
	if meta.IsDefined("extra_configure_args") {
		cfg.ExtraConfigureArgs = strings.TrimSpace(raw.ExtraConfigureArgs)
	}
	if meta.IsDefined("mpi_version") {
		cfg.MPI.Version = strings.TrimSpace(raw.MPIVersion)
	}
	if meta.IsDefined("mpi_url_template") {
		cfg.MPI.URLTemplate = strings.TrimSpace(raw.MPIURLTemplate)
	}
	if meta.IsDefined("mpi_prefix") {
		if cfg.MPI.Prefix, err = expandPath(raw.MPIPrefix); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("solver_repo") {
		cfg.Solver.RepoURL = strings.TrimSpace(raw.SolverRepo)
	}
	if meta.IsDefined("solver_clone_dir") {
		if cfg.Solver.CloneDir, err = expandPath(raw.SolverCloneDir); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("solver_prefix") {
		if cfg.Solver.Prefix, err = expandPath(raw.SolverPrefix); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("functions_file") {
		if cfg.Shell.FunctionsFile, err = expandPath(raw.FunctionsFile); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("rc_files") {
		files := make([]string, 0, len(raw.RCFiles))
		for _, rc := range raw.RCFiles {
			p, err := expandPath(rc)
			if err != nil {
				return Config{}, err
			}
			if p == "" {
				continue
			}
			files = append(files, p)
		}
		cfg.Shell.RCFiles = files
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("%w: expand path %q: %v", ErrInvalidConfig, path, err)
	}
	return expanded, nil
}

// Locate resolves the overlay file to load: $SU2CTL_CONFIG when set,
// else the first of ~/.su2ctl.toml and ./su2ctl.toml that exists. Empty
// means run on defaults alone.
func Locate() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	candidates := []string{
		filepath.Join(homeDir(), ".su2ctl.toml"),
		"su2ctl.toml",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Validate checks the invariants the pipeline depends on.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.InstallRoot) == "" {
		return fmt.Errorf("%w: install_root is required", ErrInvalidConfig)
	}
	if cfg.Jobs < 0 {
		return fmt.Errorf("%w: jobs must be zero or positive, got %d", ErrInvalidConfig, cfg.Jobs)
	}
	if _, err := semver.NewVersion(cfg.MPI.Version); err != nil {
		return fmt.Errorf("%w: mpi_version %q is not a semantic version", ErrInvalidConfig, cfg.MPI.Version)
	}
	if strings.Count(cfg.MPI.URLTemplate, "%s") != 2 {
		return fmt.Errorf("%w: mpi_url_template needs two %%s slots, got %q", ErrInvalidConfig, cfg.MPI.URLTemplate)
	}
	if strings.TrimSpace(cfg.MPI.Prefix) == "" {
		return fmt.Errorf("%w: mpi_prefix is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.Solver.RepoURL) == "" {
		return fmt.Errorf("%w: solver_repo is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.Solver.CloneDir) == "" {
		return fmt.Errorf("%w: solver_clone_dir is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.Solver.Prefix) == "" {
		return fmt.Errorf("%w: solver_prefix is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.Shell.FunctionsFile) == "" {
		return fmt.Errorf("%w: functions_file is required", ErrInvalidConfig)
	}
	if len(cfg.Shell.RCFiles) == 0 {
		return fmt.Errorf("%w: rc_files must name at least one candidate", ErrInvalidConfig)
	}
	if _, err := cfg.ConfigureArgs(); err != nil {
		return err
	}
	return nil
}
