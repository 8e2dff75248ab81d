package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "su2ctl.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfigDerivesPathsFromRoot(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MPI.Prefix != filepath.Join(cfg.InstallRoot, "mpich") {
		t.Fatalf("MPI.Prefix = %q, want under %q", cfg.MPI.Prefix, cfg.InstallRoot)
	}
	if cfg.Solver.CloneDir != filepath.Join(cfg.InstallRoot, "SU2") {
		t.Fatalf("Solver.CloneDir = %q, want under %q", cfg.Solver.CloneDir, cfg.InstallRoot)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate(DefaultConfig()) = %v", err)
	}
}

func TestMPIConfigRendersDownloadNames(t *testing.T) {
	mpi := MPIConfig{Version: "4.3.1", URLTemplate: DefaultMPIURLTemplate}
	if got, want := mpi.TarballURL(), "https://www.mpich.org/static/downloads/4.3.1/mpich-4.3.1.tar.gz"; got != want {
		t.Fatalf("TarballURL = %q, want %q", got, want)
	}
	if got, want := mpi.TarballName(), "mpich-4.3.1.tar.gz"; got != want {
		t.Fatalf("TarballName = %q, want %q", got, want)
	}
	if got, want := mpi.SourceDir(), "mpich-4.3.1"; got != want {
		t.Fatalf("SourceDir = %q, want %q", got, want)
	}
}

func TestLoadOverlaysOnlyDefinedKeys(t *testing.T) {
	path := writeConfig(t, `
jobs = 8
mpi_version = "4.2.0"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Jobs != 8 {
		t.Fatalf("Jobs = %d, want 8", cfg.Jobs)
	}
	if cfg.MPI.Version != "4.2.0" {
		t.Fatalf("MPI.Version = %q, want overlay value", cfg.MPI.Version)
	}
	if cfg.Solver.RepoURL != DefaultSolverRepo {
		t.Fatalf("Solver.RepoURL = %q, want untouched default", cfg.Solver.RepoURL)
	}
}

func TestLoadInstallRootRebuildsDerivedPaths(t *testing.T) {
	path := writeConfig(t, `
install_root = "/opt/su2-stack"
mpi_prefix = "/opt/mpich-custom"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.InstallRoot != "/opt/su2-stack" {
		t.Fatalf("InstallRoot = %q", cfg.InstallRoot)
	}
	if cfg.Solver.CloneDir != filepath.Join("/opt/su2-stack", "SU2") {
		t.Fatalf("Solver.CloneDir = %q, want rebuilt under new root", cfg.Solver.CloneDir)
	}
	if cfg.MPI.Prefix != "/opt/mpich-custom" {
		t.Fatalf("MPI.Prefix = %q, want explicit overlay to win", cfg.MPI.Prefix)
	}
}

func TestLoadRejectsNonSemverVersion(t *testing.T) {
	path := writeConfig(t, `mpi_version = "banana"`)
	if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadRejectsBadURLTemplate(t *testing.T) {
	path := writeConfig(t, `mpi_url_template = "https://example.com/mpich.tar.gz"`)
	if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load = %v, want ErrInvalidConfig", err)
	}
}

func TestConfigureArgsSplitsWithQuoting(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExtraConfigureArgs = `--enable-shared --with-device="ch4:ofi"`
	args, err := cfg.ConfigureArgs()
	if err != nil {
		t.Fatalf("ConfigureArgs: %v", err)
	}
	want := []string{"--enable-shared", "--with-device=ch4:ofi"}
	if len(args) != len(want) || args[0] != want[0] || args[1] != want[1] {
		t.Fatalf("ConfigureArgs = %q, want %q", args, want)
	}
}

func TestConfigureArgsEmpty(t *testing.T) {
	cfg := DefaultConfig()
	args, err := cfg.ConfigureArgs()
	if err != nil || args != nil {
		t.Fatalf("ConfigureArgs on empty = %q, %v; want nil, nil", args, err)
	}
}

func TestLocatePrefersEnvOverride(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/su2ctl-override.toml")
	if got := Locate(); got != "/tmp/su2ctl-override.toml" {
		t.Fatalf("Locate = %q, want env override", got)
	}
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "su2ctl.toml")
	if err := WriteTemplate(path, "install", false); err != nil {
		t.Fatalf("WriteTemplate: %v", err)
	}
	err := WriteTemplate(path, "install", false)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("second WriteTemplate = %v, want refusal", err)
	}
	if err := WriteTemplate(path, "install", true); err != nil {
		t.Fatalf("WriteTemplate overwrite: %v", err)
	}
}

func TestShippedTemplateLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "su2ctl.toml")
	if err := WriteTemplate(path, "install", false); err != nil {
		t.Fatalf("WriteTemplate: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(template) = %v, want valid", err)
	}
	if cfg.MPI.Version != DefaultMPIVersion {
		t.Fatalf("template MPI.Version = %q", cfg.MPI.Version)
	}
}

func TestTemplateUnknownKind(t *testing.T) {
	if _, err := Template("cluster"); err == nil {
		t.Fatal("Template(cluster) = nil error, want unknown kind")
	}
}
