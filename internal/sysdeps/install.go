package sysdeps

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cfdops/su2ctl/internal/platform"
	"github.com/cfdops/su2ctl/internal/tools"
)

var (
	ErrBrewMissing   = errors.New("sysdeps: brew not installed")
	ErrUnknownBranch = errors.New("sysdeps: no package list for platform")
)

var packageSets = map[platform.Kind][]string{
	platform.LinuxApt:   {"build-essential", "gfortran", "wget", "git", "python3", "python3-pip"},
	platform.LinuxYum:   {"gcc", "gcc-c++", "gcc-gfortran", "make", "wget", "git", "python3", "python3-pip"},
	platform.DarwinBrew: {"gcc", "wget", "git", "python3"},
}

var brewBootstrapCommand = []string{
	"/bin/bash",
	"-c",
	`NONINTERACTIVE=1 /bin/bash -c "$(curl -fsSL https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh)"`,
}

// PackageList returns the fixed dependency list for a platform branch.
func PackageList(kind platform.Kind) ([]string, error) {
	pkgs, ok := packageSets[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBranch, kind)
	}
	return pkgs, nil
}

// Installer drives the native package manager for one platform branch.
type Installer struct {
	runner tools.CommandRunner
}

func NewInstaller(runner tools.CommandRunner) *Installer {
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &Installer{runner: runner}
}

// InstallPackages installs the build dependencies for the branch. apt
// refreshes its index first; apt and yum run under sudo; the brew
// branch bootstraps Homebrew when the probe reports it missing.
func (i *Installer) InstallPackages(kind platform.Kind) error {
	pkgs, err := PackageList(kind)
	if err != nil {
		return err
	}

	switch kind {
	case platform.LinuxApt:
		if err := i.runCommand("sudo", "apt-get", "update"); err != nil {
			return err
		}
		args := append([]string{"apt-get", "install", "-y"}, pkgs...)
		return i.runCommand("sudo", args...)
	case platform.LinuxYum:
		args := append([]string{"yum", "install", "-y"}, pkgs...)
		return i.runCommand("sudo", args...)
	case platform.DarwinBrew:
		if err := i.ensureBrew(); err != nil {
			return err
		}
		args := append([]string{"install"}, pkgs...)
		return i.runCommand("brew", args...)
	}
	return fmt.Errorf("%w: %q", ErrUnknownBranch, kind)
}

// InstallPyTools installs the meson and ninja build tools for the
// invoking user.
func (i *Installer) InstallPyTools() error {
	return i.runCommand("python3", "-m", "pip", "install", "--user", "meson", "ninja")
}

// ensureBrew probes for brew and runs the official bootstrap script
// when the probe reports exit 127. Bootstrap that leaves brew missing
// is fatal.
func (i *Installer) ensureBrew() error {
	checkErr := i.probeBrew()
	if checkErr == nil {
		return nil
	}
	if !errors.Is(checkErr, ErrBrewMissing) {
		return checkErr
	}

	log.Info().Msg("brew not found, running bootstrap installer")
	if err := i.runCommand(brewBootstrapCommand[0], brewBootstrapCommand[1:]...); err != nil {
		return err
	}
	if err := i.probeBrew(); err != nil {
		return fmt.Errorf("%w: bootstrap completed but brew is still unavailable", ErrBrewMissing)
	}
	return nil
}

func (i *Installer) probeBrew() error {
	stdout, stderr, exitCode, err := i.runner.Run("brew", "--version")
	if err == nil {
		return nil
	}
	if exitCode == tools.ExitMissing {
		return ErrBrewMissing
	}
	return fmt.Errorf(
		"sysdeps command failed cmd=brew args=%q exit=%d stdout=%q stderr=%q: %w",
		"--version",
		exitCode,
		strings.TrimSpace(string(stdout)),
		strings.TrimSpace(string(stderr)),
		err,
	)
}

func (i *Installer) runCommand(name string, args ...string) error {
	log.Info().Str("cmd", name).Str("args", strings.Join(args, " ")).Msg("sysdeps exec")
	stdout, stderr, exitCode, err := i.runner.Run(name, args...)
	if err == nil {
		return nil
	}
	return fmt.Errorf(
		"sysdeps command failed cmd=%s args=%q exit=%d stdout=%q stderr=%q: %w",
		name,
		strings.Join(args, " "),
		exitCode,
		strings.TrimSpace(string(stdout)),
		strings.TrimSpace(string(stderr)),
		err,
	)
}
