package platform

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

var (
	ErrUnsupportedOS    = errors.New("platform: unsupported operating system")
	ErrNoPackageManager = errors.New("platform: no supported package manager found")
)

// EnvOSType optionally overrides the detected OS identifier, honoring the
// same $OSTYPE contract interactive shells expose.
const EnvOSType = "OSTYPE"

// Kind identifies one supported OS/package-manager branch.
type Kind string

const (
	LinuxApt   Kind = "linux/apt"
	LinuxYum   Kind = "linux/yum"
	DarwinBrew Kind = "darwin/brew"
)

// Info describes the detected host branch.
type Info struct {
	OS   string
	Kind Kind
}

// LookPath resolves a binary name on PATH. Tests substitute a fake.
type LookPath func(name string) (string, error)

// Classify maps an OS identifier to exactly one supported branch. Linux
// requires apt-get or yum on PATH; anything that is neither linux nor
// darwin is rejected before any install work can start.
func Classify(osID string, look LookPath) (Info, error) {
	if look == nil {
		look = exec.LookPath
	}
	id := strings.ToLower(strings.TrimSpace(osID))
	switch {
	case strings.HasPrefix(id, "linux"):
		if _, err := look("apt-get"); err == nil {
			return Info{OS: "linux", Kind: LinuxApt}, nil
		}
		if _, err := look("yum"); err == nil {
			return Info{OS: "linux", Kind: LinuxYum}, nil
		}
		return Info{}, fmt.Errorf("%w: linux host has neither apt-get nor yum", ErrNoPackageManager)
	case strings.HasPrefix(id, "darwin"):
		return Info{OS: "darwin", Kind: DarwinBrew}, nil
	default:
		return Info{}, fmt.Errorf("%w: %q", ErrUnsupportedOS, osID)
	}
}

// Detect classifies the running host. A non-empty OSTYPE env value takes
// precedence over runtime.GOOS.
func Detect() (Info, error) {
	id := strings.TrimSpace(os.Getenv(EnvOSType))
	if id == "" {
		id = runtime.GOOS
	}
	return Classify(id, nil)
}
