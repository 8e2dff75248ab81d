package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "install":
		return installTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const installTemplate = `# su2ctl install overlay. Every key is optional; omitted keys keep
# their compiled-in defaults.

# install_root = "~/su2-stack"

# Build parallelism. 0 means detect from the machine (nproc / sysctl).
jobs = 0

mpi_version = "4.3.1"
mpi_url_template = "https://www.mpich.org/static/downloads/%s/mpich-%s.tar.gz"
# mpi_prefix = "~/su2-stack/mpich"

solver_repo = "https://github.com/su2code/SU2.git"
# solver_clone_dir = "~/su2-stack/SU2"
# solver_prefix = "~/su2-stack/su2"

# Appended to MPICH ./configure after --prefix.
extra_configure_args = ""

# functions_file = "~/.su2ctl_functions"
# rc_files = ["~/.bashrc", "~/.zshrc", "~/.profile"]
`
