package shellenv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cfdops/su2ctl/internal/tools"
)

var ErrInvalidIntegration = errors.New("shellenv: invalid integration configuration")

const sourceGuardComment = "# added by su2ctl"

// IntegratorConfig describes where the functions land and which rc
// files are candidates for the source line.
type IntegratorConfig struct {
	FunctionsFile string
	RCFiles       []string
	MPIPrefix     string
	SolverPrefix  string
	Runner        tools.CommandRunner
}

// Integrator writes the wrapper functions file and keeps the rc files
// sourcing it.
type Integrator struct {
	functionsFile string
	rcFiles       []string
	mpiPrefix     string
	solverPrefix  string
	runner        tools.CommandRunner
}

// Summary reports what one Integrate call touched.
type Summary struct {
	FunctionsFile string
	Appended      []string
	AlreadyWired  []string
	Created       string
}

func NewIntegrator(cfg IntegratorConfig) (*Integrator, error) {
	if strings.TrimSpace(cfg.FunctionsFile) == "" {
		return nil, fmt.Errorf("%w: functions file is required", ErrInvalidIntegration)
	}
	if len(cfg.RCFiles) == 0 {
		return nil, fmt.Errorf("%w: at least one rc file candidate is required", ErrInvalidIntegration)
	}
	if strings.TrimSpace(cfg.MPIPrefix) == "" || strings.TrimSpace(cfg.SolverPrefix) == "" {
		return nil, fmt.Errorf("%w: both install prefixes are required", ErrInvalidIntegration)
	}

	runner := cfg.Runner
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &Integrator{
		functionsFile: cfg.FunctionsFile,
		rcFiles:       cfg.RCFiles,
		mpiPrefix:     cfg.MPIPrefix,
		solverPrefix:  cfg.SolverPrefix,
		runner:        runner,
	}, nil
}

// Render returns the functions file content with the prefixes baked in.
func (i *Integrator) Render() (string, error) {
	return renderSnippet(snippetPaths{
		MPIRun:    filepath.Join(i.mpiPrefix, "bin", "mpirun"),
		SolverBin: filepath.Join(i.solverPrefix, "bin", "SU2_CFD"),
	})
}

// GuardLine is the idempotent source line appended to rc files.
func (i *Integrator) GuardLine() string {
	return fmt.Sprintf(`[ -f "%s" ] && . "%s"  %s`, i.functionsFile, i.functionsFile, sourceGuardComment)
}

// Integrate regenerates the functions file, wires the source line into
// every existing rc file candidate that lacks it, creates the last
// candidate when none exists, and verifies the snippet in a child
// shell. Sourcing into the parent shell is impossible from here, so a
// manual hint is logged instead.
func (i *Integrator) Integrate() (Summary, error) {
	summary := Summary{FunctionsFile: i.functionsFile}

	content, err := i.Render()
	if err != nil {
		return summary, err
	}
	if err := os.MkdirAll(filepath.Dir(i.functionsFile), 0o755); err != nil {
		return summary, fmt.Errorf("shellenv: create functions dir: %w", err)
	}
	if err := os.WriteFile(i.functionsFile, []byte(content), 0o644); err != nil {
		return summary, fmt.Errorf("shellenv: write functions file: %w", err)
	}
	log.Info().Str("file", i.functionsFile).Msg("wrote shell functions")

	guard := i.GuardLine()
	existing := 0
	for _, rc := range i.rcFiles {
		data, err := os.ReadFile(rc)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return summary, fmt.Errorf("shellenv: read rc file %s: %w", rc, err)
		}
		existing++

		if hasLine(string(data), guard) {
			summary.AlreadyWired = append(summary.AlreadyWired, rc)
			log.Debug().Str("rc", rc).Msg("source line already present")
			continue
		}
		if err := appendLine(rc, string(data), guard); err != nil {
			return summary, err
		}
		summary.Appended = append(summary.Appended, rc)
		log.Info().Str("rc", rc).Msg("appended source line")
	}

	if existing == 0 {
		created := i.rcFiles[len(i.rcFiles)-1]
		if err := os.WriteFile(created, []byte(guard+"\n"), 0o644); err != nil {
			return summary, fmt.Errorf("shellenv: create rc file %s: %w", created, err)
		}
		summary.Created = created
		log.Info().Str("rc", created).Msg("created startup file for source line")
	}

	if err := i.verify(); err != nil {
		return summary, err
	}
	log.Info().Str("file", i.functionsFile).
		Msgf("functions verified; run '. %s' or open a new shell to use them now", i.functionsFile)
	return summary, nil
}

// verify sources the snippet in a child shell so syntax errors surface
// here instead of at the next login.
func (i *Integrator) verify() error {
	script := fmt.Sprintf(`. "%s"`, i.functionsFile)
	stdout, stderr, exitCode, err := i.runner.Run("sh", "-c", script)
	if err == nil {
		return nil
	}
	return fmt.Errorf(
		"shellenv verify failed cmd=sh args=%q exit=%d stdout=%q stderr=%q: %w",
		"-c "+script,
		exitCode,
		strings.TrimSpace(string(stdout)),
		strings.TrimSpace(string(stderr)),
		err,
	)
}

func hasLine(content, line string) bool {
	for _, existing := range strings.Split(content, "\n") {
		if strings.TrimSpace(existing) == line {
			return true
		}
	}
	return false
}

func appendLine(path, content, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("shellenv: open rc file %s: %w", path, err)
	}
	defer f.Close()

	entry := line + "\n"
	if content != "" && !strings.HasSuffix(content, "\n") {
		entry = "\n" + entry
	}
	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("shellenv: append to rc file %s: %w", path, err)
	}
	return nil
}
