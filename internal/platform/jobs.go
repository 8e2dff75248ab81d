package platform

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cfdops/su2ctl/internal/tools"
)

// DefaultJobs is the build parallelism used when no probe yields a usable
// core count.
const DefaultJobs = 4

// Jobs resolves the parallelism for source builds: the nproc probe first,
// then the sysctl probe used on macOS, then DefaultJobs.
func Jobs(runner tools.CommandRunner) int {
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	probes := [][]string{
		{"nproc"},
		{"sysctl", "-n", "hw.ncpu"},
	}
	for _, probe := range probes {
		stdout, _, _, err := runner.Run(probe[0], probe[1:]...)
		if err != nil {
			continue
		}
		n, convErr := strconv.Atoi(strings.TrimSpace(string(stdout)))
		if convErr == nil && n > 0 {
			return n
		}
	}
	log.Debug().Int("jobs", DefaultJobs).Msg("core count probes failed, using default")
	return DefaultJobs
}
