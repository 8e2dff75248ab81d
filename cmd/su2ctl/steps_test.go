package main

import (
	"context"
	"io"
	"testing"

	"github.com/cfdops/su2ctl/internal/config"
	"github.com/cfdops/su2ctl/internal/pipeline"
	"github.com/cfdops/su2ctl/internal/platform"
	"github.com/cfdops/su2ctl/internal/tools"
)

type stepFakeRunner struct {
	commands [][]string
	nprocOut string
}

func (r *stepFakeRunner) Run(name string, args ...string) ([]byte, []byte, int32, error) {
	cmd := []string{name}
	cmd = append(cmd, args...)
	r.commands = append(r.commands, cmd)
	return []byte(r.nprocOut), nil, 0, nil
}

func (r *stepFakeRunner) Stream(ctx context.Context, inv tools.Invocation, stdout, stderr io.Writer) error {
	cmd := []string{inv.Name}
	cmd = append(cmd, inv.Args...)
	r.commands = append(r.commands, cmd)
	return nil
}

func TestDetectStepUsesPinnedJobCount(t *testing.T) {
	t.Setenv(platform.EnvOSType, "darwin")
	cfg := config.DefaultConfig()
	cfg.Jobs = 16

	runner := &stepFakeRunner{nprocOut: "8\n"}
	run := newInstallRun(cfg)
	run.runner = runner

	res, err := run.detectStep().Run(context.Background())
	if err != nil {
		t.Fatalf("detect step: %v", err)
	}
	if res.Status != pipeline.StatusSucceeded {
		t.Fatalf("detect status = %q", res.Status)
	}
	if run.jobs != 16 {
		t.Fatalf("jobs = %d, want pinned 16", run.jobs)
	}
	if len(runner.commands) != 0 {
		t.Fatalf("core-count detection ran despite pinned jobs: %v", runner.commands)
	}
	if run.info.Kind != platform.DarwinBrew {
		t.Fatalf("detected branch = %q", run.info.Kind)
	}
}

func TestDetectStepCountsCoresWhenJobsUnset(t *testing.T) {
	t.Setenv(platform.EnvOSType, "darwin")
	cfg := config.DefaultConfig()
	cfg.Jobs = 0

	runner := &stepFakeRunner{nprocOut: "8\n"}
	run := newInstallRun(cfg)
	run.runner = runner

	if _, err := run.detectStep().Run(context.Background()); err != nil {
		t.Fatalf("detect step: %v", err)
	}
	if run.jobs != 8 {
		t.Fatalf("jobs = %d, want detected 8", run.jobs)
	}
	if len(runner.commands) == 0 || runner.commands[0][0] != "nproc" {
		t.Fatalf("commands = %v, want nproc first", runner.commands)
	}
}
