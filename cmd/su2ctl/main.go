package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/cfdops/su2ctl/internal/config"
	"github.com/cfdops/su2ctl/internal/observability"
	"github.com/cfdops/su2ctl/internal/pipeline"
	"github.com/cfdops/su2ctl/internal/report"
)

func main() {
	observability.InitLogger("su2ctl")

	cfg := config.DefaultConfig()
	if path := config.Locate(); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}
		cfg = loaded
		log.Info().Str("path", path).Msg("loaded config overlay")
	} else {
		log.Info().Msg("no config overlay found, running on defaults")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := newInstallRun(cfg)
	rep, runErr := run.Execute(ctx)

	report.WriteDefault(rep)
	summarize(rep)

	if runErr != nil {
		log.Error().Err(runErr).Msg("install failed")
		os.Exit(1)
	}
	log.Info().
		Str("mpi_prefix", cfg.MPI.Prefix).
		Str("solver_prefix", cfg.Solver.Prefix).
		Msg("install complete")
}

func summarize(rep pipeline.Report) {
	for _, s := range rep.Steps {
		event := log.Info()
		if s.Status == pipeline.StatusFailed {
			event = log.Error()
		}
		if s.Reason != "" {
			event = event.Str("reason", s.Reason)
		}
		event.Str("step", s.ID).Str("status", string(s.Status)).Dur("took", s.Duration).Msg("step summary")
	}
}
