package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/cfdops/su2ctl/internal/config"
	"github.com/cfdops/su2ctl/internal/mpibuild"
	"github.com/cfdops/su2ctl/internal/pipeline"
	"github.com/cfdops/su2ctl/internal/platform"
	"github.com/cfdops/su2ctl/internal/shellenv"
	"github.com/cfdops/su2ctl/internal/solver"
	"github.com/cfdops/su2ctl/internal/sysdeps"
	"github.com/cfdops/su2ctl/internal/tools"
)

// installRun wires the install steps together. The detect step resolves
// the platform branch and job count; later steps read them from here.
type installRun struct {
	cfg    config.Config
	runner tools.CommandRunner

	info platform.Info
	jobs int
}

func newInstallRun(cfg config.Config) *installRun {
	return &installRun{cfg: cfg, runner: tools.ExecRunner{}}
}

func (r *installRun) Execute(ctx context.Context) (pipeline.Report, error) {
	p, err := pipeline.New(
		r.detectStep(),
		r.packagesStep(),
		r.pytoolsStep(),
		r.mpiFetchStep(),
		r.mpiBuildStep(),
		r.solverCloneStep(),
		r.solverBuildStep(),
		r.shellStep(),
	)
	if err != nil {
		return pipeline.Report{}, err
	}
	return p.Run(ctx)
}

func (r *installRun) detectStep() pipeline.Step {
	return pipeline.FuncStep{
		Meta: pipeline.StepMetadata{
			ID:          "platform.detect",
			Name:        "Detect platform",
			Description: "identify the OS family, package manager branch and build job count",
		},
		Fn: func(ctx context.Context) (pipeline.Result, error) {
			info, err := platform.Detect()
			if err != nil {
				return pipeline.Result{}, err
			}
			r.info = info
			r.jobs = r.cfg.Jobs
			if r.jobs < 1 {
				r.jobs = platform.Jobs(r.runner)
			}
			log.Info().
				Str("os", info.OS).
				Str("branch", string(info.Kind)).
				Int("jobs", r.jobs).
				Msg("platform detected")
			return pipeline.Succeeded(), nil
		},
	}
}

func (r *installRun) packagesStep() pipeline.Step {
	return pipeline.FuncStep{
		Meta: pipeline.StepMetadata{
			ID:          "sysdeps.packages",
			Name:        "Install system build dependencies",
			Description: "install the compiler and tooling packages for the detected branch",
		},
		Fn: func(ctx context.Context) (pipeline.Result, error) {
			if err := sysdeps.NewInstaller(r.runner).InstallPackages(r.info.Kind); err != nil {
				return pipeline.Result{}, err
			}
			return pipeline.Succeeded(), nil
		},
	}
}

func (r *installRun) pytoolsStep() pipeline.Step {
	return pipeline.FuncStep{
		Meta: pipeline.StepMetadata{
			ID:          "sysdeps.pytools",
			Name:        "Install meson and ninja",
			Description: "pip install the build generator and executor for the invoking user",
		},
		Fn: func(ctx context.Context) (pipeline.Result, error) {
			if err := sysdeps.NewInstaller(r.runner).InstallPyTools(); err != nil {
				return pipeline.Result{}, err
			}
			return pipeline.Succeeded(), nil
		},
	}
}

func (r *installRun) mpiBuilder() (*mpibuild.Builder, error) {
	args, err := r.cfg.ConfigureArgs()
	if err != nil {
		return nil, err
	}
	return mpibuild.NewBuilder(mpibuild.BuilderConfig{
		InstallRoot:   r.cfg.InstallRoot,
		TarballURL:    r.cfg.MPI.TarballURL(),
		TarballName:   r.cfg.MPI.TarballName(),
		SourceDirName: r.cfg.MPI.SourceDir(),
		Prefix:        r.cfg.MPI.Prefix,
		Jobs:          r.jobs,
		ConfigureArgs: args,
		Runner:        r.runner,
	})
}

func (r *installRun) mpiFetchStep() pipeline.Step {
	return pipeline.FuncStep{
		Meta: pipeline.StepMetadata{
			ID:          "mpi.fetch",
			Name:        "Fetch MPICH",
			Description: "download the pinned MPICH release unless the tarball is already present",
		},
		Fn: func(ctx context.Context) (pipeline.Result, error) {
			b, err := r.mpiBuilder()
			if err != nil {
				return pipeline.Result{}, err
			}
			fetched, err := b.Fetch(ctx)
			if err != nil {
				return pipeline.Result{}, err
			}
			if !fetched {
				return pipeline.Skipped("tarball already present"), nil
			}
			return pipeline.Succeeded(), nil
		},
	}
}

func (r *installRun) mpiBuildStep() pipeline.Step {
	return pipeline.FuncStep{
		Meta: pipeline.StepMetadata{
			ID:          "mpi.build",
			Name:        "Build MPICH",
			Description: "extract the tarball and run configure, make and make install",
		},
		Fn: func(ctx context.Context) (pipeline.Result, error) {
			b, err := r.mpiBuilder()
			if err != nil {
				return pipeline.Result{}, err
			}
			if err := b.Build(ctx); err != nil {
				return pipeline.Result{}, err
			}
			return pipeline.Succeeded(), nil
		},
	}
}

func (r *installRun) solverBuilder() (*solver.Builder, error) {
	return solver.NewBuilder(solver.BuilderConfig{
		RepoURL:   r.cfg.Solver.RepoURL,
		CloneDir:  r.cfg.Solver.CloneDir,
		Prefix:    r.cfg.Solver.Prefix,
		MPIPrefix: r.cfg.MPI.Prefix,
		Runner:    r.runner,
	})
}

func (r *installRun) solverCloneStep() pipeline.Step {
	return pipeline.FuncStep{
		Meta: pipeline.StepMetadata{
			ID:          "solver.clone",
			Name:        "Clone SU2",
			Description: "clone the solver repository unless the clone dir already exists",
		},
		Fn: func(ctx context.Context) (pipeline.Result, error) {
			b, err := r.solverBuilder()
			if err != nil {
				return pipeline.Result{}, err
			}
			cloned, err := b.Clone(ctx)
			if err != nil {
				return pipeline.Result{}, err
			}
			if !cloned {
				return pipeline.Skipped("clone dir already present"), nil
			}
			return pipeline.Succeeded(), nil
		},
	}
}

func (r *installRun) solverBuildStep() pipeline.Step {
	return pipeline.FuncStep{
		Meta: pipeline.StepMetadata{
			ID:          "solver.build",
			Name:        "Build SU2",
			Description: "run the meson generator and ninja executor with the MPI wrappers",
		},
		Fn: func(ctx context.Context) (pipeline.Result, error) {
			b, err := r.solverBuilder()
			if err != nil {
				return pipeline.Result{}, err
			}
			if err := b.Build(ctx); err != nil {
				return pipeline.Result{}, err
			}
			return pipeline.Succeeded(), nil
		},
	}
}

func (r *installRun) shellStep() pipeline.Step {
	return pipeline.FuncStep{
		Meta: pipeline.StepMetadata{
			ID:          "shell.integrate",
			Name:        "Install shell functions",
			Description: "write the wrapper functions and wire them into shell startup files",
		},
		Fn: func(ctx context.Context) (pipeline.Result, error) {
			integ, err := shellenv.NewIntegrator(shellenv.IntegratorConfig{
				FunctionsFile: r.cfg.Shell.FunctionsFile,
				RCFiles:       r.cfg.Shell.RCFiles,
				MPIPrefix:     r.cfg.MPI.Prefix,
				SolverPrefix:  r.cfg.Solver.Prefix,
				Runner:        r.runner,
			})
			if err != nil {
				return pipeline.Result{}, err
			}
			summary, err := integ.Integrate()
			if err != nil {
				return pipeline.Result{}, err
			}
			log.Info().
				Int("appended", len(summary.Appended)).
				Int("already_wired", len(summary.AlreadyWired)).
				Str("created", summary.Created).
				Msg("shell startup files wired")
			return pipeline.Succeeded(), nil
		},
	}
}
