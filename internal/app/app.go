// Package app implements the application layer for relkit.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/ziplock/relkit/internal/adapters/config"
	"github.com/ziplock/relkit/internal/adapters/packaging"
	"github.com/ziplock/relkit/internal/adapters/release"
	"github.com/ziplock/relkit/internal/adapters/toolchain"
	"github.com/ziplock/relkit/internal/adapters/verify"
	"github.com/ziplock/relkit/internal/adapters/version"
	"github.com/ziplock/relkit/internal/core/domain"
	"github.com/ziplock/relkit/internal/core/ports"
	"github.com/ziplock/relkit/internal/engine/builder"
	"github.com/ziplock/relkit/internal/engine/matrix"
	"github.com/ziplock/relkit/internal/engine/orchestrator"
	"go.trai.ch/zerr"
)

// Options are the CLI-facing knobs of one invocation.
type Options struct {
	Platforms []string
	Arches    []string
	Profile   string
	Clean     bool
	SkipTests bool
	Verbose   bool
	Output    string
	Jobs      int
	WorkDir   string
}

// App wires the pipeline stages together per CLI verb.
type App struct {
	loader    *config.Loader
	logger    ports.Logger
	telemetry ports.Telemetry
	runner    ports.Runner
	prober    ports.Prober
	inspector ports.Inspector
}

// New creates an App instance.
func New(
	loader *config.Loader,
	logger ports.Logger,
	telemetry ports.Telemetry,
	runner ports.Runner,
	prober ports.Prober,
	inspector ports.Inspector,
) *App {
	return &App{
		loader:    loader,
		logger:    logger,
		telemetry: telemetry,
		runner:    runner,
		prober:    prober,
		inspector: inspector,
	}
}

// SetConfigFile overrides the configuration filename looked up in the
// working directory.
func (a *App) SetConfigFile(name string) {
	a.loader.Filename = name
}

// SetVerbose threads --verbose into the wired adapters: the runner
// echoes every spawned command line and the logger emits debug records.
// Adapters without the knob (such as test doubles) are left alone.
func (a *App) SetVerbose(verbose bool) {
	if r, ok := a.runner.(interface{ SetEcho(bool) }); ok {
		r.SetEcho(verbose)
	}
	if l, ok := a.logger.(interface{ SetVerbose(bool) }); ok {
		l.SetVerbose(verbose)
	}
}

// Build compiles and verifies all requested targets without packaging.
func (a *App) Build(ctx context.Context, opts Options) (*orchestrator.Report, error) {
	return a.run(ctx, opts, false, false)
}

// Package builds, verifies and packages all requested targets.
func (a *App) Package(ctx context.Context, opts Options) (*orchestrator.Report, error) {
	return a.run(ctx, opts, true, false)
}

// Release runs the pipeline end to end: tests, builds, verification,
// packaging and release aggregation.
func (a *App) Release(ctx context.Context, opts Options) (*orchestrator.Report, error) {
	if !opts.SkipTests {
		if err := a.Test(ctx, opts); err != nil {
			return nil, err
		}
	}
	return a.run(ctx, opts, true, true)
}

// Test runs the workspace test suite through the native toolchain.
func (a *App) Test(ctx context.Context, opts Options) error {
	cfg, err := a.loader.Load(opts.WorkDir)
	if err != nil {
		return err
	}

	if !a.prober.Probe(ctx, "cargo").Available {
		return domain.WithHint(
			zerr.With(domain.ErrToolMissing, "tool", "cargo"),
			"install the Rust toolchain (https://rustup.rs)")
	}

	// Options override the configured profile, same as in run.
	profile := cfg.Profile
	if opts.Profile != "" {
		profile = opts.Profile
	}

	cmd := []string{"cargo", "test", "--workspace"}
	if profile == string(domain.ProfileRelease) {
		cmd = append(cmd, "--release")
	}

	vertex := a.telemetry.Record("test workspace")
	res, err := a.runner.Run(ctx, ports.RunRequest{Command: cmd, Dir: opts.WorkDir})
	vertex.Complete(err)
	if err != nil {
		a.logger.Error(zerr.With(err, "stderr", res.Stderr))
		return zerr.Wrap(err, "workspace tests failed")
	}
	a.logger.Info("workspace tests passed")
	return nil
}

func (a *App) run(ctx context.Context, opts Options, withPackaging, withRelease bool) (*orchestrator.Report, error) {
	cfg, err := a.loader.Load(opts.WorkDir)
	if err != nil {
		return nil, err
	}

	profile := domain.Profile(cfg.Profile)
	if opts.Profile != "" {
		profile = domain.Profile(opts.Profile)
	}
	if profile != domain.ProfileDebug && profile != domain.ProfileRelease {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrConfig, "unknown profile"),
			"profile", string(profile)), "allowed", "debug, release")
	}

	// Target validation happens before any subprocess is spawned.
	targets, err := matrix.Resolve(opts.Platforms, opts.Arches, profile)
	if err != nil {
		return nil, err
	}

	if opts.Clean {
		if _, err := a.runner.Run(ctx, ports.RunRequest{
			Command: []string{"cargo", "clean"},
			Dir:     opts.WorkDir,
		}); err != nil {
			a.logger.Warn(fmt.Sprintf("cargo clean failed: %v", err))
		}
	}

	outputDir := opts.Output
	if outputDir == "" {
		outputDir = "dist"
	}

	orch := a.assemble(ctx, cfg, opts, outputDir, targets)

	jobs := opts.Jobs
	if jobs == 0 {
		jobs = runtime.NumCPU()
	}

	report, err := orch.Run(ctx, targets, orchestrator.Config{
		WorkDir:       opts.WorkDir,
		OutputDir:     outputDir,
		Jobs:          jobs,
		Mandatory:     cfg.Mandatory,
		WithPackaging: withPackaging,
	})
	if err != nil {
		return report, err
	}

	if withRelease {
		if err := a.aggregate(ctx, opts, outputDir, report); err != nil {
			return report, err
		}
	}
	return report, nil
}

// assemble builds the per-run engine: the configuration decides symbol
// contracts, size bounds, template locations and which packagers are
// wired at all.
func (a *App) assemble(ctx context.Context, cfg config.Config, opts Options, outputDir string, targets []domain.BuildTarget) *orchestrator.Orchestrator {
	resolver := toolchain.New(a.prober, toolchain.Config{
		Image:      cfg.Image,
		LocalImage: cfg.LocalImage,
		RecipeDir:  cfg.RecipeDir,
		NDKRoot:    cfg.NDKRoot,
		Crate:      cfg.Crate,
	})

	verifier := verify.New(a.inspector, a.logger, verify.Expectations{
		MinSize:         cfg.Size.Min,
		MaxSize:         cfg.Size.Max,
		RequiredSymbols: cfg.Symbols.Required,
		OptionalSymbols: cfg.Symbols.Optional,
	})

	propagator := version.New(
		filepath.Join(opts.WorkDir, cfg.Manifest),
		opts.WorkDir,
		[]string{filepath.Join(opts.WorkDir, cfg.Templates.Pkgbuild)},
		[]string{filepath.Base(outputDir)},
		a.logger,
	)

	return orchestrator.New(
		resolver,
		builder.New(a.runner, a.logger),
		verifier,
		propagator,
		a.packagers(ctx, cfg, opts, targets),
		a.telemetry,
		a.logger,
	)
}

// packagers wires one packager per format whose external tool is
// available. A missing optional tool degrades its format to
// skipped-with-warning; it never fails the run.
func (a *App) packagers(ctx context.Context, cfg config.Config, opts Options, targets []domain.BuildTarget) map[domain.Platform][]ports.Packager {
	wired := make(map[domain.Platform][]ports.Packager)
	platforms := make(map[domain.Platform]bool)
	for _, t := range targets {
		platforms[t.Platform] = true
	}

	if platforms[domain.PlatformLinux] {
		if a.prober.Probe(ctx, "dpkg-deb").Available {
			wired[domain.PlatformLinux] = append(wired[domain.PlatformLinux],
				packaging.NewDebPackager(a.runner, filepath.Join(opts.WorkDir, cfg.Templates.Deb), cfg.PackageName))
		} else {
			a.logger.Warn("dpkg-deb not found, skipping Debian packaging")
		}
		if a.prober.Probe(ctx, "makepkg").Available {
			wired[domain.PlatformLinux] = append(wired[domain.PlatformLinux],
				packaging.NewArchPackager(a.runner, filepath.Join(opts.WorkDir, cfg.Templates.Pkgbuild), cfg.PackageName))
		} else {
			a.logger.Warn("makepkg not found, skipping Arch packaging")
		}
	}

	if platforms[domain.PlatformWindows] {
		dotnet := a.prober.Probe(ctx, "dotnet")
		wix := a.prober.Probe(ctx, "wix")
		if dotnet.Available || wix.Available {
			wired[domain.PlatformWindows] = append(wired[domain.PlatformWindows],
				packaging.NewMsiPackager(a.runner, filepath.Join(opts.WorkDir, cfg.Templates.Msi), cfg.PackageName))
		} else {
			a.logger.Warn("neither .NET nor WiX found, skipping MSI creation")
		}
	}

	if platforms[domain.PlatformAndroid] {
		wired[domain.PlatformAndroid] = append(wired[domain.PlatformAndroid],
			packaging.NewAndroidPackager(cfg.PackageName))
	}

	return wired
}

func (a *App) aggregate(ctx context.Context, opts Options, outputDir string, report *orchestrator.Report) error {
	collected := release.Collected{}
	var profile domain.Profile
	for _, res := range report.Results {
		profile = res.Target.Profile
		if res.Artifact != nil && res.Stage == orchestrator.StageDone {
			collected.Artifacts = append(collected.Artifacts, *res.Artifact)
		}
		collected.Descriptors = append(collected.Descriptors, res.Packages...)
	}

	aggregator := release.New(a.runner, a.logger)
	_, err := aggregator.Aggregate(ctx, opts.WorkDir, outputDir, report.Version, domain.BuildOptions{
		Profile:   profile,
		Clean:     opts.Clean,
		SkipTests: opts.SkipTests,
		Verbose:   opts.Verbose,
		Jobs:      opts.Jobs,
		OutputDir: outputDir,
	}, collected)
	return err
}
