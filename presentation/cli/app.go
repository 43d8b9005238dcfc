package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"ui_probe/application/probe"
	"ui_probe/application/scenarios"
	"ui_probe/domain/entities"
	"ui_probe/domain/interfaces"
	"ui_probe/infrastructure/browser"
	"ui_probe/infrastructure/config"
	"ui_probe/infrastructure/security"
	"ui_probe/infrastructure/storage"

	"github.com/sirupsen/logrus"
)

// App wires configuration, logging, the browser driver and the runner
type App struct {
	cfg     config.Config
	logger  *logrus.Logger
	storage interfaces.Storage
	runner  *probe.Runner
}

// NewApp - builds the app from the environment
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := cfg.NewLogger()

	var launcher interfaces.Launcher
	switch cfg.Driver {
	case "selenium":
		launcher = browser.NewSeleniumLauncher(browser.SeleniumOptions{
			DriverPath:   cfg.ChromeDriverPath,
			ChromeBinary: cfg.ChromeBinary,
			Port:         cfg.ChromeDriverPort,
		}, logger)
	default:
		launcher = browser.NewPlaywrightLauncher(cfg.Browser, logger)
	}

	return NewAppWith(cfg, logger, launcher)
}

// NewAppWith - builds the app around a given launcher
func NewAppWith(cfg config.Config, logger *logrus.Logger, launcher interfaces.Launcher) (*App, error) {
	guard, err := security.NewGuard(cfg.BaseURL, cfg.ArtifactDir, cfg.AllowForeignOrigins, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize guard: %w", err)
	}
	store := storage.NewArtifactStore(cfg.ArtifactDir)

	runner := probe.NewRunner(launcher, store, guard, logger, probe.Options{
		Headless:          cfg.Headless,
		NavigationTimeout: cfg.NavigationTimeout,
		WaitTimeout:       cfg.WaitTimeout,
		MarkupDumpLimit:   cfg.MarkupDumpLimit,
	})

	return &App{
		cfg:     cfg,
		logger:  logger,
		storage: store,
		runner:  runner,
	}, nil
}

func (a *App) settings() scenarios.Settings {
	return scenarios.Settings{BaseURL: a.cfg.BaseURL, ArtifactDir: a.cfg.ArtifactDir}
}

// RunBuiltin - runs one of the built-in probes
func (a *App) RunBuiltin(ctx context.Context, name string) (entities.Report, error) {
	p, ok := scenarios.Get(name, a.settings())
	if !ok {
		return entities.Report{}, fmt.Errorf("unknown probe %q", name)
	}
	return a.runner.Run(ctx, p)
}

// RunAll - runs every built-in probe
func (a *App) RunAll(ctx context.Context) ([]entities.Report, error) {
	return a.runner.RunAll(ctx, scenarios.All(a.settings()))
}

// RunFile - runs a probe loaded from a YAML file
func (a *App) RunFile(ctx context.Context, path string) (entities.Report, error) {
	p, err := a.storage.LoadProbe(path)
	if err != nil {
		return entities.Report{}, err
	}
	if p.BaseURL == "" {
		p.BaseURL = a.cfg.BaseURL
	}
	return a.runner.Run(ctx, p)
}

// LastRun - the saved report of the previous run of name, ok is false when it never ran
func (a *App) LastRun(name string) (entities.Report, bool, error) {
	report, err := a.storage.LoadReport(name)
	if errors.Is(err, fs.ErrNotExist) {
		return entities.Report{}, false, nil
	}
	if err != nil {
		return entities.Report{}, false, fmt.Errorf("failed to load last report of %s: %w", name, err)
	}
	return report, true, nil
}
