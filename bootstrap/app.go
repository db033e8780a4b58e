package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/roundtrip/logger"
)

// App runs one task with its config validated, a logger in place, SIGINT
// and SIGTERM wired to cancellation, and a summary printed at the end.
//
//	app, err := bootstrap.NewApp(cfg)
//	app.OnStop(shutdownTelemetry)
//	err = app.RunTask(ctx, runner.Run)
type App[C Config] struct {
	Name    string
	Version string
	Cfg     C
	Logger  *logger.Logger
	Summary *Summary

	settings
	onStart []Hook
	onStop  []Hook
}

// NewApp applies defaults to cfg, validates it and sets up logging.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	svc := cfg.GetServiceConfig()
	app := &App[C]{
		Name:     svc.Name,
		Version:  svc.Version,
		Cfg:      cfg,
		Summary:  NewSummary(svc.Name, svc.Version),
		settings: newSettings(opts),
	}
	app.Logger = app.settings.logger
	if app.Logger == nil {
		logger.Init(svc.Logging)
		app.Logger = logger.GetGlobalLogger()
	}
	return app, nil
}

// RunTask runs the start hooks, task and stop hooks in order, then prints
// the summary. A failing start hook skips the task. The task's error takes
// precedence over a stop hook's.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	start := time.Now()
	a.Logger.Info("Starting", logger.Fields("name", a.Name, "version", a.Version))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if a.signals {
		defer a.watchSignals(ctx, cancel)()
	}

	err := runHooks(ctx, a.onStart)
	if err != nil {
		err = fmt.Errorf("onStart hook failed: %w", err)
	} else {
		err = task(ctx)
	}
	stopErr := a.runStop()

	a.Summary.SetDuration(time.Since(start))
	a.Summary.SetResult(err)
	a.Summary.Display(a.out)
	if err != nil {
		return err
	}
	return stopErr
}

// watchSignals cancels the run on the first SIGINT or SIGTERM and returns a
// function that stops watching.
func (a *App[C]) watchSignals(ctx context.Context, cancel context.CancelFunc) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	ctx, release := context.WithCancel(ctx)
	go func() {
		select {
		case sig := <-ch:
			a.Logger.Info("Received signal, canceling run", logger.Fields("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()
	return func() {
		signal.Stop(ch)
		release()
	}
}

// runStop gets a fresh context so telemetry still flushes after the task
// context was canceled.
func (a *App[C]) runStop() error {
	if len(a.onStop) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()
	err := runHooks(ctx, a.onStop)
	if err != nil {
		a.Logger.Error("OnStop hook error", logger.ErrorFields("stop", err))
	}
	return err
}
