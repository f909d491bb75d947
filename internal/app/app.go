package app

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog/log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
)

//go:generate mockgen -destination=./app_mock.go -package=app -source=app.go

// Dependency is a long-lived component the job needs while it runs.
type Dependency interface {
	// Start makes the dependency ready. It must not block once the dependency is usable.
	Start() error
	// Stop releases the dependency and persists whatever it owns.
	Stop() error
	// Name is used for logging only.
	Name() string
}

// Job is the work executed once every dependency started.
type Job func(ctx context.Context) error

type App struct {
	serviceName string
	// deps are started in order and stopped in reverse order.
	deps []Dependency
	// osSignalChan receives SIGINT/SIGTERM; the first one cancels the job.
	osSignalChan chan os.Signal
	// stopCalled allows stop to run once
	stopCalled *atomic.Bool
	// runCalled allows Run to be called once
	runCalled *atomic.Bool
	// stopTimeout bounds the time spent stopping all dependencies.
	stopTimeout time.Duration
}

type Config struct {
	ServiceName string
	StopTimeout time.Duration
}

func (c *Config) validate() error {
	var errs []error
	if c.ServiceName == "" {
		errs = append(errs, errors.New("service name is required"))
	}
	if c.StopTimeout == 0 {
		errs = append(errs, errors.New("stop timeout is required"))
	}
	return errors.Join(errs...)
}

// CreateApp creates a new application with the provided dependencies.
func CreateApp(cfg *Config, deps ...Dependency) (*App, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &App{
		serviceName:  cfg.ServiceName,
		deps:         deps,
		stopTimeout:  cfg.StopTimeout,
		stopCalled:   &atomic.Bool{},
		runCalled:    &atomic.Bool{},
		osSignalChan: make(chan os.Signal, 1),
	}, nil
}

// Run starts the dependencies, runs the job and stops the dependencies again. A signal from the
// OS or a canceled ctx cancels the job; Run still waits for the job to return before stopping.
func (a *App) Run(ctx context.Context, job Job) error {
	if !a.runCalled.CompareAndSwap(false, true) {
		return errors.New("run has already been called")
	}

	started, err := a.start()
	if err != nil {
		log.Error().Err(err).Msg("Dependency failed to start")
		return errors.Join(err, a.stop(started))
	}

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobDone := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				jobDone <- fmt.Errorf("panic in job %s: %v", a.serviceName, r)
			}
		}()
		jobDone <- job(jobCtx)
	}()

	signal.Notify(a.osSignalChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(a.osSignalChan)

	var jobErr error
	select {
	case jobErr = <-jobDone:
	case <-ctx.Done():
		log.Info().Msg("App Context cancelled: stopping job")
		cancel()
		jobErr = <-jobDone
	case sig := <-a.osSignalChan:
		log.Info().Msg("OS Signal received: " + sig.String() + " stopping job...")
		cancel()
		jobErr = <-jobDone
	}

	if err = a.stop(started); err != nil {
		log.Error().Msg("Error stopping application: " + err.Error())
	}
	return errors.Join(jobErr, err)
}

// start starts each dependency in order and returns the ones that started.
func (a *App) start() (started []Dependency, err error) {
	for _, dep := range a.deps {
		log.Info().Msg("Starting dependency: " + dep.Name())
		if err = startDependency(dep); err != nil {
			return started, err
		}
		started = append(started, dep)
	}
	return started, nil
}

func startDependency(dep Dependency) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in Start() for dependency %s: %v", dep.Name(), r)
		}
	}()
	if err = dep.Start(); err != nil {
		return fmt.Errorf("failure in Start() for dependency %s: %w", dep.Name(), err)
	}
	return nil
}

// stop stops the given dependencies in reverse order within the stop timeout.
func (a *App) stop(deps []Dependency) error {
	if !a.stopCalled.CompareAndSwap(false, true) {
		return errors.New("stop has already been called")
	}

	ctxTo, cancel := context.WithTimeout(context.Background(), a.stopTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		var errs []error
		for i := len(deps) - 1; i >= 0; i-- {
			dep := deps[i]
			log.Info().Msg("Stopping dependency: " + dep.Name())
			if err := dep.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("failure in Stop() for dependency %s: %w", dep.Name(), err))
			}
		}
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctxTo.Done():
		return fmt.Errorf("stopping dependencies: %w", ctxTo.Err())
	}
}
