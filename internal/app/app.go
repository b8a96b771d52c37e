package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jkaberg/sensor-dash/internal/api"
	"github.com/jkaberg/sensor-dash/internal/bus"
	"github.com/jkaberg/sensor-dash/internal/config"
	"github.com/jkaberg/sensor-dash/internal/dashboard"
	"github.com/jkaberg/sensor-dash/internal/dispatch"
	"github.com/jkaberg/sensor-dash/internal/domain"
	"github.com/jkaberg/sensor-dash/internal/transmission"
)

// Run starts the dashboard and, when mirror is non-nil, the MQTT state
// mirror. It blocks until the operator quits or ctx is cancelled.
func Run(
	parentCtx context.Context,
	cfg *config.Config,
	client *api.Client,
	mirror transmission.Transmitter,
	logger *logrus.Logger,
	opts ...tea.ProgramOption,
) error {
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	messageBus := bus.New()
	dispatcher := dispatch.New(client, cfg.APITimeout, cfg.RollbackOnFailure, logger)
	model := dashboard.New(client, dispatcher, messageBus.Publish, cfg.APITimeout, logger)

	// Subscribe before the UI can publish anything.
	var sub <-chan domain.DisplayState
	if mirror != nil {
		sub = messageBus.Subscribe()
	}

	grp, ctx := errgroup.WithContext(ctx)

	// Dashboard -------------------------------------------------------------
	grp.Go(func() error {
		// Quitting the UI ends the whole run.
		defer cancel()
		defer messageBus.Close()

		// Signals are handled by main through ctx.
		programOpts := append([]tea.ProgramOption{
			tea.WithAltScreen(),
			tea.WithContext(ctx),
			tea.WithoutSignalHandler(),
		}, opts...)
		p := tea.NewProgram(model, programOpts...)
		if _, err := p.Run(); err != nil && !isNormalExit(err) {
			return fmt.Errorf("dashboard: %w", err)
		}
		logger.Debug("dashboard exited")
		return nil
	})

	// Mirror scheduler ------------------------------------------------------
	if mirror != nil {
		grp.Go(func() error {
			return runMirror(ctx, sub, mirror, cfg.MQTTInterval, config.PollInterval, logger)
		})
	}

	if err := grp.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// isNormalExit reports whether the dashboard stopped because it was told to.
func isNormalExit(err error) bool {
	return errors.Is(err, tea.ErrProgramKilled) ||
		errors.Is(err, tea.ErrInterrupted) ||
		errors.Is(err, context.Canceled)
}

// runMirror forwards the newest state to tx at most once per interval and
// only when it changed since the last successful transmit.
func runMirror(
	ctx context.Context,
	sub <-chan domain.DisplayState,
	tx transmission.Transmitter,
	interval, tick time.Duration,
	logger *logrus.Logger,
) error {
	var latest, lastSnap *domain.DisplayState
	lastSent := time.Now().Add(-interval)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-sub:
			if !ok {
				return nil
			}
			latest = &snap
		case <-ticker.C:
			if latest == nil {
				continue
			}
			if !tx.IsConnected() {
				// paho reconnects on its own; keep latest for later.
				continue
			}
			now := time.Now()
			if now.Sub(lastSent) < interval {
				continue
			}
			if !domain.Changed(lastSnap, latest) {
				continue
			}
			if err := tx.Transmit(*latest); err != nil {
				logger.WithError(err).Warn("MQTT transmit failed")
				// Reset lastSnap so Changed() is true on the next tick, and
				// bump lastSent so we still respect the interval.
				lastSnap = nil
				lastSent = now
			} else {
				lastSnap = latest
				lastSent = now
			}
		}
	}
}
