// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// ReloadFunc swaps in a fresh corpus snapshot. A failure must leave the
// previous snapshot serving.
type ReloadFunc func() error

// ReloadService triggers corpus reloads on SIGHUP and, when an interval is
// configured, on a periodic ticker. Reload failures are logged and counted
// but never crash the service; the corpus keeps serving the old snapshot.
type ReloadService struct {
	reload   ReloadFunc
	interval time.Duration
	logger   zerolog.Logger
}

// NewReloadService creates the reload trigger service. interval <= 0
// disables the periodic reload; SIGHUP always works.
func NewReloadService(reload ReloadFunc, interval time.Duration, logger zerolog.Logger) *ReloadService {
	return &ReloadService{
		reload:   reload,
		interval: interval,
		logger:   logger.With().Str("component", "corpus-reload").Logger(),
	}
}

// Serve implements suture.Service.
func (s *ReloadService) Serve(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sigCh:
			s.runReload("sighup")
		case <-tick:
			s.runReload("interval")
		}
	}
}

func (s *ReloadService) runReload(trigger string) {
	if err := s.reload(); err != nil {
		s.logger.Error().Err(err).Str("trigger", trigger).Msg("Corpus reload failed, keeping previous snapshot")
		return
	}
	s.logger.Info().Str("trigger", trigger).Msg("Corpus reloaded")
}

// String implements fmt.Stringer for suture's log messages.
func (s *ReloadService) String() string {
	return "corpus-reload"
}

// RefreshSubscriber reloads the corpus when the collector publishes a
// refresh notification on NATS. Connection failures return an error so
// suture restarts the subscription with backoff.
type RefreshSubscriber struct {
	url     string
	subject string
	reload  ReloadFunc
	logger  zerolog.Logger
}

// NewRefreshSubscriber creates the NATS-driven refresh service.
func NewRefreshSubscriber(url, subject string, reload ReloadFunc, logger zerolog.Logger) *RefreshSubscriber {
	return &RefreshSubscriber{
		url:     url,
		subject: subject,
		reload:  reload,
		logger:  logger.With().Str("component", "corpus-refresh").Logger(),
	}
}

// Serve implements suture.Service.
func (s *RefreshSubscriber) Serve(ctx context.Context) error {
	nc, err := nats.Connect(s.url,
		nats.Name("playafinder-refresh"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return fmt.Errorf("nats connect %s: %w", s.url, err)
	}
	defer nc.Close()

	sub, err := nc.Subscribe(s.subject, func(msg *nats.Msg) {
		s.logger.Info().Str("subject", msg.Subject).Msg("Corpus refresh notification received")
		if err := s.reload(); err != nil {
			s.logger.Error().Err(err).Msg("Corpus reload failed, keeping previous snapshot")
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", s.subject, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	s.logger.Info().Str("url", s.url).Str("subject", s.subject).Msg("Listening for corpus refresh notifications")

	<-ctx.Done()
	return ctx.Err()
}

// String implements fmt.Stringer for suture's log messages.
func (s *RefreshSubscriber) String() string {
	return "corpus-refresh-subscriber"
}
