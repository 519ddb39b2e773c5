package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sangkips/posync/internal/domain/repository"
	"github.com/sangkips/posync/internal/metrics"
	"github.com/sangkips/posync/pkg/apperror"
	"github.com/sangkips/posync/pkg/logger"
	"go.uber.org/zap"
)

// SelectorState is the lifecycle of the storage selection
type SelectorState string

const (
	StateUninitialized SelectorState = "uninitialized"
	StateSelecting     SelectorState = "selecting"
	StateReady         SelectorState = "ready"
)

var errInitTimeout = errors.New("storage init timed out")

// StorageSelector picks the local backend once per session: the embedded
// relational store when it initializes in time, the key-value store
// otherwise. It is created once per process and passed by reference.
type StorageSelector struct {
	embedded repository.ProviderFactory
	fallback repository.ProviderFactory
	timeout  time.Duration
	metrics  *metrics.Sync
	log      *zap.Logger

	mu       sync.Mutex
	provider repository.StorageProvider
	state    atomic.Value
}

// NewStorageSelector creates a selector. embedded may be nil.
func NewStorageSelector(embedded, fallback repository.ProviderFactory, timeout time.Duration, m *metrics.Sync, log *zap.Logger) *StorageSelector {
	s := &StorageSelector{
		embedded: embedded,
		fallback: fallback,
		timeout:  timeout,
		metrics:  m,
		log:      logger.OrNop(log).Named("selector"),
	}
	s.state.Store(StateUninitialized)
	return s
}

// State returns the current selection state without blocking
func (s *StorageSelector) State() SelectorState {
	return s.state.Load().(SelectorState)
}

// Provider returns the selected backend, selecting it on first use.
// Concurrent callers wait for the same selection.
func (s *StorageSelector) Provider(ctx context.Context) (repository.StorageProvider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.provider != nil {
		return s.provider, nil
	}

	s.state.Store(StateSelecting)
	provider, err := s.selectProvider(ctx)
	if err != nil {
		s.state.Store(StateUninitialized)
		return nil, err
	}

	s.provider = provider
	s.state.Store(StateReady)
	s.metrics.SetBackend(provider.Kind().String())
	s.log.Info("local storage selected", zap.String("kind", provider.Kind().String()))
	return provider, nil
}

func (s *StorageSelector) selectProvider(ctx context.Context) (repository.StorageProvider, error) {
	if s.embedded != nil && s.embedded.Available() {
		p := s.embedded.New()
		err := s.initWithTimeout(ctx, p)
		if err == nil {
			return p, nil
		}
		s.log.Warn("embedded storage unavailable, falling back", zap.Error(err))
	}

	if s.fallback == nil || !s.fallback.Available() {
		return nil, apperror.ErrStorageUnavailable
	}
	p := s.fallback.New()
	if err := p.Init(ctx); err != nil {
		return nil, apperror.WrapInit("init key-value storage", err)
	}
	return p, nil
}

// initWithTimeout races p.Init against the timeout. A provider that
// finishes initializing after losing the race is closed.
func (s *StorageSelector) initWithTimeout(ctx context.Context, p repository.StorageProvider) error {
	done := make(chan error, 1)
	go func() {
		done <- p.Init(context.WithoutCancel(ctx))
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	abandon := func() {
		go func() {
			if err := <-done; err == nil {
				p.Close()
			}
		}()
	}

	select {
	case err := <-done:
		if err != nil {
			p.Close()
		}
		return err
	case <-timer.C:
		abandon()
		return errInitTimeout
	case <-ctx.Done():
		abandon()
		return ctx.Err()
	}
}

// Reset closes the selected backend and returns to uninitialized, so the
// next session selects again.
func (s *StorageSelector) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.provider != nil {
		err = s.provider.Close()
		s.provider = nil
	}
	s.state.Store(StateUninitialized)
	s.metrics.SetBackend("")
	return err
}
