package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sangkips/posync/internal/domain/repository"
	"github.com/sangkips/posync/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProvider struct {
	repository.StorageProvider
	kind    repository.ProviderKind
	initErr error
	delay   time.Duration
	closed  atomic.Bool
	inited  atomic.Bool
}

func (p *stubProvider) Init(context.Context) error {
	time.Sleep(p.delay)
	if p.initErr != nil {
		return p.initErr
	}
	p.inited.Store(true)
	return nil
}

func (p *stubProvider) Close() error {
	p.closed.Store(true)
	return nil
}

func (p *stubProvider) Kind() repository.ProviderKind { return p.kind }

type stubFactory struct {
	available bool
	provider  *stubProvider
	built     atomic.Int32
}

func (f *stubFactory) Available() bool { return f.available }

func (f *stubFactory) New() repository.StorageProvider {
	f.built.Add(1)
	return f.provider
}

func newFactories(embedded *stubProvider) (*stubFactory, *stubFactory) {
	return &stubFactory{available: true, provider: embedded},
		&stubFactory{available: true, provider: &stubProvider{kind: repository.ProviderKeyValue}}
}

func TestStorageSelector_PrefersEmbedded(t *testing.T) {
	emb, kv := newFactories(&stubProvider{kind: repository.ProviderRelational})
	s := NewStorageSelector(emb, kv, time.Second, nil, zap.NewNop())
	assert.Equal(t, StateUninitialized, s.State())

	p, err := s.Provider(context.Background())
	require.NoError(t, err)
	assert.Equal(t, repository.ProviderRelational, p.Kind())
	assert.Equal(t, StateReady, s.State())
	assert.Zero(t, kv.built.Load())
}

func TestStorageSelector_FallsBackOnInitError(t *testing.T) {
	emb, kv := newFactories(&stubProvider{kind: repository.ProviderRelational, initErr: errors.New("no sqlite")})
	s := NewStorageSelector(emb, kv, time.Second, nil, zap.NewNop())

	p, err := s.Provider(context.Background())
	require.NoError(t, err)
	assert.Equal(t, repository.ProviderKeyValue, p.Kind())
	assert.True(t, emb.provider.closed.Load())
}

func TestStorageSelector_FallsBackOnTimeoutAndClosesLateProvider(t *testing.T) {
	slow := &stubProvider{kind: repository.ProviderRelational, delay: 100 * time.Millisecond}
	emb, kv := newFactories(slow)
	s := NewStorageSelector(emb, kv, 10*time.Millisecond, nil, zap.NewNop())

	p, err := s.Provider(context.Background())
	require.NoError(t, err)
	assert.Equal(t, repository.ProviderKeyValue, p.Kind())

	assert.Eventually(t, func() bool {
		return slow.inited.Load() && slow.closed.Load()
	}, time.Second, 5*time.Millisecond)
}

func TestStorageSelector_SkipsUnavailableEmbedded(t *testing.T) {
	emb, kv := newFactories(&stubProvider{kind: repository.ProviderRelational})
	emb.available = false
	s := NewStorageSelector(emb, kv, time.Second, nil, zap.NewNop())

	p, err := s.Provider(context.Background())
	require.NoError(t, err)
	assert.Equal(t, repository.ProviderKeyValue, p.Kind())
	assert.Zero(t, emb.built.Load())

	s = NewStorageSelector(nil, kv, time.Second, nil, zap.NewNop())
	p, err = s.Provider(context.Background())
	require.NoError(t, err)
	assert.Equal(t, repository.ProviderKeyValue, p.Kind())
}

func TestStorageSelector_FallbackFailure(t *testing.T) {
	emb, kv := newFactories(&stubProvider{kind: repository.ProviderRelational, initErr: errors.New("no sqlite")})
	kv.provider.initErr = errors.New("disk full")
	s := NewStorageSelector(emb, kv, time.Second, nil, zap.NewNop())

	_, err := s.Provider(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperror.KindInit, apperror.GetAppError(err).Kind)
	assert.Equal(t, StateUninitialized, s.State())

	kv.available = false
	_, err = s.Provider(context.Background())
	assert.ErrorIs(t, err, apperror.ErrStorageUnavailable)
}

func TestStorageSelector_SelectsOnce(t *testing.T) {
	emb, kv := newFactories(&stubProvider{kind: repository.ProviderRelational, delay: 20 * time.Millisecond})
	s := NewStorageSelector(emb, kv, time.Second, nil, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Provider(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, emb.built.Load())
}

func TestStorageSelector_Reset(t *testing.T) {
	emb, kv := newFactories(&stubProvider{kind: repository.ProviderRelational})
	s := NewStorageSelector(emb, kv, time.Second, nil, zap.NewNop())
	_, err := s.Provider(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.Reset(context.Background()))
	assert.True(t, emb.provider.closed.Load())
	assert.Equal(t, StateUninitialized, s.State())

	_, err = s.Provider(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, emb.built.Load())
}
