package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"mintyfresh/internal/collection"
	"mintyfresh/internal/domain/models"
	"mintyfresh/internal/scheduler"
	"mintyfresh/internal/storage"
	"mintyfresh/internal/transport/http/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const wallet = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"

type MockMintStore struct {
	mock.Mock
}

func (m *MockMintStore) GetMintByID(ctx context.Context, id string) (models.MintItem, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.MintItem), args.Error(1)
}

func (m *MockMintStore) SaveMint(ctx context.Context, mint models.MintItem) error {
	args := m.Called(ctx, mint)
	return args.Error(0)
}

func (m *MockMintStore) Invalidate(ctx context.Context, owner string) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}

type MockMintNotifier struct {
	mock.Mock
	source *fakeSource
}

func (m *MockMintNotifier) Publish(ctx context.Context, owner string) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}

func (m *MockMintNotifier) Source(owner string) collection.ChangeSource {
	return m.source
}

type fakeSource struct {
	mu       sync.Mutex
	onChange func()
	stopped  chan struct{}
}

func (f *fakeSource) Watch(onChange func()) (func() error, error) {
	f.mu.Lock()
	f.onChange = onChange
	f.mu.Unlock()

	return func() error {
		close(f.stopped)
		return nil
	}, nil
}

func (f *fakeSource) fire() {
	f.mu.Lock()
	fn := f.onChange
	f.mu.Unlock()

	fn()
}

type mintFixture struct {
	service  *MintService
	store    *MockMintStore
	notifier *MockMintNotifier

	mu    sync.Mutex
	mints map[string][]models.MintItem
	err   error
}

func (f *mintFixture) set(owner string, mints []models.MintItem, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.mints[owner] = mints
	f.err = err
}

func newMintFixture(t *testing.T) *mintFixture {
	t.Helper()

	loop := scheduler.NewLoop(16)
	t.Cleanup(loop.Stop)

	f := &mintFixture{
		store:    new(MockMintStore),
		notifier: &MockMintNotifier{source: &fakeSource{stopped: make(chan struct{})}},
		mints:    make(map[string][]models.MintItem),
	}

	loader := collection.LoaderFunc[models.MintItem](func(ctx context.Context, owner string) ([]models.MintItem, error) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if f.err != nil {
			return nil, f.err
		}
		return f.mints[owner], nil
	})

	provider := collection.New[models.MintItem](slog.Default(), loader, collection.Options{
		Name:         "mints",
		RequireScope: true,
		Dispatcher:   loop,
	})

	f.service = NewMintService(slog.Default(), provider, f.store, f.notifier)

	return f
}

func TestMintService_Mints(t *testing.T) {
	f := newMintFixture(t)
	ctx := context.Background()

	f.set(wallet, []models.MintItem{
		{ID: "m2", Owner: wallet, Name: "Art2"},
		{ID: "m1", Owner: wallet, Name: "Art1"},
	}, nil)

	t.Run("no wallet", func(t *testing.T) {
		resp := f.service.Mints(ctx, "")
		assert.False(t, resp.WalletConnected)
		assert.Empty(t, resp.Items)
		assert.Empty(t, resp.Error)
	})

	t.Run("lazy load", func(t *testing.T) {
		resp := f.service.Mints(ctx, wallet)
		assert.True(t, resp.WalletConnected)
		require.Len(t, resp.Items, 2)
		assert.Equal(t, "m2", resp.Items[0].ID)
		assert.Equal(t, "MyMintsDetails?index=1&mint=m1", resp.Items[1].DetailRoute)

		again := f.service.Mints(ctx, wallet)
		assert.Equal(t, resp.Version, again.Version, "second access served from snapshot")
	})

	t.Run("failed reload keeps items", func(t *testing.T) {
		f.store.On("Invalidate", ctx, wallet).Return(nil).Once()
		f.set(wallet, nil, errors.New("indexer down"))

		resp := f.service.Reload(ctx, wallet)
		assert.Len(t, resp.Items, 2)
		assert.NotEmpty(t, resp.Error)
	})

	f.store.AssertExpectations(t)
}

func TestMintService_WatchReleasesObserver(t *testing.T) {
	f := newMintFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.set(wallet, []models.MintItem{{ID: "m1", Owner: wallet}}, nil)
	f.store.On("Invalidate", mock.Anything, wallet).Return(nil)

	stream, err := f.service.Watch(ctx, wallet)
	require.NoError(t, err)

	first := <-stream
	require.Len(t, first.Items, 1)
	assert.Equal(t, 1, f.service.provider.Observers())

	f.set(wallet, []models.MintItem{{ID: "m2", Owner: wallet}, {ID: "m1", Owner: wallet}}, nil)
	f.notifier.source.fire()

	select {
	case next := <-stream:
		assert.Len(t, next.Items, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after mint change")
	}
	f.store.AssertCalled(t, "Invalidate", mock.Anything, wallet)

	cancel()

	select {
	case <-f.notifier.source.stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("observer not released")
	}
	assert.Eventually(t, func() bool { return f.service.provider.Observers() == 0 }, time.Second, 10*time.Millisecond)
}

func TestMintService_RecordMint(t *testing.T) {
	f := newMintFixture(t)
	ctx := context.Background()

	req := dto.RecordMintRequest{
		ID:       "m3",
		Owner:    wallet,
		Name:     "Art3",
		MediaURL: "https://arweave.net/3",
		MintedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	mint := models.MintItem{
		ID:       req.ID,
		Owner:    req.Owner,
		Name:     req.Name,
		MediaURL: req.MediaURL,
		MintedAt: req.MintedAt,
	}

	t.Run("success", func(t *testing.T) {
		f.store.On("SaveMint", ctx, mint).Return(nil).Once()
		f.notifier.On("Publish", ctx, wallet).Return(nil).Once()

		resp, err := f.service.RecordMint(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "m3", resp.ID)
	})

	t.Run("publish failure reloads directly", func(t *testing.T) {
		f.set(wallet, []models.MintItem{mint}, nil)
		f.store.On("SaveMint", ctx, mint).Return(nil).Once()
		f.notifier.On("Publish", ctx, wallet).Return(errors.New("redis down")).Once()

		_, err := f.service.RecordMint(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 1, f.service.provider.Current(wallet).Len())
	})

	t.Run("save failure", func(t *testing.T) {
		f.store.On("SaveMint", ctx, mint).Return(errors.New("db down")).Once()

		_, err := f.service.RecordMint(ctx, req)
		assert.Error(t, err)
	})

	f.store.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestMintService_GetMint(t *testing.T) {
	f := newMintFixture(t)
	ctx := context.Background()

	f.store.On("GetMintByID", ctx, "m1").Return(models.MintItem{ID: "m1", Owner: wallet}, nil).Once()
	f.store.On("GetMintByID", ctx, "nope").Return(models.MintItem{}, storage.ErrMintNotFound).Once()

	resp, err := f.service.GetMint(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "MyMintsDetails?index=0&mint=m1", resp.DetailRoute)

	_, err = f.service.GetMint(ctx, "nope")
	assert.ErrorIs(t, err, ErrMintNotFound)
}
