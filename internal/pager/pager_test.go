package pager

import (
	"errors"
	"testing"

	"mintyfresh/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gallery(paths ...string) []models.MediaItem {
	items := make([]models.MediaItem, 0, len(paths))
	for _, p := range paths {
		items = append(items, models.MediaItem{Path: p})
	}
	return items
}

func TestNew_CurrentMatchesIndex(t *testing.T) {
	items := gallery("a.jpg", "b.jpg", "c.jpg", "d.jpg")

	for i := range items {
		p, err := New(items, i)
		require.NoError(t, err)

		got, err := p.Current()
		require.NoError(t, err)
		assert.Equal(t, items[i], got)
		assert.Equal(t, StatePositioned, p.State())
	}
}

func TestNew_InvalidIndex(t *testing.T) {
	items := gallery("a.jpg", "b.jpg")

	for _, idx := range []int{-1, 2, 100} {
		p, err := New(items, idx)
		assert.ErrorIs(t, err, ErrInvalidIndex)
		assert.Nil(t, p)
	}
}

func TestNew_EmptyCollection(t *testing.T) {
	for _, idx := range []int{-3, 0, 7} {
		p, err := New[models.MediaItem](nil, idx)
		require.NoError(t, err)

		assert.Equal(t, StateEmpty, p.State())

		_, err = p.Current()
		assert.ErrorIs(t, err, ErrEmpty)

		_, ok := p.Index()
		assert.False(t, ok)

		assert.ErrorIs(t, p.MoveTo(0), ErrEmpty)
	}
}

func TestPager_GalleryScenario(t *testing.T) {
	p, err := New(gallery("a.jpg", "b.jpg", "c.jpg"), 1)
	require.NoError(t, err)

	cur, err := p.Current()
	require.NoError(t, err)
	assert.Equal(t, "b.jpg", cur.Path)

	require.NoError(t, p.MoveTo(2))
	cur, _ = p.Current()
	assert.Equal(t, "c.jpg", cur.Path)

	assert.ErrorIs(t, p.MoveTo(5), ErrInvalidIndex)
	cur, _ = p.Current()
	assert.Equal(t, "c.jpg", cur.Path)
}

func TestPager_ShareCurrent(t *testing.T) {
	mints := []models.MintItem{
		{ID: "M1", MediaURL: "x", Name: "first"},
		{ID: "M2", MediaURL: "u", Name: "n"},
	}

	p, err := New(mints, 1)
	require.NoError(t, err)

	var calls [][2]string
	err = p.ShareCurrent(SharerFunc(func(mediaURL, name string) error {
		calls = append(calls, [2]string{mediaURL, name})
		return nil
	}))
	require.NoError(t, err)

	assert.Equal(t, [][2]string{{"u", "n"}}, calls)

	idx, ok := p.Index()
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	cur, _ := p.Current()
	assert.Equal(t, "M2", cur.ID)
}

func TestPager_ShareErrors(t *testing.T) {
	t.Run("gallery items are not shareable", func(t *testing.T) {
		p, _ := New(gallery("a.jpg"), 0)
		err := p.ShareCurrent(SharerFunc(func(string, string) error {
			t.Fatal("sharer must not be called")
			return nil
		}))
		assert.ErrorIs(t, err, ErrNotShareable)
	})

	t.Run("empty pager", func(t *testing.T) {
		p, _ := New[models.MintItem](nil, 0)
		assert.ErrorIs(t, p.ShareCurrent(SharerFunc(func(string, string) error { return nil })), ErrEmpty)
	})

	t.Run("sharer error", func(t *testing.T) {
		boom := errors.New("no share target")
		p, _ := New([]models.MintItem{{ID: "M1"}}, 0)
		assert.ErrorIs(t, p.ShareCurrent(SharerFunc(func(string, string) error { return boom })), boom)
	})
}

func TestPager_Rebind(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		next     []string
		want     string
		wantIdx  int
		wantSize int
	}{
		{
			name:     "item moved keeps identity",
			start:    1,
			next:     []string{"z.jpg", "a.jpg", "c.jpg", "b.jpg"},
			want:     "b.jpg",
			wantIdx:  3,
			wantSize: 4,
		},
		{
			name:     "item removed falls back to index",
			start:    1,
			next:     []string{"a.jpg", "c.jpg"},
			want:     "c.jpg",
			wantIdx:  1,
			wantSize: 2,
		},
		{
			name:     "shrunk collection clamps",
			start:    2,
			next:     []string{"x.jpg"},
			want:     "x.jpg",
			wantIdx:  0,
			wantSize: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(gallery("a.jpg", "b.jpg", "c.jpg"), tt.start)
			require.NoError(t, err)

			p.Rebind(gallery(tt.next...))

			cur, err := p.Current()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cur.Path)

			idx, _ := p.Index()
			assert.Equal(t, tt.wantIdx, idx)
			assert.Equal(t, tt.wantSize, p.Len())
		})
	}

	t.Run("empty reload", func(t *testing.T) {
		p, _ := New(gallery("a.jpg"), 0)
		p.Rebind(nil)

		assert.Equal(t, StateEmpty, p.State())
		_, err := p.Current()
		assert.ErrorIs(t, err, ErrEmpty)

		p.Rebind(gallery("a.jpg", "b.jpg"))
		assert.Equal(t, StateEmpty, p.State())
	})
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-1, 3))
	assert.Equal(t, 2, Clamp(5, 3))
	assert.Equal(t, 1, Clamp(1, 3))
	assert.Equal(t, 0, Clamp(4, 0))
}
