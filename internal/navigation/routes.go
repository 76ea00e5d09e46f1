package navigation

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	MintDetailsScreen    = "MyMintsDetails"
	GalleryDetailsScreen = "details"
)

var (
	ErrMissingIndex = errors.New(`route requires an "index" argument`)
	ErrMissingPath  = errors.New(`route requires a "path" argument`)
	ErrUnknownRoute = errors.New("unknown route")
)

// MintDetailsRoute маршрут экрана деталей минта: MyMintsDetails?index=3&mint=<id>
func MintDetailsRoute(index int, mintID string) string {
	q := url.Values{}
	q.Set("index", strconv.Itoa(index))
	if mintID != "" {
		q.Set("mint", mintID)
	}

	return MintDetailsScreen + "?" + q.Encode()
}

// ParseMintDetailsRoute разбирает маршрут деталей минта. Без index экран не открывается.
func ParseMintDetailsRoute(route string) (index int, mintID string, err error) {
	const op = "navigation.ParseMintDetailsRoute"

	q, err := parse(route, MintDetailsScreen)
	if err != nil {
		return 0, "", fmt.Errorf("%s: %w", op, err)
	}

	raw := q.Get("index")
	if raw == "" {
		return 0, "", fmt.Errorf("%s: %w", op, ErrMissingIndex)
	}

	index, err = strconv.Atoi(raw)
	if err != nil {
		return 0, "", fmt.Errorf("%s: invalid index %q: %w", op, raw, err)
	}

	return index, q.Get("mint"), nil
}

func GalleryDetailsRoute(path string) string {
	q := url.Values{}
	q.Set("path", path)

	return GalleryDetailsScreen + "?" + q.Encode()
}

func ParseGalleryDetailsRoute(route string) (string, error) {
	const op = "navigation.ParseGalleryDetailsRoute"

	q, err := parse(route, GalleryDetailsScreen)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	path := q.Get("path")
	if path == "" {
		return "", fmt.Errorf("%s: %w", op, ErrMissingPath)
	}

	return path, nil
}

func parse(route, name string) (url.Values, error) {
	base, rawQuery, _ := strings.Cut(route, "?")
	if base != name {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRoute, base)
	}

	return url.ParseQuery(rawQuery)
}
