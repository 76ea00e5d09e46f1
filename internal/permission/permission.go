package permission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

var ErrPermissionDenied = errors.New("permission denied")

type Checker interface {
	Check(ctx context.Context) error
}

type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error {
	return f(ctx)
}

// Explain тексты экрана, который показывается вместо галереи при отказе
type Explain struct {
	Body   string `json:"body" yaml:"body"`
	Button string `json:"button" yaml:"button"`
}

var DefaultGalleryExplain = Explain{
	Body:   "Minty Fresh needs access to your photos so you can pick one to mint.",
	Button: "Allow access",
}

// DirectoryAccess разрешение на чтение медиа: каталог галереи должен открываться и листаться
type DirectoryAccess struct {
	Dir string
}

func (d DirectoryAccess) Check(ctx context.Context) error {
	const op = "permission.DirectoryAccess.Check"

	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(d.Dir)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrPermissionDenied, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrPermissionDenied, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w: %s is not a directory", op, ErrPermissionDenied, d.Dir)
	}

	if _, err := f.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: %w: %v", op, ErrPermissionDenied, err)
	}

	return nil
}
