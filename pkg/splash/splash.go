package splash

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/inhies/go-bytesize"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type Option func(*Loader)

// WithCache stores fitted images in fs.
func WithCache(fs afero.Fs) Option {
	return func(l *Loader) {
		l.cache = NewCache(fs)
	}
}

// WithQuiet hides the download progress bar.
func WithQuiet() Option {
	return func(l *Loader) {
		l.dl.quiet = true
	}
}

// NewLoader reads local splash sources from fs. http and https sources are
// downloaded.
func NewLoader(fs afero.Fs, logger *zap.Logger, opts ...Option) *Loader {
	l := &Loader{
		fs:     fs,
		cache:  NewCache(nil),
		dl:     NewDownloader(logger),
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type Loader struct {
	fs     afero.Fs
	cache  *Cache
	dl     *Downloader
	logger *zap.Logger
}

// Load returns src scaled and cropped to exactly w x h.
func (l *Loader) Load(ctx context.Context, src string, w, h int) (image.Image, error) {
	exists, cached, err := l.cache.LoadImage(src, w, h)
	if err != nil {
		return nil, fmt.Errorf("load cache failed: %w", err)
	}
	if exists {
		l.logger.With(zap.String("src", src)).Debug("splash cached")
		return cached, nil
	}

	bs, err := l.read(ctx, src)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	filled := imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)
	l.logger.With(
		zap.String("src", src),
		zap.Stringer("size", bytesize.New(float64(len(bs)))),
		zap.Stringer("from", img.Bounds().Size()),
	).Debug("splash loaded")

	if err := l.cache.SaveImage(src, filled); err != nil {
		return filled, fmt.Errorf("save cache failed: %w", err)
	}

	return filled, nil
}

func (l *Loader) read(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return l.dl.Get(ctx, src)
	}

	bs, err := afero.ReadFile(l.fs, src)
	if err != nil {
		return nil, fmt.Errorf("read splash failed: %w", err)
	}
	return bs, nil
}
