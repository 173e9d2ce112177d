package splash

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/go-resty/resty/v2"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

func NewDownloader(logger *zap.Logger) *Downloader {
	return &Downloader{
		cli: resty.New().SetDoNotParseResponse(true),
		log: logger,
	}
}

type Downloader struct {
	cli   *resty.Client
	log   *zap.Logger
	quiet bool
}

// Get fetches url, drawing a progress bar on stderr unless quiet.
func (d *Downloader) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := d.cli.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = resp.RawBody().Close()
	}()

	if resp.IsError() {
		return nil, fmt.Errorf("download %s failed: %s", url, resp.Status())
	}

	var dst io.Writer
	var buf bytes.Buffer
	dst = &buf
	if !d.quiet {
		bar := progressbar.DefaultBytes(resp.RawResponse.ContentLength, fmt.Sprintf("Downloading %s", url))
		dst = io.MultiWriter(&buf, bar)
	}

	if _, err := io.Copy(dst, resp.RawBody()); err != nil {
		return nil, err
	}

	d.log.With(zap.String("url", url), zap.Int("size", buf.Len())).Debug("splash downloaded")
	return buf.Bytes(), nil
}
