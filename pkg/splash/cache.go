package splash

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
)

// NewCache keeps fitted splash images in fs. A nil fs disables caching.
func NewCache(fs afero.Fs) *Cache {
	return &Cache{fs: fs}
}

type Cache struct {
	fs afero.Fs
}

func (c *Cache) dirname(w, h int) string {
	return fmt.Sprintf("%dx%d", w, h)
}

func (c *Cache) filename(src string, w, h int) string {
	name := strings.TrimSuffix(path.Base(src), path.Ext(src))
	return fmt.Sprintf("%s/%s.png", c.dirname(w, h), name)
}

func (c *Cache) LoadImage(src string, w, h int) (bool, image.Image, error) {
	if c.fs == nil {
		return false, nil, nil
	}

	bs, err := afero.ReadFile(c.fs, c.filename(src, w, h))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil, nil
		}
		return false, nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(bs))
	if err != nil {
		return false, nil, err
	}

	return true, img, nil
}

func (c *Cache) SaveImage(src string, img image.Image) error {
	if c.fs == nil {
		return nil
	}

	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	if exists, err := afero.DirExists(c.fs, c.dirname(w, h)); err != nil {
		return err
	} else if !exists {
		if err2 := c.fs.MkdirAll(c.dirname(w, h), 0755); err2 != nil {
			return err2
		}
	}

	return Snapshot(c.fs, c.filename(src, w, h), img)
}

// Snapshot writes img to name as a PNG.
func Snapshot(fs afero.Fs, name string, img image.Image) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return err
	}
	return afero.WriteFile(fs, name, buf.Bytes(), 0644)
}
