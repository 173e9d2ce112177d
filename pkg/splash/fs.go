package splash

import (
	"errors"

	"github.com/spf13/afero"
)

// NewFs roots an OS filesystem at dir, which must exist.
func NewFs(dir string) (afero.Fs, error) {
	fs := afero.NewOsFs()
	if exists, err := afero.DirExists(fs, dir); err != nil {
		return nil, err
	} else if !exists {
		return nil, errors.New("dir not exists")
	}
	return afero.NewBasePathFs(fs, dir), nil
}
