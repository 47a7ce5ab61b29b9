package hostpaths

import (
	"errors"
	"time"

	"github.com/danmuck/remotectl/internal/config"
	logs "github.com/danmuck/remotectl/internal/logging"
)

// Registrar tells the host where the control and status files live. Register reports whether anything
// changed, in which case the host must be restarted to pick it up.
type Registrar interface {
	Register(controlFile, statusFile string) (bool, error)
}

// FileRegistrar keeps registration in a host.toml record.
type FileRegistrar struct {
	Path string
	Now  func() time.Time
}

func (f *FileRegistrar) Register(controlFile, statusFile string) (bool, error) {
	current, err := config.LoadHostRecord(f.Path)
	switch {
	case err == nil:
		if current.Matches(controlFile, statusFile) {
			logs.Debugf("hostpaths.FileRegistrar.Register unchanged path=%s", f.Path)
			return false, nil
		}
	case errors.Is(err, config.ErrRecordNotFound), errors.Is(err, config.ErrInvalidRecord):
	default:
		return false, err
	}

	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	rec := config.HostRecord{
		ControlFile: controlFile,
		StatusFile:  statusFile,
		UpdatedAt:   now().UTC(),
	}
	if err := config.SaveHostRecord(f.Path, rec); err != nil {
		return false, err
	}
	logs.Infof("hostpaths.FileRegistrar.Register updated path=%s control=%q status=%q", f.Path, controlFile, statusFile)
	return true, nil
}

// RecordResolver recovers the last registered files from a host.toml record.
type RecordResolver struct {
	Path string
}

func (r RecordResolver) Resolve() (Paths, error) {
	rec, err := config.LoadHostRecord(r.Path)
	if err != nil {
		return Paths{}, err
	}
	return Paths{ControlFile: rec.ControlFile, ResponseFile: rec.StatusFile}, nil
}
