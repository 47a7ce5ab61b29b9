package hostpaths

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	logs "github.com/danmuck/remotectl/internal/logging"
)

const (
	ControlFileName = "RemoteControl.txt"
	StatusFileName  = "RemoteControl.Status"
	DefaultVersion  = "2025.0"

	DefaultProfileDir = `C:\VibrationVIEW\Profiles\`
	DefaultDataDir    = `C:\VibrationVIEW\Data\`
)

var (
	ErrResponseUnresolved = errors.New("hostpaths: response file could not be resolved")
	ErrHostNotInstalled   = errors.New("hostpaths: host install not found")
)

// Paths is where the client and host exchange files.
type Paths struct {
	ControlFile  string `json:"control_file"`
	ResponseFile string `json:"response_file"`
	SystemDir    string `json:"system_dir,omitempty"`
	ProfileDir   string `json:"profile_dir,omitempty"`
	DataDir      string `json:"data_dir,omitempty"`
}

// FillFrom returns p with its empty fields taken from o.
func (p Paths) FillFrom(o Paths) Paths {
	if p.ControlFile == "" {
		p.ControlFile = o.ControlFile
	}
	if p.ResponseFile == "" {
		p.ResponseFile = o.ResponseFile
	}
	if p.SystemDir == "" {
		p.SystemDir = o.SystemDir
	}
	if p.ProfileDir == "" {
		p.ProfileDir = o.ProfileDir
	}
	if p.DataDir == "" {
		p.DataDir = o.DataDir
	}
	return p
}

type Resolver interface {
	Resolve() (Paths, error)
}

// StaticResolver returns fixed paths.
type StaticResolver Paths

func (s StaticResolver) Resolve() (Paths, error) {
	return Paths(s), nil
}

// Chain merges resolver output. The first resolver that yields a response file stops the walk; Overrides
// beat anything resolved and Defaults fill whatever is still empty.
type Chain struct {
	Resolvers []Resolver
	Overrides Paths
	Defaults  Paths
}

func (c Chain) Resolve() (Paths, error) {
	var found Paths
	for _, r := range c.Resolvers {
		p, err := r.Resolve()
		if err != nil {
			logs.Debugf("hostpaths.Chain.Resolve skipped resolver=%T err=%v", r, err)
			continue
		}
		found = found.FillFrom(p)
		if found.ResponseFile != "" {
			break
		}
	}

	out := c.Overrides.FillFrom(found).FillFrom(c.Defaults)
	if out.SystemDir != "" {
		out.SystemDir = WithTrailingSeparator(out.SystemDir)
	}
	if out.ResponseFile == "" && out.SystemDir != "" {
		out.ResponseFile = out.SystemDir + StatusFileName
	}
	if out.ResponseFile == "" {
		return out, ErrResponseUnresolved
	}
	return out, nil
}

// DefaultControlFile places the control file beside the running executable.
func DefaultControlFile() string {
	exe, err := os.Executable()
	if err != nil {
		return ControlFileName
	}
	return filepath.Join(filepath.Dir(exe), ControlFileName)
}

// Defaults returns the fallback paths used when nothing else resolves them.
func Defaults() Paths {
	return Paths{
		ControlFile: DefaultControlFile(),
		ProfileDir:  DefaultProfileDir,
		DataDir:     DefaultDataDir,
	}
}

// WithTrailingSeparator appends a path separator unless dir already ends in one.
func WithTrailingSeparator(dir string) string {
	if dir == "" || strings.HasSuffix(dir, `\`) || strings.HasSuffix(dir, "/") {
		return dir
	}
	return dir + string(os.PathSeparator)
}
