//go:build windows

package hostpaths

import (
	"fmt"
	"strings"

	logs "github.com/danmuck/remotectl/internal/logging"
	"golang.org/x/sys/windows/registry"
)

const (
	installKeyFormat = `SOFTWARE\Vibration Research Corporation\%s`
	paramsKeyFormat  = `SOFTWARE\Vibration Research Corporation\VibrationVIEW\%s\System Parameters`

	systemPathValue  = "System File Path"
	controlFileValue = "Remote Control File"
	statusFileValue  = "Remote Status File"
)

// RegistryResolver reads the host install directory from HKLM.
type RegistryResolver struct {
	Version string
}

func (r RegistryResolver) Resolve() (Paths, error) {
	keyName := fmt.Sprintf(installKeyFormat, versionOrDefault(r.Version))
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, keyName, registry.QUERY_VALUE)
	if err != nil {
		return Paths{}, fmt.Errorf("%w: %s: %w", ErrHostNotInstalled, keyName, err)
	}
	defer k.Close()

	dir, _, err := k.GetStringValue(systemPathValue)
	if err != nil || dir == "" {
		return Paths{}, fmt.Errorf("%w: %s missing %q", ErrHostNotInstalled, keyName, systemPathValue)
	}
	dir = WithTrailingSeparator(dir)
	return Paths{SystemDir: dir, ResponseFile: dir + StatusFileName}, nil
}

// RegistryRegistrar writes the remote file locations under the host's HKCU parameters.
type RegistryRegistrar struct {
	Version string
}

func (r RegistryRegistrar) Register(controlFile, statusFile string) (bool, error) {
	keyName := fmt.Sprintf(paramsKeyFormat, versionOrDefault(r.Version))
	if k, err := registry.OpenKey(registry.CURRENT_USER, keyName, registry.QUERY_VALUE); err == nil {
		curControl, _, cerr := k.GetStringValue(controlFileValue)
		curStatus, _, serr := k.GetStringValue(statusFileValue)
		k.Close()
		if cerr == nil && serr == nil && curControl == controlFile && curStatus == statusFile {
			logs.Debugf("hostpaths.RegistryRegistrar.Register unchanged control=%q", controlFile)
			return false, nil
		}
	}

	k, _, err := registry.CreateKey(registry.CURRENT_USER, keyName, registry.SET_VALUE)
	if err != nil {
		return false, fmt.Errorf("hostpaths: open %s: %w", keyName, err)
	}
	defer k.Close()
	if err := k.SetStringValue(controlFileValue, controlFile); err != nil {
		return false, fmt.Errorf("hostpaths: set %q: %w", controlFileValue, err)
	}
	if err := k.SetStringValue(statusFileValue, statusFile); err != nil {
		return false, fmt.Errorf("hostpaths: set %q: %w", statusFileValue, err)
	}
	logs.Infof("hostpaths.RegistryRegistrar.Register updated control=%q status=%q", controlFile, statusFile)
	return true, nil
}

// PlatformResolvers tries the registry first, then the last host record.
func PlatformResolvers(version, recordPath string) []Resolver {
	return []Resolver{RegistryResolver{Version: version}, RecordResolver{Path: recordPath}}
}

func PlatformRegistrar(version, recordPath string) Registrar {
	return RegistryRegistrar{Version: version}
}

func versionOrDefault(v string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return DefaultVersion
}
