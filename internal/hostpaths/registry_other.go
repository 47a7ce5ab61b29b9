//go:build !windows

package hostpaths

// PlatformResolvers has no registry to consult, so only the last host record is tried.
func PlatformResolvers(version, recordPath string) []Resolver {
	return []Resolver{RecordResolver{Path: recordPath}}
}

func PlatformRegistrar(version, recordPath string) Registrar {
	return &FileRegistrar{Path: recordPath}
}
