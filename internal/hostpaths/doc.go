// Package hostpaths locates the host's control and status files and registers them with the host.
//
// Ownership boundary:
// - path discovery (config, registry, host record)
//
// - host registration with only-if-changed writes
package hostpaths
