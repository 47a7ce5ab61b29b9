// Package protocol groups the host exchange: the file channels and the watch state machine above them.
//
// Ownership boundary:
// - channel: control writes, response mtime and text reads
// - watch: polling, timeout resends, single resolution per command
package protocol
