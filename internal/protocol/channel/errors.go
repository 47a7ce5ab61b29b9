package channel

import "errors"

var (
	ErrPathRequired = errors.New("channel: path required")
	ErrChannelWrite = errors.New("channel: control file write failed")
	ErrChannelRead  = errors.New("channel: response file read failed")
)
