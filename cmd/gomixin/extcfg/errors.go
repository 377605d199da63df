package extcfg

import "errors"

var (
	ErrInvalidExtension = errors.New("invalid extension definition")
	ErrDuplicateName    = errors.New("duplicate extension name")
	ErrInvalidSettings  = errors.New("invalid settings")
)
