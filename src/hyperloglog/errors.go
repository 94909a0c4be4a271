package hyperloglog

import "errors"

var (
	errSizeMismatch         = errors.New("hyperloglog: merge requires equal register counts")
	errRegisterSizeMismatch = errors.New("hyperloglog: register payload size mismatch")
)
