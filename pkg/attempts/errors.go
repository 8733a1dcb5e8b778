package attempts

import "errors"

var ErrUnavailable = errors.New("attempt counter unavailable")
