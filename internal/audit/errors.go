package audit

import "errors"

// ErrForbidden is returned when a caller asks for someone else's audits.
var ErrForbidden = errors.New("audits of another user are not accessible")
