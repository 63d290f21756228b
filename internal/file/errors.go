package file

import "errors"

var (
	// ErrFileNotFound signals that no file with the id exists for the owner.
	// Files owned by someone else are reported the same way.
	ErrFileNotFound = errors.New("file not found")
	// ErrContentMissing signals that the metadata exists but its bytes are gone.
	ErrContentMissing = errors.New("file data missing")
)
