package arena

import "errors"

var (
	// ErrCorrupt indicates that an arena invariant does not hold.
	ErrCorrupt = errors.New("arena: corrupt block layout")

	// ErrBadSnapshot indicates a malformed or truncated snapshot.
	ErrBadSnapshot = errors.New("arena: bad snapshot")

	// ErrUnknownCodec indicates an unsupported snapshot codec.
	ErrUnknownCodec = errors.New("arena: unknown snapshot codec")
)
