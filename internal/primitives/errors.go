package primitives

import "errors"

// ErrAuthFailure is returned by Open and Verify when a tag or signature does
// not match. Callers must treat the input as hostile or corrupted and must
// not surface it as a distinct error from other failures upstream.
var ErrAuthFailure = errors.New("primitives: authentication failure")

// ErrCryptoFailure is returned on internal library errors (bad key/nonce
// length, malformed encoding) that are never expected with well-formed
// callers. It is fatal for the operation in progress.
var ErrCryptoFailure = errors.New("primitives: crypto operation failed")
