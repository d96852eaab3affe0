package ratchet

import "errors"

// ErrReplayOrStale is returned when a received envelope's counter is not
// advanceable: it is at or before the last successfully processed counter
// and no buffered skipped key matches it. The envelope must be discarded
// without mutating state.
var ErrReplayOrStale = errors.New("ratchet: replay or stale counter")

