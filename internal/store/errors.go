package store

import "errors"

// ErrNotFound names spec §7's NotFound taxonomy entry at the store level.
// CommitBatch reports an id with no current record as conflicted and
// Remove ignores such ids, so neither returns this error.
var ErrNotFound = errors.New("store: body not found")
