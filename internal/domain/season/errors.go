package season

import "errors"

// ErrLocked signals that the season's exclusive lock is held by a
// concurrent rating mutation, typically an in-flight recalculation.
var ErrLocked = errors.New("season is locked by a concurrent operation")
