package state

import (
	"github.com/google/uuid"
)

// NewID returns a fresh element identifier. Tests may replace it.
var NewID = uuid.NewString
