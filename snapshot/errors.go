package snapshot

import (
	"errors"

	"github.com/robert-malhotra/go-gadgethdf/internal/container"
	"github.com/robert-malhotra/go-gadgethdf/internal/shard"
	"github.com/robert-malhotra/go-gadgethdf/units"
)

// Common errors
var (
	ErrFormat        = shard.ErrFormat
	ErrIndex         = shard.ErrIndex
	ErrNotLoadable   = errors.New("array not loadable")
	ErrShape         = container.ErrShape
	ErrUnitInference = units.ErrInference
	ErrReadOnlyArray = errors.New("array cannot be written back")
	ErrNotLoaded     = errors.New("array not loaded")
	ErrUnsupported   = container.ErrUnsupported
	ErrNoVariant     = errors.New("no snapshot variant matches")
)
