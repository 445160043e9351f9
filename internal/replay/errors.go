package replay

import (
	"errors"

	"github.com/karishmathakrar/GreenGridPR/internal/ring"
)

var (
	// ErrInsufficientData indicates a sample larger than the current contents.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidPriorityState indicates no stored priority is positive, so
	// proportional sampling is undefined.
	ErrInvalidPriorityState = errors.New("invalid priority state")
	// ErrIndexOutOfRange indicates a priority update for a position that is not
	// currently stored, usually a stale index from before an eviction.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrArityMismatch indicates indices and priorities of different lengths.
	ErrArityMismatch = errors.New("arity mismatch")
	// ErrInvalidBatchSize indicates a non-positive batch size.
	ErrInvalidBatchSize = errors.New("batch size must be positive")
	// ErrInvalidCapacity indicates a non-positive buffer capacity.
	ErrInvalidCapacity = ring.ErrInvalidCapacity
)
