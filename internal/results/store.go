// Package results persists training runs and their per-episode scores.
package results

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the requested run does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a run or episode that was already recorded.
	ErrConflict = errors.New("conflict")
)

// Run describes one invocation of the training or evaluation loop.
type Run struct {
	ID          string    `json:"id"`
	Mode        string    `json:"mode"`
	Environment string    `json:"environment"`
	Episodes    int       `json:"episodes"`
	StartedAt   time.Time `json:"started_at"`
}

// Episode is the outcome of one episode within a run.
type Episode struct {
	RunID      string    `json:"run_id"`
	Episode    int       `json:"episode"`
	Score      float64   `json:"score"`
	Steps      int       `json:"steps"`
	Epsilon    float64   `json:"epsilon"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Store captures the persistence operations the training loop relies on.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	AppendEpisode(ctx context.Context, episode Episode) error
	// Episodes returns the episodes of a run ordered by episode number.
	Episodes(ctx context.Context, runID string) ([]Episode, error)
	Close() error
}
