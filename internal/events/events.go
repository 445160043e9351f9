package events

import "context"

// Publisher is implemented by downstream fan-out mechanisms.
type Publisher interface {
	PublishEpisode(ctx context.Context, payload EpisodeEvent) error
}

// EpisodeEvent is emitted whenever a training or evaluation episode finishes.
type EpisodeEvent struct {
	RunID       string  `json:"run_id"`
	Mode        string  `json:"mode"`
	Episode     int     `json:"episode"`
	Score       float64 `json:"score"`
	RollingMean float64 `json:"rolling_mean"`
	Epsilon     float64 `json:"epsilon"`
	Steps       int     `json:"steps"`
}

// NoopPublisher discards every event; useful for tests.
type NoopPublisher struct{}

// PublishEpisode satisfies Publisher.
func (NoopPublisher) PublishEpisode(context.Context, EpisodeEvent) error { return nil }
