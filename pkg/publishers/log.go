package publishers

import "context"

// logPublisher writes events to the structured log. It is the sink used when
// no publishers file is configured.
type logPublisher struct {
	id  string
	log Logger
}

func newLogPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	return NewLogPublisher(cfg.ID, log), nil
}

// NewLogPublisher returns the default log sink.
func NewLogPublisher(id string, log Logger) Publisher {
	return &logPublisher{id: id, log: ensureLogger(log)}
}

func (l *logPublisher) ID() string   { return l.id }
func (l *logPublisher) Type() string { return TypeLog }

func (l *logPublisher) Publish(_ context.Context, evt Event) error {
	l.log.InfoObj("record published", "record_event", evt)
	return nil
}
