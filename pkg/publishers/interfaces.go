package publishers

import "context"

// Publisher sends events to a downstream sink (log, HTTP, SQS, SNS, Pub/Sub).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}
