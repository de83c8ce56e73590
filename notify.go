package listcache

import "context"

const (
	VariantDestructive = "destructive"

	failureTitle       = "Loading failed"
	failureDescription = "Could not load the data. Please try again."
)

// Notification is the user-facing signal for an exhausted fetch (a toast in a
// UI, a log line or a push in a service).
type Notification struct {
	Resource    string
	Title       string
	Description string
	Variant     string
	Err         error
}

// Notifier delivers failure notifications. Called once per failed read that
// is still current. Must not block.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notification) {}
