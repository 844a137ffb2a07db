package projects

// Notifier carries the paired success/failure notifications every mutation
// path emits. The transport layer turns these into user-facing toasts; the
// default implementation drops them.
type Notifier interface {
	Success(userID, message string)
	Error(userID, message string)
}

type NoopNotifier struct{}

func (NoopNotifier) Success(string, string) {}
func (NoopNotifier) Error(string, string)   {}

// ChangePublisher receives a non-blocking signal after a successful mutation
// so aggregate statistics can catch up in the background. A publisher failure
// never affects the mutation that triggered it.
type ChangePublisher interface {
	ProjectChanged(userID string, year int)
}

type NoopPublisher struct{}

func (NoopPublisher) ProjectChanged(string, int) {}
