package filesystem

// Observer records filesystem retry metrics. The metrics package provides
// the implementation so that filesystem does not import it.
type Observer interface {
	// ObserveRetryAttempt is called before each backoff sleep.
	ObserveRetryAttempt(op, volume string)
	ObserveRetrySuccess(op, volume string)
	ObserveRetryFailure(op, volume string)
	// ObserveRetryDuration records the total time of an operation,
	// retries included.
	ObserveRetryDuration(op, volume string, durationSeconds float64)
	ObserveStaleError(op, volume string)
}

// defaultObserver is nil until SetObserver is called; recording is then
// skipped, which keeps tests free of global metric state.
var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
func SetObserver(o Observer) {
	defaultObserver = o
}

// nopObserver discards everything.
type nopObserver struct{}

func (nopObserver) ObserveRetryAttempt(string, string)           {}
func (nopObserver) ObserveRetrySuccess(string, string)           {}
func (nopObserver) ObserveRetryFailure(string, string)           {}
func (nopObserver) ObserveRetryDuration(string, string, float64) {}
func (nopObserver) ObserveStaleError(string, string)             {}

func observer() Observer {
	if defaultObserver == nil {
		return nopObserver{}
	}
	return defaultObserver
}
