package jobs

// Events receives the lifecycle notifications of one submitted job.
// The runner invokes the methods from its worker goroutine, one call
// at a time: Started once, Progress zero or more times with values
// from 0 to 100, Error once per failure, and Finished exactly once
// with the paths that were produced.
type Events interface {
	Started()
	Progress(percent int)
	Finished(paths []string)
	Error(message string)
}

// EventFuncs adapts free functions to the Events interface. Nil
// fields are skipped, so a caller can subscribe to a single event.
type EventFuncs struct {
	OnStarted  func()
	OnProgress func(percent int)
	OnFinished func(paths []string)
	OnError    func(message string)
}

var _ Events = EventFuncs{}

// Started implements Events.
func (e EventFuncs) Started() {
	if e.OnStarted != nil {
		e.OnStarted()
	}
}

// Progress implements Events.
func (e EventFuncs) Progress(percent int) {
	if e.OnProgress != nil {
		e.OnProgress(percent)
	}
}

// Finished implements Events.
func (e EventFuncs) Finished(paths []string) {
	if e.OnFinished != nil {
		e.OnFinished(paths)
	}
}

// Error implements Events.
func (e EventFuncs) Error(message string) {
	if e.OnError != nil {
		e.OnError(message)
	}
}

// NopEvents discards every notification.
type NopEvents struct{}

var _ Events = NopEvents{}

func (NopEvents) Started()                {}
func (NopEvents) Progress(percent int)    {}
func (NopEvents) Finished(paths []string) {}
func (NopEvents) Error(message string)    {}
