package driver

import "time"

// Stage describes the step a chapter is in.
type Stage string

const (
	StageLoad  Stage = "load"
	StageCheck Stage = "check"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	// StatusError marks a chapter that failed to load or has error findings.
	StatusError Status = "error"
)

// Event reports progress for a chapter (or for the whole run when File is empty).
type Event struct {
	File     string
	Stage    Stage
	Status   Status
	Findings int
	Cached   bool
	Elapsed  time.Duration
}

// ProgressSink consumes progress events. OnEvent may be called from several
// goroutines at once.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) { f(evt) }
