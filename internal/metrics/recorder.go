package metrics

import "time"

// Recorder is the set of metrics the tracker emits.
type Recorder interface {
	ObserveRequest(route, method string, status int, d time.Duration)
	IncStateWrite()
	IncPersistFailure()
	SetCaught(records, normal, shiny int)
	IncBackup(result string)
	IncReload(result string)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) ObserveRequest(string, string, int, time.Duration) {}
func (NoopRecorder) IncStateWrite()                                    {}
func (NoopRecorder) IncPersistFailure()                                {}
func (NoopRecorder) SetCaught(int, int, int)                           {}
func (NoopRecorder) IncBackup(string)                                  {}
func (NoopRecorder) IncReload(string)                                  {}

var _ Recorder = NoopRecorder{}
