package metrics

import "time"

// Recorder collects pipeline counters.
type Recorder interface {
	MessageIngested(duplicate bool)
	ReminderClassified(outcome string)
	ReminderFired()
	DispatchFailed(kind string)
	PassCompleted(d time.Duration)
}

type NopRecorder struct{}

func (NopRecorder) MessageIngested(duplicate bool)    {}
func (NopRecorder) ReminderClassified(outcome string) {}
func (NopRecorder) ReminderFired()                    {}
func (NopRecorder) DispatchFailed(kind string)        {}
func (NopRecorder) PassCompleted(d time.Duration)     {}
