package livestatus

import "time"

// Endpoint names reported to a Recorder.
const (
	EndpointLiveStatus  = "live_status"
	EndpointOfflineMode = "offline_mode"
	EndpointToggle      = "offline_mode_toggle"
)

// Recorder receives poller telemetry. Implementations must be safe for concurrent use.
type Recorder interface {
	FetchCompleted(endpoint string, took time.Duration, err error)
	TickSkipped()
	SnapshotReplaced(size int)
	ResultDiscarded(endpoint string)
}

type nopRecorder struct{}

func (nopRecorder) FetchCompleted(string, time.Duration, error) {}
func (nopRecorder) TickSkipped()                                {}
func (nopRecorder) SnapshotReplaced(int)                        {}
func (nopRecorder) ResultDiscarded(string)                      {}
