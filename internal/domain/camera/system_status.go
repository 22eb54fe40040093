package camera

// SystemStatus is the reachability of the backend's live-status endpoint.
// It is not a health aggregate of individual cameras.
type SystemStatus string

const (
	SystemOperational SystemStatus = "operational"
	SystemOffline     SystemStatus = "offline"
)

func (s SystemStatus) String() string { return string(s) }
