package camera

// Alert categories that light up a camera tile.
const (
	EventViolence = "violence"
	EventCrash    = "crash"
)

// Defaults applied to roster cameras the backend did not report.
const (
	DefaultLocation = "Unknown"
	DefaultStatus   = "offline"
)

// ViewEntry is one tile of the camera grid, derived from roster ID + snapshot.
// Never persisted.
type ViewEntry struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Location   string   `json:"location"`
	Status     string   `json:"status"`
	HasAlert   bool     `json:"has_alert"`
	AlertType  *string  `json:"alert_type,omitempty"`
	VideoURL   string   `json:"video_url"`
	Confidence *float64 `json:"confidence,omitempty"`
	LastUpdate *float64 `json:"last_update,omitempty"`
}

// IsAlertEvent reports whether event names an incident category that raises an alert.
func IsAlertEvent(event *string) bool {
	if event == nil {
		return false
	}
	return *event == EventViolence || *event == EventCrash
}

// Online reports whether the camera is streaming.
func (e ViewEntry) Online() bool { return e.Status == "online" }
