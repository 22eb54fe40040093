package camera

// CameraStatus is the per-camera record reported by the backend's live-status endpoint.
// Consumed verbatim; optional fields stay nil when the backend omits them.
type CameraStatus struct {
	CameraID   string   `json:"camera_id"`
	Location   string   `json:"location"`
	Status     string   `json:"status"`                // online|offline|maintenance|... (unconstrained)
	Video      *string  `json:"video,omitempty"`       // nullable, vendor-relative path fragment
	Event      *string  `json:"event,omitempty"`       // nullable (nil => no active alert)
	Confidence *float64 `json:"confidence,omitempty"`  // nullable
	LastUpdate *float64 `json:"last_update,omitempty"` // nullable, seconds since epoch
}

// Equal reports whether both records carry the same value in every field.
func (c CameraStatus) Equal(o CameraStatus) bool {
	return c.CameraID == o.CameraID &&
		c.Location == o.Location &&
		c.Status == o.Status &&
		eqPtr(c.Video, o.Video) &&
		eqPtr(c.Event, o.Event) &&
		eqPtr(c.Confidence, o.Confidence) &&
		eqPtr(c.LastUpdate, o.LastUpdate)
}

// Clone returns a copy that shares no pointers with c.
func (c CameraStatus) Clone() CameraStatus {
	out := c
	out.Video = clonePtr(c.Video)
	out.Event = clonePtr(c.Event)
	out.Confidence = clonePtr(c.Confidence)
	out.LastUpdate = clonePtr(c.LastUpdate)
	return out
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
