package camera

// Snapshot maps camera_id to the latest CameraStatus accepted from the backend.
// Keyed lookup is the only access pattern; iteration order carries no meaning.
type Snapshot map[string]CameraStatus

// NewSnapshot keys the given records by camera_id. Later duplicates win.
func NewSnapshot(cams []CameraStatus) Snapshot {
	snap := make(Snapshot, len(cams))
	for _, c := range cams {
		snap[c.CameraID] = c
	}
	return snap
}

// Equal reports structural equality: same size and every entry equal by value.
func (s Snapshot) Equal(o Snapshot) bool {
	if len(s) != len(o) {
		return false
	}
	for id, cur := range s {
		prev, ok := o[id]
		if !ok || !cur.Equal(prev) {
			return false
		}
	}
	return true
}

// Get returns the status for id, if present.
func (s Snapshot) Get(id string) (CameraStatus, bool) {
	c, ok := s[id]
	return c, ok
}

// Clone deep-copies the snapshot so callers can never reach the owner's records.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, c := range s {
		out[id] = c.Clone()
	}
	return out
}
