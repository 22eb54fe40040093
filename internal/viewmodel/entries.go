package viewmodel

import "github.com/FadyMorkos3/VIGIL-sub001/internal/domain/camera"

// Builder projects a roster over a snapshot. The zero value emits relative
// video URLs.
type Builder struct {
	// VideoBase is prepended to every /videos/ URL; "" keeps them relative.
	VideoBase string
}

// BuildViewEntries returns one entry per roster ID, in roster order. Roster IDs
// absent from the snapshot become offline placeholders; snapshot entries that
// are not on the roster are ignored.
func (b Builder) BuildViewEntries(roster []string, snap camera.Snapshot) []camera.ViewEntry {
	out := make([]camera.ViewEntry, 0, len(roster))
	for _, id := range roster {
		out = append(out, b.Entry(id, snap))
	}
	return out
}

// Entry projects a single roster ID.
func (b Builder) Entry(id string, snap camera.Snapshot) camera.ViewEntry {
	cs, ok := snap.Get(id)
	if !ok {
		return camera.ViewEntry{
			ID:       id,
			Name:     id,
			Location: camera.DefaultLocation,
			Status:   camera.DefaultStatus,
		}
	}
	cs = cs.Clone()

	e := camera.ViewEntry{
		ID:         id,
		Name:       cs.Location,
		Location:   cs.Location,
		Status:     cs.Status,
		HasAlert:   camera.IsAlertEvent(cs.Event),
		AlertType:  cs.Event,
		VideoURL:   videoURL(b.VideoBase, cs.Video),
		Confidence: cs.Confidence,
		LastUpdate: cs.LastUpdate,
	}
	if e.Name == "" {
		e.Name = id
	}
	if e.Location == "" {
		e.Location = camera.DefaultLocation
	}
	if e.Status == "" {
		e.Status = camera.DefaultStatus
	}
	return e
}

// BuildViewEntries projects with relative video URLs.
func BuildViewEntries(roster []string, snap camera.Snapshot) []camera.ViewEntry {
	return Builder{}.BuildViewEntries(roster, snap)
}
