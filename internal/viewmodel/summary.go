package viewmodel

import "github.com/FadyMorkos3/VIGIL-sub001/internal/domain/camera"

// Summary aggregates a projected grid.
type Summary struct {
	Total   int `json:"total"`
	Online  int `json:"online"`
	Offline int `json:"offline"` // anything not "online", placeholders included
	Alerts  int `json:"alerts"`
}

func Summarize(entries []camera.ViewEntry) Summary {
	s := Summary{Total: len(entries)}
	for _, e := range entries {
		if e.Online() {
			s.Online++
		}
		if e.HasAlert {
			s.Alerts++
		}
	}
	s.Offline = s.Total - s.Online
	return s
}
