package backend

import (
	"bytes"
	"encoding/json"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/domain/camera"
)

// liveStatusEnvelope is the wrapped shape: {"cameras": [...]}.
// Cameras is a pointer so a missing or null field is told apart from an empty list.
type liveStatusEnvelope struct {
	Cameras *[]camera.CameraStatus `json:"cameras"`
}

// decodeLiveStatus accepts either a bare array of camera records or an object
// carrying them under "cameras". Anything else is ErrMalformedResponse.
func decodeLiveStatus(body []byte) ([]camera.CameraStatus, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, malformed("empty body")
	}

	switch trimmed[0] {
	case '[':
		var cams []camera.CameraStatus
		if err := json.Unmarshal(trimmed, &cams); err != nil {
			return nil, malformed("camera array: %v", err)
		}
		return cams, nil

	case '{':
		var env liveStatusEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, malformed("camera envelope: %v", err)
		}
		if env.Cameras == nil {
			return nil, malformed("camera envelope: missing \"cameras\" array")
		}
		return *env.Cameras, nil

	default:
		return nil, malformed("unexpected JSON value starting with %q", trimmed[0])
	}
}

type offlineModeBody struct {
	OfflineMode *bool `json:"offline_mode"`
}

func decodeOfflineMode(body []byte) (bool, error) {
	var m offlineModeBody
	if err := json.Unmarshal(body, &m); err != nil {
		return false, malformed("offline mode: %v", err)
	}
	if m.OfflineMode == nil {
		return false, malformed("offline mode: missing \"offline_mode\" field")
	}
	return *m.OfflineMode, nil
}
