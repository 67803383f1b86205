package journal

import "time"

type Kind string

const (
	KindStarted      Kind = "started"
	KindUploaded     Kind = "uploaded"
	KindUploadFailed Kind = "upload_failed"
	KindStopped      Kind = "stopped"
	KindStopFailed   Kind = "stop_failed"
	KindReleased     Kind = "released"
)

type Event struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	AppointmentID string    `json:"appointment_id"`
	Kind          Kind      `json:"kind"`
	Lat           *float64  `json:"lat,omitempty"`
	Lng           *float64  `json:"lng,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	RecordedAt    time.Time `json:"recorded_at"`
}
