package pubsub

import (
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

const (
	EventSource = "fitplan-client"

	EventTypeSubmissionCompleted = "com.emifit.fitplan.submission.completed"
)

// SubmissionCompleted is emitted after the backend accepted a submission
// and handed back the id triple. Consumed by analytics; never load-bearing.
type SubmissionCompleted struct {
	UserID    string `json:"user_id"`
	UploadID  string `json:"upload_id"`
	PredID    string `json:"pred_id"`
	PlanID    string `json:"plan_id"`
	InputMode string `json:"input_mode"` // "image" or "manual"
}

// NewCloudEvent creates a standardized CloudEvent v1.0
func NewCloudEvent(source, eventType string, data interface{}) (cloudevents.Event, error) {
	e := cloudevents.NewEvent()
	e.SetSpecVersion("1.0")
	e.SetID(uuid.NewString())
	e.SetTime(time.Now().UTC())
	e.SetType(eventType)
	e.SetSource(source)

	if err := e.SetData(cloudevents.ApplicationJSON, data); err != nil {
		return e, err
	}
	return e, nil
}
