// Package types holds the domain records mirrored into Firestore.
package types

import "time"

// UploadStatus is the lifecycle state of a submission.
type UploadStatus string

const (
	StatusPending   UploadStatus = "pending"
	StatusPredicted UploadStatus = "predicted"
	StatusPlanned   UploadStatus = "planned"
	StatusCompleted UploadStatus = "completed"
	StatusError     UploadStatus = "error"
)

// ImagePathManual marks an upload that was entered by hand instead of a photo.
const ImagePathManual = "manual"

// Goals are the performance targets attached to a submission.
type Goals struct {
	RunS int `json:"run_s"` // target 3200m time in seconds
	Push int `json:"push"`  // push-ups in 2 minutes
	Sit  int `json:"sit"`   // sit-ups in 2 minutes
}

// Constraints are the dietary and injury flags attached to a submission.
type Constraints struct {
	Vegan       bool `json:"vegan"`
	LactoseFree bool `json:"lactose_free"`
	GlutenFree  bool `json:"gluten_free"`
	InjKnee     bool `json:"inj_knee"`
	InjShoulder bool `json:"inj_shoulder"`
	InjBack     bool `json:"inj_back"`
}

// Upload is one user submission, stored at users/{uid}/uploads/{id}.
// PredID and PlanID are empty until the backend has produced them.
type Upload struct {
	ID          string       `json:"id"`
	ImagePath   string       `json:"image_path"` // storage ref, or ImagePathManual
	Sex         int          `json:"sex"`        // 0=female, 1=male
	Goals       Goals        `json:"goals"`
	Constraints Constraints  `json:"constraints"`
	Status      UploadStatus `json:"status"`
	PredID      string       `json:"predId,omitempty"`
	PlanID      string       `json:"planId,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Ready reports whether this upload is showable on the dashboard: plan
// generation finished and both identifiers were written. The backend can flip
// status before the ids land, so both are checked.
func (u *Upload) Ready() bool {
	if u == nil {
		return false
	}
	if u.Status != StatusPlanned && u.Status != StatusCompleted {
		return false
	}
	return u.PredID != "" && u.PlanID != ""
}

// Failed reports whether the backend marked this upload as unprocessable.
func (u *Upload) Failed() bool {
	return u != nil && u.Status == StatusError
}

// Prediction is the backend-computed body measurement, stored at
// predictions/{id}. Owned by the backend; the client only reads it.
type Prediction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UploadID  string    `json:"upload_id"`
	HeightM   float64   `json:"height_m"`
	WeightKg  float64   `json:"weight_kg"`
	ClassIdx  int       `json:"class_idx"` // 0-4 body-composition class
	ClassName string    `json:"class_name"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserProfile is the users/{uid} document. AgeYears and Rank feed the
// auto-goal lookup.
type UserProfile struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email,omitempty"`
	DisplayName  string    `json:"displayName,omitempty"`
	AgeYears     int       `json:"age,omitempty"`
	RankCategory string    `json:"rankCategory,omitempty"`
	Rank         string    `json:"rank,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty"`
}
