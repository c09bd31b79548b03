package firestore

import (
	"testing"
	"time"

	"github.com/emifit/fitplan/pkg/types"
)

func TestFirestoreToUploadDefaults(t *testing.T) {
	u := FirestoreToUpload("u-123", map[string]interface{}{})

	if u.ID != "u-123" {
		t.Errorf("id = %q", u.ID)
	}
	if u.Status != types.StatusPending {
		t.Errorf("missing status should default to pending, got %q", u.Status)
	}
	if u.PredID != "" || u.PlanID != "" {
		t.Errorf("missing ids should be empty, got %q/%q", u.PredID, u.PlanID)
	}
	if u.Ready() {
		t.Error("empty upload must not be ready")
	}
}

func TestUploadRoundTrip(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	in := &types.Upload{
		ID:        "a1",
		ImagePath: types.ImagePathManual,
		Sex:       1,
		Goals:     types.Goals{RunS: 780, Push: 40, Sit: 45},
		Constraints: types.Constraints{
			Vegan:   true,
			InjKnee: true,
		},
		Status:    types.StatusPlanned,
		PredID:    "p1",
		PlanID:    "pl1",
		CreatedAt: created,
	}

	out := FirestoreToUpload("a1", UploadToFirestore(in))

	if *out != *in {
		t.Errorf("round trip mismatch:\n%+v\nvs\n%+v", out, in)
	}
	if !out.Ready() {
		t.Error("planned upload with both ids should be ready")
	}
}

func TestFirestoreToUploadMistypedFields(t *testing.T) {
	u := FirestoreToUpload("x", map[string]interface{}{
		"sex":         "one",
		"goals":       "not a map",
		"constraints": 7,
		"status":      42,
		"createdAt":   "yesterday",
	})

	if u.Sex != 0 || u.Goals.RunS != 0 || u.Constraints.Vegan {
		t.Errorf("mistyped fields should default: %+v", u)
	}
	if u.Status != types.StatusPending {
		t.Errorf("mistyped status should default to pending, got %q", u.Status)
	}
	if !u.CreatedAt.IsZero() {
		t.Errorf("mistyped createdAt should be zero, got %v", u.CreatedAt)
	}
}

func TestFirestoreToPrediction(t *testing.T) {
	p := FirestoreToPrediction("p1", map[string]interface{}{
		"user_id":    "u1",
		"upload_id":  "a1",
		"height_m":   1.75,
		"weight_kg":  int64(72),
		"class_idx":  int64(2),
		"class_name": "normal",
	})

	if p.HeightM != 1.75 || p.WeightKg != 72 {
		t.Errorf("measurements = %v/%v", p.HeightM, p.WeightKg)
	}
	if p.ClassIdx != 2 || p.ClassName != "normal" {
		t.Errorf("class = %d/%q", p.ClassIdx, p.ClassName)
	}
}
