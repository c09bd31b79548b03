// Package firestore maps between Firestore document data and the typed
// records in pkg/types. Firestore hands documents back as
// map[string]interface{}; these converters apply defaults field by field so
// a partially written document never surfaces as an error.
package firestore

import (
	"time"

	"github.com/emifit/fitplan/pkg/types"
)

// Helper to safely get string from map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Helper to safely get bool from map
func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Helper to safely get an int from map (Firestore stores int64)
func getInt(m map[string]interface{}, key string) int {
	switch t := m[key].(type) {
	case int64:
		return int(t)
	case int:
		return t
	case float64:
		return int(t)
	}
	return 0
}

// Helper to safely get a float from map
func getFloat(m map[string]interface{}, key string) float64 {
	switch t := m[key].(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	case int:
		return float64(t)
	}
	return 0
}

// Helper to safely get time from map (handles time.Time from Firestore)
func getTime(m map[string]interface{}, key string) time.Time {
	if v, ok := m[key]; ok {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return map[string]interface{}{}
}

// --- Upload Converters ---

func UploadToFirestore(u *types.Upload) map[string]interface{} {
	m := map[string]interface{}{
		"image_path": u.ImagePath,
		"sex":        u.Sex,
		"goals": map[string]interface{}{
			"run_s": u.Goals.RunS,
			"push":  u.Goals.Push,
			"sit":   u.Goals.Sit,
		},
		"constraints": map[string]interface{}{
			"vegan":        u.Constraints.Vegan,
			"lactose_free": u.Constraints.LactoseFree,
			"gluten_free":  u.Constraints.GlutenFree,
			"inj_knee":     u.Constraints.InjKnee,
			"inj_shoulder": u.Constraints.InjShoulder,
			"inj_back":     u.Constraints.InjBack,
		},
		"status": string(u.Status),
	}

	if u.PredID != "" {
		m["predId"] = u.PredID
	}
	if u.PlanID != "" {
		m["planId"] = u.PlanID
	}
	if !u.CreatedAt.IsZero() {
		m["createdAt"] = u.CreatedAt
	}

	return m
}

func FirestoreToUpload(id string, m map[string]interface{}) *types.Upload {
	goals := getMap(m, "goals")
	constraints := getMap(m, "constraints")

	u := &types.Upload{
		ID:        id,
		ImagePath: getString(m, "image_path"),
		Sex:       getInt(m, "sex"),
		Goals: types.Goals{
			RunS: getInt(goals, "run_s"),
			Push: getInt(goals, "push"),
			Sit:  getInt(goals, "sit"),
		},
		Constraints: types.Constraints{
			Vegan:       getBool(constraints, "vegan"),
			LactoseFree: getBool(constraints, "lactose_free"),
			GlutenFree:  getBool(constraints, "gluten_free"),
			InjKnee:     getBool(constraints, "inj_knee"),
			InjShoulder: getBool(constraints, "inj_shoulder"),
			InjBack:     getBool(constraints, "inj_back"),
		},
		Status:    types.UploadStatus(getString(m, "status")),
		PredID:    getString(m, "predId"),
		PlanID:    getString(m, "planId"),
		CreatedAt: getTime(m, "createdAt"),
	}

	if u.Status == "" {
		u.Status = types.StatusPending
	}

	return u
}

// --- Prediction Converters ---

func FirestoreToPrediction(id string, m map[string]interface{}) *types.Prediction {
	return &types.Prediction{
		ID:        id,
		UserID:    getString(m, "user_id"),
		UploadID:  getString(m, "upload_id"),
		HeightM:   getFloat(m, "height_m"),
		WeightKg:  getFloat(m, "weight_kg"),
		ClassIdx:  getInt(m, "class_idx"),
		ClassName: getString(m, "class_name"),
		CreatedAt: getTime(m, "createdAt"),
	}
}

// --- UserProfile Converters ---

func ProfileToFirestore(p *types.UserProfile) map[string]interface{} {
	m := map[string]interface{}{
		"uid": p.UID,
	}
	if p.Email != "" {
		m["email"] = p.Email
	}
	if p.DisplayName != "" {
		m["displayName"] = p.DisplayName
	}
	if p.AgeYears != 0 {
		m["age"] = p.AgeYears
	}
	if p.RankCategory != "" {
		m["rankCategory"] = p.RankCategory
	}
	if p.Rank != "" {
		m["rank"] = p.Rank
	}
	return m
}

func FirestoreToProfile(uid string, m map[string]interface{}) *types.UserProfile {
	return &types.UserProfile{
		UID:          uid,
		Email:        getString(m, "email"),
		DisplayName:  getString(m, "displayName"),
		AgeYears:     getInt(m, "age"),
		RankCategory: getString(m, "rankCategory"),
		Rank:         getString(m, "rank"),
		CreatedAt:    getTime(m, "createdAt"),
		UpdatedAt:    getTime(m, "updatedAt"),
	}
}
