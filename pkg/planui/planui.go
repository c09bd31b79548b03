// Package planui converts the backend's stored plan documents into the one
// canonical shape the rest of the app renders.
//
// The backend's plan schema has drifted across versions: the payload is
// sometimes stored at the document root and sometimes nested under a "plan"
// key, and example meals have been observed as a flat list, a map keyed by
// meal category, and a map of categories each holding an "items" list.
// Normalize accepts all of them and never fails; absent or mistyped fields
// degrade to defaults instead.
package planui

import (
	"sort"
	"strconv"
	"strings"
)

// MealsTotals is the precomputed per-day sum over the example meals.
type MealsTotals struct {
	Kcal     float64 `json:"kcal"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
	CarbsG   float64 `json:"carbs_g"`
}

// Extra is a high-protein food suggestion outside the main meals.
type Extra struct {
	Title    string   `json:"title"`
	Kcal     float64  `json:"kcal"`
	ProteinG float64  `json:"protein_g"`
	FatG     float64  `json:"fat_g,omitempty"`
	CarbsG   float64  `json:"carbs_g,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Meal is one example meal in the flattened list.
type Meal struct {
	Title    string   `json:"title,omitempty"`
	Category string   `json:"category,omitempty"`
	Kcal     float64  `json:"kcal,omitempty"`
	ProteinG float64  `json:"protein_g,omitempty"`
	FatG     float64  `json:"fat_g,omitempty"`
	CarbsG   float64  `json:"carbs_g,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Session is one exercise session within a training day. Field names vary
// across backend versions, so all observed spellings are carried.
type Session struct {
	Type        string   `json:"type,omitempty"`
	Name        string   `json:"name,omitempty"`
	Minutes     int      `json:"minutes,omitempty"`
	DurationMin int      `json:"duration_min,omitempty"`
	DistanceKm  float64  `json:"distance_km,omitempty"`
	Sets        int      `json:"sets,omitempty"`
	Reps        int      `json:"reps,omitempty"`
	PushupsSets int      `json:"pushups_sets,omitempty"`
	SitupsSets  int      `json:"situps_sets,omitempty"`
	Exercises   []string `json:"exercises,omitempty"`
}

// TrainingDay is one entry of the weekly schedule.
type TrainingDay struct {
	Day      string    `json:"day"`
	Sessions []Session `json:"sessions"`
}

// PlanUI is the canonical, render-ready plan. It is derived, never stored;
// recompute it from the raw document on every fetch.
type PlanUI struct {
	Kcal            *float64      `json:"kcal"`
	ProteinG        *float64      `json:"protein_g"`
	FatG            *float64      `json:"fat_g"`
	CarbsG          *float64      `json:"carbs_g"`
	RunsPerWeek     int           `json:"runs_per_wk"`
	StrengthPerWeek int           `json:"strength_per_wk"`
	Training        []TrainingDay `json:"training"`
	MealsExample    []Meal        `json:"meals_example"`
	Extras          []Extra       `json:"extras"`
	MealsTotals     *MealsTotals  `json:"meals_totals"`
}

// Normalize turns a raw plan document into a PlanUI. It is pure and total:
// the same input always yields the same output, and no input - including
// nil - makes it fail.
func Normalize(raw map[string]interface{}) PlanUI {
	p := unwrap(raw)

	training := normalizeTraining(p["training"])

	runs, strength := 0, 0
	for _, d := range training {
		for _, s := range d.Sessions {
			switch strings.ToLower(s.Type) {
			case "run":
				runs++
			case "strength":
				strength++
			}
		}
	}
	// An explicitly stored weekly count wins over the session scan.
	if v, ok := toInt(p["runs_per_wk"]); ok {
		runs = v
	}
	if v, ok := toInt(p["strength_per_wk"]); ok {
		strength = v
	}

	n := asMap(p["nutrition"])
	targets := asMap(n["targets_per_day"])

	// Meal sources in order of precedence; first one with content wins.
	var meals []Meal
	if v, ok := n["meals_example"].([]interface{}); ok {
		meals = flattenMeals(v)
	} else if v, ok := n["meals"]; ok && v != nil {
		meals = flattenMeals(v)
	} else if v, ok := p["meals"]; ok && v != nil {
		meals = flattenMeals(v)
	}
	if meals == nil {
		meals = []Meal{}
	}

	extras := normalizeExtras(n["extras"])

	totals := normalizeTotals(n["meals_totals"])
	if totals == nil {
		// Legacy misspelling written by an old backend version.
		totals = normalizeTotals(n["meal_totals"])
	}

	return PlanUI{
		Kcal:            toFloatPtr(targets["kcal"]),
		ProteinG:        toFloatPtr(targets["protein_g"]),
		FatG:            toFloatPtr(targets["fat_g"]),
		CarbsG:          toFloatPtr(targets["carbs_g"]),
		RunsPerWeek:     runs,
		StrengthPerWeek: strength,
		Training:        training,
		MealsExample:    meals,
		Extras:          extras,
		MealsTotals:     totals,
	}
}

// unwrap supports both plan-storage conventions: payload at the document
// root, or nested one level under "plan".
func unwrap(raw map[string]interface{}) map[string]interface{} {
	if raw == nil {
		return map[string]interface{}{}
	}
	if nested, ok := raw["plan"].(map[string]interface{}); ok {
		return nested
	}
	return raw
}

func normalizeTraining(v interface{}) []TrainingDay {
	list, ok := v.([]interface{})
	if !ok {
		return []TrainingDay{}
	}
	days := make([]TrainingDay, 0, len(list))
	for i, entry := range list {
		m := asMap(entry)
		days = append(days, TrainingDay{
			Day:      dayLabel(m["day"], i),
			Sessions: normalizeSessions(m["sessions"]),
		})
	}
	return days
}

func dayLabel(v interface{}, idx int) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	if f, ok := toFloat(v); ok {
		return strconv.Itoa(int(f))
	}
	return strconv.Itoa(idx + 1)
}

func normalizeSessions(v interface{}) []Session {
	list, ok := v.([]interface{})
	if !ok {
		return []Session{}
	}
	sessions := make([]Session, 0, len(list))
	for _, entry := range list {
		m := asMap(entry)
		sessions = append(sessions, Session{
			Type:        getString(m, "type"),
			Name:        getString(m, "name"),
			Minutes:     getInt(m, "minutes"),
			DurationMin: getInt(m, "duration_min"),
			DistanceKm:  getFloat(m, "distance_km"),
			Sets:        getInt(m, "sets"),
			Reps:        getInt(m, "reps"),
			PushupsSets: getInt(m, "pushups_sets"),
			SitupsSets:  getInt(m, "situps_sets"),
			Exercises:   toStringList(m["exercises"]),
		})
	}
	return sessions
}

// mealKeys are the fields whose presence makes a map "look like" a single
// meal rather than a category container.
var mealKeys = []string{"title", "kcal", "protein_g", "fat_g", "carbs_g"}

// flattenMeals reduces any observed meals shape to a flat list:
//   - a map that looks like a single meal wraps to a one-element list
//   - a map with an "items" list recurses into the items
//   - any other map is a category container; every value is flattened
//   - a list is flattened element-wise
//   - anything else yields no meals
//
// Category containers iterate in sorted key order so the result is
// deterministic.
func flattenMeals(v interface{}) []Meal {
	switch t := v.(type) {
	case []interface{}:
		out := []Meal{}
		for _, e := range t {
			out = append(out, flattenMeals(e)...)
		}
		return out
	case map[string]interface{}:
		for _, k := range mealKeys {
			if _, ok := t[k]; ok {
				return []Meal{mealFromMap(t)}
			}
		}
		if items, ok := t["items"].([]interface{}); ok {
			return flattenMeals(items)
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := []Meal{}
		for _, k := range keys {
			out = append(out, flattenMeals(t[k])...)
		}
		return out
	default:
		return []Meal{}
	}
}

func mealFromMap(m map[string]interface{}) Meal {
	return Meal{
		Title:    getString(m, "title"),
		Category: getString(m, "category"),
		Kcal:     getFloat(m, "kcal"),
		ProteinG: getFloat(m, "protein_g"),
		FatG:     getFloat(m, "fat_g"),
		CarbsG:   getFloat(m, "carbs_g"),
		Tags:     toStringList(m["tags"]),
	}
}

func normalizeExtras(v interface{}) []Extra {
	list, ok := v.([]interface{})
	if !ok {
		return []Extra{}
	}
	extras := make([]Extra, 0, len(list))
	for _, entry := range list {
		m := asMap(entry)
		extras = append(extras, Extra{
			Title:    getString(m, "title"),
			Kcal:     getFloat(m, "kcal"),
			ProteinG: getFloat(m, "protein_g"),
			FatG:     getFloat(m, "fat_g"),
			CarbsG:   getFloat(m, "carbs_g"),
			Tags:     toStringList(m["tags"]),
		})
	}
	return extras
}

func normalizeTotals(v interface{}) *MealsTotals {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	return &MealsTotals{
		Kcal:     getFloat(m, "kcal"),
		ProteinG: getFloat(m, "protein_g"),
		FatG:     getFloat(m, "fat_g"),
		CarbsG:   getFloat(m, "carbs_g"),
	}
}
