package planui

// Firestore reads deliver numbers as int64 or float64 depending on how the
// backend wrote them; JSON decoding delivers float64. All numeric access
// funnels through toFloat so the callers never care.

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func toFloatPtr(v interface{}) *float64 {
	if f, ok := toFloat(v); ok {
		return &f
	}
	return nil
}

func toInt(v interface{}) (int, bool) {
	if f, ok := toFloat(v); ok {
		return int(f), true
	}
	return 0, false
}

func toStringList(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asMap(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func getString(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func getFloat(m map[string]interface{}, key string) float64 {
	f, _ := toFloat(m[key])
	return f
}

func getInt(m map[string]interface{}, key string) int {
	i, _ := toInt(m[key])
	return i
}
