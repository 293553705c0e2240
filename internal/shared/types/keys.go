package types

// APIKeys maps a credential field name to its stored value.
type APIKeys map[string]string

// Credential fields recognized by the backend.
const (
	FieldCanvasKey     = "canvas_key"
	FieldGeminiKey     = "gemini_key"
	FieldCanvasBaseURL = "canvas_base_url"
	FieldElevenLabsKey = "elevenlabs_api_key"
	FieldOpenRouterKey = "openrouter_api_key"
)

// KeyFields lists every credential field the backend stores.
func KeyFields() []string {
	return []string{
		FieldCanvasKey,
		FieldGeminiKey,
		FieldCanvasBaseURL,
		FieldElevenLabsKey,
		FieldOpenRouterKey,
	}
}

// ValidKeyField reports whether field is a recognized credential field.
func ValidKeyField(field string) bool {
	for _, f := range KeyFields() {
		if f == field {
			return true
		}
	}
	return false
}

// Clone returns a copy of the key set.
func (k APIKeys) Clone() APIKeys {
	out := make(APIKeys, len(k))
	for field, value := range k {
		out[field] = value
	}
	return out
}

// Merge overlays other onto k, ignoring empty values, and returns the result.
func (k APIKeys) Merge(other APIKeys) APIKeys {
	out := k.Clone()
	for field, value := range other {
		if value != "" {
			out[field] = value
		}
	}
	return out
}
