package log

// Canonical field name constants for structured logging.
const (
	FieldService   = "service"
	FieldVersion   = "version"
	FieldComponent = "component"

	FieldGameID   = "game_id"
	FieldEndpoint = "endpoint"
	FieldStep     = "step"
	FieldStatus   = "status"
	FieldDuration = "duration"
	FieldLanguage = "language"
	FieldBackend  = "backend"
)
