package agent

// SafetyLevel classifies a tool by the blast radius of letting an LLM
// invoke it unsupervised. The orchestrator consults this when a session
// is running in safe mode (see Orchestrator.SafeMode).
type SafetyLevel string

const (
	// SafetyReadOnly tools only read state; always permitted.
	SafetyReadOnly SafetyLevel = "read_only"
	// SafetySafeMode tools mutate state but are considered low-risk;
	// permitted even in safe mode.
	SafetySafeMode SafetyLevel = "safe_mode"
	// SafetyUnsafe tools carry real-world risk (funds movement, external
	// side effects) and are dropped outright while safe mode is active.
	SafetyUnsafe SafetyLevel = "unsafe"
)

// SafetyRated is implemented by tools that declare their own safety
// level. Tools that don't implement it are treated as SafetyReadOnly.
type SafetyRated interface {
	SafetyLevel() SafetyLevel
}

// toolSafetyLevel returns a tool's declared safety level, defaulting to
// SafetyReadOnly for tools that don't implement SafetyRated.
func toolSafetyLevel(t Tool) SafetyLevel {
	if rated, ok := t.(SafetyRated); ok {
		return rated.SafetyLevel()
	}
	return SafetyReadOnly
}
