package pipeline

import "fmt"

// State is a step of a run. States only move forward.
type State int

const (
	StateAwaitInput State = iota
	StateExtract
	StatePrimaryAnalysis
	StateSearch
	StateFetch
	StateSecondaryAnalysis
	StatePersist
	StateDone
)

var stateNames = [...]string{
	StateAwaitInput:        "await_input",
	StateExtract:           "extract",
	StatePrimaryAnalysis:   "primary_analysis",
	StateSearch:            "search",
	StateFetch:             "fetch",
	StateSecondaryAnalysis: "secondary_analysis",
	StatePersist:           "persist",
	StateDone:              "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText renders the state name in JSON reports.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Level is the severity of a feedback message.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Feedback is a user-facing message produced by a step.
type Feedback struct {
	Step    State  `json:"step"`
	Level   Level  `json:"level"`
	Message string `json:"message"`
}
