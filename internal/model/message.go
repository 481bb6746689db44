package model

// Message is a single validation or calculation finding.
type Message struct {
	Level   string `json:"level"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

const (
	LevelCritical = "CRITICAL"
	LevelWarning  = "WARNING"
)

// HasCritical reports whether any message blocks the operation.
func HasCritical(msgs []Message) bool {
	for _, m := range msgs {
		if m.Level == LevelCritical {
			return true
		}
	}
	return false
}
