package result

import "fmt"

// UnknownPanic is the trace used when a panic payload carries no text.
const UnknownPanic = "Unknown panic payload"

// FromPanic builds a Crashed result from a value returned by recover.
func FromPanic(name string, payload any) *Item {
	return Crashed(name, panicTrace(payload))
}

func panicTrace(payload any) string {
	switch p := payload.(type) {
	case string:
		return p
	case error:
		return p.Error()
	case fmt.Stringer:
		return p.String()
	default:
		return UnknownPanic
	}
}
