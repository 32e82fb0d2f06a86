package autonow

// Log actions.
const (
	ActionActivate   = "activate"
	ActionDeactivate = "deactivate"
	ActionDecide     = "decide"
	ActionEmit       = "emit"
)

// LogEvent describes a scope lifecycle step or an override decision.
type LogEvent struct {
	Scope    string
	Action   string
	Kind     string
	Field    string
	Owner    string
	Insert   bool
	Override bool
	Reason   string
	Err      error
}

// Logger records scope events.
type Logger interface {
	Log(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// Log implements Logger.
func (f LoggerFunc) Log(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) Log(LogEvent) {}
