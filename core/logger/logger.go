package logger

// Logger exposes logging methods for common severity levels.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	// Errorw logs err with structured fields attached.
	Errorw(msg string, err error, fields map[string]any)
}

// Nop implements Logger with no-op methods. Core packages fall back to it when
// no logger is injected.
type Nop struct{}

func (Nop) Debugf(string, ...any)                {}
func (Nop) Debugw(string, map[string]any)        {}
func (Nop) Infof(string, ...any)                 {}
func (Nop) Warnf(string, ...any)                 {}
func (Nop) Errorf(string, ...any)                {}
func (Nop) Errorw(string, error, map[string]any) {}

// OrNop returns l, or Nop when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop{}
	}
	return l
}
