package logger

import corelogger "github.com/kilianp07/fleetrollout/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.Nop

// New returns a Logger for the given component. The output format is detected
// via the APP_ENV variable; the level follows the last call to Configure.
func New(component string) Logger {
	return NewZerologLogger(component)
}
