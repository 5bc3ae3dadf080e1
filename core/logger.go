package core

// Logger is any service that can log application events, optionally
// reporting them to an external error tracker.
// Implementations may inspect args for well-known types (eg. a logged in
// principal) and attach them to the report.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
