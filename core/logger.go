package core

// Logger is any service that can log application events.
// args may contain an error, a map[string]interface{} of extra data and the acting user.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the user an event happened for.
type Person struct {
	ID       string
	Username string
	Email    string
}
