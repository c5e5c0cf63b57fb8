package logger

// NopLogger discards everything. Tests use it.
type NopLogger struct{}

// NewNop returns a logger that drops all entries.
func NewNop() Logger {
	return &NopLogger{}
}

func (l *NopLogger) Debug(string, ...Field) {}
func (l *NopLogger) Info(string, ...Field)  {}
func (l *NopLogger) Warn(string, ...Field)  {}
func (l *NopLogger) Error(string, ...Field) {}

func (l *NopLogger) With(...Field) Logger { return l }

func (l *NopLogger) Sync() error { return nil }
