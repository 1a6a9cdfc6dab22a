package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/raysh454/webdiffengine/internal/interfaces"
)

// StdoutLogger is a tiny, structured logger for the server process. It
// implements interfaces.Logger and prints JSON lines to stdout. Debug
// lines are suppressed unless the logger was built with NewStdoutLogger's
// verbose flag set, since request-scoped debug output gets noisy fast
// under the httpapi request-logging wrapper.
type StdoutLogger struct {
	component string
	verbose   bool
}

// NewStdoutLogger creates a new StdoutLogger. component is optional and
// is written as the "component" key of every line; verbose enables
// Debug-level output.
func NewStdoutLogger(component string, verbose bool) *StdoutLogger {
	return &StdoutLogger{component: component, verbose: verbose}
}

func (s *StdoutLogger) log(level string, msg string, fields ...interfaces.Field) {
	type outEntry struct {
		Level     string         `json:"level"`
		Msg       string         `json:"msg"`
		Component string         `json:"component,omitempty"`
		Time      string         `json:"time"`
		Fields    map[string]any `json:"fields,omitempty"`
	}
	m := make(map[string]any)
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	entry := outEntry{
		Level:     level,
		Msg:       msg,
		Component: s.component,
		Time:      time.Now().UTC().Format(time.RFC3339),
		Fields:    m,
	}
	enc, err := json.Marshal(entry)
	if err != nil {
		// Fallback simple formatting to stdout if JSON marshal fails
		fmt.Fprintf(os.Stdout, "%s %s %v\n", level, msg, m)
		return
	}
	fmt.Fprintln(os.Stdout, string(enc))
}

func (s *StdoutLogger) Debug(msg string, fields ...interfaces.Field) {
	if !s.verbose {
		return
	}
	s.log("debug", msg, fields...)
}

func (s *StdoutLogger) Info(msg string, fields ...interfaces.Field) {
	s.log("info", msg, fields...)
}

func (s *StdoutLogger) Warn(msg string, fields ...interfaces.Field) {
	s.log("warn", msg, fields...)
}

func (s *StdoutLogger) Error(msg string, fields ...interfaces.Field) {
	s.log("error", msg, fields...)
}

// With returns a child logger. A string "component" field replaces the
// child's component name; all other fields are dropped and do not
// appear in the child's log lines.
func (s *StdoutLogger) With(fields ...interfaces.Field) interfaces.Logger {
	child := &StdoutLogger{component: s.component, verbose: s.verbose}
	// If fields include a component key, prefer that as the component name.
	for _, f := range fields {
		if f.Key == "component" {
			if str, ok := f.Value.(string); ok {
				child.component = str
			}
		}
	}
	return child
}
