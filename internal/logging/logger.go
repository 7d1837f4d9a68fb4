package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"
)

func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

func Debug(msg string, args ...any) {
	slog.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}

// PanicDir is where panic reports are written. Set from config at startup;
// empty means the OS temp directory is used.
var PanicDir string

// RecoverPanic recovers from a panic in the calling goroutine, writes a
// report file with the stack trace, and then runs the optional cleanup
// function. Intended for use in long-lived background goroutines:
//
//	defer logging.RecoverPanic("watcher-gopls", func() { restart() })
func RecoverPanic(name string, cleanup func()) {
	if r := recover(); r != nil {
		Error("Panic recovered", "name", name, "panic", r)

		dir := PanicDir
		if dir == "" {
			dir = os.TempDir()
		}
		filename := filepath.Join(dir, fmt.Sprintf("quill-panic-%s-%s.log", name, time.Now().Format("20060102-150405")))
		if file, err := os.Create(filename); err == nil {
			fmt.Fprintf(file, "Panic in %s: %v\n\n", name, r)
			fmt.Fprintf(file, "Time: %s\n\n", time.Now().Format(time.RFC3339))
			fmt.Fprintf(file, "Stack Trace:\n%s\n", debug.Stack())
			file.Close()
			Info("Panic report written", "file", filename)
		} else {
			Error("Failed to write panic report", "error", err)
		}

		if cleanup != nil {
			cleanup()
		}
	}
}
