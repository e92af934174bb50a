// Package persist provides the wallet store's startup/shutdown-bracketed
// file logger. The binary helpers of the wallet codec live in binpack.
package persist

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// Logger wraps the standard library logger with the startup/shutdown
// bracketing and optional debug-level output that the wallet's read
// accessors use to narrate their results.
type Logger struct {
	*log.Logger
	verbose bool
	closer  io.Closer
}

// NewFileLogger returns a Logger that appends to the file at logFilename,
// creating it if necessary. verbose enables Debugln/Debugf output.
func NewFileLogger(appName, logFilename string, verbose bool) (*Logger, error) {
	f, err := os.OpenFile(logFilename, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	l := &Logger{
		Logger:  log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile),
		verbose: verbose,
		closer:  f,
	}
	l.Println("STARTUP: " + appName + " logging started " + time.Now().Format(time.RFC3339))
	return l, nil
}

// Debugln logs a line only when the logger was constructed with verbose=true.
func (l *Logger) Debugln(v ...interface{}) {
	if l.verbose {
		l.Output(2, fmt.Sprintln(v...))
	}
}

// Debugf logs a formatted line only when the logger was constructed with
// verbose=true.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l.verbose {
		l.Output(2, fmt.Sprintf(format, v...))
	}
}

// Critical logs a critical message and then panics, matching the wallet's
// policy that invariant violations are always a bug.
func (l *Logger) Critical(v ...interface{}) {
	l.Output(2, "CRITICAL: "+fmt.Sprintln(v...))
	panic(fmt.Sprintln(v...))
}

// Close writes a shutdown line and closes the underlying file.
func (l *Logger) Close() error {
	l.Println("SHUTDOWN: logging terminated " + time.Now().Format(time.RFC3339))
	return l.closer.Close()
}
