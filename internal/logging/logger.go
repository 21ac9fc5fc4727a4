// Package logging provides the server-wide logger: four leveled
// wrappers around the standard library's log.Logger, written to
// stderr with level-tagged prefixes.
package logging

import (
	"io"
	"log"
	"os"
)

const (
	levelInfo  = "INFO"
	levelWarn  = "WARN"
	levelError = "ERROR"
	levelDebug = "DEBUG"
)

// Logger is the process-wide log facade: one *log.Logger per level so
// each can be redirected or silenced independently.
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
	debugLogger *log.Logger
}

// New builds a Logger writing every level to w, tagged with the
// process's database/listener identity in the prefix.
func New(w io.Writer) *Logger {
	return &Logger{
		infoLogger:  log.New(w, "[INFO]  ", log.Ldate|log.Ltime),
		warnLogger:  log.New(w, "[WARN]  ", log.Ldate|log.Ltime),
		errorLogger: log.New(w, "[ERROR] ", log.Ldate|log.Ltime),
		debugLogger: log.New(w, "[DEBUG] ", log.Ldate|log.Ltime),
	}
}

// Default builds a Logger writing to stderr.
func Default() *Logger { return New(os.Stderr) }

func (l *Logger) Info(format string, v ...interface{})  { l.infoLogger.Printf(format, v...) }
func (l *Logger) Warn(format string, v ...interface{})  { l.warnLogger.Printf(format, v...) }
func (l *Logger) Error(format string, v ...interface{}) { l.errorLogger.Printf(format, v...) }
func (l *Logger) Debug(format string, v ...interface{}) { l.debugLogger.Printf(format, v...) }

func (l *Logger) Println(level string, v ...interface{}) {
	switch level {
	case levelInfo:
		l.infoLogger.Println(v...)
	case levelWarn:
		l.warnLogger.Println(v...)
	case levelError:
		l.errorLogger.Println(v...)
	case levelDebug:
		l.debugLogger.Println(v...)
	default:
		l.infoLogger.Println(v...)
	}
}
