// Package joblog records the user facing log of one run. Every entry is
// mirrored to logrus.
package joblog

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const (
	LevelDebug   = "debug"
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelFailure = "failure"
)

var Levels = []string{LevelDebug, LevelInfo, LevelSuccess, LevelWarning, LevelFailure}

type Entry struct {
	Time    time.Time `yaml:"time"`
	Level   string    `yaml:"level"`
	Message string    `yaml:"message"`
	Object  string    `yaml:"object,omitempty"`
}

func (e Entry) String() string {
	if e.Object == "" {
		return fmt.Sprintf("%s [%s] %s", e.Time.Format(time.RFC3339), e.Level, e.Message)
	}
	return fmt.Sprintf("%s [%s] %s: %s", e.Time.Format(time.RFC3339), e.Level, e.Object, e.Message)
}

type Log struct {
	log *logrus.Entry

	mu      sync.Mutex
	entries []Entry
	failed  bool
}

func New(log *logrus.Entry) *Log {
	return &Log{log: log}
}

func (l *Log) Debug(object, message string) {
	l.add(LevelDebug, object, message)
}

func (l *Log) Info(object, message string) {
	l.add(LevelInfo, object, message)
}

func (l *Log) Success(object, message string) {
	l.add(LevelSuccess, object, message)
}

func (l *Log) Warning(object, message string) {
	l.add(LevelWarning, object, message)
}

// Failure records the entry and marks the run failed.
func (l *Log) Failure(object, message string) {
	l.add(LevelFailure, object, message)
}

func (l *Log) Failed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.failed
}

// Entries returns the entries at the given levels, or all of them.
func (l *Log) Entries(levels ...string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(levels) == 0 {
		return append([]Entry(nil), l.entries...)
	}

	return lo.Filter(l.entries, func(e Entry, _ int) bool {
		return lo.Contains(levels, e.Level)
	})
}

// Report renders entries one per line.
func Report(entries []Entry) string {
	lines := lo.Map(entries, func(e Entry, _ int) string {
		return e.String()
	})
	return strings.Join(lines, "\n")
}

func (l *Log) add(level, object, message string) {
	if message == "" {
		return
	}

	entry := Entry{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Object:  object,
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	if level == LevelFailure {
		l.failed = true
	}
	l.mu.Unlock()

	log := l.log
	if object != "" {
		log = log.WithField("object", object)
	}

	switch level {
	case LevelDebug:
		log.Debug(message)
	case LevelSuccess:
		log.WithField("status", LevelSuccess).Info(message)
	case LevelWarning:
		log.Warn(message)
	case LevelFailure:
		log.Error(message)
	default:
		log.Info(message)
	}
}
