package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/rivo/tview"
)

// LogLevel represents the severity of a log message
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// LogMessage represents a single log entry
type LogMessage struct {
	Time    time.Time
	Level   LogLevel
	Message string
}

// LogManager keeps recent messages and mirrors them into a text view.
type LogManager struct {
	textView    *tview.TextView
	messages    []LogMessage
	maxMessages int
	mu          sync.Mutex
}

// NewLogManager creates a new log manager
func NewLogManager(maxMessages int) *LogManager {
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetMaxLines(maxMessages)
	textView.SetBorder(true).SetTitle(" Log ")

	return &LogManager{
		textView:    textView,
		messages:    make([]LogMessage, 0, maxMessages),
		maxMessages: maxMessages,
	}
}

// View returns the tview component
func (lm *LogManager) View() tview.Primitive {
	return lm.textView
}

// Messages returns a copy of the retained messages.
func (lm *LogManager) Messages() []LogMessage {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	out := make([]LogMessage, len(lm.messages))
	copy(out, lm.messages)
	return out
}

// AddLog adds a log message with the specified level
func (lm *LogManager) AddLog(level LogLevel, format string, args ...interface{}) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lm.messages = append(lm.messages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
	if len(lm.messages) > lm.maxMessages {
		lm.messages = lm.messages[len(lm.messages)-lm.maxMessages:]
	}

	lm.refresh()
}

func (lm *LogManager) Debug(format string, args ...interface{}) { lm.AddLog(LogLevelDebug, format, args...) }
func (lm *LogManager) Info(format string, args ...interface{})  { lm.AddLog(LogLevelInfo, format, args...) }
func (lm *LogManager) Warn(format string, args ...interface{})  { lm.AddLog(LogLevelWarn, format, args...) }
func (lm *LogManager) Error(format string, args ...interface{}) { lm.AddLog(LogLevelError, format, args...) }

// refresh rewrites the text view. Caller holds mu.
func (lm *LogManager) refresh() {
	lm.textView.Clear()
	for _, msg := range lm.messages {
		fmt.Fprintf(lm.textView, "[gray]%s[-] [%s]%-5s[-] %s\n",
			msg.Time.Format("15:04:05"), colorForLevel(msg.Level), msg.Level, tview.Escape(msg.Message))
	}
	lm.textView.ScrollToEnd()
}

func colorForLevel(level LogLevel) string {
	switch level {
	case LogLevelDebug:
		return "gray"
	case LogLevelWarn:
		return "yellow"
	case LogLevelError:
		return "red"
	default:
		return "white"
	}
}
