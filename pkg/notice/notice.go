// Package notice carries user-facing messages (toasts and inline errors)
// from views to whatever front end is rendering them.
package notice

import (
	"sync"

	"github.com/nexusforge/console/pkg/common/logger"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Notice struct {
	Level   Level
	Message string
}

type Notifier interface {
	Notify(Notice)
}

type Func func(Notice)

func (f Func) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Notifier = Func(func(Notice) {})

// Log writes notices to the process logger.
var Log Notifier = Func(func(n Notice) {
	entry := logger.WithField("notice", n.Level)
	switch n.Level {
	case LevelError:
		entry.Error(n.Message)
	case LevelWarning:
		entry.Warn(n.Message)
	default:
		entry.Info(n.Message)
	}
})

func Success(n Notifier, msg string) { notify(n, LevelSuccess, msg) }
func Info(n Notifier, msg string)    { notify(n, LevelInfo, msg) }
func Warning(n Notifier, msg string) { notify(n, LevelWarning, msg) }
func Error(n Notifier, msg string)   { notify(n, LevelError, msg) }

func notify(n Notifier, level Level, msg string) {
	if n == nil {
		return
	}
	n.Notify(Notice{Level: level, Message: msg})
}

// Recorder keeps every notice it receives.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

func (r *Recorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}
