package notify

import (
	"log"
	"sync"
	"time"
)

type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

const logLimit = 50

type Notification struct {
	Level   Level     `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier shows a message to the user.
type Notifier interface {
	Notify(level Level, title, message string)
}

// Publisher forwards events to connected clients; stream.Hub implements it.
type Publisher interface {
	Publish(sessionID, eventType string, data any)
}

// Log keeps the most recent notifications of one session and forwards each one.
type Log struct {
	mu        sync.RWMutex
	sessionID string
	pub       Publisher
	items     []Notification
	now       func() time.Time
}

func NewLog(sessionID string, pub Publisher) *Log {
	return &Log{sessionID: sessionID, pub: pub, now: time.Now}
}

func (l *Log) Notify(level Level, title, message string) {
	n := Notification{Level: level, Title: title, Message: message, At: l.now().UTC()}

	l.mu.Lock()
	l.items = append(l.items, n)
	if len(l.items) > logLimit {
		l.items = append([]Notification(nil), l.items[len(l.items)-logLimit:]...)
	}
	l.mu.Unlock()

	if level == Error {
		log.Printf("session %s: %s: %s", l.sessionID, title, message)
	}
	if l.pub != nil {
		l.pub.Publish(l.sessionID, "notification", n)
	}
}

// List returns notifications oldest first.
func (l *Log) List() []Notification {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Notification, len(l.items))
	copy(out, l.items)
	return out
}

// Last returns the newest notification.
func (l *Log) Last() (Notification, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.items) == 0 {
		return Notification{}, false
	}
	return l.items[len(l.items)-1], true
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(Level, string, string) {}
