package mdeditor

import "sync"

// Operation names a text transform.
type Operation string

const (
	OpFormat  Operation = "format"
	OpPolish  Operation = "polish"
	OpTypeset Operation = "typeset"
)

// Flags reports which transforms are outstanding. At most one is set.
type Flags struct {
	Format  bool `json:"format"`
	Polish  bool `json:"polish"`
	Typeset bool `json:"typeset"`
}

// Busy reports whether any transform is running.
func (f Flags) Busy() bool {
	return f.Format || f.Polish || f.Typeset
}

func (f *Flags) set(op Operation, on bool) {
	switch op {
	case OpFormat:
		f.Format = on
	case OpPolish:
		f.Polish = on
	case OpTypeset:
		f.Typeset = on
	}
}

// Notice levels.
const (
	LevelInfo  = "info"
	LevelError = "error"
)

// Notice is a user-visible message.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Notifier receives notices.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) { f(n) }

// EventKind says what part of the state changed.
type EventKind int

const (
	EventText EventKind = iota
	EventTheme
	EventCustomCSS
	EventFlags
	EventNotice
)

func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventTheme:
		return "theme"
	case EventCustomCSS:
		return "custom_css"
	case EventFlags:
		return "flags"
	case EventNotice:
		return "notice"
	default:
		return "unknown"
	}
}

// Event describes one state change. State is a snapshot taken right after
// the change. Origin is the identifier passed by the caller that caused a
// text change, empty otherwise.
type Event struct {
	Kind   EventKind
	State  State
	Notice Notice
	Origin string
}

// listeners is a registry of event callbacks.
type listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(Event)
}

func (l *listeners) add(fn func(Event)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(Event))
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.fns, id)
	}
}

func (l *listeners) emit(ev Event) {
	l.mu.Lock()
	fns := make([]func(Event), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
