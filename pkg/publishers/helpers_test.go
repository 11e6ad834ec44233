package publishers

import (
	"sync"

	"github.com/samvad-hq/api-mastery/internal/domain"
)

type logEntry struct {
	level string
	msg   string
	key   string
	obj   any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (r *recordingLogger) add(level, msg, key string, obj any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, logEntry{level: level, msg: msg, key: key, obj: obj})
}

func (r *recordingLogger) InfoObj(msg, key string, obj any)  { r.add("info", msg, key, obj) }
func (r *recordingLogger) DebugObj(msg, key string, obj any) { r.add("debug", msg, key, obj) }
func (r *recordingLogger) WarnObj(msg, key string, obj any)  { r.add("warn", msg, key, obj) }
func (r *recordingLogger) ErrorObj(msg, key string, obj any) { r.add("error", msg, key, obj) }

func sampleEvent() Event {
	return NewEvent(domain.Record{
		Source: "pokeapi",
		Kind:   "pokemon",
		Key:    "ditto",
		Data:   map[string]any{"id": 132},
	})
}
