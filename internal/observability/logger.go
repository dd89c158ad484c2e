package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeStep        EventType = "step"
	EventTypeBatch       EventType = "batch"
	EventTypeSettle      EventType = "settle"
	EventTypeSelection   EventType = "selection"
	EventTypeSimulation  EventType = "simulation"
	EventTypeLLM         EventType = "llm"
	EventTypePersistence EventType = "persistence"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	Target    string    `json:"target,omitempty"`
	BatchID   string    `json:"batch_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger handles structured logging.
type Logger struct {
	mu         sync.Mutex
	out        io.Writer
	llmLogPath string
	maxSize    int64
}

func NewLogger() *Logger {
	return &Logger{
		out:        os.Stdout,
		llmLogPath: filepath.Join("logs", "llm.jsonl"),
		maxSize:    10 * 1024 * 1024, // 10MB
	}
}

// NewLoggerTo writes events to w. An empty llmLogPath disables the LLM file.
func NewLoggerTo(w io.Writer, llmLogPath string) *Logger {
	return &Logger{out: w, llmLogPath: llmLogPath, maxSize: 10 * 1024 * 1024}
}

// Log emits a structured JSON event.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		data = []byte(fmt.Sprintf("{\"error\": %q}", "failed to marshal event: "+err.Error()))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, string(data))

	if evt.Type == EventTypeLLM && l.llmLogPath != "" {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	// Check size before writing
	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogStep(target string, step, total int, status string) {
	l.Log(Event{
		Type:   EventTypeStep,
		Target: target,
		Data: map[string]any{
			"step":   step,
			"total":  total,
			"status": status,
		},
	})
}

func (l *Logger) LogBatch(batchID, status string, targets []string) {
	l.Log(Event{
		Type:    EventTypeBatch,
		BatchID: batchID,
		Data: map[string]any{
			"status":  status,
			"targets": targets,
		},
	})
}

func (l *Logger) LogSettle(batchID, target string, err error) {
	data := map[string]string{"status": "succeeded"}
	if err != nil {
		data = map[string]string{"status": "failed", "error": err.Error()}
	}
	l.Log(Event{Type: EventTypeSettle, BatchID: batchID, Target: target, Data: data})
}

func (l *Logger) LogSelection(action string, targets []string) {
	l.Log(Event{
		Type: EventTypeSelection,
		Data: map[string]any{"action": action, "targets": targets},
	})
}

func (l *Logger) LogSimulation(target string, promptChars int, err error) {
	data := map[string]any{"status": "completed", "prompt_chars": promptChars}
	if err != nil {
		data["status"] = "failed"
		data["error"] = err.Error()
	}
	l.Log(Event{Type: EventTypeSimulation, Target: target, Data: data})
}

func (l *Logger) LogPersistence(op string, err error) {
	data := map[string]string{"op": op}
	if err != nil {
		data["error"] = err.Error()
	}
	l.Log(Event{Type: EventTypePersistence, Data: data})
}

func (l *Logger) LogLLM(target, kind string, prompt any, response string) {
	l.Log(Event{
		Type:   EventTypeLLM,
		Target: target,
		Data: map[string]any{
			"kind":     kind,
			"prompt":   prompt,
			"response": response,
		},
	})
}
