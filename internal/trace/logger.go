package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"readmegen/internal/readme"
)

var runIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Event is one pipeline stage persisted as a JSON line.
type Event struct {
	Timestamp string         `json:"timestamp"`
	RunID     string         `json:"run_id"`
	Source    string         `json:"source"`
	Stage     string         `json:"stage"`
	Kind      string         `json:"kind,omitempty"`
	Message   string         `json:"message,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Logger persists run-scoped events into one JSONL file per run.
type Logger struct {
	dir string
	mu  sync.Mutex
}

// DefaultDir is used when no directory is configured.
func DefaultDir() string {
	return filepath.Join("tmp", "run_logs")
}

func NewLogger(dir string) *Logger {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		trimmed = DefaultDir()
	}
	_ = os.MkdirAll(trimmed, 0o755)
	return &Logger{dir: trimmed}
}

func sanitizeRunID(runID string) string {
	id := strings.TrimSpace(runID)
	if id == "" {
		return "unknown"
	}
	return runIDSanitizer.ReplaceAllString(id, "_")
}

func (l *Logger) filePath(runID string) string {
	return filepath.Join(l.dir, sanitizeRunID(runID)+".jsonl")
}

// Observe records a pipeline stage event.
func (l *Logger) Observe(ev readme.StageEvent) {
	l.Append(Event{
		Timestamp: ev.Time.UTC().Format(time.RFC3339Nano),
		RunID:     ev.RunID,
		Source:    "pipeline",
		Stage:     ev.Stage,
		Kind:      string(ev.Kind),
		Message:   ev.Message,
		Fields:    ev.Data,
	})
}

// Append writes one line for ev.RunID. Events without a run id are dropped.
func (l *Logger) Append(ev Event) {
	if l == nil || strings.TrimSpace(ev.RunID) == "" {
		return
	}
	if ev.Timestamp == "" {
		ev.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return
	}
	raw = append(raw, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_ = os.MkdirAll(l.dir, 0o755)
	f, err := os.OpenFile(l.filePath(ev.RunID), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.Write(raw)
}

// Read returns all persisted events for a run.
func (l *Logger) Read(runID string) ([]Event, error) {
	if l == nil {
		return nil, nil
	}
	f, err := os.Open(l.filePath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return []Event{}, nil
		}
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()

	out := make([]Event, 0, 16)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		out = append(out, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan trace file: %w", err)
	}
	return out, nil
}

// Runs lists the run ids that have a trace file, newest first.
func (l *Logger) Runs() ([]string, error) {
	if l == nil {
		return nil, nil
	}
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	type item struct {
		id  string
		mod time.Time
	}
	var items []item
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		items = append(items, item{id: strings.TrimSuffix(name, ".jsonl"), mod: info.ModTime()})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].mod.After(items[j].mod) })
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out, nil
}
