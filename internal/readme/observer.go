package readme

import "time"

// Stage names carried by StageEvent.
const (
	// StageClone is emitted by callers that check out a repository first.
	StageClone      = "clone"
	StageMetadata   = "metadata"
	StageRank       = "rank"
	StageParse      = "parse"
	StageSelect     = "select"
	StageBudget     = "budget"
	StageSynthesize = "synthesize"
	StageDone       = "done"
	StageError      = "error"
)

// StageEvent reports progress of one run.
type StageEvent struct {
	RunID   string         `json:"run_id"`
	Stage   string         `json:"stage"`
	Time    time.Time      `json:"time"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Kind    Kind           `json:"kind,omitempty"`
}

// Observer receives stage events synchronously; implementations must be quick.
type Observer interface {
	Observe(ev StageEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(StageEvent)

func (f ObserverFunc) Observe(ev StageEvent) { f(ev) }

// Observers fans events out to every non-nil observer in order.
type Observers []Observer

func (o Observers) Observe(ev StageEvent) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(ev)
		}
	}
}
