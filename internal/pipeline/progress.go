package pipeline

import (
	"log/slog"
	"sync"

	"github.com/jonathan/trustcheck/internal/pipeline/steps"
)

// ProgressEvent represents a progress update during a verification run
type ProgressEvent struct {
	Step           string `json:"step"`
	Category       string `json:"category"`
	Status         string `json:"status"`
	Message        string `json:"message"`
	VerificationID string `json:"verification_id,omitempty"`
	Content        any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs. Calls are
// serialised even though analysis branches finish concurrently.
type ProgressCallback func(event ProgressEvent)

// tracker records finished steps against the step registry and forwards
// events to the callback.
type tracker struct {
	mu       sync.Mutex
	id       string
	callback ProgressCallback
	finished steps.Completed
	logger   *slog.Logger
}

func newTracker(id string, callback ProgressCallback, logger *slog.Logger) *tracker {
	return &tracker{
		id:       id,
		callback: callback,
		finished: make(steps.Completed),
		logger:   logger,
	}
}

func (t *tracker) done(step, message string, content any) {
	t.emit(step, steps.StatusCompleted, message, content)
}

func (t *tracker) skip(step, message string) {
	t.emit(step, steps.StatusSkipped, message, nil)
}

// finish reports a step that may have degraded: failed when err is set.
func (t *tracker) finish(step string, err error, message string, content any) {
	status := steps.StatusCompleted
	if err != nil {
		status = steps.StatusFailed
	}
	t.emit(step, status, message, content)
}

func (t *tracker) emit(step, status, message string, content any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := steps.ValidateDependencies(t.finished, step); err != nil {
		t.logger.Error("[Pipeline] step reported out of order", slog.String("error", err.Error()))
	}
	// a degraded step still unblocks its dependents
	t.finished[step] = true

	if t.callback == nil {
		return
	}
	t.callback(ProgressEvent{
		Step:           step,
		Category:       steps.StepRegistry[step].Category,
		Status:         status,
		Message:        message,
		VerificationID: t.id,
		Content:        content,
	})
}
