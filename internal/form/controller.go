// Package form implements the prediction form controller: it holds the raw
// field values of one page view, turns them into a payload, calls the
// prediction service and exposes the resulting display state.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/ashureev/bank-marketing/internal/domain"
	"github.com/ashureev/bank-marketing/internal/predict"
)

// User-facing messages and labels.
const (
	FailureMessage    = "Prediction failed. Please check your input & API server."
	ValidationMessage = "Please correct the highlighted fields."
	SubmitLabel       = "Predict"
	BusyLabel         = "Predicting..."
)

// ErrUnknownField is returned by UpdateField for names outside the catalog.
var ErrUnknownField = errors.New("unknown form field")

var errSubmitAborted = errors.New("submission aborted")

// Options configures a Controller.
type Options struct {
	// ID identifies the page view in logs.
	ID string
	// Strict rejects invalid input before any request is made.
	Strict bool
	Logger *slog.Logger
}

// Controller owns the FormState of one page view and the outcome of its
// latest submission. It is safe for concurrent use.
type Controller struct {
	id        string
	predictor predict.Predictor
	validator *Validator
	logger    *slog.Logger

	mu      sync.Mutex
	values  map[string]string
	seq     uint64
	loading bool
	result  *domain.PredictionResult
	errMsg  string
	issues  []FieldIssue

	subs    map[int]chan Snapshot
	nextSub int
}

// New creates an idle controller with every field empty.
func New(predictor predict.Predictor, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		id:        opts.ID,
		predictor: predictor,
		logger:    logger,
		values:    make(map[string]string, len(domain.Catalog)),
		subs:      make(map[int]chan Snapshot),
	}
	if opts.Strict {
		c.validator = NewValidator()
	}
	for _, name := range domain.FieldNames() {
		c.values[name] = ""
	}
	return c
}

// ID returns the page-view identifier given at construction.
func (c *Controller) ID() string {
	return c.id
}

// UpdateField stores rawValue as the current text of name. The value is kept
// verbatim; conversion happens on submit.
func (c *Controller) UpdateField(name, rawValue string) error {
	if _, ok := domain.LookupField(name); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values[name] == rawValue {
		return nil
	}
	c.values[name] = rawValue
	c.publishLocked()
	return nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Submit converts the current values into a payload and sends it. It blocks
// until the request resolves and returns the state at that point. When a
// newer submission started in the meantime, this outcome is discarded and the
// returned state reflects the newer one.
func (c *Controller) Submit(ctx context.Context) (snap Snapshot) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.result = nil
	c.errMsg = ""
	c.issues = nil
	values := maps.Clone(c.values)

	if c.validator != nil {
		if issues := c.validator.Validate(values); len(issues) > 0 {
			c.loading = false
			c.errMsg = ValidationMessage
			c.issues = issues
			c.publishLocked()
			snap = c.snapshotLocked()
			c.mu.Unlock()
			c.logger.Info("Submission rejected by validation", "page_id", c.id, "seq", seq, "issues", len(issues))
			return snap
		}
	}

	c.loading = true
	c.publishLocked()
	c.mu.Unlock()

	var result *domain.PredictionResult
	err := errSubmitAborted
	defer func() {
		snap = c.resolve(seq, result, err)
	}()

	result, err = c.predictor.Predict(ctx, domain.NewPayload(values))
	return snap
}

// resolve applies the outcome of submission seq if it is still the latest.
func (c *Controller) resolve(seq uint64, result *domain.PredictionResult, err error) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		c.logger.Debug("Discarding stale prediction outcome", "page_id", c.id, "seq", seq, "latest", c.seq)
		return c.snapshotLocked()
	}

	c.loading = false
	if err != nil || result == nil {
		c.logger.Error("Prediction request failed", "page_id", c.id, "seq", seq, "error", err)
		c.errMsg = FailureMessage
	} else {
		c.logger.Info("Prediction received", "page_id", c.id, "seq", seq, "prediction", result.Prediction)
		c.result = result
	}
	c.publishLocked()
	return c.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every state change,
// and a function that cancels the subscription. Slow receivers miss
// intermediate snapshots rather than block the controller, but the last
// snapshot delivered is always the latest.
func (c *Controller) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
	}
}

// Close ends every open subscription. The controller itself stays usable.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

func (c *Controller) publishLocked() {
	if len(c.subs) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for id, ch := range c.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Replace the oldest pending snapshot so the latest state is never lost.
		select {
		case <-ch:
			c.logger.Debug("Dropping snapshot for slow subscriber", "page_id", c.id, "subscriber", id)
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Seq:     c.seq,
		Values:  maps.Clone(c.values),
		Loading: c.loading,
		Result:  c.result,
		Error:   c.errMsg,
		Issues:  append([]FieldIssue(nil), c.issues...),
	}
}
