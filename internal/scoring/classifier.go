package scoring

import (
	"errors"
	"math"
	"sync/atomic"
)

// ErrModelNotLoaded is returned by operations that need a live model.
var ErrModelNotLoaded = errors.New("classifier model not loaded")

// Model is a trained classifier producing a spam-like probability.
type Model interface {
	Predict(text string) (float64, error)
	Save(path string) error
}

// Example is one labeled training sample. Positive means the gold label was Block.
type Example struct {
	Text     string
	Positive bool
}

// Metrics are evaluation results of a training run.
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Sanitized replaces NaN and infinite values with 0.
func (m Metrics) Sanitized() Metrics {
	return Metrics{
		Accuracy:  finiteOrZero(m.Accuracy),
		Precision: finiteOrZero(m.Precision),
		Recall:    finiteOrZero(m.Recall),
		F1:        finiteOrZero(m.F1),
	}
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Handle is a snapshot of the live classifier: either no classifier or a loaded model.
type Handle struct {
	model   Model
	version int
}

// NoClassifier is the empty handle.
var NoClassifier = Handle{}

// LoadedClassifier wraps a model under a version number.
func LoadedClassifier(m Model, version int) Handle {
	return Handle{model: m, version: version}
}

// Loaded returns the model and true when a model is present.
func (h Handle) Loaded() (Model, bool) {
	return h.model, h.model != nil
}

// Version is the model version of a loaded handle, 0 otherwise.
func (h Handle) Version() int {
	return h.version
}

// Classifier holds the live model. Readers take a Handle and never block the swap.
type Classifier struct {
	current atomic.Pointer[Handle]
}

// NewClassifier returns a classifier with nothing loaded.
func NewClassifier() *Classifier {
	c := &Classifier{}
	c.current.Store(&NoClassifier)
	return c
}

// Handle returns the current snapshot.
func (c *Classifier) Handle() Handle {
	if h := c.current.Load(); h != nil {
		return *h
	}
	return NoClassifier
}

// Swap replaces the live model in one atomic step.
func (c *Classifier) Swap(m Model, version int) {
	if m == nil {
		c.current.Store(&NoClassifier)
		return
	}
	h := LoadedClassifier(m, version)
	c.current.Store(&h)
}

// Unload drops the live model.
func (c *Classifier) Unload() {
	c.current.Store(&NoClassifier)
}

// IsLoaded reports whether a model is live.
func (c *Classifier) IsLoaded() bool {
	_, ok := c.Handle().Loaded()
	return ok
}
