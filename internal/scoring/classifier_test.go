package scoring

import (
	"errors"
	"math"
	"sync"
	"testing"
)

type stubModel struct {
	p   float64
	err error
}

func (m *stubModel) Predict(string) (float64, error) { return m.p, m.err }
func (m *stubModel) Save(string) error               { return nil }

func TestHandle_Variants(t *testing.T) {
	if _, ok := NoClassifier.Loaded(); ok {
		t.Error("NoClassifier should not be loaded")
	}

	h := LoadedClassifier(&stubModel{p: 0.4}, 7)
	m, ok := h.Loaded()
	if !ok || m == nil {
		t.Fatal("LoadedClassifier should report a model")
	}
	if h.Version() != 7 {
		t.Errorf("version = %d, expected 7", h.Version())
	}
}

func TestClassifier_Swap(t *testing.T) {
	c := NewClassifier()
	if c.IsLoaded() {
		t.Fatal("new classifier should be empty")
	}

	c.Swap(&stubModel{p: 0.9}, 2)
	if !c.IsLoaded() || c.Handle().Version() != 2 {
		t.Errorf("expected version 2 loaded, got %+v", c.Handle())
	}

	c.Swap(nil, 3)
	if c.IsLoaded() {
		t.Error("swapping in nil should unload")
	}

	c.Swap(&stubModel{}, 4)
	c.Unload()
	if c.IsLoaded() {
		t.Error("Unload should drop the model")
	}
}

func TestClassifier_ConcurrentReadersSeeWholeHandles(t *testing.T) {
	c := NewClassifier()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				h := c.Handle()
				m, ok := h.Loaded()
				if ok != (m != nil) {
					t.Error("handle reported loaded without a model")
					return
				}
				if ok && h.Version() == 0 {
					t.Error("loaded handle without a version")
					return
				}
			}
		}()
	}
	for v := 1; v <= 100; v++ {
		c.Swap(&stubModel{p: 0.5}, v)
	}
	wg.Wait()
}

func TestCombineCategory(t *testing.T) {
	tests := []struct {
		name       string
		category   string
		lexicon    float64
		classifier float64
		expected   float64
	}{
		{"lexicon dominates", CategorySpam, 0.6, 0.2, 0.62},
		{"classifier higher than strong lexicon", CategoryHate, 0.8, 0.9, 0.95},
		{"classifier dominates weak lexicon", CategoryToxic, 0.05, 0.5, 0.365},
		{"at threshold is weak", CategoryOffensive, 0.5, 0.0, 0.15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CombineCategory(tt.category, tt.lexicon, tt.classifier)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("CombineCategory = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestCombiner_Merge(t *testing.T) {
	c := NewCombiner()
	lex := CategoryScores{Spam: MaxScore, Toxic: FloorScore, Hate: FloorScore, Offensive: FloorScore}

	got, used, err := c.Merge(lex, NoClassifier, "x")
	if err != nil || used || got != lex {
		t.Errorf("Merge without classifier = %+v, %v, %v; expected lexicon unchanged", got, used, err)
	}

	got, used, err = c.Merge(lex, LoadedClassifier(&stubModel{p: 0.5}, 1), "x")
	if err != nil || !used {
		t.Fatalf("Merge with classifier: used=%v err=%v", used, err)
	}
	if !approx(got.Spam, MaxScore) {
		t.Errorf("spam = %v, expected %v", got.Spam, MaxScore)
	}
	// toxic projection 0.5*0.7=0.35, weak lexicon: 0.35*0.7 + 0.05*0.3
	if !approx(got.Toxic, 0.26) {
		t.Errorf("toxic = %v, expected 0.26", got.Toxic)
	}

	boom := errors.New("boom")
	got, used, err = c.Merge(lex, LoadedClassifier(&stubModel{err: boom}, 1), "x")
	if !errors.Is(err, boom) || used || got != lex {
		t.Errorf("Merge with failing classifier = %+v, %v, %v", got, used, err)
	}
}

func TestFixedProjection(t *testing.T) {
	got := DefaultProjection().Project(1)
	expected := CategoryScores{Spam: 1, Toxic: 0.7, Hate: 0.6, Offensive: 0.8}
	if got != expected {
		t.Errorf("Project(1) = %+v, expected %+v", got, expected)
	}
}

func TestMetrics_Sanitized(t *testing.T) {
	m := Metrics{Accuracy: 0.9, Precision: math.NaN(), Recall: math.Inf(1), F1: math.Inf(-1)}

	got := m.Sanitized()
	if got.Accuracy != 0.9 || got.Precision != 0 || got.Recall != 0 || got.F1 != 0 {
		t.Errorf("Sanitized = %+v, expected non-finite values replaced with 0", got)
	}
}
