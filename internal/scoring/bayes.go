package scoring

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	classPositive = 0
	classNegative = 1
)

// NaiveBayes is a two-class multinomial naive Bayes text classifier with Laplace smoothing.
type NaiveBayes struct {
	Docs        [2]int            `msgpack:"docs"`
	TokenTotals [2]int            `msgpack:"token_totals"`
	Freq        map[string][2]int `msgpack:"freq"`
}

// TrainNaiveBayes fits a model on examples and evaluates it on the same examples.
func TrainNaiveBayes(examples []Example) (*NaiveBayes, Metrics, error) {
	if len(examples) == 0 {
		return nil, Metrics{}, errors.New("no training examples")
	}
	nb := &NaiveBayes{Freq: make(map[string][2]int)}
	for _, ex := range examples {
		nb.learn(ex)
	}
	return nb, nb.evaluate(examples), nil
}

func (nb *NaiveBayes) learn(ex Example) {
	class := classNegative
	if ex.Positive {
		class = classPositive
	}
	nb.Docs[class]++
	for token, n := range tokenize(ex.Text) {
		f := nb.Freq[token]
		f[class] += n
		nb.Freq[token] = f
		nb.TokenTotals[class] += n
	}
}

// Predict returns the probability that text belongs to the positive class.
func (nb *NaiveBayes) Predict(text string) (float64, error) {
	totalDocs := nb.Docs[0] + nb.Docs[1]
	if totalDocs == 0 {
		return 0, ErrModelNotLoaded
	}
	vocab := float64(len(nb.Freq))
	var logp [2]float64
	for class := range logp {
		logp[class] = math.Log(float64(nb.Docs[class]+1) / float64(totalDocs+2))
	}
	for token, n := range tokenize(text) {
		f := nb.Freq[token]
		for class := range logp {
			p := float64(f[class]+1) / (float64(nb.TokenTotals[class]) + vocab + 1)
			logp[class] += float64(n) * math.Log(p)
		}
	}
	// softmax over two log-likelihoods
	diff := logp[classNegative] - logp[classPositive]
	return 1 / (1 + math.Exp(diff)), nil
}

func (nb *NaiveBayes) evaluate(examples []Example) Metrics {
	var tp, fp, tn, fn float64
	for _, ex := range examples {
		p, err := nb.Predict(ex.Text)
		predicted := err == nil && p >= 0.5
		switch {
		case predicted && ex.Positive:
			tp++
		case predicted && !ex.Positive:
			fp++
		case !predicted && ex.Positive:
			fn++
		default:
			tn++
		}
	}
	m := Metrics{
		Accuracy:  (tp + tn) / (tp + tn + fp + fn),
		Precision: tp / (tp + fp),
		Recall:    tp / (tp + fn),
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

// Save writes the model to path as msgpack, creating parent directories.
func (nb *NaiveBayes) Save(path string) error {
	data, err := msgpack.Marshal(nb)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// LoadNaiveBayes reads a model written by Save.
func LoadNaiveBayes(path string) (*NaiveBayes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	nb := &NaiveBayes{}
	if err := msgpack.Unmarshal(data, nb); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if nb.Freq == nil {
		nb.Freq = make(map[string][2]int)
	}
	return nb, nil
}

// tokenize returns lower-cased word frequencies, dropping surrounding punctuation and one-letter tokens.
func tokenize(text string) map[string]int {
	freq := make(map[string]int)
	for _, token := range strings.Fields(text) {
		token = strings.ToLower(strings.Trim(token, ".,!?-:;()#\"'*"))
		if len([]rune(token)) < 2 {
			continue
		}
		freq[token]++
	}
	return freq
}
