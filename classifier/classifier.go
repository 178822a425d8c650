// SPDX-License-Identifier: GPL-3.0-or-later
package classifier

import (
	"fmt"
	"math"

	"github.com/CrawX/go-mail-receptionist/domain"
)

type Aggregation string

const (
	// Nearest compares with the most similar example of each side.
	Nearest Aggregation = "nearest"
	// Centroid compares with the mean vector of each side, relative to how close the side's own
	// examples are to that mean.
	Centroid Aggregation = "centroid"
)

type SimilarityClassifier struct {
	aggregation Aggregation
}

func NewClassifier(aggregation Aggregation) (*SimilarityClassifier, error) {
	switch aggregation {
	case "":
		aggregation = Nearest
	case Nearest, Centroid:
	default:
		return nil, fmt.Errorf("unknown aggregation %s", aggregation)
	}

	return &SimilarityClassifier{aggregation: aggregation}, nil
}

// Decide scores candidate against the example set. p and n are the clamped cosine similarities to
// the positive and negative side, the score is 100 * clamp(p - max(0, n - p)): it only drops when
// the candidate is closer to the negative side. A score equal to threshold is positive.
//
// With Centroid aggregation the similarity to a mean vector is divided by the side's cohesion, the
// average similarity of its examples to that mean, so a candidate as close to the centroid as a
// typical example scores like one matching an example under Nearest.
func (c *SimilarityClassifier) Decide(candidate domain.Vector, examples *domain.ExampleSet, threshold float64) (*domain.Decision, error) {
	if examples == nil || len(examples.Positive) == 0 {
		return nil, fmt.Errorf("%w: no positive examples", domain.ErrEmptyExamples)
	}
	if len(examples.Negative) == 0 {
		return nil, fmt.Errorf("%w: no negative examples", domain.ErrEmptyExamples)
	}

	p, err := c.similarity(candidate, examples.Positive)
	if err != nil {
		return nil, err
	}
	n, err := c.similarity(candidate, examples.Negative)
	if err != nil {
		return nil, err
	}

	score := 100 * clamp(p-math.Max(0, n-p))

	return &domain.Decision{
		Score:              score,
		IsPositive:         score >= threshold,
		PositiveSimilarity: p,
		NegativeSimilarity: n,
	}, nil
}

func (c *SimilarityClassifier) similarity(candidate domain.Vector, examples []domain.Vector) (float64, error) {
	if c.aggregation == Centroid {
		centroid, err := mean(examples)
		if err != nil {
			return 0, err
		}
		sim, err := Cosine(candidate, centroid)
		if err != nil {
			return 0, err
		}
		coh, err := cohesion(examples, centroid)
		if err != nil || coh == 0 {
			return 0, err
		}
		return clamp(sim / coh), nil
	}

	best := 0.0
	for _, e := range examples {
		sim, err := Cosine(candidate, e)
		if err != nil {
			return 0, err
		}
		best = math.Max(best, sim)
	}
	return best, nil
}

func mean(vectors []domain.Vector) (domain.Vector, error) {
	dims := len(vectors[0])
	sum := make([]float64, dims)
	for _, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("%w: %d and %d", domain.ErrDimensionMismatch, dims, len(v))
		}
		for i, x := range v {
			sum[i] += float64(x)
		}
	}

	centroid := make(domain.Vector, dims)
	for i, x := range sum {
		centroid[i] = float32(x / float64(len(vectors)))
	}
	return centroid, nil
}

// cohesion is the mean cosine similarity of examples to their centroid, 1 for a single example.
func cohesion(examples []domain.Vector, centroid domain.Vector) (float64, error) {
	sum := 0.0
	for _, e := range examples {
		sim, err := Cosine(e, centroid)
		if err != nil {
			return 0, err
		}
		sum += sim
	}
	return sum / float64(len(examples)), nil
}

// Cosine returns the cosine similarity of a and b clamped to [0,1]. Zero vectors have similarity 0.
func Cosine(a, b domain.Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d and %d", domain.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}

	return clamp(dot / math.Sqrt(na*nb)), nil
}

func clamp(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
