// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import "context"

//go:generate mockgen -destination=mocks/classifier.go -package=mocks . ExampleCorpus,Classifier

type ExampleSet struct {
	Positive []Vector
	Negative []Vector
}

type Decision struct {
	MessageId  string
	Score      float64
	IsPositive bool

	// similarities the score was derived from
	PositiveSimilarity float64
	NegativeSimilarity float64
}

type ExampleCorpus interface {
	Build(ctx context.Context, source ExampleSource) (*ExampleSet, error)
}

type Classifier interface {
	Decide(candidate Vector, examples *ExampleSet, threshold float64) (*Decision, error)
}
