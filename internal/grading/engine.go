// Package grading converts raw answers into awarded points and
// normalized 0-20 results.
package grading

import "strings"

// Q is the minimal view of a question needed for checking an answer.
type Q struct {
	Type          string
	Score         float64
	CorrectAnswer string
}

// Outcome is the result of checking a single answer.
type Outcome struct {
	Correct bool
	Awarded float64
}

// Strategy checks a single answer against its question.
type Strategy interface {
	Check(q Q, answer string) Outcome
}

// Grader routes by question type to the right Strategy.
type Grader interface {
	Check(q Q, answer string) Outcome
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Check(q Q, answer string) Outcome {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Outcome{}
	}
	return s.Check(q, answer)
}

// NewDefaultGrader installs the built-in strategies.
func NewDefaultGrader() Grader {
	return &defaultGrader{
		strategies: map[string]Strategy{
			"multiple_choice": keyMatchStrategy{},
			"true_false":      keyMatchStrategy{},
			"essay":           essayStrategy{},
		},
	}
}

// keyMatchStrategy compares case-insensitively after trimming
// whitespace.
type keyMatchStrategy struct{}

func (keyMatchStrategy) Check(q Q, answer string) Outcome {
	if q.CorrectAnswer == "" {
		return Outcome{}
	}
	if strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.CorrectAnswer)) {
		return Outcome{Correct: true, Awarded: q.Score}
	}
	return Outcome{}
}

// essayStrategy awards nothing until a manual override exists.
type essayStrategy struct{}

func (essayStrategy) Check(Q, string) Outcome { return Outcome{} }
