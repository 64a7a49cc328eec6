package assistbot

import (
	"errors"
	"fmt"
)

// ──────────────────────────────────────────────
// Scoring Engine — inversion and classification
// ──────────────────────────────────────────────

// ErrScoreOutOfRange is returned by Classify when no band contains the
// total. Given the fixed option range this cannot happen for a well-formed
// bank; it signals an internal invariant violation, not bad user input.
var ErrScoreOutOfRange = errors.New("total score outside all result bands")

// Engine scores individual answers and classifies totals against a Bank.
type Engine struct {
	bank *Bank
}

// NewEngine creates a scoring engine over the given bank.
func NewEngine(bank *Bank) *Engine {
	return &Engine{bank: bank}
}

// ScoreAnswer resolves an answer label to its scored value for the 1-based
// question ordinal. Reverse-phrased items are reflected around the middle of
// the option scale: score = min + max − raw (5 − raw on the 1–4 scale).
// Returns ErrUnknownOption (wrapped) when the label is not a valid option.
func (e *Engine) ScoreAnswer(ordinal int, label string) (int, error) {
	raw, err := e.bank.OptionValue(label)
	if err != nil {
		return 0, err
	}
	if e.bank.IsInverted(ordinal) {
		min, max := e.bank.OptionRange()
		return min + max - raw, nil
	}
	return raw, nil
}

// Classify finds the result band containing the total score.
func (e *Engine) Classify(total int) (ResultBand, error) {
	for _, band := range e.bank.Bands() {
		if total >= band.Min && total <= band.Max {
			return band, nil
		}
	}
	return ResultBand{}, fmt.Errorf("%w: %d", ErrScoreOutOfRange, total)
}
