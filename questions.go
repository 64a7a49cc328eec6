package assistbot

import (
	"errors"
	"fmt"
)

// ──────────────────────────────────────────────
// Question Bank — static questionnaire data
// ──────────────────────────────────────────────

// Sentinel errors for bank lookups. Callers branch with errors.Is.
var (
	// ErrOutOfRange is returned for a question index outside [0, Count).
	ErrOutOfRange = errors.New("question index out of range")
	// ErrUnknownOption is returned for a label that is not a valid answer option.
	ErrUnknownOption = errors.New("unknown answer option")
)

// Question is a single questionnaire item. Ordinal is 1-based and stable.
type Question struct {
	Ordinal int
	Text    string
}

// AnswerOption pairs a display label with its raw score value.
type AnswerOption struct {
	Label string
	Value int
}

// ResultBand maps a contiguous total-score range to a severity description.
// Bands are non-overlapping and together cover the full reachable range.
type ResultBand struct {
	Min         int
	Max         int
	Description string
}

// Bank is the read-only question bank for one questionnaire: ordered
// questions, the fixed answer options, the set of inverted ordinals and the
// result bands. A Bank is immutable after construction and safe for
// unsynchronized concurrent reads.
type Bank struct {
	title     string
	questions []Question
	options   []AnswerOption
	values    map[string]int
	inverted  map[int]bool
	bands     []ResultBand
}

// NewBank builds a Bank from raw data. Questions receive ordinals 1..n in
// the given order.
func NewBank(title string, questions []string, options []AnswerOption, inverted []int, bands []ResultBand) *Bank {
	b := &Bank{
		title:    title,
		options:  options,
		values:   make(map[string]int, len(options)),
		inverted: make(map[int]bool, len(inverted)),
		bands:    bands,
	}
	for i, text := range questions {
		b.questions = append(b.questions, Question{Ordinal: i + 1, Text: text})
	}
	for _, opt := range options {
		b.values[opt.Label] = opt.Value
	}
	for _, ord := range inverted {
		b.inverted[ord] = true
	}
	return b
}

// Title returns the questionnaire display name.
func (b *Bank) Title() string { return b.title }

// Count returns the number of questions.
func (b *Bank) Count() int { return len(b.questions) }

// QuestionAt returns the question at 0-based index i.
func (b *Bank) QuestionAt(i int) (Question, error) {
	if i < 0 || i >= len(b.questions) {
		return Question{}, fmt.Errorf("%w: %d of %d", ErrOutOfRange, i, len(b.questions))
	}
	return b.questions[i], nil
}

// OptionValue returns the raw score for an answer label.
func (b *Bank) OptionValue(label string) (int, error) {
	v, ok := b.values[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownOption, label)
	}
	return v, nil
}

// OptionLabels returns the answer labels in display order.
func (b *Bank) OptionLabels() []string {
	labels := make([]string, len(b.options))
	for i, opt := range b.options {
		labels[i] = opt.Label
	}
	return labels
}

// OptionRange returns the minimum and maximum raw option values.
func (b *Bank) OptionRange() (min, max int) {
	min, max = b.options[0].Value, b.options[0].Value
	for _, opt := range b.options[1:] {
		if opt.Value < min {
			min = opt.Value
		}
		if opt.Value > max {
			max = opt.Value
		}
	}
	return min, max
}

// IsInverted reports whether the 1-based ordinal is a reverse-phrased item.
func (b *Bank) IsInverted(ordinal int) bool { return b.inverted[ordinal] }

// Bands returns the result bands in ascending score order.
func (b *Bank) Bands() []ResultBand { return b.bands }

// ──────────────────────────────────────────────
// Zung Self-Rating Anxiety Scale
// ──────────────────────────────────────────────

// ZungTestLabel is the display name shown in the test selection list.
const ZungTestLabel = "Шкала Занга (Тревога)"

var zungQuestions = []string{
	"Я чувствую себя более нервным(ой) и тревожным(ой), чем обычно",
	"Я испытываю чувство страха без всякой причины",
	"Я легко огорчаюсь или впадаю в панику",
	"У меня ощущение, что я не могу собраться и взять себя в руки",
	"У меня ощущение полного благополучия, я чувствую, что со мной не случится ничего плохого",
	"Мои руки и ноги дрожат и трясутся",
	"Меня беспокоят головные боли, боли в шее и спине",
	"Я чувствую слабость и быстро устаю",
	"Я спокоен(йна) и могу сидеть спокойно без особых усилий",
	"У меня бывает ощущение учащённого сердцебиения",
	"Меня беспокоят приступы головокружения",
	"У меня бывают обмороки или ощущение, что я вот-вот упаду в обморок",
	"Я дышу свободно",
	"Я испытываю онемение и покалывание в пальцах рук и ног",
	"Меня беспокоят боли в желудке и расстройство пищеварения",
	"Мне часто хочется в туалет",
	"Мои руки обычно сухие и тёплые",
	"Моё лицо краснеет и горит",
	"Я легко засыпаю и сплю глубоким освежающим сном",
	"Меня мучают ночные кошмары",
}

var zungOptions = []AnswerOption{
	{Label: "Никогда или изредка", Value: 1},
	{Label: "Иногда", Value: 2},
	{Label: "Часто", Value: 3},
	{Label: "Очень часто или постоянно", Value: 4},
}

// Reverse-phrased items: a high raw value means low anxiety.
var zungInverted = []int{5, 9, 13, 17, 19}

var zungBands = []ResultBand{
	{Min: 20, Max: 44, Description: "Тревога в пределах нормы. Выраженных признаков тревожного состояния не выявлено."},
	{Min: 45, Max: 59, Description: "Лёгкая или умеренная тревожность. Рекомендуется обратить внимание на режим отдыха и уровень нагрузки."},
	{Min: 60, Max: 74, Description: "Выраженная тревожность. Рекомендуется консультация специалиста."},
	{Min: 75, Max: 80, Description: "Крайне выраженная тревожность. Настоятельно рекомендуется обратиться к специалисту."},
}

// NewZungBank returns the Zung Self-Rating Anxiety Scale: 20 items on a 1–4
// scale, five reverse-phrased items, totals in [20, 80].
func NewZungBank() *Bank {
	return NewBank(ZungTestLabel, zungQuestions, zungOptions, zungInverted, zungBands)
}
