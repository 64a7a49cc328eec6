package assistbot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// ──────────────────────────────────────────────
// Conversation State Machine
// ──────────────────────────────────────────────
//
// States: MAIN_MENU (session-less) → TEST_SELECTED → IN_PROGRESS → back to
// MAIN_MENU on completion or cancellation. The per-question position lives
// in the Session, not in named states. Handle is a total function: every
// inbound event yields exactly one outbound prompt; internal failures are
// logged and resolved to user-facing behavior, never to a crash.

const (
	mainMenuText = "✨ Бот-Ассистент Оксаны ✨\n\n" +
		"Доброго времени суток!\n" +
		"Добро пожаловать в надёжные руки ассистента Оксаны — Вашего психолога.\n\n" +
		"Здесь Вы можете найти полезные материалы из мира психологии, которые постоянно пополняются.\n\n" +
		"👇 Выберите раздел:"
	testListText     = "📚 Доступные тесты:\nВыберите тест для прохождения:"
	sectionStubText  = "Раздел в разработке 🛠"
	contactsText     = "📞 Связаться с Оксаной можно через личные сообщения."
	useMenuText      = "Пожалуйста, используйте кнопки меню"
	notStartedText   = "❌ Тест не был начат. Используйте /start"
	cancelledText    = "Диалог прерван. Возвращаю в главное меню."
	internalErrText  = "🚨 Произошла ошибка. Пожалуйста, начните тест заново."
	invalidAnswerFmt = "⚠️ Пожалуйста, используйте кнопки для ответа!\nДоступные варианты: %s\n\n%s"
	resultFmt        = "Тест завершен!\n\nВаш балл: %d\n%s"
)

// Machine maps (current state, inbound event) to (outbound prompt, next
// state), consulting the bank and scoring engine and mutating the session
// store. One Machine serves all users; per-user event ordering is the
// Dispatcher's job.
type Machine struct {
	bank    *Bank
	scoring *Engine
	store   SessionStore
}

// NewMachine wires a state machine over a bank, engine and session store.
func NewMachine(bank *Bank, scoring *Engine, store SessionStore) *Machine {
	return &Machine{bank: bank, scoring: scoring, store: store}
}

// Handle processes one inbound event and returns the outbound prompt.
func (m *Machine) Handle(ctx context.Context, ev Event) Prompt {
	// Commands work in every state and always discard the session.
	switch ev.Kind {
	case EventStart:
		m.discard(ctx, ev.UserID)
		return m.mainMenuPrompt(mainMenuText)
	case EventCancel:
		m.discard(ctx, ev.UserID)
		return m.mainMenuPrompt(cancelledText)
	}

	sess, err := m.store.Get(ctx, ev.UserID)
	if err != nil {
		return m.failSession(ctx, ev.UserID, fmt.Errorf("session load: %w", err))
	}
	if sess == nil {
		return m.handleMainMenu(ctx, ev)
	}

	switch sess.State {
	case StateTestSelection:
		return m.handleTestSelection(ctx, ev, sess)
	case StateInProgress:
		return m.handleAnswer(ctx, ev, sess)
	}
	return m.failSession(ctx, ev.UserID, fmt.Errorf("unknown session state %d", sess.State))
}

// handleMainMenu covers the session-less MAIN_MENU state.
func (m *Machine) handleMainMenu(ctx context.Context, ev Event) Prompt {
	switch ev.Kind {
	case EventMenuTests:
		if _, err := m.store.Create(ctx, ev.UserID); err != nil {
			return m.failSession(ctx, ev.UserID, fmt.Errorf("session create: %w", err))
		}
		return m.testListPrompt()
	case EventMenuMarathons, EventMenuTrainers:
		return Prompt{Text: sectionStubText}
	case EventMenuContacts:
		return Prompt{Text: contactsText}
	case EventMenuHome, EventBack:
		return m.mainMenuPrompt(mainMenuText)
	case EventMenuRepeat, EventChooseTest:
		return m.startTest(ctx, ev.UserID)
	}
	// A valid answer label with no session means the quiz state was lost
	// (e.g. process restart): tell the user to start over.
	if _, err := m.bank.OptionValue(ev.Text); err == nil {
		return m.mainMenuPrompt(notStartedText)
	}
	return m.mainMenuPrompt(useMenuText)
}

// handleTestSelection covers TEST_SELECTED.
func (m *Machine) handleTestSelection(ctx context.Context, ev Event, _ *Session) Prompt {
	switch ev.Kind {
	case EventChooseTest:
		return m.startTest(ctx, ev.UserID)
	case EventBack, EventMenuHome:
		m.discard(ctx, ev.UserID)
		return m.mainMenuPrompt(mainMenuText)
	}
	return m.testListPrompt()
}

// handleAnswer covers IN_PROGRESS. The question pointer only advances on a
// syntactically valid answer; invalid input never mutates the session.
func (m *Machine) handleAnswer(ctx context.Context, ev Event, sess *Session) Prompt {
	if ev.Kind != EventText {
		return m.repromptQuestion(sess)
	}
	score, err := m.scoring.ScoreAnswer(sess.Index+1, ev.Text)
	if errors.Is(err, ErrUnknownOption) {
		return m.repromptQuestion(sess)
	}
	if err != nil {
		return m.failSession(ctx, ev.UserID, fmt.Errorf("score answer: %w", err))
	}

	sess.Scores = append(sess.Scores, score)
	sess.Index++

	// Completion is detected strictly when the index reaches the question
	// count after the increment.
	if sess.Index == m.bank.Count() {
		return m.finishTest(ctx, sess)
	}

	if err := m.store.Save(ctx, sess); err != nil {
		return m.failSession(ctx, ev.UserID, fmt.Errorf("session save: %w", err))
	}
	return m.questionPrompt(sess.Index)
}

// startTest (re)creates the session in IN_PROGRESS and emits question 0.
func (m *Machine) startTest(ctx context.Context, userID int64) Prompt {
	sess, err := m.store.Create(ctx, userID)
	if err != nil {
		return m.failSession(ctx, userID, fmt.Errorf("session create: %w", err))
	}
	sess.State = StateInProgress
	if err := m.store.Save(ctx, sess); err != nil {
		return m.failSession(ctx, userID, fmt.Errorf("session save: %w", err))
	}
	return m.questionPrompt(0)
}

// finishTest sums the collected scores, classifies the total and clears the
// session. The session is gone either way: a classification failure is an
// internal invariant violation, fatal to this session only.
func (m *Machine) finishTest(ctx context.Context, sess *Session) Prompt {
	total := 0
	for _, s := range sess.Scores {
		total += s
	}
	m.discard(ctx, sess.UserID)

	band, err := m.scoring.Classify(total)
	if err != nil {
		log.Printf("[Machine] user %d: classify failed: %v", sess.UserID, err)
		return m.mainMenuPrompt(internalErrText)
	}
	return Prompt{
		Text:    fmt.Sprintf(resultFmt, total, band.Description),
		Options: []string{MenuHomeLabel, MenuRepeatLabel},
		Columns: 2,
		OneTime: true,
	}
}

// failSession is the recovery path for internal failures: log, discard the
// session, surface a generic message with the main menu.
func (m *Machine) failSession(ctx context.Context, userID int64, err error) Prompt {
	log.Printf("[Machine] user %d: %v", userID, err)
	m.discard(ctx, userID)
	return m.mainMenuPrompt(internalErrText)
}

func (m *Machine) discard(ctx context.Context, userID int64) {
	if err := m.store.Remove(ctx, userID); err != nil {
		log.Printf("[Machine] user %d: session remove: %v", userID, err)
	}
}

func (m *Machine) mainMenuPrompt(text string) Prompt {
	return Prompt{
		Text: text,
		Options: []string{
			MenuTestsLabel, MenuMarathonsLabel,
			MenuTrainersLabel, MenuContactsLabel,
		},
		Columns: 2,
	}
}

func (m *Machine) testListPrompt() Prompt {
	return Prompt{
		Text:    testListText,
		Options: []string{ZungTestLabel, MenuBackLabel},
	}
}

func (m *Machine) questionPrompt(index int) Prompt {
	q, err := m.bank.QuestionAt(index)
	if err != nil {
		// Unreachable while the session invariants hold.
		log.Printf("[Machine] question lookup: %v", err)
		return m.mainMenuPrompt(internalErrText)
	}
	return Prompt{
		Text:    fmt.Sprintf("Вопрос %d/%d\n\n%s", q.Ordinal, m.bank.Count(), q.Text),
		Options: m.bank.OptionLabels(),
		OneTime: true,
	}
}

// repromptQuestion re-emits the current question with a warning, leaving the
// session untouched.
func (m *Machine) repromptQuestion(sess *Session) Prompt {
	q := m.questionPrompt(sess.Index)
	q.Text = fmt.Sprintf(invalidAnswerFmt, strings.Join(m.bank.OptionLabels(), ", "), q.Text)
	return q
}
