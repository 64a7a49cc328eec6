package assistbot

import (
	"context"
	"strings"
	"testing"
)

func newTestMachine() (*Machine, SessionStore) {
	bank := NewZungBank()
	store := NewMemorySessionStore()
	return NewMachine(bank, NewEngine(bank), store), store
}

func mustSession(t *testing.T, store SessionStore, userID int64) *Session {
	t.Helper()
	sess, err := store.Get(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	if sess == nil {
		t.Fatalf("expected a session for user %d", userID)
	}
	return sess
}

// answerAll runs userID through n valid answers with the given label and
// returns the last prompt.
func answerAll(t *testing.T, m *Machine, userID int64, label string, n int) Prompt {
	t.Helper()
	var p Prompt
	for i := 0; i < n; i++ {
		p = m.Handle(context.Background(), DecodeText(userID, label))
	}
	return p
}

// startQuiz drives userID from the main menu into question 1.
func startQuiz(t *testing.T, m *Machine, userID int64) Prompt {
	t.Helper()
	m.Handle(context.Background(), DecodeText(userID, MenuTestsLabel))
	return m.Handle(context.Background(), DecodeText(userID, ZungTestLabel))
}

// ══════════════════════════════════════════════
// Menu flow
// ══════════════════════════════════════════════

func TestMachine_StartShowsMainMenu(t *testing.T) {
	m, _ := newTestMachine()
	ev, _ := CommandEvent(1, "start")
	p := m.Handle(context.Background(), ev)
	if len(p.Options) != 4 || p.Options[0] != MenuTestsLabel {
		t.Fatalf("unexpected menu options: %v", p.Options)
	}
	if p.Columns != 2 {
		t.Fatalf("expected 2-column menu, got %d", p.Columns)
	}
}

func TestMachine_TestsOpensSelection(t *testing.T) {
	m, store := newTestMachine()
	p := m.Handle(context.Background(), DecodeText(1, MenuTestsLabel))
	if len(p.Options) != 2 || p.Options[0] != ZungTestLabel || p.Options[1] != MenuBackLabel {
		t.Fatalf("unexpected test list options: %v", p.Options)
	}
	if sess := mustSession(t, store, 1); sess.State != StateTestSelection {
		t.Fatalf("expected StateTestSelection, got %d", sess.State)
	}
}

func TestMachine_StubSections(t *testing.T) {
	m, store := newTestMachine()
	for _, label := range []string{MenuTrainersLabel, MenuMarathonsLabel} {
		p := m.Handle(context.Background(), DecodeText(1, label))
		if !strings.Contains(p.Text, "в разработке") {
			t.Fatalf("%q: expected stub text, got %q", label, p.Text)
		}
	}
	if sess, _ := store.Get(context.Background(), 1); sess != nil {
		t.Fatal("stub sections must not create sessions")
	}
}

func TestMachine_UnrecognizedTextReprompts(t *testing.T) {
	m, _ := newTestMachine()
	p := m.Handle(context.Background(), DecodeText(1, "привет"))
	if !strings.Contains(p.Text, "кнопки меню") {
		t.Fatalf("expected menu instructions, got %q", p.Text)
	}
	if len(p.Options) != 4 {
		t.Fatalf("expected main menu keyboard, got %v", p.Options)
	}
}

func TestMachine_BackLeavesSelection(t *testing.T) {
	m, store := newTestMachine()
	ctx := context.Background()
	m.Handle(ctx, DecodeText(1, MenuTestsLabel))
	m.Handle(ctx, DecodeText(1, MenuBackLabel))
	if sess, _ := store.Get(ctx, 1); sess != nil {
		t.Fatal("back must discard the selection session")
	}
}

func TestMachine_UnknownTextInSelectionReprompts(t *testing.T) {
	m, store := newTestMachine()
	ctx := context.Background()
	m.Handle(ctx, DecodeText(1, MenuTestsLabel))
	p := m.Handle(ctx, DecodeText(1, "какой-то другой тест"))
	if len(p.Options) != 2 || p.Options[0] != ZungTestLabel {
		t.Fatalf("expected test list reprompt, got %v", p.Options)
	}
	if sess := mustSession(t, store, 1); sess.State != StateTestSelection {
		t.Fatal("unrecognized selection input must not start the test")
	}
}

// ══════════════════════════════════════════════
// Quiz flow
// ══════════════════════════════════════════════

func TestMachine_ChooseTestEmitsFirstQuestion(t *testing.T) {
	m, store := newTestMachine()
	p := startQuiz(t, m, 1)
	if !strings.Contains(p.Text, "Вопрос 1/20") {
		t.Fatalf("expected question 1, got %q", p.Text)
	}
	if len(p.Options) != 4 {
		t.Fatalf("expected 4 answer options, got %v", p.Options)
	}
	sess := mustSession(t, store, 1)
	if sess.State != StateInProgress || sess.Index != 0 || len(sess.Scores) != 0 {
		t.Fatalf("unexpected fresh quiz session: %+v", sess)
	}
}

func TestMachine_ValidAnswerAdvances(t *testing.T) {
	m, store := newTestMachine()
	startQuiz(t, m, 1)
	p := m.Handle(context.Background(), DecodeText(1, "Иногда"))
	if !strings.Contains(p.Text, "Вопрос 2/20") {
		t.Fatalf("expected question 2, got %q", p.Text)
	}
	sess := mustSession(t, store, 1)
	if sess.Index != 1 || len(sess.Scores) != 1 || sess.Scores[0] != 2 {
		t.Fatalf("unexpected session after one answer: %+v", sess)
	}
}

// Invalid input never mutates the session and reprompts the same question.
func TestMachine_InvalidAnswerIdempotent(t *testing.T) {
	m, store := newTestMachine()
	startQuiz(t, m, 1)
	m.Handle(context.Background(), DecodeText(1, "Иногда"))

	for i := 0; i < 3; i++ {
		p := m.Handle(context.Background(), DecodeText(1, "ну такое"))
		if !strings.Contains(p.Text, "Вопрос 2/20") {
			t.Fatalf("expected question 2 reprompt, got %q", p.Text)
		}
		if !strings.Contains(p.Text, "кнопки для ответа") {
			t.Fatalf("expected invalid-answer warning, got %q", p.Text)
		}
		sess := mustSession(t, store, 1)
		if sess.Index != 1 || len(sess.Scores) != 1 {
			t.Fatalf("invalid input mutated session: %+v", sess)
		}
	}
}

// Menu button taps during a test are not answers either.
func TestMachine_MenuEventDuringQuizReprompts(t *testing.T) {
	m, store := newTestMachine()
	startQuiz(t, m, 1)
	p := m.Handle(context.Background(), DecodeText(1, MenuTestsLabel))
	if !strings.Contains(p.Text, "Вопрос 1/20") {
		t.Fatalf("expected question 1 reprompt, got %q", p.Text)
	}
	if sess := mustSession(t, store, 1); sess.Index != 0 {
		t.Fatalf("menu tap mutated session: %+v", sess)
	}
}

func TestMachine_FullRunClassifies(t *testing.T) {
	m, store := newTestMachine()
	startQuiz(t, m, 1)
	p := answerAll(t, m, 1, "Иногда", 20)

	if !strings.Contains(p.Text, "Тест завершен!") {
		t.Fatalf("expected completion, got %q", p.Text)
	}
	// 15 plain items at 2, 5 inverted at 3.
	if !strings.Contains(p.Text, "Ваш балл: 45") {
		t.Fatalf("expected total 45 in result, got %q", p.Text)
	}
	if !strings.Contains(p.Text, "Лёгкая или умеренная") {
		t.Fatalf("expected [45,59] band description, got %q", p.Text)
	}
	if len(p.Options) != 2 || p.Options[0] != MenuHomeLabel || p.Options[1] != MenuRepeatLabel {
		t.Fatalf("unexpected completion keyboard: %v", p.Options)
	}
	if sess, _ := store.Get(context.Background(), 1); sess != nil {
		t.Fatal("session must be cleared on completion")
	}
}

// After the 19th answer the next valid answer always yields a result,
// never another question.
func TestMachine_LastAnswerYieldsResult(t *testing.T) {
	m, _ := newTestMachine()
	startQuiz(t, m, 1)
	p := answerAll(t, m, 1, "Никогда или изредка", 19)
	if !strings.Contains(p.Text, "Вопрос 20/20") {
		t.Fatalf("expected question 20 before last answer, got %q", p.Text)
	}
	p = m.Handle(context.Background(), DecodeText(1, "Никогда или изредка"))
	if strings.Contains(p.Text, "Вопрос") {
		t.Fatalf("expected result after last answer, got question: %q", p.Text)
	}
	// 15 plain items at 1, 5 inverted at 4.
	if !strings.Contains(p.Text, "Ваш балл: 35") {
		t.Fatalf("expected total 35, got %q", p.Text)
	}
}

func TestMachine_RepeatRestartsQuiz(t *testing.T) {
	m, store := newTestMachine()
	startQuiz(t, m, 1)
	answerAll(t, m, 1, "Часто", 20)

	p := m.Handle(context.Background(), DecodeText(1, MenuRepeatLabel))
	if !strings.Contains(p.Text, "Вопрос 1/20") {
		t.Fatalf("expected a fresh question 1, got %q", p.Text)
	}
	sess := mustSession(t, store, 1)
	if sess.Index != 0 || len(sess.Scores) != 0 {
		t.Fatalf("repeat did not reset progress: %+v", sess)
	}
}

// ══════════════════════════════════════════════
// Cancellation & lost sessions
// ══════════════════════════════════════════════

func TestMachine_CancelClearsSession(t *testing.T) {
	m, store := newTestMachine()
	startQuiz(t, m, 1)
	answerAll(t, m, 1, "Часто", 5)

	ev, _ := CommandEvent(1, "cancel")
	p := m.Handle(context.Background(), ev)
	if !strings.Contains(p.Text, "прерван") {
		t.Fatalf("expected cancellation acknowledgement, got %q", p.Text)
	}
	if len(p.Options) != 4 {
		t.Fatalf("cancel must return to the main menu keyboard, got %v", p.Options)
	}
	if sess, _ := store.Get(context.Background(), 1); sess != nil {
		t.Fatal("cancel must discard the session")
	}
}

// A test selected after /cancel starts at question 0 with empty scores,
// never resuming the cancelled run.
func TestMachine_CancelThenRestart(t *testing.T) {
	m, store := newTestMachine()
	startQuiz(t, m, 1)
	answerAll(t, m, 1, "Очень часто или постоянно", 7)

	ev, _ := CommandEvent(1, "cancel")
	m.Handle(context.Background(), ev)

	p := startQuiz(t, m, 1)
	if !strings.Contains(p.Text, "Вопрос 1/20") {
		t.Fatalf("expected question 1 after restart, got %q", p.Text)
	}
	sess := mustSession(t, store, 1)
	if sess.Index != 0 || len(sess.Scores) != 0 {
		t.Fatalf("restart resumed cancelled session: %+v", sess)
	}
}

func TestMachine_StartDiscardsSession(t *testing.T) {
	m, store := newTestMachine()
	startQuiz(t, m, 1)
	answerAll(t, m, 1, "Иногда", 3)

	ev, _ := CommandEvent(1, "start")
	m.Handle(context.Background(), ev)
	if sess, _ := store.Get(context.Background(), 1); sess != nil {
		t.Fatal("/start must discard the session")
	}
}

// An answer label arriving with no session (e.g. after a restart) tells the
// user to start over instead of silently falling into the menu flow.
func TestMachine_AnswerWithoutSession(t *testing.T) {
	m, _ := newTestMachine()
	p := m.Handle(context.Background(), DecodeText(1, "Иногда"))
	if !strings.Contains(p.Text, "/start") {
		t.Fatalf("expected restart instruction, got %q", p.Text)
	}
}

// ══════════════════════════════════════════════
// Session isolation
// ══════════════════════════════════════════════

// Interleaved events for two users never leak progress across sessions.
func TestMachine_SessionIsolation(t *testing.T) {
	m, store := newTestMachine()
	ctx := context.Background()
	startQuiz(t, m, 1)
	startQuiz(t, m, 2)

	for i := 0; i < 4; i++ {
		m.Handle(ctx, DecodeText(1, "Часто"))
		if i%2 == 0 {
			m.Handle(ctx, DecodeText(2, "Иногда"))
		}
	}

	one := mustSession(t, store, 1)
	two := mustSession(t, store, 2)
	if one.Index != 4 || two.Index != 2 {
		t.Fatalf("interleaving leaked progress: user1=%+v user2=%+v", one, two)
	}
	for _, s := range one.Scores {
		if s != 3 {
			t.Fatalf("user 1 scores contaminated: %v", one.Scores)
		}
	}
	for _, s := range two.Scores {
		if s != 2 {
			t.Fatalf("user 2 scores contaminated: %v", two.Scores)
		}
	}
}

// Cancelling one user's test leaves the other's untouched.
func TestMachine_CancelIsPerUser(t *testing.T) {
	m, store := newTestMachine()
	startQuiz(t, m, 1)
	startQuiz(t, m, 2)
	answerAll(t, m, 2, "Иногда", 3)

	ev, _ := CommandEvent(1, "cancel")
	m.Handle(context.Background(), ev)

	if sess, _ := store.Get(context.Background(), 1); sess != nil {
		t.Fatal("user 1 session should be gone")
	}
	if sess := mustSession(t, store, 2); sess.Index != 3 {
		t.Fatalf("user 2 session affected by user 1 cancel: %+v", sess)
	}
}
