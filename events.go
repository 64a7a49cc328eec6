package assistbot

// ──────────────────────────────────────────────
// Events & Prompts — the transport boundary
// ──────────────────────────────────────────────
//
// Free-form display text is decoded into tagged events exactly once, at the
// transport boundary. The state machine switches on EventKind and never
// pattern-matches on button captions. Answer labels stay in Event.Text and
// are resolved against the question bank, which is a data lookup.

// Menu button captions, as rendered by the original bot surface.
const (
	MenuTestsLabel     = "🧪 Тесты"
	MenuMarathonsLabel = "🏃 Марафоны"
	MenuTrainersLabel  = "💪 Тренажёры"
	MenuContactsLabel  = "📞 Контакты"
	MenuBackLabel      = "🔙 Назад"
	MenuHomeLabel      = "🏠 Главное меню"
	MenuRepeatLabel    = "🔄 Повторить тест"
)

// EventKind tags an inbound event.
type EventKind int

const (
	// EventText is free text: an answer label candidate or anything else.
	EventText EventKind = iota
	// EventStart is the /start command.
	EventStart
	// EventCancel is the /cancel command.
	EventCancel
	// EventMenuTests opens the test selection list.
	EventMenuTests
	// EventMenuMarathons opens the marathons section.
	EventMenuMarathons
	// EventMenuTrainers opens the trainers section.
	EventMenuTrainers
	// EventMenuContacts opens the contacts section.
	EventMenuContacts
	// EventBack leaves test selection for the main menu.
	EventBack
	// EventMenuHome returns to the main menu from the completion keyboard.
	EventMenuHome
	// EventMenuRepeat restarts the test from the completion keyboard.
	EventMenuRepeat
	// EventChooseTest selects the questionnaire in the test list.
	EventChooseTest
)

// Event is a single inbound user event.
type Event struct {
	UserID int64
	Kind   EventKind
	Text   string
}

// CommandEvent decodes a slash command (without the leading slash) into an
// event. The second return is false for unrecognized commands.
func CommandEvent(userID int64, command string) (Event, bool) {
	switch command {
	case "start":
		return Event{UserID: userID, Kind: EventStart}, true
	case "cancel":
		return Event{UserID: userID, Kind: EventCancel}, true
	}
	return Event{}, false
}

// DecodeText decodes a plain text message into a tagged event. Known button
// captions map to their menu events; everything else stays EventText.
func DecodeText(userID int64, text string) Event {
	kind := EventText
	switch text {
	case MenuTestsLabel:
		kind = EventMenuTests
	case MenuMarathonsLabel:
		kind = EventMenuMarathons
	case MenuTrainersLabel:
		kind = EventMenuTrainers
	case MenuContactsLabel:
		kind = EventMenuContacts
	case MenuBackLabel:
		kind = EventBack
	case MenuHomeLabel:
		kind = EventMenuHome
	case MenuRepeatLabel:
		kind = EventMenuRepeat
	case ZungTestLabel:
		kind = EventChooseTest
	}
	return Event{UserID: userID, Kind: kind, Text: text}
}

// Prompt is the single outbound message produced by a transition.
//
// Options, when present, are the only inputs the core accepts as a valid
// answer in the immediately following in-progress event. Columns is a
// rendering hint: how many options per keyboard row (0 or 1 means one per
// row). OneTime asks the transport to hide the keyboard after one use.
type Prompt struct {
	Text    string
	Options []string
	Columns int
	OneTime bool
}
