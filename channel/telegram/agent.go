// Package telegram is the transport adapter: it turns platform updates into
// core events and renders outbound prompts as messages with reply keyboards.
// The conversation core never sees platform types.
package telegram

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	imbotapi "github.com/imbot-io/imbot-sdk-go"

	"github.com/oksana-psy/assistbot"
)

// BotAgent runs the bot: long-polls for updates, decodes them into events,
// feeds the dispatcher and delivers the resulting prompts.
//
// Usage:
//
//	config, _ := telegram.NewBotConfigFromEnv()
//	agent, _ := telegram.NewBotAgent(config, machine)
//	agent.Run()
type BotAgent struct {
	// Config is the agent configuration.
	Config *BotConfig
	// Bot is the underlying bot API client.
	Bot *imbotapi.BotAPI
	// Dispatcher serializes events per user.
	Dispatcher *assistbot.Dispatcher
}

// NewBotAgent creates the agent and its dispatcher from configuration.
func NewBotAgent(config *BotConfig, machine *assistbot.Machine) (*BotAgent, error) {
	bot, err := imbotapi.NewBotAPI(config.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	bot.Debug = config.Debug

	agent := &BotAgent{Config: config, Bot: bot}
	agent.Dispatcher = assistbot.NewDispatcher(machine, agent.deliver)
	return agent, nil
}

// Use registers a middleware on the underlying dispatcher.
func (a *BotAgent) Use(mw assistbot.MiddlewareFunc) {
	a.Dispatcher.Use(mw)
}

// Run starts polling and blocks until SIGINT/SIGTERM.
func (a *BotAgent) Run() {
	log.Printf("[BotAgent] %s", a.Config.Summary())
	log.Printf("[BotAgent] Authorized on account %s", a.Bot.Self.UserName)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.runPolling(ctx)

	log.Println("[BotAgent] Bot is running. Press Ctrl+C to stop.")
	<-sigChan

	log.Println("[BotAgent] Shutting down...")
	a.Bot.StopReceivingUpdates()
	log.Println("[BotAgent] Goodbye!")
}

// runPolling long-polls for updates and dispatches them.
func (a *BotAgent) runPolling(ctx context.Context) {
	u := imbotapi.NewUpdate(0)
	u.Timeout = a.Config.PollTimeout
	updates := a.Bot.GetUpdatesChan(u)

	log.Println("[BotAgent] Polling for updates...")

	for update := range updates {
		ev, ok := a.decode(update)
		if !ok {
			continue
		}
		a.Dispatcher.Dispatch(ctx, ev)
	}
}

// decode turns an update into a core event. Only private-chat text messages
// are conversational input; everything else is dropped here.
func (a *BotAgent) decode(update imbotapi.Update) (assistbot.Event, bool) {
	msg := update.Message
	if msg == nil || msg.Text == "" || msg.From == nil {
		return assistbot.Event{}, false
	}
	if msg.Chat == nil || msg.Chat.Type != "private" {
		return assistbot.Event{}, false
	}

	userID, err := strconv.ParseInt(msg.From.ID, 10, 64)
	if err != nil {
		return assistbot.Event{}, false
	}

	if msg.IsCommand() {
		ev, ok := assistbot.CommandEvent(userID, msg.Command())
		if !ok && a.Config.Debug {
			log.Printf("[BotAgent] Unknown command /%s from %d", msg.Command(), userID)
		}
		return ev, ok
	}
	return assistbot.DecodeText(userID, msg.Text), true
}

// deliver sends one prompt back to the user. Best-effort: a send failure is
// logged and never retried; session state has already moved on.
func (a *BotAgent) deliver(ev assistbot.Event, prompt assistbot.Prompt) {
	msg := imbotapi.NewMessage(strconv.FormatInt(ev.UserID, 10), prompt.Text)
	if len(prompt.Options) > 0 {
		msg.ReplyMarkup = buildKeyboard(prompt)
	}
	if _, err := a.Bot.Send(msg); err != nil {
		log.Printf("[BotAgent] Send to %d failed: %v", ev.UserID, err)
	}
}

// buildKeyboard chunks prompt options into keyboard rows of prompt.Columns
// buttons (one per row when unset).
func buildKeyboard(prompt assistbot.Prompt) imbotapi.ReplyKeyboardMarkup {
	cols := prompt.Columns
	if cols < 1 {
		cols = 1
	}
	var rows [][]imbotapi.KeyboardButton
	for start := 0; start < len(prompt.Options); start += cols {
		end := start + cols
		if end > len(prompt.Options) {
			end = len(prompt.Options)
		}
		var row []imbotapi.KeyboardButton
		for _, label := range prompt.Options[start:end] {
			row = append(row, imbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, imbotapi.NewKeyboardButtonRow(row...))
	}

	kb := imbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = prompt.OneTime
	return kb
}
