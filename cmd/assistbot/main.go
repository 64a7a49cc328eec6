package main

import (
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/oksana-psy/assistbot"
	"github.com/oksana-psy/assistbot/channel/telegram"
	"github.com/oksana-psy/assistbot/store"
)

func main() {
	config, err := telegram.NewBotConfigFromEnv()
	if err != nil {
		log.Fatalf("[Main] %v", err)
	}
	telegram.SetupLogging(config.Debug, config.LogFile)

	bank := assistbot.NewZungBank()
	machine := assistbot.NewMachine(bank, assistbot.NewEngine(bank), newSessionStore(config))

	agent, err := telegram.NewBotAgent(config, machine)
	if err != nil {
		log.Fatalf("[Main] %v", err)
	}

	if config.Debug {
		agent.Use(func(ctx *assistbot.MiddlewareContext, next assistbot.NextFunc) {
			log.Printf("[Main] user %d event kind=%d text=%q", ctx.Event.UserID, ctx.Event.Kind, ctx.Event.Text)
			next()
		})
	}

	agent.Run()
}

// newSessionStore picks the session backend: Redis when REDIS_ADDR is set,
// process memory otherwise.
func newSessionStore(config *telegram.BotConfig) assistbot.SessionStore {
	if config.RedisAddr == "" {
		log.Println("[Main] Using in-memory sessions")
		return assistbot.NewMemorySessionStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
	})
	log.Printf("[Main] Using Redis sessions at %s", config.RedisAddr)
	return store.NewRedisSessionStore(client, store.RedisConfig{TTL: config.SessionTTL})
}
