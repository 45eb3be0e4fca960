package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iamwavecut/masterbot/internal/adapters"
	"github.com/iamwavecut/masterbot/internal/adapters/llm/gemini"
	"github.com/iamwavecut/masterbot/internal/adapters/llm/openai"
	"github.com/iamwavecut/masterbot/internal/bot"
	"github.com/iamwavecut/masterbot/internal/config"
	"github.com/iamwavecut/masterbot/internal/db/sqlite"
	"github.com/iamwavecut/masterbot/internal/event"
	chat "github.com/iamwavecut/masterbot/internal/handlers/chat"
	moderation "github.com/iamwavecut/masterbot/internal/handlers/moderation"
	"github.com/iamwavecut/masterbot/internal/infra"
	"github.com/iamwavecut/masterbot/internal/infrastructure/telegram"
	"github.com/iamwavecut/masterbot/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithField("error", err.Error()).Fatalln("cant load config")
	}
	log.SetFormatter(&config.MbFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.Level(cfg.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := observability.Init(ctx, cfg.MetricsAddr); err != nil {
		log.WithField("error", err.Error()).Error("cant initialize observability")
	}
	defer event.RunWorker()()

	botAPI, err := api.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		log.WithError(err).Errorln("cant initialize bot api")
		time.Sleep(1 * time.Second)
		log.Fatalln("exiting")
	}
	if log.Level(cfg.LogLevel) == log.TraceLevel {
		botAPI.Debug = true
	}
	defer botAPI.StopReceivingUpdates()

	dbClient, err := sqlite.NewSQLiteClient(ctx, infra.GetWorkDir(), "bot.db")
	if err != nil {
		log.WithError(err).Fatalln("cant initialize storage")
	}
	defer dbClient.Close()

	service := bot.NewService(botAPI, dbClient, cfg)
	bot.RegisterReplySender(botAPI)
	replier := bot.NewQueueReplier()

	operations := telegram.NewOperations(botAPI)
	gate := moderation.NewPermissionGate(cfg, operations)
	resolver := moderation.NewTargetResolver(dbClient, dbClient, cfg.Moderation.MemberScanLimit)
	escalation := moderation.NewEscalationStore(dbClient)

	bot.RegisterUpdateHandler("globalban", moderation.NewGlobalBanEnforcer(dbClient, operations, replier, cfg.DefaultLanguage))
	bot.RegisterUpdateHandler("commands", chat.NewCommands(cfg, gate, escalation, operations, dbClient, replier))
	bot.RegisterUpdateHandler("moderator", moderation.NewModerator(cfg, gate, resolver, escalation, operations, replier))
	bot.RegisterUpdateHandler("persona", chat.NewPersona(cfg, personaModel(cfg), replier))

	updateConfig := api.NewUpdate(0)
	updateConfig.Timeout = 60
	updateProcessor := bot.NewUpdateProcessor(service)
	updateChan, errorChan := bot.GetUpdatesChans(ctx, botAPI, updateConfig)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case err := <-errorChan:
				return errors.WithMessage(err, "bot api get updates error")
			case update := <-updateChan:
				infra.GoRecoverable(-1, "process_update", func() {
					if err := updateProcessor.Process(ctx, &update); err != nil {
						log.WithError(err).Errorln("cant process update")
					}
				})
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
	g.Go(func() error {
		select {
		case <-infra.MonitorExecutable(ctx):
			return errors.New("executable file was modified")
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Errorln("shutting down")
	}
}

// personaModel picks the configured chat model, or none at all. The bot
// degrades to canned replies without a key.
func personaModel(cfg config.Config) adapters.LLM {
	if cfg.LLM.APIKey == "" {
		log.Info("no model api key, persona runs on local fallbacks")
		return nil
	}
	logger := log.WithField("context", "llm")
	var model adapters.LLM
	switch cfg.LLM.Type {
	case "gemini":
		model = gemini.NewGemini(cfg.LLM.APIKey, cfg.LLM.Model, logger)
	default:
		model = openai.NewOpenAI(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL, logger)
	}
	return model.WithSystemPrompt(chat.PersonaPrompt)
}
