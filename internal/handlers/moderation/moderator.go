package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pborman/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/iamwavecut/masterbot/internal/bot"
	"github.com/iamwavecut/masterbot/internal/config"
	"github.com/iamwavecut/masterbot/internal/db"
	errs "github.com/iamwavecut/masterbot/internal/errors"
	"github.com/iamwavecut/masterbot/internal/i18n"
	"github.com/iamwavecut/masterbot/internal/observability"
)

// rejectionReplies maps a screening failure to its metric outcome and
// user-facing reply.
var rejectionReplies = map[error]struct {
	outcome string
	text    string
}{
	errs.ErrUnauthorized: {"unauthorized", "You are not allowed to perform moderation actions."},
	errs.ErrNoTarget:     {"no_target", "Cannot detect the target user. Reply to the user or mention them with @username."},
	errs.ErrNoAction:     {"no_action", "No recognized moderation action found (mute/unmute/ban/unban/kick)."},
}

// TriggerWord gates both moderation and conversational handling in groups.
const TriggerWord = "master"

type moderationActions interface {
	RestrictUser(ctx context.Context, chatID, userID int64, until time.Time) error
	UnrestrictUser(ctx context.Context, chatID, userID int64) error
	BanUser(ctx context.Context, chatID, userID int64) error
	UnbanUser(ctx context.Context, chatID, userID int64) error
}

// Moderator is the keyword-triggered moderation pipeline: trigger check,
// permission check, target resolution, action classification, execution.
type Moderator struct {
	cfg        config.Config
	gate       *PermissionGate
	resolver   *TargetResolver
	escalation *EscalationStore
	actions    moderationActions
	replier    bot.Replier
}

func NewModerator(
	cfg config.Config,
	gate *PermissionGate,
	resolver *TargetResolver,
	escalation *EscalationStore,
	actions moderationActions,
	replier bot.Replier,
) *Moderator {
	m := &Moderator{
		cfg:        cfg,
		gate:       gate,
		resolver:   resolver,
		escalation: escalation,
		actions:    actions,
		replier:    replier,
	}
	m.getLogEntry().Debug("created new moderator")
	return m
}

func (m *Moderator) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	if u.Message == nil || chat == nil || user == nil || user.IsBot {
		return true, nil
	}
	if !chat.IsGroup() && !chat.IsSuperGroup() {
		return true, nil
	}

	req := NewRequest(u.Message)
	if req.Text == "" {
		return true, nil
	}

	if m.isApology(req.LowerText) {
		m.handleApology(ctx, req)
		return false, nil
	}

	if !req.MentionsTrigger(TriggerWord) {
		return true, nil
	}
	if !HasActionHint(req.LowerText) {
		// trigger word without moderation keywords, let the persona answer
		return true, nil
	}

	m.runPipeline(ctx, req)
	return false, nil
}

func (m *Moderator) runPipeline(ctx context.Context, req *Request) {
	ctx, span := otel.Tracer("masterbot/moderation").Start(ctx, "keyword_pipeline")
	defer span.End()
	stopTimer := observability.StartPipelineTimer()

	entry := m.getLogEntry().WithFields(log.Fields{
		"chat_id":  req.ChatID,
		"user_id":  req.Sender.ID,
		"trace_id": uuid.NewRandom().String(),
	})
	target, action, err := m.screen(ctx, req)
	if err != nil {
		rejection := rejectionReplies[err]
		entry.WithField("error", err.Error()).Debug("moderation request rejected")
		m.reply(req, i18n.Get(rejection.text, m.cfg.DefaultLanguage))
		stopTimer(rejection.outcome)
		return
	}

	entry = entry.WithFields(log.Fields{"action": action, "target_id": target.ID})
	entry.Info("executing moderation action")
	m.execute(ctx, req, action, target.ID, target.DisplayName())
	stopTimer(string(action))
}

// screen runs the pre-execution checks of the pipeline and reports the
// first failing one as a sentinel error.
func (m *Moderator) screen(ctx context.Context, req *Request) (*db.UserMeta, Action, error) {
	if !m.gate.CanModerate(ctx, req.ChatID, req.Sender.ID) {
		return nil, ActionNone, errs.ErrUnauthorized
	}
	target := m.resolver.Resolve(ctx, req)
	if target == nil || target.ID == 0 {
		return nil, ActionNone, errs.ErrNoTarget
	}
	action := DetectAction(req.LowerText)
	if action == ActionNone {
		return nil, ActionNone, errs.ErrNoAction
	}
	return target, action, nil
}

func (m *Moderator) execute(ctx context.Context, req *Request, action Action, targetID int64, targetName string) {
	entry := m.getLogEntry().WithFields(log.Fields{"action": action, "target_id": targetID})
	lang := m.cfg.DefaultLanguage

	var err error
	switch action {
	case ActionMute:
		duration, found := ParseDuration(req.LowerText)
		if !found {
			duration = m.cfg.Moderation.DefaultMuteDuration
		}
		err = m.actions.RestrictUser(ctx, req.ChatID, targetID, time.Now().Add(duration))
		if err == nil {
			m.reply(req, fmt.Sprintf(i18n.Get("%s muted for %s.", lang), targetName, duration))
		} else {
			m.reply(req, i18n.Get("Mute failed.", lang))
		}

	case ActionUnmute:
		err = m.actions.UnrestrictUser(ctx, req.ChatID, targetID)
		if err == nil {
			m.reply(req, fmt.Sprintf(i18n.Get("%s has been unmuted.", lang), targetName))
		} else {
			m.reply(req, i18n.Get("Unmute failed.", lang))
		}

	case ActionBan:
		err = m.actions.BanUser(ctx, req.ChatID, targetID)
		if err == nil {
			m.reply(req, fmt.Sprintf(i18n.Get("%s has been banned.", lang), targetName))
		} else {
			m.reply(req, i18n.Get("Ban failed.", lang))
		}

	case ActionUnban:
		err = m.actions.UnbanUser(ctx, req.ChatID, targetID)
		if err == nil {
			m.reply(req, fmt.Sprintf(i18n.Get("%s has been unbanned.", lang), targetName))
		} else {
			m.reply(req, fmt.Sprintf(i18n.Get("%s was not banned or unban failed.", lang), targetName))
		}

	case ActionKick:
		// remove and allow rejoin
		err = m.actions.BanUser(ctx, req.ChatID, targetID)
		if err == nil {
			err = m.actions.UnbanUser(ctx, req.ChatID, targetID)
		}
		if err == nil {
			m.reply(req, fmt.Sprintf(i18n.Get("%s has been kicked.", lang), targetName))
		} else {
			m.reply(req, i18n.Get("Kick failed.", lang))
		}
	}

	if err != nil {
		entry.WithField("error", err.Error()).Error("moderation action failed")
	}
	observability.RecordModerationAction(string(action), err == nil)
}

func (m *Moderator) isApology(lowerText string) bool {
	return strings.Contains(lowerText, TriggerWord+" sorry") || strings.Contains(lowerText, "sorry "+TriggerWord)
}

// handleApology resets the sender's own infraction count. Self-service, no
// permission check.
func (m *Moderator) handleApology(ctx context.Context, req *Request) {
	if err := m.escalation.ResetInfractions(ctx, req.Sender.ID, req.ChatID); err != nil {
		m.getLogEntry().WithFields(log.Fields{
			"chat_id": req.ChatID,
			"user_id": req.Sender.ID,
			"error":   err.Error(),
		}).Error("cant reset infractions")
	}
	name := req.Sender.FirstName
	if name == "" {
		name = req.Sender.UserName
	}
	m.reply(req, fmt.Sprintf(
		i18n.Get("%s, your spam limits have been reset. Be careful!", m.cfg.DefaultLanguage), name))
}

func (m *Moderator) reply(req *Request, text string) {
	m.replier.Reply(req.ChatID, req.MessageID, text)
}

func (m *Moderator) getLogEntry() *log.Entry {
	return log.WithField("context", "moderator")
}
