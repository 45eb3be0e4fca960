package handlers

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/masterbot/internal/db"
)

type userLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*db.UserMeta, error)
}

type memberLister interface {
	ListRecentMembers(ctx context.Context, chatID int64, limit int) ([]*db.UserMeta, error)
}

var (
	rawMentionPattern    = regexp.MustCompile(`@([A-Za-z0-9_]{5,})`)
	nameCandidatePattern = regexp.MustCompile(`(?i)master(?:\s+|:)\s*([A-Za-z0-9_ ]{2,40})`)
)

// TargetResolver determines which user a moderation message refers to, via
// a prioritized fallback chain. Every step may fail independently, a
// failure just advances the chain.
type TargetResolver struct {
	users     userLookup
	members   memberLister
	scanLimit int
}

func NewTargetResolver(users userLookup, members memberLister, scanLimit int) *TargetResolver {
	return &TargetResolver{
		users:     users,
		members:   members,
		scanLimit: scanLimit,
	}
}

// Resolve returns the target user or nil when every strategy came up empty.
func (r *TargetResolver) Resolve(ctx context.Context, req *Request) *db.UserMeta {
	entry := log.WithFields(log.Fields{"context": "target_resolver", "chat_id": req.ChatID})

	// 1) author of the replied-to message
	if req.ReplyTo != nil && req.ReplyTo.From != nil {
		return userMetaFromAPI(req.ReplyTo.From)
	}

	// 2) text_mention entity carries the user directly
	for _, entity := range req.Entities {
		if entity.Type == "text_mention" && entity.User != nil {
			return userMetaFromAPI(entity.User)
		}
	}

	// 3) mention entity, resolve @username through the lookup
	for _, entity := range req.Entities {
		if entity.Type != "mention" {
			continue
		}
		mention := entitySlice(req.Text, entity)
		if mention == "" {
			continue
		}
		user, err := r.users.GetUserByUsername(ctx, mention)
		if err != nil {
			entry.WithField("error", err.Error()).Debug("mention entity lookup failed")
			continue
		}
		if user != nil {
			return user
		}
	}

	// 4) raw @username anywhere in text
	if match := rawMentionPattern.FindStringSubmatch(req.Text); match != nil {
		user, err := r.users.GetUserByUsername(ctx, match[1])
		if err != nil {
			entry.WithField("error", err.Error()).Debug("raw mention lookup failed")
		} else if user != nil {
			return user
		}
	}

	// 5) best-effort name match among recent members, bounded scan.
	// Exactly one candidate token is considered, it is not broadened
	// to other words of the message.
	if candidate := nameCandidate(req.Text); candidate != "" {
		members, err := r.members.ListRecentMembers(ctx, req.ChatID, r.scanLimit)
		if err != nil {
			entry.WithField("error", err.Error()).Debug("member scan failed")
			return nil
		}
		for _, member := range members {
			if member == nil {
				continue
			}
			if strings.EqualFold(member.UserName, candidate) || strings.EqualFold(member.FirstName, candidate) {
				return member
			}
		}
	}

	return nil
}

// nameCandidate picks the single token that may be a member name: the
// first word following the trigger, otherwise the first word of the
// message.
func nameCandidate(text string) string {
	if match := nameCandidatePattern.FindStringSubmatch(text); match != nil {
		if fields := strings.Fields(match[1]); len(fields) > 0 {
			return fields[0]
		}
	}
	if fields := strings.Fields(text); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// entitySlice cuts the entity's text out of the message, without the
// leading @. Telegram counts entity offsets in UTF-16 code units, so
// the byte range has to be recovered rune by rune. Out-of-range
// entities yield "".
func entitySlice(text string, entity api.MessageEntity) string {
	start := entity.Offset
	end := entity.Offset + entity.Length
	if start < 0 || end <= start {
		return ""
	}
	byteStart, byteEnd := -1, -1
	units := 0
	for i, r := range text {
		if units == start {
			byteStart = i
		}
		units += utf16.RuneLen(r)
		if units == end {
			byteEnd = i + utf8.RuneLen(r)
			break
		}
	}
	if byteStart < 0 || byteEnd < 0 {
		return ""
	}
	return strings.TrimPrefix(text[byteStart:byteEnd], "@")
}

func userMetaFromAPI(user *api.User) *db.UserMeta {
	return &db.UserMeta{
		ID:           user.ID,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		UserName:     user.UserName,
		LanguageCode: user.LanguageCode,
		IsBot:        user.IsBot,
	}
}
