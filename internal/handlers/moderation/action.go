package handlers

import (
	"regexp"
)

type Action string

const (
	ActionNone   Action = ""
	ActionMute   Action = "mute"
	ActionUnmute Action = "unmute"
	ActionBan    Action = "ban"
	ActionUnban  Action = "unban"
	ActionKick   Action = "kick"
)

// Keyword sets are tolerant of English and transliterated Hindi synonyms.
// The check order is a deliberate tie-break: a message matching several
// categories classifies as the first one.
var actionPatterns = []struct {
	action  Action
	pattern *regexp.Regexp
}{
	{ActionMute, regexp.MustCompile(`\b(mute|chup|silent|silence|restrict|restricted)\b`)},
	{ActionUnmute, regexp.MustCompile(`\b(unmute|allow|undo mute|remove mute|kholo|bolne do)\b`)},
	{ActionBan, regexp.MustCompile(`\b(ban|nikal|remove from group|ban karo|nikal do)\b`)},
	{ActionUnban, regexp.MustCompile(`\b(unban|wapis|unblock|remove ban|unban karo)\b`)},
	{ActionKick, regexp.MustCompile(`\b(kick|kick out|bahar|nakaal)\b`)},
}

// actionHintPattern is the broad relevance check the dispatcher runs before
// doing any lookups. Substring match on purpose, it only gates whether the
// message is worth classifying at all.
var actionHintPattern = regexp.MustCompile(`(mute|unmute|ban|unban|kick|nikal|chup|remove|allow|unblock)`)

// DetectAction classifies lower-cased text into a moderation action.
func DetectAction(lowerText string) Action {
	for _, candidate := range actionPatterns {
		if candidate.pattern.MatchString(lowerText) {
			return candidate.action
		}
	}
	return ActionNone
}

// HasActionHint reports whether lower-cased text contains any action-ish
// keyword at all.
func HasActionHint(lowerText string) bool {
	return actionHintPattern.MatchString(lowerText)
}
