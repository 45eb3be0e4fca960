package handlers

import (
	"context"
	"strings"
	"testing"
	"unicode/utf16"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"

	"github.com/iamwavecut/masterbot/internal/db"
)

type fakeUserLookup struct {
	users map[string]*db.UserMeta
	err   error
}

func (f *fakeUserLookup) GetUserByUsername(_ context.Context, username string) (*db.UserMeta, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[strings.ToLower(strings.TrimPrefix(username, "@"))], nil
}

type fakeMemberLister struct {
	members []*db.UserMeta
	err     error
}

func (f *fakeMemberLister) ListRecentMembers(context.Context, int64, int) ([]*db.UserMeta, error) {
	return f.members, f.err
}

func metaUser(id int64, firstName, username string) *db.UserMeta {
	return &db.UserMeta{ID: id, FirstName: firstName, UserName: username}
}

func moderationRequest(text string) *Request {
	return NewRequest(&api.Message{
		MessageID: 1,
		Chat:      api.Chat{ID: -100, Type: "supergroup"},
		From:      &api.User{ID: 1, FirstName: "Admin"},
		Text:      text,
	})
}

func TestResolvePrefersReplyAuthor(t *testing.T) {
	t.Parallel()

	lookup := &fakeUserLookup{users: map[string]*db.UserMeta{
		"johndoe123": metaUser(42, "John", "johndoe123"),
	}}
	resolver := NewTargetResolver(lookup, &fakeMemberLister{}, 200)

	req := moderationRequest("master ban @johndoe123")
	req.ReplyTo = &api.Message{
		MessageID: 2,
		Chat:      api.Chat{ID: -100},
		From:      &api.User{ID: 99, FirstName: "Replied"},
	}

	got := resolver.Resolve(context.Background(), req)
	if got == nil || got.ID != 99 {
		t.Fatalf("Resolve() = %+v, want reply author 99", got)
	}
}

func TestResolveTextMentionEntity(t *testing.T) {
	t.Parallel()

	resolver := NewTargetResolver(&fakeUserLookup{}, &fakeMemberLister{}, 200)

	req := moderationRequest("master mute John")
	req.Entities = []api.MessageEntity{
		{Type: "text_mention", Offset: 12, Length: 4, User: &api.User{ID: 55, FirstName: "John"}},
	}

	got := resolver.Resolve(context.Background(), req)
	if got == nil || got.ID != 55 {
		t.Fatalf("Resolve() = %+v, want text_mention user 55", got)
	}
}

func TestResolveMentionEntityViaLookup(t *testing.T) {
	t.Parallel()

	lookup := &fakeUserLookup{users: map[string]*db.UserMeta{
		"johndoe123": metaUser(42, "John", "johndoe123"),
	}}
	resolver := NewTargetResolver(lookup, &fakeMemberLister{}, 200)

	text := "master ban @johndoe123 for spam"
	req := moderationRequest(text)
	offset := strings.Index(text, "@johndoe123")
	req.Entities = []api.MessageEntity{
		{Type: "mention", Offset: offset, Length: len("@johndoe123")},
	}

	got := resolver.Resolve(context.Background(), req)
	if got == nil || got.ID != 42 {
		t.Fatalf("Resolve() = %+v, want mention user 42", got)
	}
}

func TestEntitySliceCountsUTF16Units(t *testing.T) {
	t.Parallel()

	// Telegram offsets count UTF-16 code units: the emoji is two units
	// and four bytes, each Devanagari letter one unit and three bytes.
	for _, tt := range []struct {
		name   string
		text   string
		prefix string
		want   string
	}{
		{"ascii only", "master ban @johndoe123", "master ban ", "johndoe123"},
		{"emoji before mention", "🔥 master ban @johndoe123", "🔥 master ban ", "johndoe123"},
		{"devanagari before mention", "मालिक ban @johndoe123", "मालिक ban ", "johndoe123"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			entity := api.MessageEntity{
				Type:   "mention",
				Offset: len(utf16.Encode([]rune(tt.prefix))),
				Length: len("@johndoe123"),
			}
			if got := entitySlice(tt.text, entity); got != tt.want {
				t.Fatalf("entitySlice(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestEntitySliceRejectsOutOfRange(t *testing.T) {
	t.Parallel()

	if got := entitySlice("short", api.MessageEntity{Offset: 2, Length: 40}); got != "" {
		t.Fatalf("entitySlice() = %q, want empty for out-of-range entity", got)
	}
}

func TestResolveRawHandleWithoutEntity(t *testing.T) {
	t.Parallel()

	lookup := &fakeUserLookup{users: map[string]*db.UserMeta{
		"johndoe123": metaUser(42, "John", "johndoe123"),
	}}
	resolver := NewTargetResolver(lookup, &fakeMemberLister{}, 200)

	got := resolver.Resolve(context.Background(), moderationRequest("master ban @johndoe123 for spam"))
	if got == nil || got.ID != 42 {
		t.Fatalf("Resolve() = %+v, want raw-mention user 42", got)
	}
}

func TestResolveFallsBackToMemberScan(t *testing.T) {
	t.Parallel()

	lister := &fakeMemberLister{members: []*db.UserMeta{
		metaUser(10, "Alice", "alice_w"),
		metaUser(11, "John", "johnny_b"),
	}}
	resolver := NewTargetResolver(&fakeUserLookup{}, lister, 200)

	got := resolver.Resolve(context.Background(), moderationRequest("master john calm down"))
	if got == nil || got.ID != 11 {
		t.Fatalf("Resolve() = %+v, want scanned member 11", got)
	}
}

func TestResolveLookupFailureAdvancesChain(t *testing.T) {
	t.Parallel()

	lookup := &fakeUserLookup{err: errors.New("storage offline")}
	lister := &fakeMemberLister{members: []*db.UserMeta{
		metaUser(42, "Johnny", "other_name"),
	}}
	resolver := NewTargetResolver(lookup, lister, 200)

	got := resolver.Resolve(context.Background(), moderationRequest("master johnny @johndoe123"))
	if got == nil || got.ID != 42 {
		t.Fatalf("Resolve() = %+v, want member-scan fallback 42", got)
	}
}

func TestResolveMemberScanFirstTokenFallback(t *testing.T) {
	t.Parallel()

	lister := &fakeMemberLister{members: []*db.UserMeta{
		metaUser(10, "Alice", "alice_w"),
	}}
	resolver := NewTargetResolver(&fakeUserLookup{}, lister, 200)

	got := resolver.Resolve(context.Background(), moderationRequest("alice_w is spamming again"))
	if got == nil || got.ID != 10 {
		t.Fatalf("Resolve() = %+v, want first-token member 10", got)
	}
}

func TestResolveMemberScanSingleCandidateOnly(t *testing.T) {
	t.Parallel()

	// The candidate here is "mute", the word after the trigger. Names
	// appearing later in the message must not be matched, the request
	// stays unresolved instead of guessing a member.
	lister := &fakeMemberLister{members: []*db.UserMeta{
		metaUser(10, "Bob", "bob_r"),
		metaUser(11, "Alice", "alice_w"),
	}}
	resolver := NewTargetResolver(&fakeUserLookup{}, lister, 200)

	got := resolver.Resolve(context.Background(), moderationRequest("master mute alice because bob asked"))
	if got != nil {
		t.Fatalf("Resolve() = %+v, want nil for unresolvable candidate", got)
	}
}

func TestResolveNothingMatches(t *testing.T) {
	t.Parallel()

	resolver := NewTargetResolver(&fakeUserLookup{}, &fakeMemberLister{}, 200)

	if got := resolver.Resolve(context.Background(), moderationRequest("master mute someone")); got != nil {
		t.Fatalf("Resolve() = %+v, want nil", got)
	}
}
