package handlers

import (
	"context"
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"

	"github.com/iamwavecut/masterbot/internal/db"
)

type fakeGlobalBanStore struct {
	banned   map[int64]bool
	checkErr error

	upserted []int64
	touched  [][2]int64
}

func (f *fakeGlobalBanStore) IsGloballyBanned(_ context.Context, userID int64) (bool, error) {
	if f.checkErr != nil {
		return false, f.checkErr
	}
	return f.banned[userID], nil
}

func (f *fakeGlobalBanStore) UpsertUser(_ context.Context, user *db.UserMeta) error {
	f.upserted = append(f.upserted, user.ID)
	return nil
}

func (f *fakeGlobalBanStore) TouchChatMember(_ context.Context, chatID, userID int64) error {
	f.touched = append(f.touched, [2]int64{chatID, userID})
	return nil
}

type fakeMessageRemover struct {
	deleted [][2]int64
}

func (f *fakeMessageRemover) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	f.deleted = append(f.deleted, [2]int64{chatID, int64(messageID)})
	return nil
}

func TestGlobalBanEnforcerDeletesAndNotifiesOnce(t *testing.T) {
	t.Parallel()

	store := &fakeGlobalBanStore{banned: map[int64]bool{42: true}}
	remover := &fakeMessageRemover{}
	replier := &fakeReplier{}
	enforcer := NewGlobalBanEnforcer(store, remover, replier, "en")

	u, chat, sender := groupUpdate("hello everyone", &api.User{ID: 42, FirstName: "John"})

	proceed, err := enforcer.Handle(context.Background(), u, chat, sender)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proceed {
		t.Fatal("banned sender's message must stop the chain")
	}
	if len(remover.deleted) != 1 || remover.deleted[0] != [2]int64{-100, 10} {
		t.Fatalf("deleted = %v, want the offending message", remover.deleted)
	}
	if len(replier.replies) != 1 || replier.replies[0].text != "John is globally banned from this group." {
		t.Fatalf("replies = %v, want exactly one notice", replier.replies)
	}
}

func TestGlobalBanEnforcerIgnoresTriggerWords(t *testing.T) {
	t.Parallel()

	store := &fakeGlobalBanStore{banned: map[int64]bool{42: true}}
	remover := &fakeMessageRemover{}
	replier := &fakeReplier{}
	enforcer := NewGlobalBanEnforcer(store, remover, replier, "en")

	// enforcement does not depend on the message addressing the bot
	u, chat, sender := groupUpdate("master ban @someone else", &api.User{ID: 42, FirstName: "John"})

	proceed, _ := enforcer.Handle(context.Background(), u, chat, sender)
	if proceed || len(remover.deleted) != 1 || len(replier.replies) != 1 {
		t.Fatalf("enforcement must fire regardless of content, deleted=%v replies=%v", remover.deleted, replier.replies)
	}
}

func TestGlobalBanEnforcerPassesCleanUsers(t *testing.T) {
	t.Parallel()

	store := &fakeGlobalBanStore{banned: map[int64]bool{}}
	remover := &fakeMessageRemover{}
	replier := &fakeReplier{}
	enforcer := NewGlobalBanEnforcer(store, remover, replier, "en")

	u, chat, sender := groupUpdate("hello everyone", &api.User{ID: 7, FirstName: "Alice"})

	proceed, err := enforcer.Handle(context.Background(), u, chat, sender)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !proceed {
		t.Fatal("clean users proceed down the chain")
	}
	if len(remover.deleted) != 0 || len(replier.replies) != 0 {
		t.Fatal("no enforcement for clean users")
	}
}

func TestGlobalBanEnforcerRecordsSeenUsers(t *testing.T) {
	t.Parallel()

	store := &fakeGlobalBanStore{banned: map[int64]bool{}}
	enforcer := NewGlobalBanEnforcer(store, &fakeMessageRemover{}, &fakeReplier{}, "en")

	u, chat, sender := groupUpdate("hello", &api.User{ID: 7, FirstName: "Alice", UserName: "alice_w"})

	if _, err := enforcer.Handle(context.Background(), u, chat, sender); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.upserted) != 1 || store.upserted[0] != 7 {
		t.Fatalf("upserted = %v, want the sender", store.upserted)
	}
	if len(store.touched) != 1 || store.touched[0] != [2]int64{-100, 7} {
		t.Fatalf("touched = %v, want membership record", store.touched)
	}
}

func TestGlobalBanEnforcerFailsOpenOnStoreError(t *testing.T) {
	t.Parallel()

	store := &fakeGlobalBanStore{checkErr: errors.New("storage offline")}
	remover := &fakeMessageRemover{}
	replier := &fakeReplier{}
	enforcer := NewGlobalBanEnforcer(store, remover, replier, "en")

	u, chat, sender := groupUpdate("hello", &api.User{ID: 42, FirstName: "John"})

	proceed, err := enforcer.Handle(context.Background(), u, chat, sender)
	if err != nil {
		t.Fatalf("store errors must not bubble up: %v", err)
	}
	if !proceed || len(remover.deleted) != 0 {
		t.Fatal("a failing ban check must not block regular users")
	}
}
