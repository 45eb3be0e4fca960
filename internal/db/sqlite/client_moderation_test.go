package sqlite

import (
	"context"
	"testing"

	"github.com/iamwavecut/masterbot/internal/db"
)

func dbUser(id int64, firstName, username string) *db.UserMeta {
	return &db.UserMeta{ID: id, FirstName: firstName, UserName: username}
}

func newTestClient(t *testing.T) *sqliteClient {
	t.Helper()

	client, err := NewSQLiteClient(context.Background(), t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGetInfractionAbsentBehavesAsZero(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()

	infraction, err := client.GetInfraction(ctx, 100, 200)
	if err != nil {
		t.Fatalf("get infraction: %v", err)
	}
	if infraction.SpamCount != 0 {
		t.Fatalf("expected zero count for absent record, got %d", infraction.SpamCount)
	}
}

func TestIncrementInfractionReturnsNewCount(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := client.IncrementInfraction(ctx, 100, 200)
		if err != nil {
			t.Fatalf("increment #%d: %v", want, err)
		}
		if got != want {
			t.Fatalf("increment #%d: expected count %d, got %d", want, want, got)
		}
	}

	// other pairs are untouched
	other, err := client.GetInfraction(ctx, 100, 201)
	if err != nil {
		t.Fatalf("get other infraction: %v", err)
	}
	if other.SpamCount != 0 {
		t.Fatalf("unexpected count for other chat: %d", other.SpamCount)
	}
}

func TestResetInfractionsIsIdempotent(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()

	if _, err := client.IncrementInfraction(ctx, 100, 200); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := client.ResetInfractions(ctx, 100, 200); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := client.ResetInfractions(ctx, 100, 200); err != nil {
		t.Fatalf("second reset: %v", err)
	}

	infraction, err := client.GetInfraction(ctx, 100, 200)
	if err != nil {
		t.Fatalf("get infraction: %v", err)
	}
	if infraction.SpamCount != 0 {
		t.Fatalf("expected zero after reset, got %d", infraction.SpamCount)
	}

	got, err := client.IncrementInfraction(ctx, 100, 200)
	if err != nil {
		t.Fatalf("increment after reset: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected count 1 after reset, got %d", got)
	}
}

func TestGlobalBanFlag(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()

	banned, err := client.IsGloballyBanned(ctx, 100)
	if err != nil {
		t.Fatalf("is banned (absent): %v", err)
	}
	if banned {
		t.Fatal("expected absent record to read as not banned")
	}

	if err := client.SetGlobalBan(ctx, 100, true); err != nil {
		t.Fatalf("set ban: %v", err)
	}
	banned, err = client.IsGloballyBanned(ctx, 100)
	if err != nil {
		t.Fatalf("is banned: %v", err)
	}
	if !banned {
		t.Fatal("expected banned")
	}

	if err := client.SetGlobalBan(ctx, 100, false); err != nil {
		t.Fatalf("clear ban: %v", err)
	}
	banned, err = client.IsGloballyBanned(ctx, 100)
	if err != nil {
		t.Fatalf("is banned after clear: %v", err)
	}
	if banned {
		t.Fatal("expected not banned after clear")
	}
}

func TestUserLookupByUsernameIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()

	if err := client.UpsertUser(ctx, dbUser(42, "John", "johndoe123")); err != nil {
		t.Fatalf("upsert user: %v", err)
	}

	user, err := client.GetUserByUsername(ctx, "@JohnDoe123")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user == nil || user.ID != 42 {
		t.Fatalf("unexpected user: %+v", user)
	}

	missing, err := client.GetUserByUsername(ctx, "nobody")
	if err != nil {
		t.Fatalf("get missing user: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown username, got %+v", missing)
	}
}

func TestListRecentMembersHonorsLimit(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		if err := client.UpsertUser(ctx, dbUser(i, "User", "")); err != nil {
			t.Fatalf("upsert user %d: %v", i, err)
		}
		if err := client.TouchChatMember(ctx, 200, i); err != nil {
			t.Fatalf("touch member %d: %v", i, err)
		}
	}

	members, err := client.ListRecentMembers(ctx, 200, 3)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}
}
