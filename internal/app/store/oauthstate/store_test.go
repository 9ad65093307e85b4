package oauthstate_test

import (
	"testing"
	"time"

	"github.com/celulahub/celulahub/internal/app/store/oauthstate"
	"github.com/celulahub/celulahub/internal/testutil"
)

func TestStore_IssueConsume(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	state, err := store.Issue(ctx, "/reports", 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	url, ok, err := store.Consume(ctx, state)
	if err != nil || !ok || url != "/reports" {
		t.Fatalf("Consume: url=%q ok=%v err=%v", url, ok, err)
	}

	// One-time use.
	if _, ok, _ := store.Consume(ctx, state); ok {
		t.Error("state should not be reusable")
	}
}

func TestStore_Consume_ExpiredOrUnknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	state, err := store.Issue(ctx, "", time.Millisecond)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	tests := []string{state, "unknown", ""}
	for _, s := range tests {
		if _, ok, err := store.Consume(ctx, s); ok || err != nil {
			t.Errorf("Consume(%q): ok=%v err=%v", s, ok, err)
		}
	}
}
