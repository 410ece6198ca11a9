package service

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/microvote/microvote/internal/models"
	"github.com/microvote/microvote/internal/quorum"
	"github.com/microvote/microvote/internal/store"
	"github.com/microvote/microvote/internal/store/memory"
)

const (
	testChatID = int64(-1001)
	alice      = int64(100)
	bob        = int64(200)
	carol      = int64(300)
)

// newTestService returns a service on an in-memory store with a controllable
// clock starting at second 1000.
func newTestService(t *testing.T) (*Service, store.Store, *int64) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	st := memory.New()
	svc := New(st, logger)
	now := int64(1000)
	svc.now = func() int64 { return now }
	return svc, st, &now
}

// seedChat creates the test chat with the given users marked active at the
// current fake time.
func seedChat(t *testing.T, svc *Service, users ...int64) {
	t.Helper()
	ctx := context.Background()
	for _, userID := range users {
		if err := svc.LogUser(ctx, testChatID, "Test Group", userID); err != nil {
			t.Fatalf("LogUser(%d): %v", userID, err)
		}
	}
}

// seedPoll creates and persists an open 60-minute poll with three options.
func seedPoll(t *testing.T, svc *Service, creator int64, options ...string) *models.Poll {
	t.Helper()
	if len(options) == 0 {
		options = []string{"one", "two", "three"}
	}
	poll := &models.Poll{
		ID:      svc.now(),
		ChatID:  testChatID,
		Minutes: 60,
		Name:    "Test Poll",
		Desc:    "A test poll",
		Options: options,
		Width:   models.DefaultWidth,
		ChatPop: 10,
		Quorum:  quorum.Zero,
		Votes:   make(map[int64]models.Vote),
	}
	status, err := svc.NewPoll(context.Background(), poll, LawRefs(options), creator)
	if err != nil {
		t.Fatalf("NewPoll: %v", err)
	}
	if status != ItemSuccess {
		t.Fatalf("NewPoll status = %v, want ItemSuccess", status)
	}
	return poll
}

func TestCastVoteNonexist(t *testing.T) {
	svc, _, _ := newTestService(t)
	status, _, err := svc.CastVote(context.Background(), 999999, alice, []int{1}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if status != VoteNonexist {
		t.Errorf("status = %v, want VoteNonexist", status)
	}
}

func TestCastVoteExpired(t *testing.T) {
	svc, _, now := newTestService(t)
	seedChat(t, svc, alice)
	poll := seedPoll(t, svc, alice)

	*now = poll.ClosesAt() // close boundary is exclusive for voting

	status, _, err := svc.CastVote(context.Background(), poll.ID, alice, []int{1, 2, 3}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if status != VoteExpired {
		t.Errorf("status = %v, want VoteExpired", status)
	}
}

func TestCastVoteUnauthorisedWithoutLastSeen(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedChat(t, svc, alice)
	poll := seedPoll(t, svc, alice)

	// Bob has never messaged in the chat.
	status, _, err := svc.CastVote(context.Background(), poll.ID, bob, []int{1, 2, 3}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if status != VoteUnauthorised {
		t.Errorf("status = %v, want VoteUnauthorised", status)
	}
}

func TestCastVoteWrongOptionCount(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedChat(t, svc, alice, bob)
	poll := seedPoll(t, svc, alice)

	for _, scores := range [][]int{nil, {1}, {1, 2}, {1, 2, 3, 4}} {
		status, _, err := svc.CastVote(context.Background(), poll.ID, bob, scores, 10)
		if err != nil {
			t.Fatal(err)
		}
		if status != VoteInvalidNumOptions {
			t.Errorf("scores %v: status = %v, want VoteInvalidNumOptions", scores, status)
		}
	}
}

func TestCastVoteScoreRange(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedChat(t, svc, alice, bob)
	poll := seedPoll(t, svc, alice)

	for _, scores := range [][]int{{-1, 2, 3}, {1, 6, 3}, {0, 0, 100}} {
		status, _, err := svc.CastVote(context.Background(), poll.ID, bob, scores, 10)
		if err != nil {
			t.Fatal(err)
		}
		if status != VoteInvalidScore {
			t.Errorf("scores %v: status = %v, want VoteInvalidScore", scores, status)
		}
	}

	// Bounds are inclusive.
	status, _, err := svc.CastVote(context.Background(), poll.ID, bob, []int{0, 5, 3}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if status != VoteSuccess {
		t.Errorf("status = %v, want VoteSuccess", status)
	}
}

func TestCastVoteOverwrites(t *testing.T) {
	svc, st, now := newTestService(t)
	seedChat(t, svc, alice, bob)
	poll := seedPoll(t, svc, alice)

	ctx := context.Background()
	if status, _, _ := svc.CastVote(ctx, poll.ID, bob, []int{1, 1, 1}, 10); status != VoteSuccess {
		t.Fatalf("first cast: %v", status)
	}
	*now += 60
	if status, _, _ := svc.CastVote(ctx, poll.ID, bob, []int{5, 5, 5}, 10); status != VoteSuccess {
		t.Fatalf("second cast: %v", status)
	}

	stored, err := st.Poll(ctx, poll.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Votes) != 1 {
		t.Fatalf("votes stored = %d, want exactly 1 per user", len(stored.Votes))
	}
	vote := stored.Votes[bob]
	if vote.Scores[0] != 5 {
		t.Errorf("vote scores = %v, want the overwriting cast", vote.Scores)
	}
	if vote.CastAt != *now {
		t.Errorf("vote CastAt = %d, want %d", vote.CastAt, *now)
	}
}

func TestCastVoteRefreshesSnapshots(t *testing.T) {
	svc, st, _ := newTestService(t)
	seedChat(t, svc, alice, bob)
	poll := seedPoll(t, svc, alice)

	ctx := context.Background()
	if err := svc.SetChatQuorum(ctx, testChatID, quorum.FloorSqrt); err != nil {
		t.Fatal(err)
	}

	if status, _, _ := svc.CastVote(ctx, poll.ID, bob, []int{1, 2, 3}, 25); status != VoteSuccess {
		t.Fatalf("cast: %v", status)
	}
	stored, _ := st.Poll(ctx, poll.ID)
	if stored.ChatPop != 25 {
		t.Errorf("ChatPop = %d, want refreshed 25", stored.ChatPop)
	}
	if stored.Quorum != quorum.FloorSqrt {
		t.Errorf("Quorum = %q, want refreshed %q", stored.Quorum, quorum.FloorSqrt)
	}

	// PopUnknown keeps the existing snapshot.
	if status, _, _ := svc.CastVote(ctx, poll.ID, alice, []int{1, 2, 3}, PopUnknown); status != VoteSuccess {
		t.Fatalf("cast: %v", status)
	}
	stored, _ = st.Poll(ctx, poll.ID)
	if stored.ChatPop != 25 {
		t.Errorf("ChatPop = %d, want 25 kept under PopUnknown", stored.ChatPop)
	}
}

func TestEndToEndAveragesAndTurnout(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedChat(t, svc, alice, bob)
	poll := seedPoll(t, svc, alice, "red", "green", "blue")

	ctx := context.Background()
	if status, _, _ := svc.CastVote(ctx, poll.ID, alice, []int{5, 0, 1}, 10); status != VoteSuccess {
		t.Fatalf("alice: %v", status)
	}
	status, updated, _ := svc.CastVote(ctx, poll.ID, bob, []int{1, 5, 0}, 10)
	if status != VoteSuccess {
		t.Fatalf("bob: %v", status)
	}

	res := Tally(updated)
	want := []float64{3, 2.5, 0.5}
	for i, avg := range res.Averages {
		if avg != want[i] {
			t.Errorf("average[%d] = %v, want %v", i, avg, want[i])
		}
	}
	if res.NumVotes != 2 {
		t.Errorf("NumVotes = %d, want 2", res.NumVotes)
	}
	if got := res.Turnout(); got != 20 {
		t.Errorf("Turnout = %v%%, want 20%% (2 of 10)", got)
	}
}

func TestNewPollRateLimit(t *testing.T) {
	svc, _, now := newTestService(t)
	seedChat(t, svc, alice)
	ctx := context.Background()
	if err := svc.SetChatLimits(ctx, testChatID, 2, 2); err != nil {
		t.Fatal(err)
	}

	mkPoll := func() *models.Poll {
		return &models.Poll{
			ID: svc.now(), ChatID: testChatID, Minutes: 60,
			Name: "p", Options: []string{"a"}, Width: models.DefaultWidth,
			ChatPop: 10, Quorum: quorum.Zero, Votes: map[int64]models.Vote{},
		}
	}

	first := *now
	for i, want := range []ItemStatus{ItemSuccess, ItemSuccess, ItemRateLimited} {
		status, err := svc.NewPoll(ctx, mkPoll(), nil, alice)
		if err != nil {
			t.Fatal(err)
		}
		if status != want {
			t.Fatalf("attempt %d: status = %v, want %v", i+1, status, want)
		}
		*now += 60 // distinct ids, still inside the window
	}

	// 24h after the first creation the window has rolled past it.
	*now = first + windowSec
	status, err := svc.NewPoll(ctx, mkPoll(), nil, alice)
	if err != nil {
		t.Fatal(err)
	}
	if status != ItemSuccess {
		t.Errorf("post-window attempt: status = %v, want ItemSuccess", status)
	}
}

func TestNewPollMissingChat(t *testing.T) {
	svc, _, _ := newTestService(t)
	poll := &models.Poll{ID: 1000, ChatID: -42, Minutes: 60, Options: []string{"a"}}
	status, err := svc.NewPoll(context.Background(), poll, nil, alice)
	if err != nil {
		t.Fatal(err)
	}
	if status != ItemUnknownError {
		t.Errorf("status = %v, want ItemUnknownError for a chat with no record", status)
	}
}

func TestNewPollLinksLaws(t *testing.T) {
	svc, st, now := newTestService(t)
	seedChat(t, svc, alice)
	ctx := context.Background()

	law := &models.Law{ID: svc.now(), Name: "Be kind", Body: "Always."}
	if status, _ := svc.NewLaw(ctx, testChatID, law, alice); status != ItemSuccess {
		t.Fatalf("NewLaw: %v", status)
	}

	*now += 60
	option := "(" + law.DisplayID() + ") Be kind"
	pollA := seedPoll(t, svc, alice, option, "other")
	*now += 60
	pollB := seedPoll(t, svc, alice, option)

	chat, err := st.Chat(ctx, testChatID)
	if err != nil {
		t.Fatal(err)
	}
	stored := chat.Law(law.ID)
	if stored == nil {
		t.Fatal("law missing from chat record")
	}
	// Linking prepends: newest first.
	if len(stored.PollIDs) != 2 || stored.PollIDs[0] != pollB.ID || stored.PollIDs[1] != pollA.ID {
		t.Errorf("PollIDs = %v, want [%d %d]", stored.PollIDs, pollB.ID, pollA.ID)
	}
}

func TestUserPollsEligibilityFilter(t *testing.T) {
	svc, _, now := newTestService(t)
	seedChat(t, svc, alice)
	poll := seedPoll(t, svc, alice)

	ctx := context.Background()
	mine, err := svc.UserPolls(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].ID != poll.ID {
		t.Fatalf("alice's polls = %v, want the seeded poll", mine)
	}

	// Carol first speaks after the poll's window has closed: never eligible.
	*now = poll.ClosesAt() + 1
	seedChat(t, svc, carol)
	theirs, err := svc.UserPolls(ctx, carol)
	if err != nil {
		t.Fatal(err)
	}
	if len(theirs) != 0 {
		t.Errorf("carol's polls = %v, want none", theirs)
	}
}

// Two users voting concurrently race on the poll's read-modify-write cycle.
// The accepted weak-consistency property: each caller's own vote is in the
// poll returned to it, and the committed record holds at least the later
// writer's vote.
func TestConcurrentVotesWeakConsistency(t *testing.T) {
	svc, st, _ := newTestService(t)
	seedChat(t, svc, alice, bob)
	poll := seedPoll(t, svc, alice)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(map[int64]*models.Poll)
	var mu sync.Mutex
	for _, userID := range []int64{alice, bob} {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			status, p, err := svc.CastVote(ctx, poll.ID, userID, []int{1, 2, 3}, 10)
			if err != nil || status != VoteSuccess {
				t.Errorf("user %d: status=%v err=%v", userID, status, err)
				return
			}
			mu.Lock()
			results[userID] = p
			mu.Unlock()
		}(userID)
	}
	wg.Wait()

	for userID, p := range results {
		if _, ok := p.Votes[userID]; !ok {
			t.Errorf("user %d's returned poll is missing their own vote", userID)
		}
	}
	stored, err := st.Poll(ctx, poll.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Votes) == 0 {
		t.Error("committed poll lost every vote; the later write must win")
	}
}

func TestNotifyOptIn(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedChat(t, svc, alice)
	ctx := context.Background()

	on, err := svc.Notify(ctx, testChatID, alice)
	if err != nil || on {
		t.Fatalf("Notify default = %v, %v; want false, nil", on, err)
	}
	if err := svc.SetNotify(ctx, testChatID, alice, true); err != nil {
		t.Fatal(err)
	}
	if on, _ = svc.Notify(ctx, testChatID, alice); !on {
		t.Error("Notify = false after opting in")
	}
}

func TestAnnounceClosed(t *testing.T) {
	svc, _, now := newTestService(t)
	seedChat(t, svc, alice, bob)
	poll := seedPoll(t, svc, alice)
	ctx := context.Background()

	if err := svc.SetNotify(ctx, testChatID, alice, true); err != nil {
		t.Fatal(err)
	}

	var notified []int64
	since := *now
	*now = poll.ClosesAt() + 1
	err := svc.announceClosed(ctx, since, *now, func(userID, pollID int64) {
		if pollID == poll.ID {
			notified = append(notified, userID)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(notified) != 1 || notified[0] != alice {
		t.Errorf("notified = %v, want only the opted-in alice", notified)
	}

	// Already-announced window: nothing fires again.
	notified = nil
	if err := svc.announceClosed(ctx, *now, *now+60, func(userID, pollID int64) {
		notified = append(notified, userID)
	}); err != nil {
		t.Fatal(err)
	}
	if len(notified) != 0 {
		t.Errorf("notified = %v, want none outside the window", notified)
	}
}
