// Package service is the governance core: poll and law creation, the
// vote-casting state machine, quorum snapshots, per-user creation rate
// limits and law resolution.
//
// Every operation is a fully-awaited read-modify-write against the entity
// store with no in-process lock spanning the cycle. Two concurrent writes to
// the same record race and the later write wins; see the concurrency note in
// DESIGN.md. Domain outcomes travel as typed status values; only storage
// I/O faults are returned as errors.
package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/microvote/microvote/internal/clock"
	"github.com/microvote/microvote/internal/models"
	"github.com/microvote/microvote/internal/quorum"
	"github.com/microvote/microvote/internal/store"
)

// PopUnknown signals that the caller could not determine the chat
// population; castVote keeps the poll's existing snapshot.
const PopUnknown = -1

// VoteStatus is the outcome of a castVote attempt.
type VoteStatus int

const (
	VoteSuccess VoteStatus = iota
	VoteNonexist
	VoteExpired
	VoteUnauthorised
	VoteInvalidNumOptions
	VoteInvalidScore
)

// String returns the user-facing description of the outcome.
func (s VoteStatus) String() string {
	switch s {
	case VoteSuccess:
		return "Vote cast successfully"
	case VoteNonexist:
		return "Poll does not exist"
	case VoteExpired:
		return "This poll expired"
	case VoteUnauthorised:
		return "You must message on the chat this poll was created, after its creation"
	case VoteInvalidNumOptions:
		return "Invalid number of options"
	case VoteInvalidScore:
		return "Scores must be between 0 and 5"
	default:
		return "Unknown vote status"
	}
}

// ItemStatus is the outcome of a poll or law creation attempt.
type ItemStatus int

const (
	ItemSuccess ItemStatus = iota
	ItemRateLimited
	ItemUnknownError
)

// String returns the user-facing description of the outcome.
func (s ItemStatus) String() string {
	switch s {
	case ItemSuccess:
		return "Created successfully"
	case ItemRateLimited:
		return "You have hit your daily creation limit for this chat"
	case ItemUnknownError:
		return "Something went wrong"
	default:
		return "Unknown status"
	}
}

// Service is the central business logic layer. It holds the entity store and
// provides every core operation the command and HTTP layers call into.
type Service struct {
	store  store.Store
	logger *logrus.Logger

	// now is swappable in tests.
	now func() int64
}

// New creates a Service backed by the given entity store.
func New(st store.Store, logger *logrus.Logger) *Service {
	return &Service{store: st, logger: logger, now: clock.Now}
}

// LogUser records activity by a user in a chat: the chat record is lazily
// created on first activity and the user's last-seen timestamp is updated on
// every message. Last-seen is what later authorises the user to vote.
func (s *Service) LogUser(ctx context.Context, chatID int64, chatName string, userID int64) error {
	chat, err := s.store.Chat(ctx, chatID)
	if err != nil {
		return err
	}
	if chat == nil {
		chat = models.NewChat(chatID)
	}
	chat.Name = chatName
	chat.EnsureUser(userID).LastSeen = s.now()
	return s.store.PutChat(ctx, chat)
}

// NewPoll persists a poll and links it into each referenced law, subject to
// the creator's rolling 24h poll-creation limit. The poll write and the chat
// write are independent; a crash between them leaves the poll persisted but
// unlinked, which law resolution tolerates.
func (s *Service) NewPoll(ctx context.Context, poll *models.Poll, lawIDs []int64, userID int64) (ItemStatus, error) {
	chat, err := s.store.Chat(ctx, poll.ChatID)
	if err != nil {
		return ItemUnknownError, err
	}
	if chat == nil {
		return ItemUnknownError, nil
	}

	user := chat.EnsureUser(userID)
	times, ok := allowCreation(user.PollTimes, chat.PollLimit, s.now())
	if !ok {
		rateLimited.WithLabelValues("poll").Inc()
		return ItemRateLimited, nil
	}
	user.PollTimes = times

	if err := s.store.PutPoll(ctx, poll); err != nil {
		return ItemUnknownError, err
	}
	for _, lawID := range lawIDs {
		if law := chat.Law(lawID); law != nil {
			law.LinkPoll(poll.ID)
		}
	}
	if err := s.store.PutChat(ctx, chat); err != nil {
		return ItemUnknownError, err
	}

	pollsCreated.Inc()
	s.logger.WithFields(logrus.Fields{
		"chat_id": poll.ChatID,
		"poll_id": poll.DisplayID(),
		"user_id": userID,
	}).Info("Poll created")
	return ItemSuccess, nil
}

// NewLaw appends a law to its chat, subject to the creator's rolling 24h
// law-creation limit.
func (s *Service) NewLaw(ctx context.Context, chatID int64, law *models.Law, userID int64) (ItemStatus, error) {
	chat, err := s.store.Chat(ctx, chatID)
	if err != nil {
		return ItemUnknownError, err
	}
	if chat == nil {
		return ItemUnknownError, nil
	}

	user := chat.EnsureUser(userID)
	times, ok := allowCreation(user.LawTimes, chat.LawLimit, s.now())
	if !ok {
		rateLimited.WithLabelValues("law").Inc()
		return ItemRateLimited, nil
	}
	user.LawTimes = times

	chat.Laws = append(chat.Laws, law)
	if err := s.store.PutChat(ctx, chat); err != nil {
		return ItemUnknownError, err
	}

	lawsCreated.Inc()
	s.logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"law_id":  law.DisplayID(),
		"user_id": userID,
	}).Info("Law created")
	return ItemSuccess, nil
}

// Eligible reports whether a user may vote in a poll: they must have spoken
// in the owning chat at some point strictly before the poll's close time.
// A user first seen after the window closes can never vote in it.
func Eligible(chat *models.Chat, poll *models.Poll, userID int64) bool {
	if chat == nil {
		return false
	}
	user := chat.User(userID)
	if user == nil || user.LastSeen == 0 {
		return false
	}
	return user.LastSeen < poll.ClosesAt()
}

// CastVote runs the voting state machine for one (poll, user) pair. On
// success the user's vote is upserted (a later cast overwrites the earlier
// one), the poll's population and quorum snapshots are refreshed, and the
// updated poll is returned. chatPop may be PopUnknown to keep the existing
// population snapshot.
func (s *Service) CastVote(ctx context.Context, pollID, userID int64, scores []int, chatPop int) (VoteStatus, *models.Poll, error) {
	status, poll, err := s.castVote(ctx, pollID, userID, scores, chatPop)
	if err == nil {
		votesCast.WithLabelValues(status.String()).Inc()
	}
	return status, poll, err
}

func (s *Service) castVote(ctx context.Context, pollID, userID int64, scores []int, chatPop int) (VoteStatus, *models.Poll, error) {
	poll, err := s.store.Poll(ctx, pollID)
	if err != nil {
		return VoteNonexist, nil, err
	}
	if poll == nil {
		return VoteNonexist, nil, nil
	}
	if !poll.IsOpen(s.now()) {
		return VoteExpired, nil, nil
	}

	chat, err := s.store.Chat(ctx, poll.ChatID)
	if err != nil {
		return VoteUnauthorised, nil, err
	}
	if !Eligible(chat, poll, userID) {
		return VoteUnauthorised, nil, nil
	}
	if len(scores) != len(poll.Options) {
		return VoteInvalidNumOptions, nil, nil
	}
	for _, score := range scores {
		if score < models.MinScore || score > models.MaxScore {
			return VoteInvalidScore, nil, nil
		}
	}

	if poll.Votes == nil {
		poll.Votes = make(map[int64]models.Vote)
	}
	poll.Votes[userID] = models.Vote{CastAt: s.now(), Scores: scores}
	if chatPop != PopUnknown {
		poll.ChatPop = chatPop
	}
	poll.Quorum = chat.Quorum

	if err := s.store.PutPoll(ctx, poll); err != nil {
		return VoteUnauthorised, nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"poll_id": poll.DisplayID(),
		"user_id": userID,
	}).Info("Vote cast")
	return VoteSuccess, poll, nil
}

// Poll returns a poll by id, or nil when absent.
func (s *Service) Poll(ctx context.Context, pollID int64) (*models.Poll, error) {
	return s.store.Poll(ctx, pollID)
}

// Polls returns every poll, or only those owned by chatID when it is
// nonzero.
func (s *Service) Polls(ctx context.Context, chatID int64) ([]*models.Poll, error) {
	polls, err := s.store.Polls(ctx)
	if err != nil {
		return nil, err
	}
	if chatID == 0 {
		return polls, nil
	}
	filtered := polls[:0]
	for _, p := range polls {
		if p.ChatID == chatID {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// UserPolls returns every poll the user is currently eligible to vote in.
func (s *Service) UserPolls(ctx context.Context, userID int64) ([]*models.Poll, error) {
	polls, err := s.store.Polls(ctx)
	if err != nil {
		return nil, err
	}
	chats := make(map[int64]*models.Chat)
	var eligible []*models.Poll
	for _, p := range polls {
		chat, ok := chats[p.ChatID]
		if !ok {
			chat, err = s.store.Chat(ctx, p.ChatID)
			if err != nil {
				return nil, err
			}
			chats[p.ChatID] = chat
		}
		if Eligible(chat, p, userID) {
			eligible = append(eligible, p)
		}
	}
	return eligible, nil
}

// Laws returns all laws of a chat, oldest first. A missing chat has no laws.
func (s *Service) Laws(ctx context.Context, chatID int64) ([]*models.Law, error) {
	chat, err := s.store.Chat(ctx, chatID)
	if err != nil || chat == nil {
		return nil, err
	}
	return chat.Laws, nil
}

// Law returns a chat's law by id, or nil when the chat or law is absent.
func (s *Service) Law(ctx context.Context, chatID, lawID int64) (*models.Law, error) {
	chat, err := s.store.Chat(ctx, chatID)
	if err != nil || chat == nil {
		return nil, err
	}
	return chat.Law(lawID), nil
}

// ChatQuorum evaluates a chat's live quorum against the given population.
// A missing chat reports zero with the default formula.
func (s *Service) ChatQuorum(ctx context.Context, chatID int64, population int) (int, quorum.Formula, error) {
	chat, err := s.store.Chat(ctx, chatID)
	if err != nil {
		return 0, models.DefaultQuorum, err
	}
	if chat == nil {
		return 0, models.DefaultQuorum, nil
	}
	return quorum.Required(chat.Quorum, population), chat.Quorum, nil
}

// SetChatQuorum replaces a chat's quorum formula. A missing chat is a no-op.
func (s *Service) SetChatQuorum(ctx context.Context, chatID int64, f quorum.Formula) error {
	chat, err := s.store.Chat(ctx, chatID)
	if err != nil || chat == nil {
		return err
	}
	chat.Quorum = f
	return s.store.PutChat(ctx, chat)
}

// ChatLimits reports a chat's per-category daily creation limits.
func (s *Service) ChatLimits(ctx context.Context, chatID int64) (pollLimit, lawLimit int, err error) {
	chat, err := s.store.Chat(ctx, chatID)
	if err != nil {
		return 0, 0, err
	}
	if chat == nil {
		return models.DefaultPollLimit, models.DefaultLawLimit, nil
	}
	return chat.PollLimit, chat.LawLimit, nil
}

// SetChatLimits replaces a chat's per-category daily creation limits. A
// missing chat is a no-op.
func (s *Service) SetChatLimits(ctx context.Context, chatID int64, pollLimit, lawLimit int) error {
	chat, err := s.store.Chat(ctx, chatID)
	if err != nil || chat == nil {
		return err
	}
	chat.PollLimit = pollLimit
	chat.LawLimit = lawLimit
	return s.store.PutChat(ctx, chat)
}

// Notify reports a user's poll-close notification opt-in for a chat.
func (s *Service) Notify(ctx context.Context, chatID, userID int64) (bool, error) {
	chat, err := s.store.Chat(ctx, chatID)
	if err != nil || chat == nil {
		return false, err
	}
	user := chat.User(userID)
	return user != nil && user.Notify, nil
}

// SetNotify sets a user's poll-close notification opt-in for a chat. A
// missing chat is a no-op.
func (s *Service) SetNotify(ctx context.Context, chatID, userID int64, on bool) error {
	chat, err := s.store.Chat(ctx, chatID)
	if err != nil || chat == nil {
		return err
	}
	chat.EnsureUser(userID).Notify = on
	return s.store.PutChat(ctx, chat)
}
