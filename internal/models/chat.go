package models

import (
	"github.com/microvote/microvote/internal/ids"
	"github.com/microvote/microvote/internal/quorum"
)

// Default settings applied when a chat record is lazily created on first
// activity.
const (
	DefaultQuorum    = quorum.Zero
	DefaultPollLimit = 3
	DefaultLawLimit  = 3
)

// Chat is the per-group record. It owns its users and laws; both are
// embedded in the chat's persisted representation and cannot outlive it.
// Negative ids are Telegram group chats, positive ids are direct-message
// chats with the bot.
type Chat struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Quorum    quorum.Formula  `json:"quorum"`
	PollLimit int             `json:"poll_limit"`
	LawLimit  int             `json:"law_limit"`
	Users     map[int64]*User `json:"users"`
	Laws      []*Law          `json:"laws"`
}

// NewChat creates a chat record with default quorum and creation limits.
func NewChat(id int64) *Chat {
	return &Chat{
		ID:        id,
		Quorum:    DefaultQuorum,
		PollLimit: DefaultPollLimit,
		LawLimit:  DefaultLawLimit,
		Users:     make(map[int64]*User),
	}
}

// IsGroup reports whether this is a group chat rather than a direct-message
// chat.
func (c *Chat) IsGroup() bool {
	return c.ID < 0
}

// User returns the chat's record for userID, or nil.
func (c *Chat) User(userID int64) *User {
	return c.Users[userID]
}

// EnsureUser returns the chat's record for userID, creating it on first
// contact.
func (c *Chat) EnsureUser(userID int64) *User {
	if c.Users == nil {
		c.Users = make(map[int64]*User)
	}
	u := c.Users[userID]
	if u == nil {
		u = &User{}
		c.Users[userID] = u
	}
	return u
}

// Law returns the chat's law with the given id, or nil.
func (c *Chat) Law(lawID int64) *Law {
	for _, l := range c.Laws {
		if l.ID == lawID {
			return l
		}
	}
	return nil
}

// User is a chat member's embedded record. LastSeen drives vote eligibility;
// the rolling creation timestamp lists drive rate limiting.
type User struct {
	LastSeen  int64   `json:"last_seen"`
	PollTimes []int64 `json:"poll_times,omitempty"`
	LawTimes  []int64 `json:"law_times,omitempty"`
	Notify    bool    `json:"notify,omitempty"`
}

// Law is a policy text owned by a chat. PollIDs lists the polls that have
// referenced it, newest-linked first; entries may dangle if a poll record is
// removed out of band.
type Law struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Body    string  `json:"body"`
	PollIDs []int64 `json:"poll_ids,omitempty"`
}

// DisplayID returns the law's user-facing base-62 identifier.
func (l *Law) DisplayID() string {
	return ids.Encode(l.ID)
}

// LinkPoll records that a poll referenced this law, newest first.
func (l *Law) LinkPoll(pollID int64) {
	l.PollIDs = append([]int64{pollID}, l.PollIDs...)
}
