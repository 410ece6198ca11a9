package models

import (
	"github.com/microvote/microvote/internal/ids"
	"github.com/microvote/microvote/internal/quorum"
)

// Valid score bounds for a vote, inclusive.
const (
	MinScore = 0
	MaxScore = 5
)

// DefaultWidth is the score-bar display scale for new polls, matching the
// maximum score.
const DefaultWidth = 5

// Poll is a time-boxed scored vote over a fixed set of options. Its id is
// its creation timestamp in seconds. The option list is fixed at creation;
// only Votes and the ChatPop/Quorum snapshots change afterwards.
type Poll struct {
	ID      int64          `json:"id"`
	ChatID  int64          `json:"chat_id"`
	Minutes int64          `json:"minutes"`
	Name    string         `json:"name"`
	Desc    string         `json:"desc"`
	Options []string       `json:"options"`
	Width   int            `json:"width"`
	ChatPop int            `json:"chat_pop"`
	Quorum  quorum.Formula `json:"quorum"`
	Votes   map[int64]Vote `json:"votes"`
}

// DisplayID returns the poll's user-facing base-62 identifier.
func (p *Poll) DisplayID() string {
	return ids.Encode(p.ID)
}

// ClosesAt returns the second at which the poll stops accepting votes.
func (p *Poll) ClosesAt() int64 {
	return p.ID + p.Minutes*60
}

// IsOpen reports whether the poll still accepts votes at the given second.
func (p *Poll) IsOpen(now int64) bool {
	return now < p.ClosesAt()
}

// Vote is one user's scores for a poll, one score per option. A later cast
// by the same user replaces the earlier one; no history is kept.
type Vote struct {
	CastAt int64 `json:"cast_at"`
	Scores []int `json:"scores"`
}
