package service

import (
	"github.com/microvote/microvote/internal/models"
	"github.com/microvote/microvote/internal/quorum"
)

// PollResult aggregates a poll's cast votes.
type PollResult struct {
	Poll          *models.Poll
	ReachedQuorum bool
	Averages      []float64
	NumVotes      int
}

// Turnout returns the share of the chat population that voted, as a
// percentage. Zero when the population snapshot is empty.
func (r PollResult) Turnout() float64 {
	if r.Poll.ChatPop <= 0 {
		return 0
	}
	return float64(r.NumVotes) / float64(r.Poll.ChatPop) * 100
}

// Tally computes per-option score averages and the quorum classification
// from the poll's stored vote map and snapshots. Pure and synchronous; the
// snapshots were taken at creation and refreshed on each vote.
func Tally(poll *models.Poll) PollResult {
	sums := make([]float64, len(poll.Options))
	for _, vote := range poll.Votes {
		for i := range sums {
			if i < len(vote.Scores) {
				sums[i] += float64(vote.Scores[i])
			}
		}
	}
	numVotes := len(poll.Votes)
	averages := make([]float64, len(poll.Options))
	if numVotes > 0 {
		for i, sum := range sums {
			averages[i] = sum / float64(numVotes)
		}
	}
	return PollResult{
		Poll:          poll,
		ReachedQuorum: quorum.Reached(poll.Quorum, poll.ChatPop, numVotes),
		Averages:      averages,
		NumVotes:      numVotes,
	}
}
