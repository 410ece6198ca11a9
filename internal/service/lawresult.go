package service

import (
	"context"
	"strings"

	"github.com/microvote/microvote/internal/ids"
	"github.com/microvote/microvote/internal/models"
)

// LawStatus classifies a law's current standing, derived on demand from the
// polls that have referenced it.
type LawStatus int

const (
	LawNeverPolled LawStatus = iota
	LawPollsGone
	LawLowQuorum
	LawPollIsOpen
	LawAccepted
	LawRejected
)

// String returns the user-facing description of the status.
func (s LawStatus) String() string {
	switch s {
	case LawNeverPolled:
		return "Has never been voted on"
	case LawPollsGone:
		return "No polls longer exist"
	case LawLowQuorum:
		return "No polls reached quorum"
	case LawPollIsOpen:
		return "Its poll is still open"
	case LawAccepted:
		return "Accepted"
	case LawRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// LawResult is the outcome of resolving a law. Poll and Percent are set only
// for Accepted/Rejected; NumPolls counts the quorum-reaching polls.
type LawResult struct {
	Status   LawStatus
	Law      *models.Law
	Poll     *models.Poll
	Percent  float64
	NumPolls int
}

// LawRef extracts the law id a poll option refers to. An option references a
// law when it opens with the law's display id, optionally wrapped in
// parentheses the way LawText renders it: "(2cD4) Freedom of information".
func LawRef(option string) (int64, bool) {
	option = strings.TrimPrefix(strings.TrimSpace(option), "(")
	end := 0
	for end < len(option) && isBase62(option[end]) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	return ids.Decode(option[:end])
}

func isBase62(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// LawRefs returns the ids of every law referenced by the given poll options.
func LawRefs(options []string) []int64 {
	var refs []int64
	for _, opt := range options {
		if id, ok := LawRef(opt); ok {
			refs = append(refs, id)
		}
	}
	return refs
}

// LawResult resolves a law's status by re-scanning its linked polls in
// stored order (newest-linked first). Dangling poll ids are skipped. When a
// closed, quorum-reaching poll exists, the first one encountered decides:
// the average score of the option referencing this law, as a share of the
// poll's display width, is the approval percentage; 50% or better accepts.
func (s *Service) LawResult(ctx context.Context, law *models.Law) (LawResult, error) {
	if len(law.PollIDs) == 0 {
		return LawResult{Status: LawNeverPolled, Law: law}, nil
	}

	var results []PollResult
	for _, pollID := range law.PollIDs {
		poll, err := s.store.Poll(ctx, pollID)
		if err != nil {
			return LawResult{}, err
		}
		if poll == nil {
			continue
		}
		results = append(results, Tally(poll))
	}
	if len(results) == 0 {
		return LawResult{Status: LawPollsGone, Law: law}, nil
	}

	var reaching []PollResult
	for _, r := range results {
		if r.ReachedQuorum {
			reaching = append(reaching, r)
		}
	}
	if len(reaching) == 0 {
		return LawResult{Status: LawLowQuorum, Law: law}, nil
	}

	now := s.now()
	var closed *PollResult
	for i := range reaching {
		if !reaching[i].Poll.IsOpen(now) {
			closed = &reaching[i]
			break
		}
	}
	if closed == nil {
		return LawResult{Status: LawPollIsOpen, Law: law, NumPolls: len(reaching)}, nil
	}

	var average float64
	for i, option := range closed.Poll.Options {
		if ref, ok := LawRef(option); ok && ref == law.ID {
			average = closed.Averages[i]
			break
		}
	}
	percent := average / float64(closed.Poll.Width) * 100

	status := LawRejected
	if percent >= 50 {
		status = LawAccepted
	}
	return LawResult{
		Status:   status,
		Law:      law,
		Poll:     closed.Poll,
		Percent:  percent,
		NumPolls: len(reaching),
	}, nil
}
