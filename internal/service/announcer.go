package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// StartCloseAnnouncer watches for polls crossing their close time and calls
// notify for every chat member who opted in with /notify and was eligible to
// vote in the poll. Blocks until ctx is cancelled; run it in a goroutine.
//
// Only polls closing after startup are announced. A restart during a poll's
// closing minute may skip its announcement, which is acceptable: delivery
// here is best-effort.
func (s *Service) StartCloseAnnouncer(ctx context.Context, interval time.Duration, notify func(userID int64, pollID int64)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastCheck := s.now()
	s.logger.Info("Poll close announcer started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Poll close announcer stopped")
			return
		case <-ticker.C:
			now := s.now()
			if err := s.announceClosed(ctx, lastCheck, now, notify); err != nil {
				s.logger.WithError(err).Error("Failed to announce closed polls")
			}
			lastCheck = now
		}
	}
}

// announceClosed notifies for every poll whose close time falls in
// (since, until].
func (s *Service) announceClosed(ctx context.Context, since, until int64, notify func(userID, pollID int64)) error {
	polls, err := s.store.Polls(ctx)
	if err != nil {
		return err
	}
	for _, poll := range polls {
		closes := poll.ClosesAt()
		if closes <= since || closes > until {
			continue
		}
		chat, err := s.store.Chat(ctx, poll.ChatID)
		if err != nil {
			return err
		}
		if chat == nil {
			continue
		}
		for userID, user := range chat.Users {
			if user.Notify && Eligible(chat, poll, userID) {
				notify(userID, poll.ID)
			}
		}
		s.logger.WithFields(logrus.Fields{
			"poll_id": poll.DisplayID(),
			"chat_id": poll.ChatID,
		}).Info("Announced poll close")
	}
	return nil
}
