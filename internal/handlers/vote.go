package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/microvote/microvote/internal/display"
	"github.com/microvote/microvote/internal/ids"
	"github.com/microvote/microvote/internal/service"
	"github.com/microvote/microvote/internal/telegram"
)

// VoteHandler handles replies to poll messages. A reply of space-separated
// scores casts a vote; a reply of /result shows the poll's result instead.
type VoteHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewVoteHandler creates a new VoteHandler.
func NewVoteHandler(svc *service.Service, logger *logrus.Logger) *VoteHandler {
	return &VoteHandler{svc: svc, logger: logger}
}

// Handle processes a reply to one of the bot's poll messages.
func (h *VoteHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, meta telegram.Meta) error {
	reply := message.ReplyToMessage
	if reply == nil {
		return nil
	}
	displayID, ok := telegram.PollTag(reply.Text)
	if !ok {
		return nil
	}
	pollID, ok := ids.Decode(displayID)
	if !ok {
		return nil
	}

	text := strings.TrimSpace(message.Text)
	if text == "/result" {
		return NewResultHandler(h.svc, h.logger).sendResult(bot, message.Chat.ID, displayID)
	}

	scores, ok := parseScores(text)
	if !ok {
		// Not a ballot, probably chatter under the poll message.
		return nil
	}

	status, poll, err := h.svc.CastVote(context.Background(), pollID, message.From.ID, scores, meta.ChatPop)
	if err != nil {
		return fmt.Errorf("cast vote: %w", err)
	}
	if status != service.VoteSuccess {
		sendHTML(bot, message.Chat.ID, status.String()+".")
		return nil
	}

	amounts := make([]float64, len(scores))
	for i, s := range scores {
		amounts[i] = float64(s)
	}
	sendHTML(bot, message.Chat.ID,
		display.PollText(poll, display.Show{Options: true, Amounts: true}, amounts)+
			"\n"+status.String()+".")
	return nil
}

// parseScores parses a ballot of space-separated integers. Any non-numeric
// token makes the whole message a non-ballot.
func parseScores(text string) ([]int, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, false
	}
	scores := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, false
		}
		scores[i] = n
	}
	return scores, true
}
