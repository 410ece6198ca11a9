package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/microvote/microvote/internal/clock"
	"github.com/microvote/microvote/internal/display"
	"github.com/microvote/microvote/internal/duration"
	"github.com/microvote/microvote/internal/ids"
	"github.com/microvote/microvote/internal/models"
	"github.com/microvote/microvote/internal/service"
	"github.com/microvote/microvote/internal/telegram"
)

// NewPollHandler handles /newpoll to create a poll in a group chat.
type NewPollHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewNewPollHandler creates a new NewPollHandler.
func NewNewPollHandler(svc *service.Service, logger *logrus.Logger) *NewPollHandler {
	return &NewPollHandler{svc: svc, logger: logger}
}

// Handle processes the /newpoll command. The argument block is one line
// each: period, name, description, then one line per option.
func (h *NewPollHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, meta telegram.Meta) error {
	if !requireGroup(bot, message) {
		return nil
	}

	lines := splitLines(meta.Args)
	if len(lines) < 4 {
		sendHTML(bot, message.Chat.ID, helpFor("newpoll"))
		return nil
	}
	period, name, desc, options := lines[0], lines[1], lines[2], lines[3:]

	minutes := duration.Minutes(period)
	if minutes <= 0 {
		sendHTML(bot, message.Chat.ID, helpFor("newpoll"))
		return nil
	}

	ctx := context.Background()
	pop := meta.ChatPop
	if pop < 0 {
		pop = 0
	}
	_, formula, err := h.svc.ChatQuorum(ctx, message.Chat.ID, pop)
	if err != nil {
		return fmt.Errorf("get chat quorum: %w", err)
	}

	poll := &models.Poll{
		ID:      clock.Now(),
		ChatID:  message.Chat.ID,
		Minutes: minutes,
		Name:    name,
		Desc:    desc,
		Options: options,
		Width:   models.DefaultWidth,
		ChatPop: pop,
		Quorum:  formula,
		Votes:   make(map[int64]models.Vote),
	}

	status, err := h.svc.NewPoll(ctx, poll, service.LawRefs(options), message.From.ID)
	if err != nil {
		return fmt.Errorf("create poll: %w", err)
	}
	if status != service.ItemSuccess {
		sendHTML(bot, message.Chat.ID, status.String()+".")
		return nil
	}

	sendHTML(bot, message.Chat.ID, display.PollText(poll, display.Show{Options: true, Desc: true}, nil)+
		"\nEither reply with your vote directly to this message,"+
		"\nor message in this chat before the poll closes, then use /mine in a direct chat with me.")
	return nil
}

// MineHandler handles /mine: the polls the user is eligible to vote in.
type MineHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewMineHandler creates a new MineHandler.
func NewMineHandler(svc *service.Service, logger *logrus.Logger) *MineHandler {
	return &MineHandler{svc: svc, logger: logger}
}

// Handle processes the /mine command. Each poll goes out as its own message
// so the user can reply to it to vote.
func (h *MineHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, _ telegram.Meta) error {
	if !requireDirect(bot, message) {
		return nil
	}

	polls, err := h.svc.UserPolls(context.Background(), message.From.ID)
	if err != nil {
		return fmt.Errorf("list user polls: %w", err)
	}
	open := polls[:0]
	now := clock.Now()
	for _, p := range polls {
		if p.IsOpen(now) {
			open = append(open, p)
		}
	}
	if len(open) == 0 {
		sendHTML(bot, message.Chat.ID, "There are no polls for you right now.")
		return nil
	}

	sendHTML(bot, message.Chat.ID, helpFor("mine")+"\nPolls you can vote in now:")
	for _, p := range open {
		sendHTML(bot, message.Chat.ID, display.PollText(p, display.Show{Options: true}, nil))
	}
	return nil
}

// ResultHandler handles /result, by id argument or as a reply to a poll
// message.
type ResultHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(svc *service.Service, logger *logrus.Logger) *ResultHandler {
	return &ResultHandler{svc: svc, logger: logger}
}

// Handle processes the /result command.
func (h *ResultHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, meta telegram.Meta) error {
	tag := strings.TrimSpace(meta.Args)
	if reply := message.ReplyToMessage; tag == "" && reply != nil {
		tag = reply.Text
	}
	displayID, ok := telegram.PollTag(tag)
	if !ok {
		sendHTML(bot, message.Chat.ID, "Invalid poll ID.")
		return nil
	}
	return h.sendResult(bot, message.Chat.ID, displayID)
}

// sendResult renders the result of the poll with the given display id.
func (h *ResultHandler) sendResult(bot *tgbotapi.BotAPI, chatID int64, displayID string) error {
	pollID, ok := ids.Decode(displayID)
	if !ok {
		sendHTML(bot, chatID, "Invalid poll ID.")
		return nil
	}
	poll, err := h.svc.Poll(context.Background(), pollID)
	if err != nil {
		return fmt.Errorf("get poll: %w", err)
	}
	if poll == nil {
		sendHTML(bot, chatID, "Poll not found.")
		return nil
	}
	res := service.Tally(poll)
	sendHTML(bot, chatID, display.ResultText(res)+"\n"+display.PollStatusLine(poll, clock.Now()))
	return nil
}

// splitLines splits a command argument block into trimmed, nonempty lines.
func splitLines(args string) []string {
	var lines []string
	for _, line := range strings.Split(args, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
