package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/microvote/microvote/internal/quorum"
	"github.com/microvote/microvote/internal/service"
	"github.com/microvote/microvote/internal/telegram"
)

// QuorumHandler handles /quorum: show the chat's quorum formula, or set it
// (admins only).
type QuorumHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewQuorumHandler creates a new QuorumHandler.
func NewQuorumHandler(svc *service.Service, logger *logrus.Logger) *QuorumHandler {
	return &QuorumHandler{svc: svc, logger: logger}
}

// Handle processes the /quorum command.
func (h *QuorumHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, meta telegram.Meta) error {
	if !requireGroup(bot, message) {
		return nil
	}
	ctx := context.Background()
	args := strings.TrimSpace(meta.Args)

	if args == "" {
		pop := meta.ChatPop
		if pop < 0 {
			pop = 0
		}
		required, formula, err := h.svc.ChatQuorum(ctx, message.Chat.ID, pop)
		if err != nil {
			return fmt.Errorf("get chat quorum: %w", err)
		}
		sendHTML(bot, message.Chat.ID, fmt.Sprintf(
			"Quorum formula: <code>%s</code>\nWith %d potential voters a poll needs %d votes.",
			formula, pop, required))
		return nil
	}

	if !meta.IsAdmin {
		sendHTML(bot, message.Chat.ID, notAdminMessage)
		return nil
	}
	formula, ok := quorum.Parse(args)
	if !ok {
		sendHTML(bot, message.Chat.ID,
			"Unknown formula. Available:\n<code>"+strings.Join(formulaStrings(), "\n")+"</code>")
		return nil
	}
	if err := h.svc.SetChatQuorum(ctx, message.Chat.ID, formula); err != nil {
		return fmt.Errorf("set chat quorum: %w", err)
	}
	sendHTML(bot, message.Chat.ID, fmt.Sprintf("Quorum formula set to <code>%s</code>. New polls will use it.", formula))
	return nil
}

func formulaStrings() []string {
	out := make([]string, len(quorum.Formulas))
	for i, f := range quorum.Formulas {
		out[i] = string(f)
	}
	return out
}

// LimitsHandler handles /limits: show or set (admins only) the per-user
// daily poll and law creation limits.
type LimitsHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewLimitsHandler creates a new LimitsHandler.
func NewLimitsHandler(svc *service.Service, logger *logrus.Logger) *LimitsHandler {
	return &LimitsHandler{svc: svc, logger: logger}
}

// Handle processes the /limits command. Setting takes two numbers: the poll
// limit and the law limit.
func (h *LimitsHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, meta telegram.Meta) error {
	if !requireGroup(bot, message) {
		return nil
	}
	ctx := context.Background()
	args := strings.Fields(meta.Args)

	if len(args) == 0 {
		pollLimit, lawLimit, err := h.svc.ChatLimits(ctx, message.Chat.ID)
		if err != nil {
			return fmt.Errorf("get chat limits: %w", err)
		}
		sendHTML(bot, message.Chat.ID, fmt.Sprintf(
			"Per user and rolling 24 hours: %d polls, %d laws.", pollLimit, lawLimit))
		return nil
	}

	if !meta.IsAdmin {
		sendHTML(bot, message.Chat.ID, notAdminMessage)
		return nil
	}
	if len(args) != 2 {
		sendHTML(bot, message.Chat.ID, helpFor("limits"))
		return nil
	}
	pollLimit, err1 := strconv.Atoi(args[0])
	lawLimit, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil || pollLimit < 0 || lawLimit < 0 {
		sendHTML(bot, message.Chat.ID, helpFor("limits"))
		return nil
	}
	if err := h.svc.SetChatLimits(ctx, message.Chat.ID, pollLimit, lawLimit); err != nil {
		return fmt.Errorf("set chat limits: %w", err)
	}
	sendHTML(bot, message.Chat.ID, fmt.Sprintf(
		"Limits set: %d polls and %d laws per user per rolling 24 hours.", pollLimit, lawLimit))
	return nil
}

// NotifyHandler handles /notify: opt in or out of poll-close notifications
// for this chat's polls.
type NotifyHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewNotifyHandler creates a new NotifyHandler.
func NewNotifyHandler(svc *service.Service, logger *logrus.Logger) *NotifyHandler {
	return &NotifyHandler{svc: svc, logger: logger}
}

// Handle processes the /notify command. "on" and "off" set the preference;
// no argument shows it.
func (h *NotifyHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, meta telegram.Meta) error {
	if !requireGroup(bot, message) {
		return nil
	}
	ctx := context.Background()

	switch strings.TrimSpace(meta.Args) {
	case "":
		on, err := h.svc.Notify(ctx, message.Chat.ID, message.From.ID)
		if err != nil {
			return fmt.Errorf("get notify: %w", err)
		}
		state := "off"
		if on {
			state = "on"
		}
		sendHTML(bot, message.Chat.ID, fmt.Sprintf(
			"Poll close notifications are <b>%s</b> for you in this chat.", state))
	case "on":
		if err := h.svc.SetNotify(ctx, message.Chat.ID, message.From.ID, true); err != nil {
			return fmt.Errorf("set notify: %w", err)
		}
		sendHTML(bot, message.Chat.ID, "You will get a direct message when a poll here closes. Message me directly once so I can reach you.")
	case "off":
		if err := h.svc.SetNotify(ctx, message.Chat.ID, message.From.ID, false); err != nil {
			return fmt.Errorf("set notify: %w", err)
		}
		sendHTML(bot, message.Chat.ID, "Poll close notifications turned off.")
	default:
		sendHTML(bot, message.Chat.ID, helpFor("notify"))
	}
	return nil
}
