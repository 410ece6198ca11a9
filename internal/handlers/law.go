package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/microvote/microvote/internal/clock"
	"github.com/microvote/microvote/internal/display"
	"github.com/microvote/microvote/internal/models"
	"github.com/microvote/microvote/internal/service"
	"github.com/microvote/microvote/internal/telegram"
)

// NewLawHandler handles /newlaw to propose a law in a group chat.
type NewLawHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewNewLawHandler creates a new NewLawHandler.
func NewNewLawHandler(svc *service.Service, logger *logrus.Logger) *NewLawHandler {
	return &NewLawHandler{svc: svc, logger: logger}
}

// Handle processes the /newlaw command. The first argument line is the law's
// name, the remainder its body.
func (h *NewLawHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, meta telegram.Meta) error {
	if !requireGroup(bot, message) {
		return nil
	}

	name, body, found := strings.Cut(strings.TrimSpace(meta.Args), "\n")
	name = strings.TrimSpace(name)
	body = strings.TrimSpace(body)
	if name == "" || !found || body == "" {
		sendHTML(bot, message.Chat.ID, helpFor("newlaw"))
		return nil
	}

	law := &models.Law{ID: clock.Now(), Name: name, Body: body}
	status, err := h.svc.NewLaw(context.Background(), message.Chat.ID, law, message.From.ID)
	if err != nil {
		return fmt.Errorf("create law: %w", err)
	}
	if status != service.ItemSuccess {
		sendHTML(bot, message.Chat.ID, status.String()+".")
		return nil
	}

	sendHTML(bot, message.Chat.ID, display.LawText(law)+
		"\nProposed. Put <code>("+law.DisplayID()+")</code> in a poll option to bring it to a vote.")
	return nil
}

// LawHandler handles /law to show a single law and its standing.
type LawHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewLawLookupHandler creates a new LawHandler.
func NewLawLookupHandler(svc *service.Service, logger *logrus.Logger) *LawHandler {
	return &LawHandler{svc: svc, logger: logger}
}

// Handle processes the /law command, taking a law display id.
func (h *LawHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, meta telegram.Meta) error {
	if !requireGroup(bot, message) {
		return nil
	}

	lawID, ok := service.LawRef(meta.Args)
	if !ok {
		sendHTML(bot, message.Chat.ID, helpFor("law"))
		return nil
	}

	ctx := context.Background()
	law, err := h.svc.Law(ctx, message.Chat.ID, lawID)
	if err != nil {
		return fmt.Errorf("get law: %w", err)
	}
	if law == nil {
		sendHTML(bot, message.Chat.ID, "Law not found.")
		return nil
	}

	res, err := h.svc.LawResult(ctx, law)
	if err != nil {
		return fmt.Errorf("resolve law: %w", err)
	}
	sendHTML(bot, message.Chat.ID, display.LawResultText(res))
	return nil
}

// LawsHandler handles /laws: the chat's accepted laws, or all of them.
type LawsHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewLawsHandler creates a new LawsHandler.
func NewLawsHandler(svc *service.Service, logger *logrus.Logger) *LawsHandler {
	return &LawsHandler{svc: svc, logger: logger}
}

// Handle processes the /laws command. By default only accepted laws show;
// "/laws all" includes every proposed law with its status.
func (h *LawsHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, meta telegram.Meta) error {
	if !requireGroup(bot, message) {
		return nil
	}
	all := strings.TrimSpace(meta.Args) == "all"

	ctx := context.Background()
	laws, err := h.svc.Laws(ctx, message.Chat.ID)
	if err != nil {
		return fmt.Errorf("list laws: %w", err)
	}

	var parts []string
	for _, law := range laws {
		res, err := h.svc.LawResult(ctx, law)
		if err != nil {
			return fmt.Errorf("resolve law: %w", err)
		}
		switch {
		case res.Status == service.LawAccepted && !all:
			parts = append(parts, display.LawText(law))
		case all:
			parts = append(parts, display.LawResultText(res))
		}
	}
	if len(parts) == 0 {
		if all {
			sendHTML(bot, message.Chat.ID, "No laws have been proposed yet. Use /newlaw.")
		} else {
			sendHTML(bot, message.Chat.ID, "No laws are in force. Try /laws all.")
		}
		return nil
	}
	sendHTML(bot, message.Chat.ID, strings.Join(parts, "\n\n"))
	return nil
}
