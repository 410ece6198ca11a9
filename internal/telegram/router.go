package telegram

import (
	"regexp"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// pollTagRe matches the "[a1]" id tag the bot places at the front of every
// poll message. Replying to such a message casts a vote.
var pollTagRe = regexp.MustCompile(`^\[([0-9a-zA-Z]+)\]`)

// PollTag extracts the poll display id from the front of a bot poll
// message.
func PollTag(text string) (string, bool) {
	m := pollTagRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Meta carries per-message context gathered by the router for handlers:
// the remaining command text and live chat facts from the Telegram API.
type Meta struct {
	// Args is the message text after the command, newlines included.
	Args string
	// ChatPop is the chat's population minus the bot itself, or -1 when
	// the API call failed (population unknown).
	ChatPop int
	// IsAdmin reports whether the sender is a group creator or admin.
	IsAdmin bool
}

// CommandHandler is implemented by every command and by the reply-vote
// handler.
type CommandHandler interface {
	Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, meta Meta) error
}

// Router dispatches incoming messages: every message feeds the activity
// hook, replies to the bot's own poll messages go to the reply handler, and
// /commands go to their registered handlers.
type Router struct {
	selfID       int64
	logger       *logrus.Logger
	handlers     map[string]CommandHandler
	replyHandler CommandHandler
	messageHook  func(message *tgbotapi.Message)
}

// NewRouter creates a router for a bot with the given user id.
func NewRouter(selfID int64, logger *logrus.Logger) *Router {
	return &Router{
		selfID:   selfID,
		logger:   logger,
		handlers: make(map[string]CommandHandler),
	}
}

// Register registers a command handler.
func (r *Router) Register(command string, handler CommandHandler) {
	r.handlers[command] = handler
	r.logger.Debugf("Registered command: %s", command)
}

// SetReplyHandler sets the handler for replies to the bot's poll messages.
func (r *Router) SetReplyHandler(handler CommandHandler) {
	r.replyHandler = handler
}

// SetMessageHook sets a hook invoked for every text message before any
// dispatch. Used to record user activity for vote eligibility.
func (r *Router) SetMessageHook(hook func(message *tgbotapi.Message)) {
	r.messageHook = hook
}

// HandleMessage handles one incoming message.
func (r *Router) HandleMessage(api *tgbotapi.BotAPI, message *tgbotapi.Message) {
	if message.Text == "" || message.From == nil {
		return
	}

	r.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
		"text":    message.Text,
	}).Debug("Received message")

	if r.messageHook != nil {
		r.messageHook(message)
	}

	// Replies to one of our poll messages are votes (or /result requests).
	if reply := message.ReplyToMessage; reply != nil &&
		reply.From != nil && reply.From.ID == r.selfID {
		if _, ok := PollTag(reply.Text); ok && r.replyHandler != nil {
			r.dispatch(api, message, r.replyHandler, message.Text)
			return
		}
	}

	if !message.IsCommand() {
		return
	}

	handler, exists := r.handlers[message.Command()]
	if !exists {
		r.logger.WithFields(logrus.Fields{
			"command": message.Command(),
			"chat_id": message.Chat.ID,
		}).Warn("Unknown command")
		return
	}
	r.dispatch(api, message, handler, message.CommandArguments())
}

func (r *Router) dispatch(api *tgbotapi.BotAPI, message *tgbotapi.Message, handler CommandHandler, args string) {
	meta := Meta{
		Args:    args,
		ChatPop: r.chatPop(api, message.Chat.ID),
		IsAdmin: r.isAdmin(api, message.Chat.ID, message.From.ID),
	}

	if err := handler.Handle(api, message, meta); err != nil {
		r.logger.WithFields(logrus.Fields{
			"command": message.Command(),
			"chat_id": message.Chat.ID,
			"user_id": message.From.ID,
			"error":   err,
		}).Error("Handler failed")

		errorMsg := tgbotapi.NewMessage(message.Chat.ID,
			"An error occurred while processing your request. Please try again.")
		api.Send(errorMsg)
	}
}

// chatPop returns the chat population excluding the bot itself, or -1 when
// it cannot be determined.
func (r *Router) chatPop(api *tgbotapi.BotAPI, chatID int64) int {
	count, err := api.GetChatMembersCount(tgbotapi.ChatMemberCountConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		r.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to get chat population")
		return -1
	}
	return count - 1
}

func (r *Router) isAdmin(api *tgbotapi.BotAPI, chatID, userID int64) bool {
	member, err := api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return false
	}
	return member.IsCreator() || member.IsAdministrator()
}
