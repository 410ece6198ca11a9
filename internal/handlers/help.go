package handlers

import (
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/microvote/microvote/internal/telegram"
)

// helpTexts is the usage text per command, shown by /help and whenever a
// command is called with missing input.
var helpTexts = map[string]string{
	"start": "/start - say hello",
	"mine": "/mine - list the polls you can vote in right now (direct chat only).\n" +
		"To cast a vote, reply to a poll message with one score from 0 to 5 per option, such as:<code> 1 0 5</code>",
	"newpoll": "/newpoll - create a poll (group only). Send the command followed by one line each:\n" +
		"<pre>/newpoll\n&lt;period, e.g. 3d 12h&gt;\n&lt;name&gt;\n&lt;description&gt;\n&lt;option 1&gt;\n&lt;option 2&gt;\n...</pre>" +
		"An option that starts with a law id in parentheses, like <code>(a1) Title</code>, links that law to the poll.",
	"result": "/result [poll id] - show a poll's result, e.g. <code>/result [a1]</code>. " +
		"Also works as a reply to a poll message.",
	"newlaw": "/newlaw - propose a law (group only). Send the command followed by the law name on " +
		"one line and its text on the following lines.",
	"law":    "/law (law id) - show a law and whether it has been accepted.",
	"laws":   "/laws - show this chat's accepted laws. <code>/laws all</code> includes the rest.",
	"quorum": "/quorum - show this chat's quorum. Admins set it with <code>/quorum &lt;formula&gt;</code>.",
	"limits": "/limits - show how many polls and laws each member may create per day. " +
		"Admins set it with <code>/limits &lt;polls&gt; &lt;laws&gt;</code>.",
	"notify": "/notify on|off - opt in or out of a direct message when a poll you can vote in closes.",
}

// helpFor returns the usage text for one command.
func helpFor(command string) string {
	if text, ok := helpTexts[command]; ok {
		return text
	}
	return "No help found."
}

// StartHandler handles the /start command.
type StartHandler struct {
	logger *logrus.Logger
}

// NewStartHandler creates a new StartHandler.
func NewStartHandler(logger *logrus.Logger) *StartHandler {
	return &StartHandler{logger: logger}
}

// Handle processes the /start command.
func (h *StartHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, _ telegram.Meta) error {
	sendHTML(bot, message.Chat.ID,
		"Welcome. Add me to a group to run polls and laws there, then use /help to see what I can do.")
	return nil
}

// HelpHandler handles the /help command.
type HelpHandler struct {
	logger *logrus.Logger
}

// NewHelpHandler creates a new HelpHandler.
func NewHelpHandler(logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{logger: logger}
}

// Handle processes the /help command. With an argument it shows that
// command's usage, otherwise the full listing.
func (h *HelpHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, meta telegram.Meta) error {
	if args := strings.TrimSpace(meta.Args); args != "" {
		sendHTML(bot, message.Chat.ID, helpFor(strings.TrimPrefix(args, "/")))
		return nil
	}

	commands := make([]string, 0, len(helpTexts))
	for command := range helpTexts {
		commands = append(commands, command)
	}
	sort.Strings(commands)

	var b strings.Builder
	b.WriteString("<b>MicroVote</b>\n")
	for _, command := range commands {
		fmt.Fprintf(&b, "\n%s\n", helpTexts[command])
	}
	sendHTML(bot, message.Chat.ID, b.String())
	return nil
}
