// Package handlers implements the Telegram command surface. Each command is
// a small struct wired with the service and a logger; handlers parse input,
// call the governance core and render results as HTML.
package handlers

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sendHTML sends an HTML-formatted reply into a chat. Send errors are
// swallowed here; the message loop must not fail because one reply did.
func sendHTML(bot *tgbotapi.BotAPI, chatID int64, text string) {
	if text == "" {
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	bot.Send(msg)
}

// isGroup reports whether the message came from a group chat. Telegram
// group ids are negative; positive ids are direct-message chats.
func isGroup(message *tgbotapi.Message) bool {
	return message.Chat.ID < 0
}

// requireGroup rejects the command outside group chats.
func requireGroup(bot *tgbotapi.BotAPI, message *tgbotapi.Message) bool {
	if isGroup(message) {
		return true
	}
	sendHTML(bot, message.Chat.ID,
		"This action can only be used in a group chat with the bot as a member.")
	return false
}

// requireDirect rejects the command outside the direct chat with the bot.
func requireDirect(bot *tgbotapi.BotAPI, message *tgbotapi.Message) bool {
	if !isGroup(message) {
		return true
	}
	sendHTML(bot, message.Chat.ID,
		"This action can only be used in a direct chat with the bot.")
	return false
}

const notAdminMessage = "You must be a group admin to use this action."
