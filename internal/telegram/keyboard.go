package telegram

import (
	"github.com/go-telegram/bot/models"
	"github.com/set-night/primeminister/internal/domain"
)

const (
	CallbackModeCouncil = "mode_council"
	CallbackModeAdvisor = "mode_advisor"
	CallbackModePrefix  = "mode_"
)

// InlineButton creates a single inline keyboard button.
func InlineButton(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// InlineKeyboard creates an inline keyboard from rows of buttons.
func InlineKeyboard(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

// ButtonRow creates a row of inline buttons.
func ButtonRow(buttons ...models.InlineKeyboardButton) []models.InlineKeyboardButton {
	return buttons
}

// ModeKeyboard offers both modes and marks the current one.
func ModeKeyboard(current domain.Mode) *models.InlineKeyboardMarkup {
	label := func(m domain.Mode, text string) string {
		if m == current {
			return "✅ " + text
		}
		return text
	}
	return InlineKeyboard(ButtonRow(
		InlineButton(label(domain.ModeCouncil, "🗳 Council"), CallbackModeCouncil),
		InlineButton(label(domain.ModeAdvisor, "🧭 Advisor"), CallbackModeAdvisor),
	))
}
