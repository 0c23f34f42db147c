package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pantry-scan/api/internal/vision/types"
)

const kindCallbackPrefix = "kind:"

// Кнопки выбора типа фото
func makeKindKeyboard() tgbotapi.InlineKeyboardMarkup {
	receipt := tgbotapi.NewInlineKeyboardButtonData("🧾 Receipt", kindCallbackPrefix+types.KindReceipt.String())
	meal := tgbotapi.NewInlineKeyboardButtonData("🍽 Meal", kindCallbackPrefix+types.KindMeal.String())
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(receipt, meal))
}

func kindFromCallback(data string) (types.Kind, bool) {
	rest, ok := strings.CutPrefix(data, kindCallbackPrefix)
	if !ok {
		return "", false
	}
	k, err := types.ParseKind(rest)
	return k, err == nil
}
