package telegram

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pantry-scan/api/internal/normalize"
	"pantry-scan/api/internal/scan"
	"pantry-scan/api/internal/util"
	"pantry-scan/api/internal/vision/types"
)

const maxMessageLen = 3900

// botAPI is the subset of *tgbotapi.BotAPI the router uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Scanner interface {
	Scan(ctx context.Context, req scan.Request) (normalize.Outcome, error)
}

type Router struct {
	Bot      botAPI
	Scanner  Scanner
	Provider string // empty means the service default
	HTTP     *http.Client

	kinds   sync.Map // chatID -> types.Kind
	pending sync.Map // chatID -> fileID, photo waiting for a kind
}

func NewRouter(bot botAPI, s Scanner, provider string) *Router {
	return &Router{
		Bot:      bot,
		Scanner:  s,
		Provider: provider,
		HTTP:     &http.Client{Timeout: 60 * time.Second},
	}
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(ctx, *upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	logger := log.Logger.With().Int64("chat_id", upd.Message.Chat.ID).Int("update_id", upd.UpdateID).Logger()
	ctx = logger.WithContext(ctx)

	switch {
	case upd.Message.IsCommand():
		r.HandleCommand(upd)
	case len(upd.Message.Photo) > 0:
		r.acceptPhoto(ctx, *upd.Message)
	default:
		r.sendWithKeyboard(upd.Message.Chat.ID, "Send me a photo of a receipt or a meal. What will it be?")
	}
}

func (r *Router) HandleCommand(upd tgbotapi.Update) {
	cid := upd.Message.Chat.ID
	switch upd.Message.Command() {
	case "start":
		r.send(cid, "Send a photo of a grocery receipt or a meal and I will list what is on it.\n"+
			"Add the caption \"receipt\" or \"meal\", or pick a default with /receipt or /meal.\n"+
			"Commands: /receipt, /meal, /health")
	case "health":
		r.send(cid, "✅ OK")
	case "receipt":
		r.setKind(cid, types.KindReceipt)
		r.send(cid, "Ok, photos without a caption are read as receipts.")
	case "meal":
		r.setKind(cid, types.KindMeal)
		r.send(cid, "Ok, photos without a caption are read as meals.")
	default:
		r.send(cid, "Unknown command. Try /start")
	}
}

func (r *Router) handleCallback(ctx context.Context, cb tgbotapi.CallbackQuery) {
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack
	if cb.Message == nil {
		return
	}
	cid := cb.Message.Chat.ID

	kind, ok := kindFromCallback(cb.Data)
	if !ok {
		return
	}
	// убрать клавиатуру
	_, _ = r.Bot.Send(tgbotapi.NewEditMessageReplyMarkup(cid, cb.Message.MessageID, tgbotapi.InlineKeyboardMarkup{}))
	r.setKind(cid, kind)

	if v, ok := r.pending.LoadAndDelete(cid); ok {
		r.scanPhoto(ctx, cid, v.(string), kind)
		return
	}
	r.send(cid, "Ok, send the "+kind.String()+" photo.")
}

func (r *Router) send(chatID int64, text string) {
	if len(text) > maxMessageLen {
		text = util.CutUTF8(text, maxMessageLen) + "…"
	}
	_, _ = r.Bot.Send(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) sendWithKeyboard(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = makeKindKeyboard()
	_, _ = r.Bot.Send(msg)
}

func (r *Router) SendError(ctx context.Context, chatID int64, err error) {
	zerolog.Ctx(ctx).Error().Err(err).Msg("scan from telegram failed")

	var ie *types.InvalidImageError
	switch {
	case errors.As(err, &ie):
		r.send(chatID, "That photo could not be read. Please send it again as a photo, not a file.")
	case types.HTTPStatus(err) < http.StatusInternalServerError:
		r.send(chatID, "Request rejected: "+err.Error())
	default:
		r.send(chatID, "Scanning failed, please try again later.")
	}
}
