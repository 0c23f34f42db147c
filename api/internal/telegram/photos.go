package telegram

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"pantry-scan/api/internal/scan"
	"pantry-scan/api/internal/util"
	"pantry-scan/api/internal/vision/types"
)

var maxPhotoBytes int64 = 20 << 20

func (r *Router) acceptPhoto(ctx context.Context, msg tgbotapi.Message) {
	cid := msg.Chat.ID
	// последний размер самый большой
	ph := msg.Photo[len(msg.Photo)-1]

	kind, ok := ParseCaption(msg.Caption)
	if !ok {
		kind, ok = r.getKind(cid)
	}
	if !ok {
		r.pending.Store(cid, ph.FileID)
		r.sendWithKeyboard(cid, "Is this a receipt or a meal?")
		return
	}
	r.scanPhoto(ctx, cid, ph.FileID, kind)
}

func (r *Router) scanPhoto(ctx context.Context, chatID int64, fileID string, kind types.Kind) {
	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		r.SendError(ctx, chatID, err)
		return
	}
	img, err := r.download(ctx, url)
	if err != nil {
		r.SendError(ctx, chatID, err)
		return
	}

	mime := util.SniffMimeHTTP(img)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	out, err := r.Scanner.Scan(ctx, scan.Request{
		Image:    util.MakeDataURL(mime, base64.StdEncoding.EncodeToString(img)),
		Type:     kind.String(),
		Provider: r.Provider,
		ID:       uuid.NewString(),
	})
	if err != nil {
		r.SendError(ctx, chatID, err)
		return
	}
	r.send(chatID, FormatOutcome(out))
}

func (r *Router) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("download photo: status %d: %s", resp.StatusCode, string(b))
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > maxPhotoBytes {
		return nil, &types.InvalidImageError{Reason: fmt.Sprintf("photo is larger than %d bytes", maxPhotoBytes)}
	}
	return b, nil
}
