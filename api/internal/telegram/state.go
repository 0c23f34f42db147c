package telegram

import "pantry-scan/api/internal/vision/types"

func (r *Router) setKind(chatID int64, k types.Kind) { r.kinds.Store(chatID, k) }

// getKind returns the chat's default kind set with /receipt, /meal or the keyboard.
func (r *Router) getKind(chatID int64) (types.Kind, bool) {
	if v, ok := r.kinds.Load(chatID); ok {
		k, _ := v.(types.Kind)
		return k, k.Valid()
	}
	return "", false
}
