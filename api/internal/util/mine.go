package util

import (
	"encoding/base64"
	"net/http"
	"strings"
)

func SniffMimeHTTP(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8 {
		return "image/jpeg"
	}
	if len(b) >= 8 &&
		b[0] == 0x89 && b[1] == 0x50 && b[2] == 0x4E && b[3] == 0x47 &&
		b[4] == 0x0D && b[5] == 0x0A && b[6] == 0x1A && b[7] == 0x0A {
		return "image/png"
	}
	if len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WEBP" {
		return "image/webp"
	}
	return http.DetectContentType(b)
}

func MakeDataURL(mime, b64 string) string {
	return "data:" + mime + ";base64," + b64
}

// SplitDataURL splits data:<mime>;base64,<payload>. For a bare payload mime is "".
func SplitDataURL(s string) (mime, payload string) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return "", s
	}
	idx := strings.IndexByte(s, ',')
	if idx < 0 {
		return "", s
	}
	meta := s[len("data:"):idx] // "<mime>;base64"
	if semi := strings.IndexByte(meta, ';'); semi >= 0 {
		mime = meta[:semi]
	} else {
		mime = meta
	}
	return mime, s[idx+1:]
}

// DecodeBase64MaybeDataURL декодирует base64. Если это data:URI, вернёт MIME из префикса.
func DecodeBase64MaybeDataURL(s string) ([]byte, string, error) {
	hintMIME, payload := SplitDataURL(s)
	// Стандартная база64, затем URL-safe — на случай вариаций
	if b, err := base64.StdEncoding.DecodeString(payload); err == nil {
		return b, hintMIME, nil
	} else if b2, err2 := base64.URLEncoding.DecodeString(payload); err2 == nil {
		return b2, hintMIME, nil
	} else {
		return nil, "", err
	}
}
