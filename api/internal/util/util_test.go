package util

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```":     `{"a":1}`,
		"```JSON {\"a\":1} ```":       `{"a":1}`,
		"```\n{\"a\":1}\n```":         `{"a":1}`,
		"  {\"a\":1}  ":               `{"a":1}`,
		"Here you go: {\"a\":1}":      `Here you go: {"a":1}`,
		"```json\r\n{\"a\":1}\r\n```": `{"a":1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, StripCodeFences(in), in)
	}
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":{"b":1}}`, ExtractJSONObject(`Sure! {"a":{"b":1}} Hope it helps.`))
	assert.Equal(t, "", ExtractJSONObject("no json here"))
	assert.Equal(t, "", ExtractJSONObject("} backwards {"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
	assert.Equal(t, "a...", Truncate("a×b", 2))
}

func TestCutUTF8(t *testing.T) {
	assert.Equal(t, "hi", CutUTF8("hi", 5))
	assert.Equal(t, "2 ", CutUTF8("2 × bread", 3))
	assert.Equal(t, "2 ×", CutUTF8("2 × bread", 4))
	assert.Equal(t, "", CutUTF8("🧾", 3))
}

func TestSplitDataURL(t *testing.T) {
	mime, payload := SplitDataURL("data:image/png;base64,AAAA")
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, "AAAA", payload)

	mime, payload = SplitDataURL("AAAA")
	assert.Equal(t, "", mime)
	assert.Equal(t, "AAAA", payload)
}

func TestDecodeBase64MaybeDataURL(t *testing.T) {
	raw := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 1, 2, 3}
	enc := base64.StdEncoding.EncodeToString(raw)

	b, mime, err := DecodeBase64MaybeDataURL(MakeDataURL("image/png", enc))
	require.NoError(t, err)
	assert.Equal(t, raw, b)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, "image/png", SniffMimeHTTP(b))

	_, _, err = DecodeBase64MaybeDataURL("!!!")
	assert.Error(t, err)
}

func TestSniffMimeHTTP_JPEG(t *testing.T) {
	assert.Equal(t, "image/jpeg", SniffMimeHTTP([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
}
