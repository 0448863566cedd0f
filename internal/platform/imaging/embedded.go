package imaging

import (
	"bytes"
	"strings"

	"github.com/dhowden/tag"
)

// EmbeddedCover returns the artwork stored in an audio file's tags, if any.
func EmbeddedCover(audio []byte) (data []byte, mimeType string, ok bool) {
	if len(audio) == 0 {
		return nil, "", false
	}
	metadata, err := tag.ReadFrom(bytes.NewReader(audio))
	if err != nil {
		return nil, "", false
	}
	pic := metadata.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return nil, "", false
	}
	mimeType = strings.TrimSpace(pic.MIMEType)
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return pic.Data, mimeType, true
}
