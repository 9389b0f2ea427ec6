package speechify

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

const ssmlNamespace = "http://www.speechify.com/ssml"

// BuildSSML wraps text in a <speak> document, optionally inside a
// speechify:style element. Text and attribute values are XML-escaped.
func BuildSSML(text string, style *Style) (string, error) {
	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return "", fmt.Errorf("failed to escape text: %w", err)
	}

	if style == nil || style.Emotion == "" {
		return "<speak>" + escaped.String() + "</speak>", nil
	}

	rate := style.Rate
	if rate == "" {
		rate = "medium"
	}

	return fmt.Sprintf(`<speak xmlns:speechify="%s"><speechify:style emotion="%s" rate="%s">%s</speechify:style></speak>`,
		ssmlNamespace, attr(style.Emotion), attr(rate), escaped.String()), nil
}

func attr(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
