package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Kind is the result of classifying a message.
type Kind int

const (
	// KindNone means the message carries no image.
	KindNone Kind = iota
	// KindPhoto means the message carries a native photo size array.
	KindPhoto
	// KindDocument means the message carries a document with an image MIME type.
	KindDocument
)

// Classification describes the image content of one message. Exactly one of
// Photo or Document is set, matching Kind.
type Classification struct {
	Kind     Kind
	Photo    *tgbotapi.PhotoSize
	Document *tgbotapi.Document
}

// FileID returns the authoritative remote file identifier for the
// classified image, or "" for KindNone.
func (c Classification) FileID() string {
	switch c.Kind {
	case KindPhoto:
		return c.Photo.FileID
	case KindDocument:
		return c.Document.FileID
	}
	return ""
}

// Classify decides whether a message carries an image. It is total over any
// message shape: a nil or malformed message classifies as KindNone, never a
// panic.
func Classify(msg *tgbotapi.Message) Classification {
	if msg == nil {
		return Classification{Kind: KindNone}
	}
	if len(msg.Photo) > 0 {
		return Classification{Kind: KindPhoto, Photo: LargestPhoto(msg.Photo)}
	}
	if msg.Document != nil && IsImageDocument(msg.Document) {
		return Classification{Kind: KindDocument, Document: msg.Document}
	}
	return Classification{Kind: KindNone}
}

// LargestPhoto picks the largest size from a photo size array. Telegram
// sends sizes in ascending order, so the largest is the LAST element. This
// is the platform's ordering contract, not a computed max; do not replace
// it with a width*height comparison.
func LargestPhoto(sizes []tgbotapi.PhotoSize) *tgbotapi.PhotoSize {
	if len(sizes) == 0 {
		return nil
	}
	return &sizes[len(sizes)-1]
}

// IsImageDocument reports whether a document is an image, by case-sensitive
// MIME type prefix.
func IsImageDocument(doc *tgbotapi.Document) bool {
	return doc != nil && strings.HasPrefix(doc.MimeType, "image/")
}
