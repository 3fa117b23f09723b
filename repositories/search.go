//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_message_index.go -package=mocks
package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"social-chat/domain/chat"
	"strings"

	"github.com/blugelabs/bluge"
)

const (
	fieldRoom    = "room"
	fieldContent = "content"
	fieldSender  = "sender"
	idField      = "_id"
)

// File names are split on separators so "lunch_menu.pdf" matches "menu".
var fileNameSeparators = strings.NewReplacer(".", " ", "_", " ", "-", " ")

type IMessageIndex interface {
	Index(message chat.Message) error
	Search(ctx context.Context, room chat.Room, terms string, limit int) ([]string, error)
}

// MessageIndex is a full-text index over message texts and attachment names.
// Document ids are message keys, so hits resolve straight back to the store.
type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) *MessageIndex {
	return &MessageIndex{writer: writer, log: log}
}

func (i *MessageIndex) Index(message chat.Message) error {
	content := message.Text
	if message.Attachment != nil && message.Attachment.OriginalName != "" {
		content = strings.TrimSpace(content + " " + fileNameSeparators.Replace(message.Attachment.OriginalName))
	}
	if content == "" {
		return nil
	}

	doc := bluge.NewDocument(MessageKey(message)).
		AddField(bluge.NewKeywordField(fieldRoom, message.Room().Group().String())).
		AddField(bluge.NewKeywordField(fieldSender, fmt.Sprintf("%d", message.SenderID))).
		AddField(bluge.NewTextField(fieldContent, content))

	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("index message %d: %w", message.ID, err)
	}
	return nil
}

// Search returns the keys of the best matching messages of a room.
func (i *MessageIndex) Search(ctx context.Context, room chat.Room, terms string, limit int) ([]string, error) {
	terms = strings.TrimSpace(terms)
	if terms == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("open index reader: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("Closing index reader failed", "error", err)
		}
	}()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(room.Group().String()).SetField(fieldRoom)).
		AddMust(bluge.NewMatchQuery(terms).SetField(fieldContent))

	matches, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", terms, err)
	}

	var keys []string
	match, err := matches.Next()
	for err == nil && match != nil {
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == idField {
				keys = append(keys, string(value))
				return false
			}
			return true
		})
		if err != nil {
			break
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("iterate search results: %w", err)
	}
	return keys, nil
}
