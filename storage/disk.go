//go:generate go run go.uber.org/mock/mockgen -source=disk.go -destination=../mocks/mock_attachment_store.go -package=mocks
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"social-chat/domain/chat"
	"social-chat/domain/mimetypes"
	"strings"

	"github.com/google/uuid"
)

const (
	attachmentDir   = "chat_files"
	maxNameLength   = 100
	defaultFileName = "file"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type IAttachmentStore interface {
	Save(ctx context.Context, attachment *chat.DecodedAttachment) (chat.Attachment, error)
	Remove(attachment chat.Attachment) error
}

// DiskStore writes attachments under {root}/chat_files and exposes them
// under {urlPrefix}/chat_files.
type DiskStore struct {
	root       string
	urlPrefix  string
	verifyType bool
	log        *slog.Logger
}

func NewDiskStore(root, urlPrefix string, verifyType bool, log *slog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(filepath.Join(root, attachmentDir), 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	return &DiskStore{
		root:       root,
		urlPrefix:  strings.TrimRight(urlPrefix, "/"),
		verifyType: verifyType,
		log:        log,
	}, nil
}

// Save writes the bytes to a unique file. The file only appears once it is fully written.
func (d *DiskStore) Save(ctx context.Context, attachment *chat.DecodedAttachment) (chat.Attachment, error) {
	if err := ctx.Err(); err != nil {
		return chat.Attachment{}, err
	}

	name := uuid.NewString() + "_" + SanitizeFileName(attachment.OriginalName)
	relative := path.Join(attachmentDir, name)
	target := filepath.Join(d.root, attachmentDir, name)

	tmp, err := os.CreateTemp(filepath.Join(d.root, attachmentDir), ".upload-*")
	if err != nil {
		return chat.Attachment{}, fmt.Errorf("create attachment: %w", err)
	}
	if _, err := tmp.Write(attachment.Data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return chat.Attachment{}, fmt.Errorf("write attachment: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return chat.Attachment{}, fmt.Errorf("close attachment: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return chat.Attachment{}, fmt.Errorf("move attachment: %w", err)
	}

	fileType := mimetypes.Resolve(attachment.FileType, attachment.Data, d.verifyType)
	if fileType != attachment.FileType {
		d.log.Debug("Attachment type replaced by sniffed type", "declared", attachment.FileType, "detected", fileType)
	}
	d.log.Debug("Attachment stored", "file", relative, "size", len(attachment.Data))

	return chat.Attachment{
		FileName:     relative,
		OriginalName: attachment.OriginalName,
		FileType:     fileType,
		URL:          d.urlPrefix + "/" + relative,
	}, nil
}

// Remove deletes a saved attachment. Removing a missing file is not an error.
// Only files under the attachment directory can be removed.
func (d *DiskStore) Remove(attachment chat.Attachment) error {
	relative := path.Clean("/" + attachment.FileName)[1:]
	if path.Dir(relative) != attachmentDir {
		return fmt.Errorf("remove attachment: %q is outside %s", attachment.FileName, attachmentDir)
	}
	if err := os.Remove(filepath.Join(d.root, filepath.FromSlash(relative))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove attachment: %w", err)
	}
	d.log.Debug("Attachment removed", "file", relative)
	return nil
}

// SanitizeFileName keeps the base name of a client supplied file name and
// replaces anything outside [A-Za-z0-9._-].
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if len(name) > maxNameLength {
		name = name[len(name)-maxNameLength:]
	}
	if name == "" {
		return defaultFileName
	}
	return name
}
