package media

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/market-backend/internal/storage"
)

// Kind назначение загружаемого файла.
type Kind string

const (
	KindAvatar   Kind = "avatar"
	KindListing  Kind = "listing"
	KindDelivery Kind = "delivery"
)

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// allowedTypes реальные типы по магическим байтам для каждого назначения.
func allowedTypes(kind Kind) (map[string]bool, bool) {
	switch kind {
	case KindAvatar, KindListing:
		return imageTypes, true
	case KindDelivery:
		types := map[string]bool{"application/pdf": true, "application/zip": true}
		for t := range imageTypes {
			types[t] = true
		}
		return types, true
	}
	return nil, false
}

type UploadResult struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

type UploadUseCase struct {
	storage  storage.ObjectStorage
	maxBytes int64
}

func NewUploadUseCase(objectStorage storage.ObjectStorage, maxUploadMB int64) *UploadUseCase {
	return &UploadUseCase{storage: objectStorage, maxBytes: maxUploadMB * 1024 * 1024}
}

func (uc *UploadUseCase) Execute(ctx context.Context, actor entity.Actor, kind Kind, r io.Reader) (*UploadResult, error) {
	if actor.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}
	allowed, ok := allowedTypes(kind)
	if !ok {
		return nil, apperror.Validation("назначение файла должно быть avatar, listing или delivery")
	}

	data, err := io.ReadAll(io.LimitReader(r, uc.maxBytes+1))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeBadRequest, "не удалось прочитать файл")
	}
	if len(data) == 0 {
		return nil, apperror.Validation("файл не может быть пустым")
	}
	if int64(len(data)) > uc.maxBytes {
		return nil, apperror.Validation(fmt.Sprintf("размер файла превышает лимит %d МБ", uc.maxBytes/1024/1024))
	}

	// тип определяется по содержимому, а не по имени файла
	fileKind, err := filetype.Match(data)
	if err != nil || fileKind == filetype.Unknown {
		return nil, apperror.Validation("не удалось определить тип файла")
	}
	contentType := fileKind.MIME.Value
	if !allowed[contentType] {
		return nil, apperror.Validation(fmt.Sprintf("неподдерживаемый тип файла (%s)", contentType))
	}

	key := fmt.Sprintf("%s/%s/%s.%s", kind, actor.UserID, uuid.NewString(), fileKind.Extension)
	if err := uc.storage.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить файл")
	}

	return &UploadResult{
		Key:         key,
		URL:         uc.storage.PublicURL(key),
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}
