package media_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/market-backend/internal/usecase/media"
)

type memStorage struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *memStorage) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *memStorage) PublicURL(key string) string {
	return "https://cdn.example/" + key
}

var (
	pngHeader = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	pdfHeader = []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n")
)

func TestUpload_ImageForAvatar(t *testing.T) {
	store := newMemStorage()
	actor := entity.Actor{UserID: uuid.New()}

	res, err := media.NewUploadUseCase(store, 1).Execute(context.Background(), actor, media.KindAvatar, bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.ContentType)
	assert.True(t, strings.HasPrefix(res.Key, "avatar/"+actor.UserID.String()+"/"))
	assert.True(t, strings.HasSuffix(res.Key, ".png"))
	assert.Equal(t, "https://cdn.example/"+res.Key, res.URL)
	assert.Equal(t, pngHeader, store.objects[res.Key])
}

func TestUpload_PDFOnlyForDelivery(t *testing.T) {
	store := newMemStorage()
	uc := media.NewUploadUseCase(store, 1)
	actor := entity.Actor{UserID: uuid.New()}

	_, err := uc.Execute(context.Background(), actor, media.KindListing, bytes.NewReader(pdfHeader))
	assert.True(t, apperror.IsValidation(err))

	res, err := uc.Execute(context.Background(), actor, media.KindDelivery, bytes.NewReader(pdfHeader))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", res.ContentType)
}

func TestUpload_Rejections(t *testing.T) {
	uc := media.NewUploadUseCase(newMemStorage(), 1)
	actor := entity.Actor{UserID: uuid.New()}
	ctx := context.Background()

	_, err := uc.Execute(ctx, entity.Actor{}, media.KindAvatar, bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = uc.Execute(ctx, actor, media.Kind("video"), bytes.NewReader(pngHeader))
	assert.True(t, apperror.IsValidation(err))

	_, err = uc.Execute(ctx, actor, media.KindAvatar, strings.NewReader("просто текст, не картинка"))
	assert.True(t, apperror.IsValidation(err))

	_, err = uc.Execute(ctx, actor, media.KindAvatar, bytes.NewReader(nil))
	assert.True(t, apperror.IsValidation(err))

	big := append(append([]byte{}, pngHeader...), make([]byte, 1024*1024)...)
	_, err = uc.Execute(ctx, actor, media.KindAvatar, bytes.NewReader(big))
	assert.True(t, apperror.IsValidation(err))
}
