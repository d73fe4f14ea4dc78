package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/market-backend/internal/interface/http/dto"
	"github.com/ignatzorin/market-backend/internal/interface/http/response"
	"github.com/ignatzorin/market-backend/internal/usecase/media"
)

type MediaHandler struct {
	uploadUC *media.UploadUseCase
}

func NewMediaHandler(uploadUC *media.UploadUseCase) *MediaHandler {
	return &MediaHandler{uploadUC: uploadUC}
}

// Upload POST /api/media/:kind, multipart поле "file".
func (h *MediaHandler) Upload(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "файл обязателен")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "не удалось открыть файл")
		return
	}
	defer file.Close()

	result, err := h.uploadUC.Execute(c.Request.Context(), actor, media.Kind(c.Param("kind")), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.UploadResponse{
		URL:         result.URL,
		Key:         result.Key,
		ContentType: result.ContentType,
		Size:        result.Size,
	})
}
