package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/freelance-proposals/internal/dto"
	"github.com/ignatzorin/freelance-proposals/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-proposals/internal/storage"
)

// Разрешённые типы вложений: документы и изображения.
var allowedAttachmentMimes = map[string]bool{
	"application/pdf": true,
	"application/zip": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
}

// Разрешённые расширения вложений.
var allowedAttachmentExts = map[string]bool{
	".pdf":  true,
	".zip":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// AttachmentHandler управляет загрузкой вложений к предложениям.
type AttachmentHandler struct {
	storage *storage.AttachmentStorage
}

// NewAttachmentHandler создаёт новый хэндлер.
func NewAttachmentHandler(storage *storage.AttachmentStorage) *AttachmentHandler {
	return &AttachmentHandler{storage: storage}
}

// Upload обрабатывает POST /api/attachments.
// Реальный тип файла проверяется по магическим байтам, а не по расширению.
func (h *AttachmentHandler) Upload(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "поле file обязательно")
		return
	}

	if file.Size == 0 {
		common.RespondBadRequest(c, "файл не может быть пустым")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedAttachmentExts[ext] {
		common.RespondBadRequest(c, "неподдерживаемый формат файла")
		return
	}

	src, err := file.Open()
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "не удалось открыть файл")
		return
	}
	defer src.Close()

	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == filetype.Unknown {
		common.RespondBadRequest(c, "не удалось определить тип файла")
		return
	}
	if !allowedAttachmentMimes[kind.MIME.Value] {
		common.RespondBadRequest(c, "неподдерживаемый тип файла: "+kind.MIME.Value)
		return
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		common.RespondError(c, http.StatusInternalServerError, "не удалось перечитать файл")
		return
	}

	path, size, err := h.storage.Save(c.Request.Context(), userID, file.Filename, src)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "не удалось сохранить файл")
		return
	}

	common.RespondJSON(c, http.StatusCreated, dto.UploadResponse{Path: path, Size: size})
}
