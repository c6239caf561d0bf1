package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gig-marketplace/internal/http/handlers/common"
)

// isMultipart сообщает, что тело запроса пришло как multipart/form-data.
func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// optionalFile возвращает файл из поля формы или nil, если поле не передано.
// При битой форме сам отвечает 400.
func optionalFile(c *gin.Context, field string) (*multipart.FileHeader, bool) {
	if !isMultipart(c) {
		return nil, true
	}
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return nil, false
	}
	return fh, true
}

// formFiles возвращает все файлы поля multipart-формы.
func formFiles(c *gin.Context, field string) ([]*multipart.FileHeader, bool) {
	if !isMultipart(c) {
		return nil, true
	}
	form, err := c.MultipartForm()
	if err != nil {
		common.RespondBadRequest(c, "не удалось прочитать форму")
		return nil, false
	}
	return form.File[field], true
}
