package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/conformitas/veridoc/internal/server/middleware"
	"github.com/conformitas/veridoc/internal/storage"
	"github.com/conformitas/veridoc/pkg/logger"
)

// UploadDocumentHandler stores a document from multipart/form-data and
// returns the storage key used to request a review.
func UploadDocumentHandler(c echo.Context) error {
	type uploadDocumentResponse struct {
		Message string `json:"message"`
		Key     string `json:"key,omitempty"`
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, uploadDocumentResponse{
			Message: "Invalid request body",
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		logger.Error("Failed to open uploaded file", "err", err)
		return c.JSON(http.StatusInternalServerError, uploadDocumentResponse{
			Message: "Internal server error",
		})
	}
	defer src.Close()

	id, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, uploadDocumentResponse{
			Message: "Internal server error",
		})
	}

	ctx := c.Request().Context()
	s3Client := c.(*middleware.AppContext).App.S3
	key, err := storage.PutFile(ctx, s3Client, "documents", fileHeader.Filename, id, src)
	if err != nil {
		logger.Error("Failed to store document", "name", fileHeader.Filename, "err", err)
		return c.JSON(http.StatusInternalServerError, uploadDocumentResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, uploadDocumentResponse{
		Message: "Document uploaded",
		Key:     key,
	})
}
