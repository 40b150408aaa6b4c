package routes

import (
	"net/http"
	"path"

	"github.com/labstack/echo/v4"

	"github.com/conformitas/veridoc/internal/server/middleware"
	sutil "github.com/conformitas/veridoc/internal/server/util"
	"github.com/conformitas/veridoc/internal/storage"
	"github.com/conformitas/veridoc/internal/util"
	corpuspgx "github.com/conformitas/veridoc/pkg/corpus/pgx"
	kgredis "github.com/conformitas/veridoc/pkg/kgraph/redis"
	"github.com/conformitas/veridoc/pkg/logger"
	"github.com/conformitas/veridoc/pkg/review"
	"github.com/conformitas/veridoc/pkg/search"
)

// CreateReviewHandler runs a compliance review over an uploaded document and
// streams pipeline progress as server-sent events. The final "result" event
// carries the verdict, report and citations.
func CreateReviewHandler(c echo.Context) error {
	type createReviewBody struct {
		DocumentKey string `json:"document_key" validate:"required"`
		Filename    string `json:"filename"`
	}

	type createReviewResponse struct {
		Message string `json:"message"`
	}

	data := new(createReviewBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createReviewResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createReviewResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	file, err := storage.GetFile(ctx, app.S3, data.DocumentKey)
	if err != nil {
		logger.Error("Failed to fetch document", "key", data.DocumentKey, "err", err)
		return c.JSON(http.StatusNotFound, createReviewResponse{
			Message: "Document not found",
		})
	}

	name := data.Filename
	if name == "" {
		name = path.Base(data.DocumentKey)
	}

	engine := search.NewEngine(
		app.AiClient,
		corpuspgx.NewChunkIndex(app.DBConn),
		kgredis.NewGraphStore(app.Redis),
	)
	pipeline := review.NewPipeline(
		review.NewHTTPExtractor(util.GetEnv("EXTRACT_URL"), 0),
		review.NewAIAnalyzer(app.AiClient),
		engine,
		app.AiClient,
		review.Config{},
	)

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	docs := []review.Document{{Name: name, Data: file}}
	result, err := pipeline.Run(ctx, docs, func(e review.Event) {
		if err := sutil.WriteSSEEvent(c, e.Type, e); err != nil {
			logger.Warn("Failed to write review event", "err", err)
		}
	})
	if err != nil {
		logger.Error("Review pipeline failed", "key", data.DocumentKey, "err", err)
		sutil.WriteSSEEvent(c, "error", createReviewResponse{
			Message: "Review failed",
		})
		return nil
	}

	return sutil.WriteSSEEvent(c, "result", result)
}
