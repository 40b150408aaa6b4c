package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/conformitas/veridoc/internal/queue"
	"github.com/conformitas/veridoc/internal/server/middleware"
	"github.com/conformitas/veridoc/pkg/logger"
)

// StartIngestHandler queues a corpus graph construction run. The heavy work
// happens in the worker; the request only enqueues the job.
func StartIngestHandler(c echo.Context) error {
	type startIngestBody struct {
		StartOffset int `json:"start_offset"`
	}

	type startIngestResponse struct {
		Message string `json:"message"`
	}

	data := new(startIngestBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, startIngestResponse{
			Message: "Invalid request body",
		})
	}

	msg := queue.IngestJobMsg{
		Message:     "Graph construction requested",
		StartOffset: data.StartOffset,
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, startIngestResponse{
			Message: "Internal server error",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.IngestQueue, msgBytes); err != nil {
		logger.Error("Failed to queue graph construction", "err", err)
		return c.JSON(http.StatusInternalServerError, startIngestResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, startIngestResponse{
		Message: "Graph construction queued",
	})
}
