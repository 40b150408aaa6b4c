package util

import (
	"encoding/json"
	"fmt"

	"github.com/labstack/echo/v4"
)

// WriteSSEEvent writes a single server-sent event and flushes it so clients
// see pipeline progress as it happens.
func WriteSSEEvent(c echo.Context, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(c.Response(), "event: %s\n", event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", data); err != nil {
		return err
	}

	c.Response().Flush()
	return nil
}
