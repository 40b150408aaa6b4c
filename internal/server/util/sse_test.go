package util

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestWriteSSEEvent(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := WriteSSEEvent(c, "stage", map[string]string{"stage": "retrieving"})
	if err != nil {
		t.Fatalf("WriteSSEEvent() error = %v", err)
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, "event: stage\n") {
		t.Errorf("body = %q, want an event line first", body)
	}
	if !strings.Contains(body, `data: {"stage":"retrieving"}`) {
		t.Errorf("body = %q, want a data line with the payload", body)
	}
	if !strings.HasSuffix(body, "\n\n") {
		t.Errorf("body = %q, want a blank line terminator", body)
	}
}

func TestWriteSSEEventUnmarshalablePayload(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := WriteSSEEvent(c, "stage", func() {}); err == nil {
		t.Error("WriteSSEEvent() error = nil, want marshal failure")
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want nothing written on marshal failure", rec.Body.String())
	}
}
