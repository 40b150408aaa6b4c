package review

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPExtractorExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Filename") != "plan.pdf" {
			t.Errorf("X-Filename = %q, want plan.pdf", r.Header.Get("X-Filename"))
		}
		if r.Header.Get("Content-Type") != "application/octet-stream" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		w.Write([]byte(`{"text": "Adhesive bonding plan.", "pages": 3}`))
	}))
	defer srv.Close()

	e := NewHTTPExtractor(srv.URL, 0)
	got, err := e.Extract(context.Background(), []byte("%PDF"), "plan.pdf")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got.Text != "Adhesive bonding plan." || got.Pages != 3 {
		t.Errorf("Extract() = %+v", got)
	}
}

func TestHTTPExtractorNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported format", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	e := NewHTTPExtractor(srv.URL, 0)
	_, err := e.Extract(context.Background(), []byte("%PDF"), "plan.pdf")
	if err == nil {
		t.Fatal("Extract() error = nil, want status error")
	}
	if !strings.Contains(err.Error(), "422") || !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("error = %v, want status and body excerpt", err)
	}
}

func TestHTTPExtractorEmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "", "pages": 0}`))
	}))
	defer srv.Close()

	e := NewHTTPExtractor(srv.URL, 0)
	if _, err := e.Extract(context.Background(), []byte("%PDF"), "scan.pdf"); err == nil {
		t.Error("Extract() error = nil, want empty-text error")
	}
}
