package servicetest

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"
)

var (
	PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	PDF = []byte("%PDF-1.7\n1 0 obj\n")
)

// FileHeader builds a *multipart.FileHeader the way fiber hands it to handlers.
func FileHeader(t *testing.T, name string, body []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(body); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("parse multipart: %v", err)
	}
	return req.MultipartForm.File["file"][0]
}
