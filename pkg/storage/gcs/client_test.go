package gcs

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) *http.Response

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

func newTestClient(t *testing.T, handler roundTripFunc) *Client {
	t.Helper()
	return &Client{
		defaultBucket: "bucket",
		tokenSource: &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
			return "token", time.Now().Add(time.Hour), nil
		}},
		httpClient: &http.Client{Transport: handler},
	}
}

func TestUploadSuccess(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(req *http.Request) *http.Response {
		if req.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", req.Method)
		}
		if req.Header.Get("Authorization") != "Bearer token" {
			t.Fatalf("unexpected auth %s", req.Header.Get("Authorization"))
		}
		if req.Header.Get("Content-Type") != "application/pdf" {
			t.Fatalf("unexpected content type %s", req.Header.Get("Content-Type"))
		}
		if !strings.Contains(req.URL.RawQuery, "uploadType=media") {
			t.Fatalf("expected media upload, got %s", req.URL.RawQuery)
		}
		body, _ := io.ReadAll(req.Body)
		if string(body) != "certificate-bytes" {
			t.Fatalf("unexpected body %q", string(body))
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{}`)),
			Header:     http.Header{},
		}
	})

	url, err := client.Upload(context.Background(), "warranty-certificates/w-1.pdf", "application/pdf", []byte("certificate-bytes"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	want := "https://storage.googleapis.com/bucket/warranty-certificates/w-1.pdf"
	if url != want {
		t.Fatalf("unexpected object url %q", url)
	}
}

func TestUploadFailureSurfacesStatus(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(req *http.Request) *http.Response {
		return &http.Response{
			StatusCode: http.StatusServiceUnavailable,
			Status:     "503 Service Unavailable",
			Body:       io.NopCloser(strings.NewReader("backend unavailable")),
			Header:     http.Header{},
		}
	})

	if _, err := client.Upload(context.Background(), "warranty-certificates/w-1.pdf", "application/pdf", []byte("x")); err == nil {
		t.Fatal("expected upload error")
	}
}

func TestUploadRequiresObjectName(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(req *http.Request) *http.Response {
		t.Fatal("no request expected")
		return nil
	})

	if _, err := client.Upload(context.Background(), "", "application/pdf", nil); err == nil {
		t.Fatal("expected error for empty object name")
	}
}

func TestUploadUninitializedClient(t *testing.T) {
	t.Parallel()

	var client *Client
	if _, err := client.Upload(context.Background(), "obj", "text/plain", nil); err == nil {
		t.Fatal("expected error for nil client")
	}
}
