package dashboard

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "127.0.0.1:5000" {
		t.Fatalf("default url = %q", u.String())
	}

	u, err = parseBaseURL("dash.local:8080/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "dash.local:8080" {
		t.Fatalf("url = %q, want http://dash.local:8080", u.String())
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, Options{RequestRate: 1000, UserAgent: "molar/test"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestClient_CaptureFlowEndpoints(t *testing.T) {
	t.Parallel()

	var gotUserAgent, gotRequestID, gotImageQuery string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotRequestID = r.Header.Get("X-Request-ID")

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/capture-only":
			_ = json.NewEncoder(w).Encode(CaptureResponse{Status: StatusSuccess, RequestID: "req-1"})
		case r.URL.Path == "/get-latest-image":
			_ = json.NewEncoder(w).Encode(LatestImageResponse{Status: StatusSuccess, Filename: "scan_1.jpg"})
		case r.URL.Path == "/uploads/scan_1.jpg":
			gotImageQuery = r.URL.Query().Get("t")
			_, _ = w.Write([]byte("jpeg-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	ctx := testContext(t)

	queued, err := c.RequestCapture(ctx)
	if err != nil {
		t.Fatalf("RequestCapture returned error: %v", err)
	}
	if queued.RequestID != "req-1" {
		t.Fatalf("RequestID = %q, want req-1", queued.RequestID)
	}

	latest, err := c.LatestImage(ctx)
	if err != nil {
		t.Fatalf("LatestImage returned error: %v", err)
	}
	if latest.Filename != "scan_1.jpg" {
		t.Fatalf("Filename = %q, want scan_1.jpg", latest.Filename)
	}

	data, err := c.FetchImage(ctx, "scan_1.jpg")
	if err != nil {
		t.Fatalf("FetchImage returned error: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Fatalf("FetchImage = %q", data)
	}
	if gotImageQuery == "" {
		t.Fatalf("expected cache-busting t query")
	}
	if gotUserAgent != "molar/test" {
		t.Fatalf("User-Agent = %q, want molar/test", gotUserAgent)
	}
	if len(gotRequestID) != 36 {
		t.Fatalf("X-Request-ID = %q, want uuid", gotRequestID)
	}
}

func TestClient_FetchImageRejectsPaths(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1", Options{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.FetchImage(context.Background(), "../secret"); err == nil {
		t.Fatalf("expected error for path traversal filename")
	}
}

func TestClient_FetchImageRejectsOversizedBody(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = io.CopyN(w, zeroReader{}, maxImageBytes+1)
	}))
	data, err := c.FetchImage(testContext(t), "huge.jpg")
	if err == nil {
		t.Fatalf("expected error for oversized image, got %d bytes", len(data))
	}
	if !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("error = %v, want size limit error", err)
	}
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func TestClient_AnalyzeImageSendsMultipart(t *testing.T) {
	t.Parallel()

	var gotField, gotFilename, gotBody string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze-image" {
			http.NotFound(w, r)
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		gotField, gotFilename, gotBody = "image", header.Filename, string(body)

		_, _ = io.WriteString(w, `{"response":{"status":"Good","primary_issue":"None","detection_counts":{"healthy":2},"predictions":[{"class":"healthy","confidence":0.9,"box_2d":[1,2,3,4]}]}}`)
	}))

	analysis, err := c.AnalyzeImage(testContext(t), "scan_1.jpg", []byte("pixels"))
	if err != nil {
		t.Fatalf("AnalyzeImage returned error: %v", err)
	}
	if gotField != "image" || gotFilename != "scan_1.jpg" || gotBody != "pixels" {
		t.Fatalf("multipart = %q/%q/%q", gotField, gotFilename, gotBody)
	}
	if analysis.Status != ScanGood || analysis.DetectionCounts["healthy"] != 2 {
		t.Fatalf("analysis = %#v", analysis)
	}
	if len(analysis.Predictions) != 1 || analysis.Predictions[0].Box[3] != 4 {
		t.Fatalf("predictions = %#v", analysis.Predictions)
	}
}

func TestClient_AnalyzeImageSurfacesServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "error body", status: http.StatusInternalServerError, body: `{"error":"model overloaded"}`, wantMsg: "model overloaded"},
		{name: "no body", status: http.StatusBadGateway, body: ``, wantMsg: "Server responded with status: 502"},
		{name: "ok with error", status: http.StatusOK, body: `{"error":"no teeth found"}`, wantMsg: "no teeth found"},
		{name: "empty object", status: http.StatusOK, body: `{}`, wantMsg: "Invalid response from analysis service"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			_, err := c.AnalyzeImage(testContext(t), "x.jpg", []byte("x"))
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.Message != tt.wantMsg {
				t.Fatalf("Message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestClient_ErrorStatusKeepsPayload(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"status":"error","message":"No analysis results found"}`)
	}))

	resp, err := c.FetchAnalysis(testContext(t))
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "No analysis results found" {
		t.Fatalf("APIError = %#v", apiErr)
	}
	if resp.Message != "No analysis results found" {
		t.Fatalf("payload message = %q", resp.Message)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Fatalf("error string = %q, want status code", err.Error())
	}
}

func TestClient_LoginKeepsSessionCookie(t *testing.T) {
	t.Parallel()

	var sawCookie bool
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			if r.Method == http.MethodGet {
				_, _ = io.WriteString(w, "login form")
				return
			}
			_ = r.ParseForm()
			if r.PostForm.Get("password") != "secret" {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			http.Redirect(w, r, "/dashboard", http.StatusFound)
		case "/dashboard":
			_, _ = io.WriteString(w, "ok")
		case "/api/pi-status":
			if cookie, err := r.Cookie("session"); err == nil && cookie.Value == "abc" {
				sawCookie = true
			}
			_ = json.NewEncoder(w).Encode(DeviceStatus{Connected: true})
		default:
			http.NotFound(w, r)
		}
	}))
	ctx := testContext(t)

	if err := c.Login(ctx, "dr", "wrong"); !errors.Is(err, ErrLoginFailed) {
		t.Fatalf("Login with bad password = %v, want ErrLoginFailed", err)
	}
	if err := c.Login(ctx, "dr", "secret"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	status, err := c.DeviceStatus(ctx)
	if err != nil {
		t.Fatalf("DeviceStatus returned error: %v", err)
	}
	if !status.Connected || !sawCookie {
		t.Fatalf("status = %#v sawCookie = %v", status, sawCookie)
	}
}

func TestClient_SaveAndDeleteScan(t *testing.T) {
	t.Parallel()

	var saved SaveScanRequest
	var deletedPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/save-scan":
			_ = json.NewDecoder(r.Body).Decode(&saved)
			_ = json.NewEncoder(w).Encode(SaveScanResponse{Status: StatusSuccess, ScanID: "s-9"})
		case strings.HasPrefix(r.URL.Path, "/delete-scan/"):
			deletedPath = r.URL.Path
			_, _ = io.WriteString(w, "<html>dashboard</html>")
		default:
			http.NotFound(w, r)
		}
	}))
	ctx := testContext(t)

	resp, err := c.SaveScan(ctx, "scan_1.jpg", Analysis{Status: ScanGood})
	if err != nil {
		t.Fatalf("SaveScan returned error: %v", err)
	}
	if resp.ScanID != "s-9" || saved.Filename != "scan_1.jpg" || saved.Analysis.Status != ScanGood {
		t.Fatalf("save = %#v body = %#v", resp, saved)
	}

	if err := c.DeleteScan(ctx, "s-9"); err != nil {
		t.Fatalf("DeleteScan returned error: %v", err)
	}
	if deletedPath != "/delete-scan/s-9" {
		t.Fatalf("delete path = %q", deletedPath)
	}
	if err := c.DeleteScan(ctx, " "); err == nil {
		t.Fatalf("expected error for empty scan id")
	}
}

func TestClient_SaveScanFailureStatus(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(SaveScanResponse{Status: StatusError, Message: "Not logged in"})
	}))

	_, err := c.SaveScan(testContext(t), "a.jpg", Analysis{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Not logged in" {
		t.Fatalf("SaveScan error = %v, want Not logged in", err)
	}
}

func TestClient_NilReceiver(t *testing.T) {
	var c *Client
	if _, err := c.RequestCapture(context.Background()); err == nil {
		t.Fatalf("expected error from nil client")
	}
	if _, err := c.DeviceStatus(context.Background()); err == nil {
		t.Fatalf("expected error from nil client")
	}
}
