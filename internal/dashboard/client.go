package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/five82/molar/internal/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// API is the set of dashboard calls molar makes. *Client implements it and
// tests substitute fakes.
type API interface {
	Login(ctx context.Context, username, password string) error
	RequestCapture(ctx context.Context) (CaptureResponse, error)
	LatestImage(ctx context.Context) (LatestImageResponse, error)
	FetchImage(ctx context.Context, filename string) ([]byte, error)
	AnalyzeImage(ctx context.Context, filename string, image []byte) (*Analysis, error)
	FetchAnalysis(ctx context.Context) (StoredAnalysisResponse, error)
	SaveScan(ctx context.Context, filename string, analysis Analysis) (SaveScanResponse, error)
	DeleteScan(ctx context.Context, scanID string) error
	DeviceStatus(ctx context.Context) (DeviceStatus, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// ErrLoginFailed is returned when the dashboard bounces the login form.
var ErrLoginFailed = errors.New("login rejected by dashboard")

// APIError carries a non-success answer from the dashboard.
type APIError struct {
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "" && e.StatusCode >= 400:
		return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.StatusCode, e.Message)
	case e.Message != "":
		return e.Message
	default:
		return fmt.Sprintf("api %s returned status %d", e.Path, e.StatusCode)
	}
}

// Client talks to the dashboard HTTP API. It keeps the session cookie between calls.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	log       logrus.FieldLogger
	userAgent string
}

// Options tune a Client.
type Options struct {
	Logger      logrus.FieldLogger
	RequestRate float64 // requests per second; zero uses the default
	UserAgent   string
}

const (
	defaultBaseURL     = "http://127.0.0.1:5000"
	defaultUserAgent   = "molar/0.1"
	defaultRequestRate = 5
	requestTimeout     = 10 * time.Second
	analyzeTimeout     = 90 * time.Second
	maxImageBytes      = 20 << 20
)

// NewClient builds a Client for the dashboard at baseURL.
func NewClient(baseURL string, opts Options) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	perSecond := opts.RequestRate
	if perSecond <= 0 {
		perSecond = defaultRequestRate
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Jar: jar},
		limiter:   rate.NewLimiter(rate.Limit(perSecond), int(perSecond)+1),
		log:       logger,
		userAgent: userAgent,
	}, nil
}

// BaseURL returns the dashboard root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Login posts the dashboard login form and keeps the session cookie.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	resp, err := c.send(ctx, http.MethodPost, &url.URL{Path: "/login"}, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()), requestTimeout)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return &APIError{Path: "/login", StatusCode: resp.StatusCode}
	}
	// A successful login redirects away from the form.
	if resp.Request != nil && strings.TrimSuffix(resp.Request.URL.Path, "/") == "/login" {
		return ErrLoginFailed
	}
	return nil
}

// RequestCapture queues a capture on the camera device.
func (c *Client) RequestCapture(ctx context.Context) (CaptureResponse, error) {
	if c == nil {
		return CaptureResponse{}, fmt.Errorf("client is nil")
	}
	var payload CaptureResponse
	if err := c.doJSON(ctx, http.MethodPost, "/capture-only", nil, &payload); err != nil {
		return payload, err
	}
	return payload, nil
}

// LatestImage asks for the most recent completed capture.
func (c *Client) LatestImage(ctx context.Context) (LatestImageResponse, error) {
	if c == nil {
		return LatestImageResponse{}, fmt.Errorf("client is nil")
	}
	var payload LatestImageResponse
	if err := c.doJSON(ctx, http.MethodGet, "/get-latest-image", nil, &payload); err != nil {
		return payload, err
	}
	return payload, nil
}

// FetchImage downloads an uploaded capture. A timestamp query defeats caches.
func (c *Client) FetchImage(ctx context.Context, filename string) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	name := strings.TrimSpace(filename)
	if name == "" || name != path.Base(name) {
		return nil, fmt.Errorf("invalid image filename %q", filename)
	}
	values := url.Values{}
	values.Set("t", strconv.FormatInt(time.Now().UnixMilli(), 10))
	rel := &url.URL{Path: "/uploads/" + name, RawQuery: values.Encode()}

	resp, err := c.send(ctx, http.MethodGet, rel, "", nil, requestTimeout)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return nil, &APIError{Path: rel.Path, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image %s exceeds %d bytes", name, maxImageBytes)
	}
	return data, nil
}

// AnalyzeImage uploads image bytes as multipart field "image" and returns the analysis.
func (c *Client) AnalyzeImage(ctx context.Context, filename string, image []byte) (*Analysis, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("image is empty")
	}
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", path.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	rel := &url.URL{Path: "/analyze-image"}
	resp, err := c.send(ctx, http.MethodPost, rel, writer.FormDataContentType(), &body, analyzeTimeout)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var payload AnalyzeResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&payload)
	if resp.StatusCode >= 400 {
		msg := payload.Error
		if decodeErr != nil || msg == "" {
			msg = fmt.Sprintf("Server responded with status: %d", resp.StatusCode)
		}
		return nil, &APIError{Path: rel.Path, StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	if payload.Response != nil {
		return payload.Response, nil
	}
	if payload.Error != "" {
		return nil, &APIError{Path: rel.Path, StatusCode: resp.StatusCode, Message: payload.Error}
	}
	return nil, &APIError{Path: rel.Path, StatusCode: resp.StatusCode, Message: "Invalid response from analysis service"}
}

// FetchAnalysis retrieves the most recent stored analysis.
func (c *Client) FetchAnalysis(ctx context.Context) (StoredAnalysisResponse, error) {
	if c == nil {
		return StoredAnalysisResponse{}, fmt.Errorf("client is nil")
	}
	var payload StoredAnalysisResponse
	if err := c.doJSON(ctx, http.MethodGet, "/get-analysis", nil, &payload); err != nil {
		return payload, err
	}
	return payload, nil
}

// SaveScan stores an analysis against the logged-in user's profile.
func (c *Client) SaveScan(ctx context.Context, filename string, analysis Analysis) (SaveScanResponse, error) {
	if c == nil {
		return SaveScanResponse{}, fmt.Errorf("client is nil")
	}
	var payload SaveScanResponse
	req := SaveScanRequest{Filename: filename, Analysis: analysis}
	if err := c.doJSON(ctx, http.MethodPost, "/save-scan", req, &payload); err != nil {
		return payload, err
	}
	if payload.Status != StatusSuccess {
		msg := payload.Message
		if msg == "" {
			msg = "Failed to save scan"
		}
		return payload, &APIError{Path: "/save-scan", StatusCode: http.StatusOK, Message: msg}
	}
	return payload, nil
}

// DeleteScan removes a saved scan. The dashboard answers with a redirect.
func (c *Client) DeleteScan(ctx context.Context, scanID string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	id := strings.TrimSpace(scanID)
	if id == "" {
		return fmt.Errorf("scan id required")
	}
	rel := &url.URL{Path: "/delete-scan/" + url.PathEscape(id)}
	resp, err := c.send(ctx, http.MethodGet, rel, "", nil, requestTimeout)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 400 {
		return &APIError{Path: rel.Path, StatusCode: resp.StatusCode}
	}
	return nil
}

// DeviceStatus reports whether the camera device has been seen recently.
func (c *Client) DeviceStatus(ctx context.Context) (DeviceStatus, error) {
	if c == nil {
		return DeviceStatus{}, fmt.Errorf("client is nil")
	}
	var payload DeviceStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/pi-status", nil, &payload); err != nil {
		return DeviceStatus{}, err
	}
	return payload, nil
}

// doJSON sends an optional JSON body and decodes the JSON answer into dest.
// Error statuses still decode the body so callers can read the message.
func (c *Client) doJSON(ctx context.Context, method, p string, in, dest any) error {
	rel := &url.URL{Path: p}
	var body io.Reader
	contentType := ""
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	resp, err := c.send(ctx, method, rel, contentType, body, requestTimeout)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Path: rel.Path, StatusCode: resp.StatusCode, Message: errorMessage(raw)}
		if dest != nil {
			_ = json.Unmarshal(raw, dest)
		}
		return apiErr
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method string, rel *url.URL, contentType string, body io.Reader, timeout time.Duration) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create request: %w", err)
	}
	requestID := logging.NewRequestID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	fields := logging.Fields{
		"request_id": requestID,
		"method":     method,
		"path":       rel.Path,
		"elapsed":    time.Since(started).Round(time.Millisecond).String(),
	}
	if err != nil {
		cancel()
		fields["error"] = err.Error()
		c.log.WithFields(fields).Warn("dashboard request failed")
		return nil, fmt.Errorf("execute request: %w", err)
	}
	fields["status"] = resp.StatusCode
	c.log.WithFields(fields).Debug("dashboard request")

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelOnClose releases the per-request timeout once the body is consumed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func errorMessage(raw []byte) string {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return envelope.Error
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse dashboard url %q: %w", raw, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
