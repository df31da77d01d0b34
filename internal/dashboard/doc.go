// Package dashboard provides an HTTP client for the dental-scan dashboard API.
//
// # Overview
//
// The dashboard queues captures on a remote camera device, stores the uploaded
// photos and forwards them to the analysis service. This package wraps the
// handful of endpoints molar needs and mirrors their JSON payloads as Go types.
//
// # Architecture
//
//   - client.go: HTTP client, session cookie, rate limiting and error mapping
//   - types.go: payload types and prediction validation
//
// # Client Usage
//
//	client, err := dashboard.NewClient("http://127.0.0.1:5000", dashboard.Options{Logger: log})
//	if err != nil {
//		return err
//	}
//	if err := client.Login(ctx, user, pass); err != nil {
//		return err
//	}
//	queued, err := client.RequestCapture(ctx)
//
// # API Endpoints
//
//	POST /login              form login, sets the session cookie
//	POST /capture-only       queue a capture, returns request_id
//	GET  /get-latest-image   latest completed capture or a waiting status
//	GET  /uploads/<file>     raw image bytes
//	POST /analyze-image      multipart "image", returns {response} or {error}
//	GET  /get-analysis       most recent stored analysis
//	POST /save-scan          persist {filename, analysis}
//	GET  /delete-scan/<id>   remove a saved scan
//	GET  /api/pi-status      camera device heartbeat
//
// # Errors
//
// Responses with status >= 400 become *APIError. The JSON body is still decoded
// so its "message" or "error" field reaches the user. A login that lands back
// on /login returns ErrLoginFailed.
//
// Every request carries an X-Request-ID header and is logged with that id.
// Requests pass through a token-bucket limiter before they are sent.
package dashboard
