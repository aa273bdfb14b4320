package helpers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type transportWithLogger struct {
	Transport http.RoundTripper
}

// NewTransportWithLogger wraps transport so every outgoing request and its response
// are written to the global logger. A nil transport means http.DefaultTransport.
func NewTransportWithLogger(transport http.RoundTripper) *transportWithLogger {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &transportWithLogger{Transport: transport}
}

func (t *transportWithLogger) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	var reqBodyBytes []byte
	if req.Body != nil {
		reqBodyBytes, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewBuffer(reqBodyBytes))
	}

	withBody(log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()), "body", reqBodyBytes).
		Msg("API request:")

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		log.Error().Err(err).
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Dur("latency", time.Since(start)).
			Msg("API request failed:")
		return resp, err
	}

	var respBodyBytes []byte
	if resp.Body != nil {
		respBodyBytes, _ = io.ReadAll(resp.Body)
		resp.Body = io.NopCloser(bytes.NewBuffer(respBodyBytes))
	}

	var event *zerolog.Event
	switch {
	case resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError:
		event = log.Warn()
	case resp.StatusCode >= http.StatusInternalServerError:
		event = log.Error()
	default:
		event = log.Info()
	}

	withBody(event.
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)), "body", respBodyBytes).
		Msg("API response:")

	return resp, nil
}

func withBody(event *zerolog.Event, key string, body []byte) *zerolog.Event {
	if len(body) == 0 {
		return event
	}
	if json.Valid(body) {
		return event.RawJSON(key, body)
	}
	return event.Bytes(key, body)
}
