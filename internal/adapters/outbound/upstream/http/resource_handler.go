package http

import (
	"bytes"
	"context"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"taskflow/internal/application/dto"
	portsout "taskflow/internal/application/ports/out"
	apperrors "taskflow/internal/shared_kernel/errors"
)

const (
	defaultHTTPTimeout   = 10 * time.Second
	maxResponseBodyBytes = 10 << 20
	userIDHeader         = "X-User-ID"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// ResourceHandler forwards gateway requests to the resource service and relays the
// result verbatim.
type ResourceHandler struct {
	baseURL *url.URL
	client  *nethttp.Client
}

var _ portsout.ResourceHandler = (*ResourceHandler)(nil)

func NewResourceHandler(cfg Config) (*ResourceHandler, error) {
	baseURL, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return &ResourceHandler{
		baseURL: baseURL,
		client:  newClient(cfg.Timeout),
	}, nil
}

func (h *ResourceHandler) Handle(
	ctx context.Context,
	request dto.ResourceRequest,
) (dto.ResourceResult, *apperrors.AppError) {
	target := h.baseURL.JoinPath(request.Path)
	target.RawQuery = request.RawQuery

	var body io.Reader
	if len(request.Body) > 0 {
		body = bytes.NewReader(request.Body)
	}
	upstreamRequest, err := nethttp.NewRequestWithContext(ctx, request.Method, target.String(), body)
	if err != nil {
		return dto.ResourceResult{}, apperrors.NewInternal(
			"upstream_request_build_failed",
			"failed to build upstream request",
			map[string]any{"error": err.Error()},
		)
	}
	if request.ContentType != "" {
		upstreamRequest.Header.Set("Content-Type", request.ContentType)
	}
	upstreamRequest.Header.Set("Accept", "application/json")
	if request.UserID != "" {
		upstreamRequest.Header.Set(userIDHeader, request.UserID)
	}

	response, err := h.client.Do(upstreamRequest)
	if err != nil {
		return dto.ResourceResult{}, apperrors.NewUpstream(
			"upstream_unavailable",
			"resource service is unavailable",
			map[string]any{"error": err.Error()},
		)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBodyBytes))
	if err != nil {
		return dto.ResourceResult{}, apperrors.NewUpstream(
			"upstream_unavailable",
			"failed to read resource service response",
			map[string]any{"error": err.Error()},
		)
	}

	return dto.ResourceResult{
		StatusCode:  response.StatusCode,
		ContentType: response.Header.Get("Content-Type"),
		Body:        raw,
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(raw), "/"))
	if err != nil {
		return nil, err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &url.Error{Op: "parse", URL: raw, Err: errUnsupportedScheme}
	}
	if parsed.Host == "" {
		return nil, &url.Error{Op: "parse", URL: raw, Err: errMissingHost}
	}
	return parsed, nil
}

func newClient(timeout time.Duration) *nethttp.Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &nethttp.Client{Timeout: timeout}
}
