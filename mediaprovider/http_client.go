package mediaprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	createRoomPath    = "/v2/rooms"
	exchangeTokenPath = "/v2/room-tokens"
	maxErrorBody      = 4096
	defaultTimeout    = 10 * time.Second
)

// HTTPClient calls the provider's JSON API. Every request carries a management
// bearer token supplied by the oauth2 transport. Calls are never retried.
type HTTPClient struct {
	baseURL    string
	templateID string
	httpClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

type HTTPClientOption func(*HTTPClient)

// WithTemplateID sets the provider template used when a request leaves it empty
func WithTemplateID(id string) HTTPClientOption {
	return func(c *HTTPClient) {
		c.templateID = id
	}
}

func WithTimeout(d time.Duration) HTTPClientOption {
	return func(c *HTTPClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewHTTPClient builds a client for baseURL that authenticates with tokens
// from src.
func NewHTTPClient(baseURL string, src oauth2.TokenSource, opts ...HTTPClientOption) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[mediaprovider NewHTTPClient] %w: invalid provider url %q", apperrors.ErrConfiguration, baseURL)
	}
	if src == nil {
		return nil, fmt.Errorf("[mediaprovider NewHTTPClient] %w: missing management token source", apperrors.ErrConfiguration)
	}

	httpClient := oauth2.NewClient(context.Background(), src)
	httpClient.Timeout = defaultTimeout

	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *HTTPClient) CreateRoom(ctx context.Context, req CreateRoomRequest) (*ProviderRoom, error) {
	if req.TemplateID == "" {
		req.TemplateID = c.templateID
	}
	room := &ProviderRoom{}
	if err := c.do(ctx, "CreateRoom", createRoomPath, req, room); err != nil {
		return nil, err
	}
	if room.ID == "" {
		return nil, fmt.Errorf("[mediaprovider CreateRoom] %w: response is missing the room id", apperrors.ErrExternalProvider)
	}
	return room, nil
}

func (c *HTTPClient) ExchangeToken(ctx context.Context, req ExchangeRequest) (*MediaSession, error) {
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("[mediaprovider ExchangeToken] %w", err)
	}
	session := &MediaSession{}
	if err := c.do(ctx, "ExchangeToken", exchangeTokenPath, req, session); err != nil {
		return nil, err
	}
	if session.Token == "" {
		return nil, fmt.Errorf("[mediaprovider ExchangeToken] %w: response is missing the token", apperrors.ErrExternalProvider)
	}
	return session, nil
}

func (c *HTTPClient) do(ctx context.Context, op, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("[mediaprovider %s] encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("[mediaprovider %s] build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("[mediaprovider %s] %w: %v", op, apperrors.ErrExternalProvider, err)
	}
	defer resp.Body.Close()

	log.Debug().Str("op", op).Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("media provider call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("[mediaprovider %s] %w: decode response: %v", op, apperrors.ErrExternalProvider, err)
	}
	return nil
}
