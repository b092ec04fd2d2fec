// Package tinify is a small client for the Tinify (TinyPNG/TinyJPG) shrink API.
package tinify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.tinify.com"

// ImageInfo describes the uploaded image.
type ImageInfo struct {
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// OutputInfo describes the compressed image held by the service.
type OutputInfo struct {
	Size   int64   `json:"size"`
	Type   string  `json:"type"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Ratio  float64 `json:"ratio"`
	URL    string  `json:"url"`
}

// ShrinkResult is the response to a shrink request.
type ShrinkResult struct {
	Input    ImageInfo  `json:"input"`
	Output   OutputInfo `json:"output"`
	Location string     `json:"-"`
}

// Client talks to the shrink API. It is not safe for concurrent use.
type Client struct {
	key              string
	baseURL          string
	userAgent        string
	httpClient       *http.Client
	logger           *zap.Logger
	compressionCount int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each HTTP request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client authenticated with key.
func New(key string, opts ...Option) *Client {
	c := &Client{
		key:        key,
		baseURL:    DefaultBaseURL,
		userAgent:  "reduce-file-sizes",
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompressionCount is the monthly compression count reported by the last response.
func (c *Client) CompressionCount() int {
	return c.compressionCount
}

// Compress uploads data and returns the compressed image bytes.
func (c *Client) Compress(ctx context.Context, data []byte) ([]byte, error) {
	result, err := c.Shrink(ctx, data)
	if err != nil {
		return nil, err
	}
	return c.Download(ctx, result.Location)
}

// Shrink uploads data to the shrink endpoint.
func (c *Client) Shrink(ctx context.Context, data []byte) (*ShrinkResult, error) {
	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/shrink", data)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, decodeError(resp)
	}

	var result ShrinkResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &Error{Kind: KindServer, Status: resp.StatusCode, Type: "ParseError", Message: "invalid shrink response", Err: err}
	}

	location, err := c.resolve(resp.Header.Get("Location"))
	if err != nil {
		return nil, &Error{Kind: KindServer, Status: resp.StatusCode, Type: "ParseError", Message: "invalid Location header", Err: err}
	}
	result.Location = location

	c.logger.Debug("Shrink accepted",
		zap.Int64("inputSize", result.Input.Size),
		zap.Int64("outputSize", result.Output.Size),
		zap.Float64("ratio", result.Output.Ratio),
		zap.String("location", location))
	return &result, nil
}

// Download fetches the compressed image at location.
func (c *Client) Download(ctx context.Context, location string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindConnection, Message: "error while reading compressed image", Err: err}
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, method, target string, body []byte) (*http.Response, error) {
	if c.key == "" {
		return nil, &Error{Kind: KindAccount, Message: "provide an API key with --key"}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &Error{Kind: KindClient, Message: "cannot build request", Err: err}
	}
	req.SetBasicAuth("api", c.key)
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindConnection, Message: fmt.Sprintf("error while connecting: %v", err), Err: err}
	}

	if count, err := strconv.Atoi(resp.Header.Get("Compression-Count")); err == nil {
		c.compressionCount = count
	}
	c.logger.Debug("Tinify request",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// resolve makes a Location header absolute against the base URL.
func (c *Client) resolve(location string) (string, error) {
	if location == "" {
		return "", fmt.Errorf("missing Location header")
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{Kind: kindForStatus(resp.StatusCode), Status: resp.StatusCode}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Message == "" {
		apiErr.Type = "ParseError"
		apiErr.Message = fmt.Sprintf("error while parsing response (HTTP %d)", resp.StatusCode)
		return apiErr
	}
	apiErr.Type = body.Error
	apiErr.Message = body.Message
	return apiErr
}
