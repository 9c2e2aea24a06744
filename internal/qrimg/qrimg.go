package qrimg

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// Renderer turns an attendance code into a PNG bitmap at a fixed pixel size.
// This is display plumbing only; nothing in the attendance logic depends on
// how the image is produced.
type Renderer interface {
	PNG(ctx context.Context, code string) ([]byte, error)
}

// Local renders QR codes in-process.
type Local struct {
	Pixels int
}

// NewLocal creates a local renderer.
func NewLocal(pixels int) Local {
	if pixels <= 0 {
		pixels = 256
	}
	return Local{Pixels: pixels}
}

// PNG encodes the code as a QR PNG.
func (l Local) PNG(_ context.Context, code string) ([]byte, error) {
	if code == "" {
		return nil, fmt.Errorf("code required")
	}
	return qrcode.Encode(code, qrcode.Medium, l.Pixels)
}

// Client delegates rendering to an external image-generation service.
type Client struct {
	BaseURL string
	Pixels  int
	HTTP    *http.Client
	Skip    bool // render locally instead of calling out
}

// New creates a client with a short timeout. With skip set the client never
// leaves the process and renders locally.
func New(baseURL string, pixels int, skip bool) *Client {
	if pixels <= 0 {
		pixels = 256
	}
	return &Client{
		BaseURL: baseURL,
		Pixels:  pixels,
		Skip:    skip,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// PNG fetches a bitmap for the code from the remote service.
func (c *Client) PNG(ctx context.Context, code string) ([]byte, error) {
	if c.Skip {
		return Local{Pixels: c.Pixels}.PNG(ctx, code)
	}
	if code == "" {
		return nil, fmt.Errorf("code required")
	}

	u := fmt.Sprintf("%s?size=%dx%d&data=%s", c.BaseURL, c.Pixels, c.Pixels, url.QueryEscape(code))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qr service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("qr service error %s: %s", resp.Status, string(body))
	}
	return io.ReadAll(resp.Body)
}
