// Package cloudinary talks to the Cloudinary upload API over HTTP. Requests
// are authenticated with the account's API key and a SHA-1 signature over the
// sorted request parameters.
package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pixelforge/gallery/internal/errors"
	"github.com/pixelforge/gallery/internal/media"
)

const defaultBaseURL = "https://api.cloudinary.com/v1_1"

// Config carries the Cloudinary account credentials.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	// BaseURL overrides the API endpoint, for tests.
	BaseURL string
	Timeout time.Duration
}

// Client implements media.Uploader against the Cloudinary REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time
}

var _ media.Uploader = (*Client)(nil)

// New creates a client. A zero timeout defaults to 30 seconds.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// Upload stores the image bytes and returns the hosted URL plus the deletable
// public ID.
func (c *Client) Upload(ctx context.Context, r io.Reader, filename string) (media.Asset, error) {
	timestamp := strconv.FormatInt(c.now().Unix(), 10)
	params := map[string]string{"timestamp": timestamp}

	var body strings.Builder
	writer := multipart.NewWriter(&body)
	for key, value := range params {
		if err := writer.WriteField(key, value); err != nil {
			return media.Asset{}, errors.Internal("build upload request", err)
		}
	}
	if err := writer.WriteField("api_key", c.cfg.APIKey); err != nil {
		return media.Asset{}, errors.Internal("build upload request", err)
	}
	if err := writer.WriteField("signature", c.sign(params)); err != nil {
		return media.Asset{}, errors.Internal("build upload request", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return media.Asset{}, errors.Internal("build upload request", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return media.Asset{}, errors.Internal("read upload body", err)
	}
	if err := writer.Close(); err != nil {
		return media.Asset{}, errors.Internal("build upload request", err)
	}

	url := fmt.Sprintf("%s/%s/image/upload", c.cfg.BaseURL, c.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body.String()))
	if err != nil {
		return media.Asset{}, errors.Internal("build upload request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return media.Asset{}, errors.Upstream("media host unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return media.Asset{}, errors.Upstream("media upload failed", fmt.Errorf("status %d", resp.StatusCode))
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return media.Asset{}, errors.Upstream("decode upload response", err)
	}
	if parsed.SecureURL == "" || parsed.PublicID == "" {
		return media.Asset{}, errors.Upstream("media upload failed", fmt.Errorf("incomplete response"))
	}

	return media.Asset{URL: parsed.SecureURL, PublicID: parsed.PublicID}, nil
}

type destroyResponse struct {
	Result string `json:"result"`
}

// Destroy purges the stored binary. A "not found" result is treated as
// success: the binary is already gone.
func (c *Client) Destroy(ctx context.Context, publicID string) error {
	timestamp := strconv.FormatInt(c.now().Unix(), 10)
	params := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
	}

	form := make([]string, 0, len(params)+2)
	for key, value := range params {
		form = append(form, key+"="+value)
	}
	form = append(form, "api_key="+c.cfg.APIKey, "signature="+c.sign(params))

	url := fmt.Sprintf("%s/%s/image/destroy", c.cfg.BaseURL, c.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(strings.Join(form, "&")))
	if err != nil {
		return errors.Internal("build destroy request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Upstream("media host unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Upstream("media destroy failed", fmt.Errorf("status %d", resp.StatusCode))
	}

	var parsed destroyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return errors.Upstream("decode destroy response", err)
	}
	if parsed.Result != "ok" && parsed.Result != "not found" {
		return errors.Upstream("media destroy failed", fmt.Errorf("result %q", parsed.Result))
	}
	return nil
}

// sign computes the SHA-1 signature over the sorted parameters joined with
// '&', followed by the API secret.
func (c *Client) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.cfg.APISecret))
	return hex.EncodeToString(sum[:])
}
