// Package upload загружает изображения на внешний хостинг (imgbb) и
// возвращает публичный адрес картинки.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/chronicleink/newswave/internal/config"
)

var (
	// Ключ хостинга не задан.
	ErrNotConfigured = errors.New("image upload is not configured")
	// Изображение превышает допустимый размер.
	ErrTooLarge = errors.New("image is too large")
	// Хостинг отклонил загрузку.
	ErrUpload = errors.New("image upload failed")
)

// Client загружает изображения на хостинг.
type Client struct {
	apiURL     string
	key        string
	maxBytes   int64
	httpClient *http.Client
}

// New создаёт клиента по настройкам upload.
func New(cfg config.Upload) *Client {
	timeout := cfg.TimeoutUpload
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiURL:     cfg.UploadURL,
		key:        cfg.UploadKey,
		maxBytes:   cfg.MaxImageBytes,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type uploadResponse struct {
	Data struct {
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
	} `json:"data"`
	Success bool `json:"success"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload отправляет изображение полем image и возвращает его адрес.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	const op = "upload.Upload"

	if c.key == "" {
		return "", fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	if c.maxBytes > 0 {
		r = io.LimitReader(r, c.maxBytes+1)
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	n, err := io.Copy(part, r)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if c.maxBytes > 0 && n > c.maxBytes {
		return "", fmt.Errorf("%s: %w", op, ErrTooLarge)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"?key="+url.QueryEscape(c.key), &body)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, ErrUpload, err)
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%s: %w: %s", op, ErrUpload, resp.Status)
	}
	if resp.StatusCode != http.StatusOK || !out.Success {
		return "", fmt.Errorf("%s: %w: %s", op, ErrUpload, out.Error.Message)
	}
	if out.Data.URL != "" {
		return out.Data.URL, nil
	}
	if out.Data.DisplayURL != "" {
		return out.Data.DisplayURL, nil
	}
	return "", fmt.Errorf("%s: %w: empty url", op, ErrUpload)
}
