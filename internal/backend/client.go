// Package backend реализует клиент REST API бэкенда портала. К каждому запросу
// добавляется сессионный токен из хранилища экземпляра, если он там есть.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chronicleink/newswave/internal/config"
	"github.com/chronicleink/newswave/internal/tokenstore"
)

// Client — клиент бэкенда одного экземпляра браузера.
type Client struct {
	apiURL     string
	store      tokenstore.Store
	httpClient *http.Client
}

// NewClient создаёт клиента, читающего токен из store.
func NewClient(cfg config.Backend, store tokenstore.Store) *Client {
	timeout := cfg.TimeoutBackend
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiURL:     strings.TrimRight(cfg.BaseURL, "/"),
		store:      store,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient подменяет транспорт.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf io.Reader
	if body != nil {
		b := &bytes.Buffer{}
		if err := json.NewEncoder(b).Encode(body); err != nil {
			return nil, err
		}
		buf = b
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, buf)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	token, err := c.store.Get(ctx, tokenstore.SessionKey)
	switch {
	case err == nil && token != "":
		req.Header.Set("Authorization", "Bearer "+token)
	case err != nil && !errors.Is(err, tokenstore.ErrNotFound):
		return nil, fmt.Errorf("read session token: %w", err)
	}
	return req, nil
}

// do выполняет запрос и декодирует ответ в out (если out != nil).
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= http.StatusBadGateway:
		return fmt.Errorf("%w: %s", ErrNetworkUnavailable, resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StatusError{Code: resp.StatusCode, Message: errorMessage(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func errorMessage(data []byte) string {
	var m struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &m) == nil {
		if m.Message != "" {
			return m.Message
		}
		return m.Error
	}
	return ""
}

func httpStatusText(code int) string {
	return strconv.Itoa(code) + " " + http.StatusText(code)
}

func pageQuery(page, limit int) string {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return "?page=" + strconv.Itoa(page) + "&limit=" + strconv.Itoa(limit)
}
