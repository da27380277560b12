package storage

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
)

// SupabaseStore talks to the Supabase Storage HTTP API with the service_role key.
type SupabaseStore struct {
	BaseURL    string
	ServiceKey string
	Bucket     string
	Client     *http.Client
}

type signResponse struct {
	SignedURL      string `json:"signedURL"`
	SignedURLCamel string `json:"signedUrl"`
	SignedURLSnake string `json:"signed_url"`
}

func (s *SupabaseStore) client() *http.Client {
	if s.Client == nil {
		s.Client = &http.Client{Timeout: 30 * time.Second}
	}
	return s.Client
}

func (s *SupabaseStore) objectURL(kind, path string) string {
	base := strings.TrimRight(s.BaseURL, "/")
	return fmt.Sprintf("%s/storage/v1/%s/%s/%s", base, kind, url.PathEscape(s.Bucket), escapePath(path))
}

func escapePath(p string) string {
	parts := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func (s *SupabaseStore) do(ctx context.Context, method, target, contentType string, body io.Reader, headers map[string]string) ([]byte, error) {
	if s.BaseURL == "" || s.ServiceKey == "" {
		return nil, ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	// Same header pair supabase-js sends.
	req.Header.Set("apikey", s.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+s.ServiceKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyStr := string(respBody)
		if resp.StatusCode == 400 || resp.StatusCode == 403 {
			if strings.Contains(bodyStr, "Invalid Compact JWS") || strings.Contains(bodyStr, "Unauthorized") {
				return nil, fmt.Errorf("supabase storage requires the service_role key, not the anon key (body: %s)", bodyStr)
			}
		}
		return nil, fmt.Errorf("supabase error: status %d body: %s", resp.StatusCode, bodyStr)
	}
	return respBody, nil
}

// Put uploads body to path. Existing objects are never overwritten.
func (s *SupabaseStore) Put(ctx context.Context, path, contentType string, body []byte) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.do(ctx, http.MethodPost, s.objectURL("object", path), contentType, bytes.NewReader(body),
		map[string]string{"x-upsert": "false"})
	return err
}

func (s *SupabaseStore) Delete(ctx context.Context, path string) error {
	_, err := s.do(ctx, http.MethodDelete, s.objectURL("object", path), "", nil, nil)
	return err
}

// SignedURL returns a time-limited download URL for path.
func (s *SupabaseStore) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	payload, _ := json.Marshal(map[string]interface{}{"expiresIn": int(ttl.Seconds())})
	respBody, err := s.do(ctx, http.MethodPost, s.objectURL("object/sign", path), "application/json", bytes.NewReader(payload), nil)
	if err != nil {
		return "", err
	}
	var data signResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return "", fmt.Errorf("supabase response decode: %w", err)
	}
	signed := data.SignedURL
	if signed == "" {
		signed = data.SignedURLCamel
	}
	if signed == "" {
		signed = data.SignedURLSnake
	}
	if signed == "" {
		return "", fmt.Errorf("supabase returned no signed URL, body: %s", string(respBody))
	}
	if strings.HasPrefix(signed, "http") {
		return signed, nil
	}
	if !strings.HasPrefix(signed, "/") {
		signed = "/" + signed
	}
	return strings.TrimRight(s.BaseURL, "/") + "/storage/v1" + signed, nil
}

// Ping checks the bucket is reachable with the configured key.
func (s *SupabaseStore) Ping(ctx context.Context) error {
	base := strings.TrimRight(s.BaseURL, "/")
	_, err := s.do(ctx, http.MethodGet, fmt.Sprintf("%s/storage/v1/bucket/%s", base, url.PathEscape(s.Bucket)), "", nil, nil)
	return err
}
