package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupabaseStore_Put(t *testing.T) {
	var gotPath, gotAuth, gotKey, gotType, gotUpsert string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("apikey")
		gotType = r.Header.Get("Content-Type")
		gotUpsert = r.Header.Get("x-upsert")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"Key":"documents/a/1.pdf"}`))
	}))
	defer srv.Close()

	s := &SupabaseStore{BaseURL: srv.URL, ServiceKey: "svc", Bucket: "documents"}
	err := s.Put(context.Background(), "a/1.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "/storage/v1/object/documents/a/1.pdf", gotPath)
	assert.Equal(t, "Bearer svc", gotAuth)
	assert.Equal(t, "svc", gotKey)
	assert.Equal(t, "application/pdf", gotType)
	assert.Equal(t, "false", gotUpsert)
	assert.Equal(t, "%PDF", string(gotBody))
}

func TestSupabaseStore_PutErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`boom`))
	}))
	defer srv.Close()

	s := &SupabaseStore{BaseURL: srv.URL, ServiceKey: "svc", Bucket: "documents"}
	err := s.Put(context.Background(), "a/1.pdf", "application/pdf", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestSupabaseStore_AnonKeyHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Invalid Compact JWS"}`))
	}))
	defer srv.Close()

	s := &SupabaseStore{BaseURL: srv.URL, ServiceKey: "anon", Bucket: "documents"}
	err := s.Delete(context.Background(), "a/1.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service_role")
}

func TestSupabaseStore_SignedURL(t *testing.T) {
	var expiresIn float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/sign/documents/a/1.pdf", r.URL.Path)
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		expiresIn, _ = body["expiresIn"].(float64)
		_, _ = w.Write([]byte(`{"signedURL":"/object/sign/documents/a/1.pdf?token=abc"}`))
	}))
	defer srv.Close()

	s := &SupabaseStore{BaseURL: srv.URL + "/", ServiceKey: "svc", Bucket: "documents"}
	u, err := s.SignedURL(context.Background(), "a/1.pdf", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/storage/v1/object/sign/documents/a/1.pdf?token=abc", u)
	assert.Equal(t, float64(3600), expiresIn)
}

func TestSupabaseStore_SignedURLMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s := &SupabaseStore{BaseURL: srv.URL, ServiceKey: "svc", Bucket: "documents"}
	_, err := s.SignedURL(context.Background(), "a/1.pdf", time.Minute)
	assert.Error(t, err)
}

func TestSupabaseStore_NotConfigured(t *testing.T) {
	s := &SupabaseStore{Bucket: "documents"}
	assert.ErrorIs(t, s.Put(context.Background(), "a", "", nil), ErrNotConfigured)
}

func TestNew(t *testing.T) {
	st, err := New(Config{Backend: "supabase", SupabaseURL: "http://x", ServiceKey: "k", Bucket: "b"})
	require.NoError(t, err)
	assert.IsType(t, &SupabaseStore{}, st)

	_, err = New(Config{Backend: "s3", Bucket: "b"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(Config{Backend: "ftp"})
	assert.Error(t, err)
}
