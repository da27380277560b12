package documents

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	docsvc "greenledger-backend/internal/application/documents"
	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/pkg/testdb"
	"greenledger-backend/internal/pkg/testhttp"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memStore) Put(_ context.Context, path, _ string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = body
	return nil
}

func (m *memStore) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	return nil
}

func (m *memStore) SignedURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return "https://files.test/" + path + "?token=signed", nil
}

func (m *memStore) Ping(context.Context) error { return nil }

func upload(t *testing.T, app *fiber.App, path, docType, contentType string, body []byte) (int, testhttp.Envelope) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if docType != "" {
		require.NoError(t, w.WriteField("document_type", docType))
	}
	if body != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="bill.pdf"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode, testhttp.Decode(t, resp.Body)
}

func TestDocumentsOverHTTP(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.Seed(t, db, "acme")
	other := testdb.Seed(t, db, "globex")
	store := &memStore{objects: map[string][]byte{}}
	h := &Handlers{Service: &docsvc.Service{DB: db, Store: store}}
	app := testhttp.App(f.Principal())
	app.Post("/assets/:id/documents", h.Upload)
	app.Get("/assets/:id/documents", h.List)
	app.Get("/documents/:id/url", h.URL)

	path := "/assets/" + f.Asset.ID.String() + "/documents"
	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")

	status, _ := upload(t, app, path, "energy_bill", "application/pdf", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = upload(t, app, path, "tax_return", "application/pdf", pdf)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = upload(t, app, path, "energy_bill", "image/png", pdf)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = upload(t, app, "/assets/"+other.Asset.ID.String()+"/documents", "energy_bill", "application/pdf", pdf)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Empty(t, store.objects)

	status, env := upload(t, app, path, "energy_bill", "application/pdf", pdf)
	require.Equal(t, fiber.StatusCreated, status, env.Error.Message)
	var link domain.AssetDocument
	testhttp.Data(t, env, &link)
	require.NotNil(t, link.Document)
	assert.Equal(t, "bill.pdf", link.Document.Filename)
	assert.Equal(t, int64(len(pdf)), link.Document.FileSize)
	assert.True(t, strings.HasPrefix(link.Document.StoragePath, f.Asset.ID.String()+"/"))
	assert.Len(t, store.objects, 1)

	status, env = testhttp.JSON(t, app, "GET", path, nil)
	require.Equal(t, fiber.StatusOK, status)
	var list []domain.AssetDocument
	testhttp.Data(t, env, &list)
	require.Len(t, list, 1)

	status, env = testhttp.JSON(t, app, "GET", "/documents/"+link.DocumentID.String()+"/url", nil)
	require.Equal(t, fiber.StatusOK, status, env.Error.Message)
	var signed docsvc.SignedURL
	testhttp.Data(t, env, &signed)
	assert.Contains(t, signed.URL, link.Document.StoragePath)

	outsider := testhttp.App(other.Principal())
	outsider.Get("/documents/:id/url", h.URL)
	status, _ = testhttp.JSON(t, outsider, "GET", "/documents/"+link.DocumentID.String()+"/url", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}
