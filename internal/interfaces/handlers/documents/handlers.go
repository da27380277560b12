package documents

import (
	"io"

	docsvc "greenledger-backend/internal/application/documents"
	"greenledger-backend/internal/middleware"
	"greenledger-backend/internal/pkg/request"
	"greenledger-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles document handlers with the service.
type Handlers struct {
	Service *docsvc.Service
}

// Upload POST /api/v1/assets/:id/documents (multipart: file, document_type)
func (h *Handlers) Upload(c *fiber.Ctx) error {
	assetID, err := request.UUIDParam(c, "id", "Asset")
	if err != nil {
		return response.FromError(c, err)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, "file is required", fiber.StatusBadRequest, fiber.Map{"file": "required"})
	}
	f, err := fh.Open()
	if err != nil {
		return response.Error(c, "Could not read uploaded file", fiber.StatusBadRequest, nil)
	}
	defer f.Close()
	body, err := io.ReadAll(f)
	if err != nil {
		return response.Error(c, "Could not read uploaded file", fiber.StatusBadRequest, nil)
	}

	doc, err := h.Service.UploadDocument(c.UserContext(), middleware.GetPrincipal(c), docsvc.UploadInput{
		AssetID:      assetID,
		DocumentType: c.FormValue("document_type"),
		Filename:     fh.Filename,
		ContentType:  fh.Header.Get(fiber.HeaderContentType),
		Body:         body,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Document uploaded successfully", doc, nil)
}

// List GET /api/v1/assets/:id/documents
func (h *Handlers) List(c *fiber.Ctx) error {
	assetID, err := request.UUIDParam(c, "id", "Asset")
	if err != nil {
		return response.FromError(c, err)
	}
	list, err := h.Service.ListDocuments(c.UserContext(), middleware.GetPrincipal(c), assetID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Documents fetched successfully", list, fiber.Map{"count": len(list)})
}

// URL GET /api/v1/documents/:id/url
func (h *Handlers) URL(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id", "Document")
	if err != nil {
		return response.FromError(c, err)
	}
	u, err := h.Service.DocumentURL(c.UserContext(), middleware.GetPrincipal(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Signed URL generated", u, nil)
}
