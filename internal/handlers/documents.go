package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/middleware"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/verification"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
)

const maxDocumentSize = 5 * 1024 * 1024

var documentKinds = map[string]verification.DocumentKind{
	"identity": verification.DocIdentityProof,
	"school":   verification.DocSchoolProof,
}

type DocumentHandler struct {
	Store         store.Users
	Verifier      *verification.Reader
	UploadDir     string
	PublicBaseURL string
}

// Upload stores a proof document and records its URL on the user. It never
// marks the user verified.
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	actor := middleware.Actor(c)
	kind, ok := documentKinds[c.Params("kind")]
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown document kind")
	}

	file, err := c.FormFile("file")
	if err != nil {
		errs := FieldErrors{}
		errs.Add("file", "file is required (multipart field: file)")
		return validationFail(c, errs)
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" && ext != ".pdf" {
		errs := FieldErrors{}
		errs.Add("file", "file must be jpg/jpeg/png/pdf")
		return validationFail(c, errs)
	}
	if file.Size > maxDocumentSize {
		errs := FieldErrors{}
		errs.Add("file", "file max size is 5MB")
		return validationFail(c, errs)
	}

	dir := filepath.Join(h.UploadDir, "documents", actor.ID.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create upload dir")
	}
	filename := uuid.New().String() + ext
	if err := c.SaveFile(file, filepath.Join(dir, filename)); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save file")
	}

	publicURL := fmt.Sprintf("%s/uploads/documents/%s/%s", strings.TrimRight(h.PublicBaseURL, "/"), actor.ID, filename)

	ctx := c.UserContext()
	if err := h.Store.SetUserAttribute(ctx, actor.ID, kind.AttributeKey(), publicURL); err != nil {
		return fail500(c, "failed to record document")
	}
	missing, err := h.Verifier.MissingDocuments(ctx, actor)
	if err != nil {
		return fail500(c, "failed to read documents")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "document uploaded",
		"data": fiber.Map{
			"kind":              kind,
			"url":               publicURL,
			"missing_documents": missing,
		},
	})
}
