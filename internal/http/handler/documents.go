package handler

import (
	"encoding/json"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"docmgmt/internal/http/middleware"
	"docmgmt/internal/model"
	"docmgmt/internal/service"
)

// metadataField is the multipart field holding the JSON document metadata on upload.
const metadataField = "metadata"

type documentPage struct {
	Data   []model.DocumentView `json:"data"`
	Total  int                  `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

func view(d *model.Document) model.DocumentView {
	return d.View(time.Now())
}

// ListDocuments searches documents.
//
// @Summary Search documents
// @Tags documents
// @Produce json
// @Param department_id query string false "Department ID"
// @Param category_id query string false "Category ID"
// @Param type_id query string false "Type ID"
// @Param status query string false "rascunho, pendente, aprovado, rejeitado or arquivado"
// @Param movement query string false "received, sent or internal"
// @Param tag query string false "Tag"
// @Param protocol_number query string false "Protocol number"
// @Param storage_id query string false "Storage ID of the attached file"
// @Param created_from query string false "RFC 3339 lower bound (inclusive)"
// @Param created_to query string false "RFC 3339 upper bound (exclusive)"
// @Param q query string false "Free text"
// @Param limit query int false "Page size" default(10)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} documentPage
// @Failure 400 {object} errorPayload
// @Router /documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		q := service.DocumentSearch{
			DepartmentID:   c.Query("department_id"),
			CategoryID:     c.Query("category_id"),
			TypeID:         c.Query("type_id"),
			Status:         model.Status(c.Query("status")),
			Movement:       model.Movement(c.Query("movement")),
			Tag:            c.Query("tag"),
			ProtocolNumber: c.Query("protocol_number"),
			StorageID:      c.Query("storage_id"),
			Query:          c.Query("q"),
			Limit:          limit,
			Offset:         offset,
		}
		if q.CreatedFrom, err = queryTime(c, "created_from"); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "created_from must be RFC 3339")
		}
		if q.CreatedTo, err = queryTime(c, "created_to"); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "created_to must be RFC 3339")
		}

		res, err := svc.Search(c.UserContext(), q)
		if err != nil {
			return fail(c, err)
		}

		page := documentPage{
			Data:   make([]model.DocumentView, 0, len(res.Items)),
			Total:  res.Total,
			Limit:  res.Limit,
			Offset: res.Offset,
		}
		for i := range res.Items {
			page.Data = append(page.Data, view(&res.Items[i]))
		}
		return c.JSON(page)
	}
}

func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateDocument files a document against existing category and type ids.
//
// @Summary Create a document
// @Tags documents
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Acting user"
// @Param body body service.CreateDocumentInput true "Document"
// @Success 201 {object} model.DocumentView
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /documents [post]
func CreateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.CreateDocumentInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		doc, err := svc.Create(c.UserContext(), middleware.ActorOf(c), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(view(doc))
	}
}

// ResolveDocument files a document whose category and type are given by name,
// creating them when missing. The file must already be stored.
//
// @Summary Create a document by category and type names
// @Tags documents
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Acting user"
// @Param body body service.UploadInput true "Document"
// @Success 201 {object} model.DocumentView
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /documents/resolve [post]
func ResolveDocument(resolver service.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.UploadInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		doc, err := resolver.UploadDocument(c.UserContext(), middleware.ActorOf(c), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(view(doc))
	}
}

// UploadDocument stores the binary and files the document in one request
// (multipart/form-data, fields "file" and "metadata").
//
// @Summary Upload a document
// @Tags documents
// @Accept mpfd
// @Produce json
// @Param X-User-ID header string true "Acting user"
// @Param file formData file true "Binary"
// @Param metadata formData string false "JSON encoded service.UploadInput without the file"
// @Success 201 {object} model.DocumentView
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /documents/upload [post]
func UploadDocument(resolver service.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		var in service.UploadInput
		if raw := c.FormValue(metadataField); raw != "" {
			if err := json.Unmarshal([]byte(raw), &in); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_METADATA", "metadata must be a JSON object")
			}
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		doc, err := resolver.Ingest(c.UserContext(), middleware.ActorOf(c), fileUpload(f, fh), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(view(doc))
	}
}

func fileUpload(f multipart.File, fh *multipart.FileHeader) service.FileUpload {
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return service.FileUpload{
		Reader:      f,
		Filename:    fh.Filename,
		ContentType: ct,
		Size:        fh.Size,
	}
}

// GetDocument returns a document with its derived state.
//
// @Summary Get a document
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} model.DocumentView
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(view(doc))
	}
}

// UpdateDocument applies a partial update. Explicit nulls clear optional fields.
//
// @Summary Update a document
// @Tags documents
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Acting user"
// @Param id path string true "Document ID"
// @Param body body model.DocumentPatch true "Fields to change"
// @Success 200 {object} model.DocumentView
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /documents/{id} [patch]
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var patch model.DocumentPatch
		if err := json.Unmarshal(c.Body(), &patch); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		doc, err := svc.Update(c.UserContext(), middleware.ActorOf(c), c.Params("id"), patch)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(view(doc))
	}
}

// DeleteDocument removes a document and its stored file.
//
// @Summary Delete a document
// @Tags documents
// @Param id path string true "Document ID"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
