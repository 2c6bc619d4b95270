package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"botgpt/internal/app"
	"botgpt/internal/transport/http/response"
)

const MaxPDFSize = 10 << 20

type DocumentHandler struct {
	documentService *app.DocumentService
}

type CreateTextDocumentRequest struct {
	Filename string `json:"filename" binding:"max=256"`
	Text     string `json:"text" binding:"required"`
}

func NewDocumentHandler(documentService *app.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// UploadPDF accepts a multipart form with a "file" field holding a PDF.
func (h *DocumentHandler) UploadPDF(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid conversation id")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if file.Size > MaxPDFSize {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large (max 10MB)")
		return
	}
	if !isPDF(file.Filename, file.Header.Get("Content-Type")) {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "only PDF files are accepted")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	result, err := h.documentService.IngestPDF(id, filepath.Base(file.Filename), f)
	if err != nil {
		writeError(c, err, "ingest document failed", nil)
		return
	}
	response.Created(c, result)
}

func (h *DocumentHandler) CreateText(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid conversation id")
		return
	}

	var req CreateTextDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.documentService.Ingest(app.IngestInput{
		ConversationID: id,
		Filename:       req.Filename,
		Text:           req.Text,
	})
	if err != nil {
		writeError(c, err, "ingest document failed", nil)
		return
	}
	response.Created(c, result)
}

func (h *DocumentHandler) List(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid conversation id")
		return
	}

	docs, err := h.documentService.List(id)
	if err != nil {
		writeError(c, err, "list documents failed", nil)
		return
	}
	response.OK(c, docs)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid conversation id")
		return
	}
	documentID, ok := parseIDParam(c, "document_id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}

	if err := h.documentService.Delete(id, documentID); err != nil {
		writeError(c, err, "delete document failed", nil)
		return
	}
	response.OK(c, gin.H{"deleted_document_id": documentID})
}

func isPDF(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	return strings.HasPrefix(strings.ToLower(contentType), "application/pdf")
}
