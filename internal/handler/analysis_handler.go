package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Karbon-fx/Fira-calculator/internal/dto"
	"github.com/Karbon-fx/Fira-calculator/internal/extract"
	"github.com/Karbon-fx/Fira-calculator/internal/middleware"
	"github.com/Karbon-fx/Fira-calculator/internal/service"
	"github.com/Karbon-fx/Fira-calculator/internal/upload"
)

// multipartOverhead covers boundaries and part headers on top of the files.
const multipartOverhead = 1 << 20

type AnalysisHandler struct {
	svc           *service.AnalysisService
	maxFileBytes  int64
	batchMaxFiles int
}

func NewAnalysisHandler(svc *service.AnalysisService, maxFileBytes int64, batchMaxFiles int) *AnalysisHandler {
	return &AnalysisHandler{svc: svc, maxFileBytes: maxFileBytes, batchMaxFiles: batchMaxFiles}
}

// Analyze handles a single FIRA upload in the multipart field "file".
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileBytes+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		_ = c.Error(h.formError(err, "file"))
		return
	}

	doc, err := upload.ReadDocument(fh, h.maxFileBytes)
	if err != nil {
		_ = c.Error(err)
		return
	}

	res, err := h.svc.Analyze(c.Request.Context(), doc)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAnalysisResponse(res))
}

// Batch analyzes up to batchMaxFiles documents from the multipart field
// "files". A failing document does not fail the request.
func (h *AnalysisHandler) Batch(c *gin.Context) {
	limit := int64(h.batchMaxFiles)*h.maxFileBytes + multipartOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	form, err := c.MultipartForm()
	if err != nil {
		_ = c.Error(h.formError(err, "files"))
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		_ = c.Error(h.formError(http.ErrMissingFile, "files"))
		return
	}
	if len(files) > h.batchMaxFiles {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: fmt.Sprintf("at most %d files per batch", h.batchMaxFiles),
		})
		return
	}

	resp := dto.BatchResponse{
		Total:   len(files),
		Results: make([]dto.BatchItemResponse, len(files)),
	}

	// Files that fail validation never reach the service.
	var (
		docs    []extract.Document
		indexes []int
	)
	for i, fh := range files {
		resp.Results[i] = dto.BatchItemResponse{Index: i, Filename: fh.Filename}
		doc, err := upload.ReadDocument(fh, h.maxFileBytes)
		if err != nil {
			resp.Results[i].Error = itemError(err)
			continue
		}
		docs = append(docs, doc)
		indexes = append(indexes, i)
	}

	for j, item := range h.svc.AnalyzeBatch(c.Request.Context(), docs) {
		i := indexes[j]
		if item.Err != nil {
			resp.Results[i].Error = itemError(item.Err)
			continue
		}
		r := dto.NewAnalysisResponse(item.Result)
		resp.Results[i].Result = &r
		resp.Succeeded++
	}

	c.JSON(http.StatusOK, resp)
}

// Compute runs the calculation on fields supplied as JSON.
func (h *AnalysisHandler) Compute(c *gin.Context) {
	var req dto.ComputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "validation failed: " + err.Error(),
		})
		return
	}

	res, err := h.svc.Compute(c.Request.Context(), req.ToFields())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAnalysisResponse(res))
}

func (h *AnalysisHandler) formError(err error, field string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
		return &upload.Error{
			Code:   upload.CodeFileTooLarge,
			Reason: fmt.Sprintf("request exceeds the %d byte upload limit", h.maxFileBytes),
			Err:    err,
		}
	}
	if errors.Is(err, http.ErrMissingFile) {
		return &upload.Error{Code: upload.CodeFileReadError, Reason: fmt.Sprintf("multipart field %q is required", field), Err: err}
	}
	return &upload.Error{Code: upload.CodeFileReadError, Reason: "malformed multipart request", Err: err}
}

func itemError(err error) *dto.ErrorResponse {
	_, resp := middleware.MapError(err)
	return &resp
}
