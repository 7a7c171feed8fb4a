package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/localrivet/readaloud/internal/blobstore"
	"github.com/localrivet/readaloud/internal/docstore"
	"github.com/localrivet/readaloud/internal/errortypes"
	"github.com/localrivet/readaloud/internal/telemetry"
	"github.com/localrivet/readaloud/internal/tools"
	"github.com/localrivet/readaloud/internal/util"
)

const (
	// uploadField is the multipart field carrying the PDF.
	uploadField = "pdf"

	multipartMemory = 10 << 20
)

// handleUpload stores an uploaded PDF and creates its document record.
func (s *HTTPServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, s.deps.Blobs.MaxSize()+multipartMemory)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorResponse(w, http.StatusRequestEntityTooLarge, ErrorCodeTooLarge, "File is too large", err)
			return
		}
		HandleBadRequest(w, tools.MsgNoFileUploaded, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		HandleBadRequest(w, tools.MsgNoFileUploaded, err)
		return
	}
	defer file.Close()

	if !isPDF(header) {
		HandleBadRequest(w, tools.MsgOnlyPDF, nil)
		return
	}

	blob, err := s.deps.Blobs.Save(ctx, header.Filename, file)
	if err != nil {
		HandleError(w, errortypes.InternalError(err, "failed to store upload").
			WithField("original_name", header.Filename))
		return
	}

	doc := &docstore.Document{
		Filename:     blob.Filename,
		OriginalName: header.Filename,
		Size:         blob.Size,
		BlobID:       blob.ID,
		ContentHash:  blob.Hash,
	}
	doc.Path = "/api/v1/pdf/file/" + blob.ID

	if err := s.deps.Store.Create(ctx, doc); err != nil {
		if delErr := s.deps.Blobs.Delete(blob.ID); delErr != nil {
			s.logger.Warn("Failed to remove orphaned blob", "blob_id", blob.ID, "error", delErr)
		}
		HandleError(w, errortypes.DatabaseError(err, "failed to save document"))
		return
	}

	s.deps.Metrics.IncrementCounter(telemetry.MetricDocumentsUploaded, 1)
	s.logger.Info("Uploaded document", "id", doc.ID, "name", doc.OriginalName, "size", doc.Size)

	writeJSON(w, http.StatusOK, tools.UploadResponse{
		Message: tools.MsgDocumentUploaded,
		PDFID:   doc.ID,
		PDF:     doc,
		ViewURL: doc.Path,
	})
}

func isPDF(header *multipart.FileHeader) bool {
	if header.Header.Get("Content-Type") == "application/pdf" {
		return true
	}
	return strings.EqualFold(filepath.Ext(header.Filename), ".pdf")
}

// handleExtract stores page text extracted by the browser.
func (s *HTTPServer) handleExtract(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req tools.ExtractRequest
	if err := decodeJSON(w, r, &req); err != nil {
		HandleError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		HandleError(w, err)
		return
	}

	var pages []string
	var text string
	if len(req.Pages) > 0 {
		pages, text = util.NormalizePages(req.Pages)
	} else {
		text = util.NormalizeExtractedText(req.Text)
		pages = []string{text}
	}

	doc, err := s.deps.Store.SetExtractedText(r.Context(), id, text, pages)
	if err != nil {
		HandleError(w, err)
		return
	}

	s.deps.Metrics.IncrementCounter(telemetry.MetricDocumentsExtracted, 1)

	writeJSON(w, http.StatusOK, tools.ExtractResponse{
		Message:       tools.MsgTextExtracted,
		PDFID:         doc.ID,
		ExtractedText: doc.ExtractedText,
		Pages:         len(doc.Pages),
	})
}

// handleListDocuments returns every document.
func (s *HTTPServer) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.deps.Store.List(r.Context())
	if err != nil {
		HandleError(w, errortypes.DatabaseError(err, "Error fetching PDFs"))
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleSearchDocuments returns the documents whose name contains {name}.
func (s *HTTPServer) handleSearchDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.deps.Store.SearchByName(r.Context(), r.PathValue("name"))
	if err != nil {
		HandleError(w, errortypes.DatabaseError(err, "Error searching PDFs"))
		return
	}
	if len(docs) == 0 {
		writeJSON(w, http.StatusNotFound, tools.MessageResponse{Message: tools.MsgNoSearchResults})
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleDownload streams the stored PDF.
func (s *HTTPServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	doc, err := s.deps.Store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		HandleError(w, err)
		return
	}

	rc, err := s.deps.Blobs.Open(doc.BlobID)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/pdf")
	if seeker, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, doc.Filename, doc.UploadDate, seeker)
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Warn("Failed to stream document", "id", doc.ID, "error", err)
	}
}

// handleUpdateDocument changes document metadata.
func (s *HTTPServer) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	var changes docstore.Changes
	if err := decodeJSON(w, r, &changes); err != nil {
		HandleError(w, err)
		return
	}

	doc, err := s.deps.Store.Update(r.Context(), r.PathValue("id"), changes)
	if err != nil {
		HandleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tools.UpdateResponse{Message: tools.MsgDocumentUpdated, PDF: doc})
}

// handleDeleteDocument removes a document and its blob.
func (s *HTTPServer) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	doc, err := s.deps.Store.Get(ctx, id)
	if err != nil {
		HandleError(w, err)
		return
	}

	if err := s.deps.Blobs.Delete(doc.BlobID); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		HandleError(w, errortypes.InternalError(err, "Error deleting PDF").WithField("blob_id", doc.BlobID))
		return
	}

	if _, err := s.deps.Store.Delete(ctx, id); err != nil {
		HandleError(w, err)
		return
	}

	s.deps.Metrics.IncrementCounter(telemetry.MetricDocumentsDeleted, 1)
	writeJSON(w, http.StatusOK, tools.MessageResponse{Message: tools.MsgDocumentDeleted})
}

// handleTranslateDocument translates the posted text or, without one, the
// document's extracted text.
func (s *HTTPServer) handleTranslateDocument(w http.ResponseWriter, r *http.Request) {
	var req tools.TranslateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		HandleError(w, err)
		return
	}
	if err := req.Validate(false); err != nil {
		HandleError(w, err)
		return
	}

	doc, err := s.deps.Store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		HandleError(w, err)
		return
	}

	text := req.Text
	if strings.TrimSpace(text) == "" {
		text = doc.ExtractedText
	}
	if strings.TrimSpace(text) == "" {
		HandleError(w, tools.ErrNoDocumentText)
		return
	}

	s.translate(w, r, text, req.TargetLang)
}
