// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/litreview/pkg/types"
)

// maxUploadPapers caps the number of PDFs accepted per upload request.
const maxUploadPapers = 20

// abstractSnippetLen bounds the abstract text pulled from an uploaded PDF.
const abstractSnippetLen = 2000

// SourceUploaded tags papers supplied by the user rather than retrieved.
const SourceUploaded = "uploaded"

type uploadedPaperResponse struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	SourceID string `json:"source_id"`
}

// uploadPapers accepts multipart PDF uploads for an upload-flagged run,
// registers each as a paper, and links it to the run. Linking is
// idempotent, so re-uploading the same registered paper never duplicates
// the association.
func (s *Server) uploadPapers(c echo.Context) error {
	id, err := runID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	run, err := s.store.GetRun(ctx, id)
	if err != nil {
		return httpError(err)
	}
	if !run.UploadPapers {
		return echo.NewHTTPError(http.StatusBadRequest,
			"this run is not configured for paper uploads")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form required")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no files provided")
	}
	if len(files) > maxUploadPapers {
		return echo.NewHTTPError(http.StatusBadRequest,
			"maximum 20 papers allowed per run")
	}

	var uploaded []uploadedPaperResponse
	for _, fh := range files {
		if !isPDF(fh) {
			return echo.NewHTTPError(http.StatusBadRequest,
				"file "+fh.Filename+" is not a PDF")
		}

		title := titleFromFilename(fh.Filename)
		abstract := s.pdfAbstract(fh)

		paper, err := s.store.UpsertPaper(ctx, types.PaperRecord{
			Source:   SourceUploaded,
			SourceID: uuid.NewString(),
			Title:    title,
			Abstract: abstract,
		})
		if err != nil {
			return httpError(err)
		}
		if err := s.store.LinkPaperToRun(ctx, id, paper.ID); err != nil {
			return httpError(err)
		}

		uploaded = append(uploaded, uploadedPaperResponse{
			ID:       paper.ID,
			Title:    paper.Title,
			SourceID: paper.SourceID,
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"run_id":          id,
		"papers_uploaded": len(uploaded),
		"papers":          uploaded,
	})
}

func isPDF(fh *multipart.FileHeader) bool {
	if strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
		return true
	}
	return fh.Header.Get("Content-Type") == "application/pdf"
}

// titleFromFilename derives a paper title from the uploaded filename,
// falling back to a generated name for empty filenames.
func titleFromFilename(name string) string {
	title := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	title = strings.TrimSpace(title)
	if title == "" {
		return "Paper " + uuid.NewString()
	}
	return title
}

var extraneousWhitespace = regexp.MustCompile(`\s+`)

// pdfAbstract extracts a leading text snippet from the uploaded PDF to
// seed the paper's abstract. Extraction failures just leave the abstract
// absent; the evidence builder fills "unknown" at render time.
func (s *Server) pdfAbstract(fh *multipart.FileHeader) string {
	src, err := fh.Open()
	if err != nil {
		s.logger.Printf("opening upload %s: %v", fh.Filename, err)
		return ""
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "litreview-upload-*.pdf")
	if err != nil {
		s.logger.Printf("staging upload %s: %v", fh.Filename, err)
		return ""
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		s.logger.Printf("staging upload %s: %v", fh.Filename, err)
		return ""
	}

	file, reader, err := pdf.Open(tmp.Name())
	if err != nil {
		s.logger.Printf("parsing upload %s: %v", fh.Filename, err)
		return ""
	}
	defer file.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		s.logger.Printf("extracting text from %s: %v", fh.Filename, err)
		return ""
	}

	var builder strings.Builder
	if _, err := io.Copy(&builder, content); err != nil {
		return ""
	}

	text := extraneousWhitespace.ReplaceAllString(builder.String(), " ")
	text = strings.TrimSpace(text)
	if len(text) > abstractSnippetLen {
		text = text[:abstractSnippetLen]
	}
	return text
}
