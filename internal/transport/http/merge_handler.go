package http

import (
	goerrors "errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"keepacli/internal/config"
	"keepacli/internal/dataprocessing"
	apierrors "keepacli/internal/errors"
	"keepacli/internal/exporter"
	"keepacli/internal/services"
	"keepacli/internal/validation"
)

// MergeHandler exposes the merge pipeline over HTTP: upload-and-merge,
// report, summary, preview, and CSV downloads.
type MergeHandler struct {
	service  *services.MergeService
	cfg      *config.Config
	logger   *slog.Logger
	validate *validator.Validate
	uploads  *validation.FileValidator
}

// NewMergeHandler creates the merge handler.
func NewMergeHandler(service *services.MergeService, cfg *config.Config, logger *slog.Logger) *MergeHandler {
	return &MergeHandler{
		service:  service,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "merge_handler")),
		validate: validator.New(),
		uploads:  validation.NewFileValidator(logger, cfg.Pipeline.MaxUploadBytes),
	}
}

// Routes returns the merge API routes.
func (h *MergeHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/merge", h.RunMerge)
	r.Get("/merge/report", h.GetReport)
	r.Get("/summary", h.GetSummary)
	r.Get("/preview", h.GetPreview)
	r.Get("/download/merged.csv", h.DownloadMerged)
	r.Get("/download/summary.csv", h.DownloadSummary)

	return r
}

// mergeRequest carries the optional date-range filter of a merge run.
type mergeRequest struct {
	From string `validate:"omitempty,datetime=2006-01-02"`
	To   string `validate:"omitempty,datetime=2006-01-02"`
}

// RunMerge accepts a multipart upload of xlsx files plus optional from/to
// form fields and runs the pipeline. Per-file failures become warnings in
// the response, not errors.
func (h *MergeHandler) RunMerge(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Pipeline.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.renderError(w, r, apierrors.NewWithDetails(http.StatusBadRequest,
			"INVALID_REQUEST", "failed to parse multipart upload", err.Error()))
		return
	}

	req := mergeRequest{
		From: r.FormValue("from"),
		To:   r.FormValue("to"),
	}
	if err := h.validate.Struct(req); err != nil {
		h.renderError(w, r, apierrors.NewWithDetails(http.StatusBadRequest,
			"VALIDATION_FAILED", "from/to must be ISO dates (YYYY-MM-DD)", err.Error()))
		return
	}
	from, to := parseDateRange(req)

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		h.renderError(w, r, apierrors.NewWithDetails(http.StatusBadRequest,
			"MISSING_PARAMETER", "no files uploaded; use multipart field \"files\"", nil))
		return
	}

	var sources []dataprocessing.Source
	for _, fh := range files {
		if err := h.uploads.ValidateUpload(fh.Filename, fh.Size); err != nil {
			h.renderError(w, r, apierrors.NewWithDetails(http.StatusBadRequest,
				"VALIDATION_FAILED", "rejected upload", err.Error()))
			return
		}
		f, err := fh.Open()
		if err != nil {
			h.renderError(w, r, apierrors.NewWithDetails(http.StatusBadRequest,
				"INVALID_REQUEST", "failed to open uploaded file "+fh.Filename, err.Error()))
			return
		}
		defer f.Close()
		sources = append(sources, dataprocessing.Source{
			Name:   fh.Filename,
			Reader: f,
			Size:   fh.Size,
		})
	}

	report, err := h.service.Run(r.Context(), sources, from, to, nil)
	if err != nil {
		if goerrors.Is(err, dataprocessing.ErrNoData) {
			h.renderError(w, r, apierrors.NewWithDetails(http.StatusUnprocessableEntity,
				"NO_DATA", "no data produced: every uploaded file was skipped", nil))
			return
		}
		h.renderError(w, r, apierrors.FromAppError(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, report)
}

// GetReport returns the stored run's report.
func (h *MergeHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Report()
	if err != nil {
		h.renderError(w, r, apierrors.FromAppError(err))
		return
	}
	render.JSON(w, r, report)
}

// summaryJSON is the JSON shape of one participation summary record.
type summaryJSON struct {
	ASIN              string   `json:"asin"`
	Label             string   `json:"label"`
	LatestRank        *float64 `json:"latest_rank,omitempty"`
	ParticipationRate float64  `json:"participation_rate"`
	ReferencePrice    *float64 `json:"reference_price,omitempty"`
	MinSalePrice      *float64 `json:"min_sale_price,omitempty"`
	MaxSalePrice      *float64 `json:"max_sale_price,omitempty"`
}

// GetSummary returns the stored run's participation summary as JSON.
func (h *MergeHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary()
	if err != nil {
		h.renderError(w, r, apierrors.FromAppError(err))
		return
	}

	out := make([]summaryJSON, 0, len(summary))
	for _, s := range summary {
		out = append(out, summaryJSON{
			ASIN:              s.ASIN,
			Label:             s.Label,
			LatestRank:        cellNumber(s.LatestRank),
			ParticipationRate: s.ParticipationRate,
			ReferencePrice:    cellNumber(s.ReferencePrice),
			MinSalePrice:      cellNumber(s.MinSalePrice),
			MaxSalePrice:      cellNumber(s.MaxSalePrice),
		})
	}
	render.JSON(w, r, out)
}

// GetPreview returns the first rows of the filtered merged table.
func (h *MergeHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	n := h.cfg.Pipeline.PreviewRows
	if raw := r.URL.Query().Get("rows"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.renderError(w, r, apierrors.NewWithDetails(http.StatusBadRequest,
				"INVALID_PARAMETER", "rows must be a positive integer", raw))
			return
		}
		n = parsed
	}

	columns, rows, err := h.service.Preview(n)
	if err != nil {
		h.renderError(w, r, apierrors.FromAppError(err))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"columns": columns,
		"rows":    rows,
	})
}

// DownloadMerged streams the filtered merged table as a BOM CSV attachment.
func (h *MergeHandler) DownloadMerged(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, exporter.MergedFileName(time.Now()), h.service.WriteMergedCSV)
}

// DownloadSummary streams the participation summary as a BOM CSV attachment.
func (h *MergeHandler) DownloadSummary(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, "keepa_summary_"+time.Now().Format("20060102_150405")+".csv", h.service.WriteSummaryCSV)
}

func (h *MergeHandler) download(w http.ResponseWriter, r *http.Request, filename string, write func(io.Writer) error) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := write(w); err != nil {
		// Headers may already be sent; log and report what we can.
		h.logger.ErrorContext(r.Context(), "csv download failed",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
	}
}

func (h *MergeHandler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	render.Status(r, apiErr.StatusCode)
	render.JSON(w, r, apiErr)
}

func cellNumber(c dataprocessing.Cell) *float64 {
	if v, ok := c.AsNumber(); ok {
		return &v
	}
	return nil
}

func parseDateRange(req mergeRequest) (from, to time.Time) {
	if req.From != "" {
		from, _ = time.Parse("2006-01-02", req.From)
	}
	if req.To != "" {
		to, _ = time.Parse("2006-01-02", req.To)
	}
	// One-sided ranges widen the missing bound.
	if !from.IsZero() && to.IsZero() {
		to = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	if from.IsZero() && !to.IsZero() {
		from = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return from, to
}
