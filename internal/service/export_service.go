package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/suivi-academique-api/internal/models"
	appErrors "github.com/noah-isme/suivi-academique-api/pkg/errors"
	"github.com/noah-isme/suivi-academique-api/pkg/export"
)

const exportPageSize = 100

type bookingLister interface {
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered export ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

var bookingExportHeaders = []string{"id", "room", "course", "creator", "reviewer", "hours", "starts_at", "ends_at", "status"}

// ExportService renders booking listings as CSV or PDF.
type ExportService struct {
	bookings bookingLister
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers use the pkg/export defaults.
func NewExportService(bookings bookingLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{bookings: bookings, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// ExportBookings renders every booking matching filter, ignoring its paging fields.
func (s *ExportService) ExportBookings(ctx context.Context, filter models.BookingFilter, format export.Format) (*ExportFile, error) {
	dataset, err := s.bookingDataset(ctx, filter)
	if err != nil {
		return nil, err
	}

	var content []byte
	switch format {
	case export.FormatCSV:
		content, err = s.csv.Render(dataset)
	case export.FormatPDF:
		content, err = s.pdf.Render(dataset, "Programmations")
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("bookings exported", zap.String("format", string(format)), zap.Int("rows", len(dataset.Rows)))
	return &ExportFile{
		Filename:    fmt.Sprintf("programmations_%s.%s", s.now().UTC().Format("20060102_150405"), format),
		ContentType: format.ContentType(),
		Content:     content,
	}, nil
}

func (s *ExportService) bookingDataset(ctx context.Context, filter models.BookingFilter) (export.Dataset, error) {
	dataset := export.Dataset{Headers: bookingExportHeaders}
	filter.PageSize = exportPageSize
	for page := 1; ; page++ {
		filter.Page = page
		items, total, err := s.bookings.List(ctx, filter)
		if err != nil {
			return dataset, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings for export")
		}
		for _, b := range items {
			dataset.Rows = append(dataset.Rows, bookingRow(b))
		}
		if len(items) == 0 || page*exportPageSize >= total {
			return dataset, nil
		}
	}
}

func bookingRow(b models.Booking) map[string]string {
	reviewer := ""
	if b.ReviewerCode != nil {
		reviewer = *b.ReviewerCode
	}
	return map[string]string{
		"id":        strconv.FormatInt(b.ID, 10),
		"room":      b.RoomCode,
		"course":    b.CourseCode,
		"creator":   b.CreatorCode,
		"reviewer":  reviewer,
		"hours":     strconv.Itoa(b.DurationHours),
		"starts_at": b.StartsAt.UTC().Format(time.RFC3339),
		"ends_at":   b.EndsAt.UTC().Format(time.RFC3339),
		"status":    string(b.Status),
	}
}
