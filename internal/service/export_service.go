package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lamngoc/student-portal/internal/models"
	appErrors "github.com/lamngoc/student-portal/pkg/errors"
	"github.com/lamngoc/student-portal/pkg/export"
	"github.com/lamngoc/student-portal/pkg/jobs"
	"github.com/lamngoc/student-portal/pkg/storage"
)

type exportStudentRepository interface {
	Filtered(ctx context.Context, criteria models.StudentCriteria) ([]models.Student, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Path(filename string) string
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFormat is the closed set of supported export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportStatus tracks an export through its lifecycle.
type ExportStatus string

const (
	ExportPending ExportStatus = "pending"
	ExportReady   ExportStatus = "ready"
	ExportFailed  ExportStatus = "failed"
)

// ExportTicket is the caller-visible record of a requested export.
type ExportTicket struct {
	ID        string       `json:"id"`
	Status    ExportStatus `json:"status"`
	Format    ExportFormat `json:"format"`
	Token     string       `json:"token,omitempty"`
	URL       string       `json:"url,omitempty"`
	ExpiresAt time.Time    `json:"expiresAt,omitempty"`
}

type exportJob struct {
	criteria models.StudentCriteria
	format   ExportFormat
}

// ExportService generates downloadable student listings in the background.
// Files land on local storage and are fetched through signed, expiring
// tokens so the download route carries no session-bound state.
type ExportService struct {
	students exportStudentRepository
	storage  fileStorage
	signer   *storage.SignedURLSigner
	csv      datasetRenderer
	pdf      datasetRenderer
	queue    *jobs.Queue
	logger   *zap.Logger

	mu      sync.Mutex
	tickets map[string]*ExportTicket
}

// NewExportService constructs an ExportService and its worker queue. The
// queue is not started; call Start.
func NewExportService(students exportStudentRepository, store fileStorage, signer *storage.SignedURLSigner, workers int, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportService{
		students: students,
		storage:  store,
		signer:   signer,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
		tickets:  make(map[string]*ExportTicket),
	}
	s.queue = jobs.NewQueue("student-exports", s.process, jobs.QueueConfig{
		Workers: workers,
		Logger:  logger,
	})
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Request enqueues an export of the students matching the criteria and
// returns a pending ticket immediately.
func (s *ExportService) Request(criteria models.StudentCriteria, format ExportFormat) (*ExportTicket, error) {
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, fmt.Sprintf("unsupported export format %q", format))
	}

	ticket := &ExportTicket{
		ID:     uuid.NewString(),
		Status: ExportPending,
		Format: format,
	}
	s.mu.Lock()
	s.tickets[ticket.ID] = ticket
	s.mu.Unlock()

	err := s.queue.Enqueue(jobs.Job{
		ID:      ticket.ID,
		Payload: exportJob{criteria: criteria.Sanitized(), format: format},
	})
	if err != nil {
		s.fail(ticket.ID)
		s.logger.Error("failed to enqueue export", zap.String("export_id", ticket.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start export")
	}
	return s.Status(ticket.ID)
}

// Status returns a snapshot of the ticket, or an ErrNotFound for unknown ids.
func (s *ExportService) Status(id string) (*ExportTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	snapshot := *ticket
	return &snapshot, nil
}

// Resolve validates a download token and returns the absolute file path and
// the filename to serve it under.
func (s *ExportService) Resolve(token string) (path, name string, err error) {
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return "", "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download link")
	}
	return s.storage.Path(relPath), relPath, nil
}

// Cleanup removes export files older than the TTL.
func (s *ExportService) Cleanup(ttl time.Duration) {
	deleted, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("cleaned up expired exports", zap.Int("count", len(deleted)))
	}
}

func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(exportJob)
	if !ok {
		s.fail(job.ID)
		return fmt.Errorf("unexpected export payload %T", job.Payload)
	}

	students, err := s.students.Filtered(ctx, payload.criteria)
	if err != nil {
		s.fail(job.ID)
		return fmt.Errorf("load students for export: %w", err)
	}

	dataset := buildStudentDataset(students)
	var renderer datasetRenderer
	if payload.format == ExportFormatPDF {
		renderer = s.pdf
	} else {
		renderer = s.csv
	}
	data, err := renderer.Render(dataset)
	if err != nil {
		s.fail(job.ID)
		return fmt.Errorf("render export: %w", err)
	}

	filename := fmt.Sprintf("students_%s_%s.%s", time.Now().UTC().Format("20060102_150405"), job.ID[:8], payload.format)
	relPath, err := s.storage.Save(filename, data)
	if err != nil {
		s.fail(job.ID)
		return fmt.Errorf("store export: %w", err)
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.fail(job.ID)
		return fmt.Errorf("sign export download: %w", err)
	}

	s.mu.Lock()
	if ticket, ok := s.tickets[job.ID]; ok {
		ticket.Status = ExportReady
		ticket.Token = token
		ticket.URL = "/export/download?token=" + token
		ticket.ExpiresAt = expiresAt
	}
	s.mu.Unlock()

	s.logger.Info("export ready",
		zap.String("export_id", job.ID),
		zap.String("file", relPath),
		zap.Int("students", len(students)))
	return nil
}

func (s *ExportService) fail(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket, ok := s.tickets[id]; ok {
		ticket.Status = ExportFailed
	}
}

func buildStudentDataset(students []models.Student) export.Dataset {
	rows := make([][]string, 0, len(students))
	for _, student := range students {
		rows = append(rows, []string{
			strconv.FormatInt(student.ID, 10),
			student.StudentCode,
			student.FullName,
			student.Email,
			student.Major,
			student.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{
		Title:   "Student List",
		Headers: []string{"ID", "Student Code", "Full Name", "Email", "Major", "Created At"},
		Rows:    rows,
	}
}
