package patient

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lightit/patientreg/internal/schema"
	"github.com/lightit/patientreg/internal/storage"
)

// ---------------------------------------------------------------------------
// Collaborator contracts
// ---------------------------------------------------------------------------

// Store is the storage access the service composes over; satisfied by
// *storage.Repository[schema.Patient].
type Store interface {
	FindAll(ctx context.Context, order string) ([]schema.Patient, error)
	FindByID(ctx context.Context, id uuid.UUID) (*schema.Patient, error)
	Create(ctx context.Context, p *schema.Patient) error
	Save(ctx context.Context, p *schema.Patient) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// Files is the document-photo lifecycle adapter; satisfied by
// *filestore.Store.
type Files interface {
	PublicPath(filename string) string
	Managed(publicPath string) bool
	DeleteIfExists(publicPath string)
}

// EmailEnqueuer schedules a confirmation email for asynchronous delivery.
type EmailEnqueuer interface {
	Enqueue(ctx context.Context, email, patientName, message string) (string, error)
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	Name             string
	Email            string
	PhoneNumber      string
	DocumentPhotoURL string
}

type UpdateRequest struct {
	Name             *string
	Email            *string
	PhoneNumber      *string
	DocumentPhotoURL *string
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	List(ctx context.Context) ([]schema.Patient, error)
	Get(ctx context.Context, id uuid.UUID) (*schema.Patient, error)
	Create(ctx context.Context, req CreateRequest) (*schema.Patient, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*schema.Patient, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// WithAbsolutePhotoURL returns a copy whose photo URL is prefixed with
	// baseURL. It never touches storage.
	WithAbsolutePhotoURL(p schema.Patient, baseURL string) schema.Patient
	BuildFileURL(filename string) string
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type patientService struct {
	store Store
	files Files
	mail  EmailEnqueuer
	log   *slog.Logger
}

func New(store Store, files Files, mail EmailEnqueuer, log *slog.Logger) Service {
	return &patientService{store: store, files: files, mail: mail, log: log}
}

func (s *patientService) List(ctx context.Context) ([]schema.Patient, error) {
	return s.store.FindAll(ctx, "created_at DESC")
}

func (s *patientService) Get(ctx context.Context, id uuid.UUID) (*schema.Patient, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	if p == nil {
		return nil, ErrPatientNotFound
	}
	return p, nil
}

func (s *patientService) WithAbsolutePhotoURL(p schema.Patient, baseURL string) schema.Patient {
	p.DocumentPhotoURL = baseURL + p.DocumentPhotoURL
	return p
}

func (s *patientService) BuildFileURL(filename string) string {
	return s.files.PublicPath(filename)
}

func (s *patientService) Create(ctx context.Context, req CreateRequest) (*schema.Patient, error) {
	p := &schema.Patient{
		Name:             req.Name,
		Email:            req.Email,
		PhoneNumber:      req.PhoneNumber,
		DocumentPhotoURL: req.DocumentPhotoURL,
	}

	if err := s.store.Create(ctx, p); err != nil {
		if storage.IsDuplicate(err) {
			return nil, &DuplicateFieldError{Message: duplicateMessage}
		}
		return nil, fmt.Errorf("create patient: %w", err)
	}

	s.enqueueConfirmation(p.Email, p.Name, p.ID)

	return p, nil
}

func (s *patientService) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*schema.Patient, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	if p == nil {
		return nil, ErrPatientNotFound
	}

	if req.DocumentPhotoURL != nil {
		// The replaced photo is removed first; the record write below never
		// depends on this cleanup succeeding.
		if p.DocumentPhotoURL != "" {
			s.files.DeleteIfExists(p.DocumentPhotoURL)
		}
		p.DocumentPhotoURL = *req.DocumentPhotoURL
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Email != nil {
		p.Email = *req.Email
	}
	if req.PhoneNumber != nil {
		p.PhoneNumber = *req.PhoneNumber
	}

	if err := s.store.Save(ctx, p); err != nil {
		if storage.IsDuplicate(err) {
			return nil, &DuplicateFieldError{Message: duplicateMessage}
		}
		return nil, fmt.Errorf("update patient: %w", err)
	}

	return p, nil
}

func (s *patientService) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get patient: %w", err)
	}
	if p == nil {
		return false, ErrPatientNotFound
	}

	if s.files.Managed(p.DocumentPhotoURL) {
		s.files.DeleteIfExists(p.DocumentPhotoURL)
	}

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete patient: %w", err)
	}
	return deleted, nil
}

// enqueueConfirmation schedules the welcome email as a detached task. Its
// failure goes to the log sink only; record creation has already succeeded.
func (s *patientService) enqueueConfirmation(email, name string, id uuid.UUID) {
	message := fmt.Sprintf("Welcome %s! Your registration has been confirmed. We'll be in touch shortly.", name)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if _, err := s.mail.Enqueue(ctx, email, name, message); err != nil {
			s.log.Error("failed to queue confirmation email", "patient_id", id, "err", err)
		}
	}()
}
