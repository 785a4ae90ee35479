package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lamngoc/student-portal/internal/models"
	appErrors "github.com/lamngoc/student-portal/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Search(ctx context.Context, keyword string) ([]models.Student, error)
	ByMajor(ctx context.Context, major string) ([]models.Student, error)
	Sorted(ctx context.Context, sortBy, order string) ([]models.Student, error)
	Filtered(ctx context.Context, criteria models.StudentCriteria) ([]models.Student, error)
	Majors(ctx context.Context) ([]string, error)
}

var studentCodePattern = regexp.MustCompile(`^[A-Z]{2}\d{3,}$`)

// Field keys for validation errors, matching the view contract.
const (
	FieldCode  = "errorCode"
	FieldName  = "errorName"
	FieldEmail = "errorEmail"
	FieldMajor = "errorMajor"
)

// studentPayload mirrors the validatable subset of a student record.
type studentPayload struct {
	StudentCode string `validate:"required,studentcode"`
	FullName    string `validate:"required,min=2"`
	Email       string `validate:"omitempty,email"`
	Major       string `validate:"required"`
}

// StudentService wraps the store with validation and the fail-closed
// semantics of the listing endpoints: read faults degrade to empty results,
// write faults to a boolean failure. Fault detail stays in the logs.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	_ = validate.RegisterValidation("studentcode", func(fl validator.FieldLevel) bool {
		return studentCodePattern.MatchString(fl.Field().String())
	})
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// Validate checks a candidate record and returns per-field error messages.
// An empty map means the record is valid. Fields are trimmed in place so
// the validated values are the persisted ones.
func (s *StudentService) Validate(student *models.Student) map[string]string {
	student.StudentCode = strings.TrimSpace(student.StudentCode)
	student.FullName = strings.TrimSpace(student.FullName)
	student.Email = strings.TrimSpace(student.Email)
	student.Major = strings.TrimSpace(student.Major)

	payload := studentPayload{
		StudentCode: student.StudentCode,
		FullName:    student.FullName,
		Email:       student.Email,
		Major:       student.Major,
	}

	fieldErrors := make(map[string]string)
	err := s.validator.Struct(payload)
	if err == nil {
		return fieldErrors
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fieldErrors[FieldCode] = "invalid student record"
		return fieldErrors
	}

	for _, fe := range verrs {
		switch fe.Field() {
		case "StudentCode":
			if fe.Tag() == "required" {
				fieldErrors[FieldCode] = "Student code is required"
			} else {
				fieldErrors[FieldCode] = "Use format: 2 uppercase letters + 3 digits (e.g., SV001)"
			}
		case "FullName":
			fieldErrors[FieldName] = "Full name must be at least 2 characters"
		case "Email":
			fieldErrors[FieldEmail] = "Please provide a valid email address"
		case "Major":
			fieldErrors[FieldMajor] = "Major is required"
		}
	}
	return fieldErrors
}

// List returns all students, newest first.
func (s *StudentService) List(ctx context.Context) []models.Student {
	return s.collect(s.repo.List(ctx))
}

// Get loads a single student.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		s.logger.Error("failed to load student", zap.Int64("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Add persists a new, already validated student.
func (s *StudentService) Add(ctx context.Context, student *models.Student) bool {
	if err := s.repo.Create(ctx, student); err != nil {
		s.logger.Error("failed to add student", zap.Error(err))
		return false
	}
	return true
}

// Update replaces the mutable fields of an existing student. The student
// code is never written.
func (s *StudentService) Update(ctx context.Context, student *models.Student) bool {
	ok, err := s.repo.Update(ctx, student)
	if err != nil {
		s.logger.Error("failed to update student", zap.Int64("id", student.ID), zap.Error(err))
		return false
	}
	return ok
}

// Delete removes a student record.
func (s *StudentService) Delete(ctx context.Context, id int64) bool {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("failed to delete student", zap.Int64("id", id), zap.Error(err))
		return false
	}
	return ok
}

// Search returns students matching the keyword across code, name and email.
func (s *StudentService) Search(ctx context.Context, keyword string) []models.Student {
	return s.collect(s.repo.Search(ctx, keyword))
}

// ByMajor returns students in the given major.
func (s *StudentService) ByMajor(ctx context.Context, major string) []models.Student {
	return s.collect(s.repo.ByMajor(ctx, major))
}

// Sorted returns all students in the requested order.
func (s *StudentService) Sorted(ctx context.Context, sortBy, order string) []models.Student {
	return s.collect(s.repo.Sorted(ctx, sortBy, order))
}

// Filtered returns students matching the combined criteria.
func (s *StudentService) Filtered(ctx context.Context, criteria models.StudentCriteria) []models.Student {
	return s.collect(s.repo.Filtered(ctx, criteria))
}

// Majors returns the distinct majors for the filter control.
func (s *StudentService) Majors(ctx context.Context) []string {
	majors, err := s.repo.Majors(ctx)
	if err != nil {
		s.logger.Error("failed to list majors", zap.Error(err))
		return []string{}
	}
	if majors == nil {
		majors = []string{}
	}
	return majors
}

func (s *StudentService) collect(students []models.Student, err error) []models.Student {
	if err != nil {
		s.logger.Error("student query failed", zap.Error(err))
		return []models.Student{}
	}
	if students == nil {
		students = []models.Student{}
	}
	return students
}
