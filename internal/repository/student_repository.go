package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/lamngoc/student-portal/internal/models"
)

const studentColumns = "id, student_code, full_name, email, major, created_at"

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns all students in default listing order, newest first.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students ORDER BY id DESC", studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new student. The id is assigned by the store.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	const query = `INSERT INTO students (student_code, full_name, email, major)
        VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query, student.StudentCode, student.FullName, student.Email, student.Major)
	if err := row.Scan(&student.ID, &student.CreatedAt); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student by id. The student_code column is
// deliberately absent from the SET list: codes are immutable after creation.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) (bool, error) {
	const query = `UPDATE students SET full_name = $1, email = $2, major = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, student.FullName, student.Email, student.Major, student.ID)
	if err != nil {
		return false, fmt.Errorf("update student: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update student rows: %w", err)
	}
	return rows > 0, nil
}

// Delete removes a student record.
func (r *StudentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const query = `DELETE FROM students WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete student rows: %w", err)
	}
	return rows > 0, nil
}

// Search returns students whose code, name or email contains the keyword.
// A blank keyword is equivalent to List.
func (r *StudentRepository) Search(ctx context.Context, keyword string) ([]models.Student, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return r.List(ctx)
	}

	query := fmt.Sprintf(`SELECT %s FROM students
        WHERE student_code ILIKE $1 OR full_name ILIKE $1 OR email ILIKE $1
        ORDER BY id DESC`, studentColumns)
	pattern := "%" + keyword + "%"

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, pattern); err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return students, nil
}

// ByMajor returns students in the given major, exact match. A blank major
// is equivalent to List.
func (r *StudentRepository) ByMajor(ctx context.Context, major string) ([]models.Student, error) {
	major = strings.TrimSpace(major)
	if major == "" {
		return r.List(ctx)
	}

	query := fmt.Sprintf("SELECT %s FROM students WHERE major = $1 ORDER BY id DESC", studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, major); err != nil {
		return nil, fmt.Errorf("students by major: %w", err)
	}
	return students, nil
}

// Sorted returns all students ordered by the requested column and direction.
// Both identifiers pass the allow-list before interpolation; parameter
// binding cannot protect identifier positions.
func (r *StudentRepository) Sorted(ctx context.Context, sortBy, order string) ([]models.Student, error) {
	column := models.SanitizeSortBy(sortBy)
	direction := strings.ToUpper(models.SanitizeOrder(order))

	query := fmt.Sprintf("SELECT %s FROM students ORDER BY %s %s", studentColumns, column, direction)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("sorted students: %w", err)
	}
	return students, nil
}

// Filtered composes keyword and major as independent optional predicates,
// each supplied as a bound parameter, then appends a validated ORDER BY.
func (r *StudentRepository) Filtered(ctx context.Context, criteria models.StudentCriteria) ([]models.Student, error) {
	criteria = criteria.Sanitized()

	conditions := []string{"1=1"}
	var args []interface{}

	if criteria.Keyword != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(student_code ILIKE $%d OR full_name ILIKE $%d OR email ILIKE $%d)", n, n, n))
		args = append(args, "%"+criteria.Keyword+"%")
	}
	if criteria.Major != "" {
		conditions = append(conditions, fmt.Sprintf("major = $%d", len(args)+1))
		args = append(args, criteria.Major)
	}

	query := fmt.Sprintf("SELECT %s FROM students WHERE %s ORDER BY %s %s",
		studentColumns,
		strings.Join(conditions, " AND "),
		criteria.SortBy,
		strings.ToUpper(criteria.Order),
	)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("filtered students: %w", err)
	}
	return students, nil
}

// Count returns the total number of students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students"); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// Majors returns the distinct majors present in the table.
func (r *StudentRepository) Majors(ctx context.Context) ([]string, error) {
	var majors []string
	if err := r.db.SelectContext(ctx, &majors, "SELECT DISTINCT major FROM students ORDER BY major"); err != nil {
		return nil, fmt.Errorf("student majors: %w", err)
	}
	return majors, nil
}
