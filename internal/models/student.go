package models

import (
	"strings"
	"time"
)

// Student represents a student record.
type Student struct {
	ID          int64     `db:"id" json:"id"`
	StudentCode string    `db:"student_code" json:"studentCode"`
	FullName    string    `db:"full_name" json:"fullName"`
	Email       string    `db:"email" json:"email"`
	Major       string    `db:"major" json:"major"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// StudentCriteria is the transient combination of listing inputs. It is
// rebuilt from the request every time and never persisted.
type StudentCriteria struct {
	Keyword string
	Major   string
	SortBy  string
	Order   string
}

// sortColumns is the closed set of identifiers permitted in ORDER BY
// position. Identifiers cannot be bound as parameters, so membership here
// is the only defense against injection through them.
var sortColumns = map[string]bool{
	"id":           true,
	"student_code": true,
	"full_name":    true,
	"email":        true,
	"major":        true,
	"created_at":   true,
}

// SanitizeSortBy maps any input outside the allow-list to "id".
func SanitizeSortBy(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if sortColumns[normalized] {
		return normalized
	}
	return "id"
}

// SanitizeOrder accepts only case-insensitive "desc"; everything else is
// ascending.
func SanitizeOrder(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), "desc") {
		return "desc"
	}
	return "asc"
}

// Sanitized returns a copy with trimmed predicates and allow-listed sort
// fields, safe to hand to the store.
func (cr StudentCriteria) Sanitized() StudentCriteria {
	return StudentCriteria{
		Keyword: strings.TrimSpace(cr.Keyword),
		Major:   strings.TrimSpace(cr.Major),
		SortBy:  SanitizeSortBy(cr.SortBy),
		Order:   SanitizeOrder(cr.Order),
	}
}
