package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SurveyFilter is the predicate set shared by the admin listing, the
// statistics aggregation and the export, so totals always agree with rows.
type SurveyFilter struct {
	ApprovalStatus ApprovalStatus
	SurveyStatus   SurveyStatus
	Zone           string
	PropertyType   string
	SurveyedBy     *uuid.UUID
	Search         string
	From           *time.Time
	To             *time.Time

	Page     int
	PageSize int
}

func (f SurveyFilter) Normalize() SurveyFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

func (f SurveyFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Matches evaluates the predicates in memory. It must stay equivalent to the
// SQL built by the database package.
func (f SurveyFilter) Matches(s *PropertySurvey) bool {
	if f.ApprovalStatus != "" && s.ApprovalStatus != f.ApprovalStatus {
		return false
	}
	if f.SurveyStatus != "" && s.SurveyStatus != f.SurveyStatus {
		return false
	}
	if f.Zone != "" && s.Zone != f.Zone {
		return false
	}
	if f.PropertyType != "" && s.PropertyType != f.PropertyType {
		return false
	}
	if f.SurveyedBy != nil && s.SurveyedBy != *f.SurveyedBy {
		return false
	}
	if f.From != nil && s.SurveyDate.Before(*f.From) {
		return false
	}
	if f.To != nil && !s.SurveyDate.Before(*f.To) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(s.PropertyID), needle) &&
			!strings.Contains(strings.ToLower(s.SurveyNumber), needle) &&
			!strings.Contains(strings.ToLower(s.OwnerName), needle) {
			return false
		}
	}
	return true
}

// CacheKey is a canonical rendering of the predicates, ignoring pagination.
func (f SurveyFilter) CacheKey() string {
	var b strings.Builder
	fmt.Fprintf(&b, "as=%s|ss=%s|z=%s|pt=%s", f.ApprovalStatus, f.SurveyStatus, f.Zone, f.PropertyType)
	if f.SurveyedBy != nil {
		fmt.Fprintf(&b, "|by=%s", f.SurveyedBy.String())
	}
	fmt.Fprintf(&b, "|q=%s", strings.ToLower(strings.TrimSpace(f.Search)))
	if f.From != nil {
		fmt.Fprintf(&b, "|from=%d", f.From.Unix())
	}
	if f.To != nil {
		fmt.Fprintf(&b, "|to=%d", f.To.Unix())
	}
	return b.String()
}

// StatusCounts counts surveys per approval_status.
type StatusCounts struct {
	Total           int `json:"total"`
	PendingApproval int `json:"pending_approval"`
	Approved        int `json:"approved"`
	Rejected        int `json:"rejected"`
}

func (c StatusCounts) add(status ApprovalStatus, n int) StatusCounts {
	c.Total += n
	switch status {
	case ApprovalStatusPending:
		c.PendingApproval += n
	case ApprovalStatusApproved:
		c.Approved += n
	case ApprovalStatusRejected:
		c.Rejected += n
	}
	return c
}

type SurveyStats struct {
	Overall        StatusCounts            `json:"overall"`
	ByZone         map[string]StatusCounts `json:"by_zone"`
	ByPropertyType map[string]StatusCounts `json:"by_property_type"`
}

func NewSurveyStats() *SurveyStats {
	return &SurveyStats{
		ByZone:         make(map[string]StatusCounts),
		ByPropertyType: make(map[string]StatusCounts),
	}
}

func (s *SurveyStats) Add(zone, propertyType string, status ApprovalStatus, n int) {
	s.Overall = s.Overall.add(status, n)
	s.ByZone[zone] = s.ByZone[zone].add(status, n)
	s.ByPropertyType[propertyType] = s.ByPropertyType[propertyType].add(status, n)
}
