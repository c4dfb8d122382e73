package models

import (
	"time"

	"github.com/google/uuid"
)

type SurveyStatus string

const (
	SurveyStatusDraft       SurveyStatus = "draft"
	SurveyStatusSubmitted   SurveyStatus = "submitted"
	SurveyStatusUnderReview SurveyStatus = "under_review"
	SurveyStatusApproved    SurveyStatus = "approved"
	SurveyStatusRejected    SurveyStatus = "rejected"
)

func (s SurveyStatus) Valid() bool {
	switch s {
	case SurveyStatusDraft, SurveyStatusSubmitted, SurveyStatusUnderReview, SurveyStatusApproved, SurveyStatusRejected:
		return true
	}
	return false
}

// Decided reports whether a reviewer has already ruled on the survey.
func (s SurveyStatus) Decided() bool {
	return s == SurveyStatusApproved || s == SurveyStatusRejected
}

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending_approval"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected:
		return true
	}
	return false
}

// SurveyDetails holds the descriptive, lifecycle-irrelevant part of a survey.
type SurveyDetails struct {
	OwnerName             string     `json:"owner_name"`
	OwnerPhone            *string    `json:"owner_phone,omitempty"`
	PropertyAddress       string     `json:"property_address"`
	Locality              *string    `json:"locality,omitempty"`
	Ward                  *string    `json:"ward,omitempty"`
	Zone                  string     `json:"zone"`
	PropertyType          string     `json:"property_type"`
	PlotArea              *float64   `json:"plot_area,omitempty"`
	BuiltUpArea           *float64   `json:"built_up_area,omitempty"`
	CarpetArea            *float64   `json:"carpet_area,omitempty"`
	NumberOfFloors        *int       `json:"number_of_floors,omitempty"`
	ConstructionDate      *time.Time `json:"construction_date,omitempty"`
	LastTaxPaidDate       *time.Time `json:"last_tax_paid_date,omitempty"`
	WaterConnection       *bool      `json:"water_connection,omitempty"`
	ElectricityConnection *bool      `json:"electricity_connection,omitempty"`
	SewerageConnection    *bool      `json:"sewerage_connection,omitempty"`
	Latitude              *float64   `json:"latitude,omitempty"`
	Longitude             *float64   `json:"longitude,omitempty"`
	Remarks               *string    `json:"remarks,omitempty"`
}

type PropertySurvey struct {
	ID           uuid.UUID `json:"id"`
	PropertyID   string    `json:"property_id"`
	SurveyNumber string    `json:"survey_number"`
	SurveyDetails

	SurveyedBy uuid.UUID `json:"surveyed_by"`
	SurveyDate time.Time `json:"survey_date"`

	SurveyStatus   SurveyStatus   `json:"survey_status"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	SubmittedAt    *time.Time     `json:"submitted_at,omitempty"`

	// Legacy single-field review.
	ReviewedBy    *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	ReviewRemarks *string    `json:"review_remarks,omitempty"`

	// Approval workflow.
	ApprovedBy      *uuid.UUID `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	AdminNotes      *string    `json:"admin_notes,omitempty"`

	EditCount       int        `json:"edit_count"`
	LastEditComment *string    `json:"last_edit_comment,omitempty"`
	LastEditDate    *time.Time `json:"last_edit_date,omitempty"`
	LastEditBy      *uuid.UUID `json:"last_edit_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EditStamp is written together with an edit of a non-draft survey.
type EditStamp struct {
	Comment string
	By      uuid.UUID
	At      time.Time
}

// EditGuard is the row state an edit was computed from. Stores apply the
// edit only while the survey still has this status and updated_at.
type EditGuard struct {
	Status    SurveyStatus
	UpdatedAt time.Time
}

func (s *PropertySurvey) Guard() EditGuard {
	return EditGuard{Status: s.SurveyStatus, UpdatedAt: s.UpdatedAt}
}

// ReviewDecision is the legacy review outcome.
type ReviewDecision struct {
	Status     SurveyStatus
	ReviewerID uuid.UUID
	Remarks    *string
	At         time.Time
}

// ApprovalDecision is an approval-workflow outcome; Status is mirrored into survey_status.
type ApprovalDecision struct {
	Status          ApprovalStatus
	AdminID         uuid.UUID
	RejectionReason *string
	AdminNotes      *string
	At              time.Time
}

// SurveyStatus maps an approval decision to the survey_status it mirrors.
func (d ApprovalDecision) SurveyStatus() SurveyStatus {
	if d.Status == ApprovalStatusApproved {
		return SurveyStatusApproved
	}
	return SurveyStatusRejected
}
