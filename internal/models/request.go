package models

import (
	"strings"

	"property-survey-backend/internal/apperror"
)

// SurveyDetailsInput is the allow-listed set of descriptive fields a caller
// may send. A nil pointer means "not provided".
type SurveyDetailsInput struct {
	OwnerName             *string      `json:"owner_name,omitempty"`
	OwnerPhone            *string      `json:"owner_phone,omitempty"`
	PropertyAddress       *string      `json:"property_address,omitempty"`
	Locality              *string      `json:"locality,omitempty"`
	Ward                  *string      `json:"ward,omitempty"`
	Zone                  *string      `json:"zone,omitempty"`
	PropertyType          *string      `json:"property_type,omitempty"`
	PlotArea              *float64     `json:"plot_area,omitempty"`
	BuiltUpArea           *float64     `json:"built_up_area,omitempty"`
	CarpetArea            *float64     `json:"carpet_area,omitempty"`
	NumberOfFloors        *int         `json:"number_of_floors,omitempty"`
	ConstructionDate      *LenientDate `json:"construction_date,omitempty"`
	LastTaxPaidDate       *LenientDate `json:"last_tax_paid_date,omitempty"`
	WaterConnection       *bool        `json:"water_connection,omitempty"`
	ElectricityConnection *bool        `json:"electricity_connection,omitempty"`
	SewerageConnection    *bool        `json:"sewerage_connection,omitempty"`
	Latitude              *float64     `json:"latitude,omitempty"`
	Longitude             *float64     `json:"longitude,omitempty"`
	Remarks               *string      `json:"remarks,omitempty"`
}

// Empty reports whether no field was provided.
func (in SurveyDetailsInput) Empty() bool {
	return in == SurveyDetailsInput{}
}

func (in SurveyDetailsInput) Validate() error {
	for field, v := range map[string]*float64{
		"plot_area":     in.PlotArea,
		"built_up_area": in.BuiltUpArea,
		"carpet_area":   in.CarpetArea,
	} {
		if v != nil && *v < 0 {
			return apperror.Field(field, field+" must not be negative")
		}
	}
	if in.NumberOfFloors != nil && *in.NumberOfFloors < 0 {
		return apperror.Field("number_of_floors", "number_of_floors must not be negative")
	}
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90) {
		return apperror.Field("latitude", "latitude must be between -90 and 90")
	}
	if in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180) {
		return apperror.Field("longitude", "longitude must be between -180 and 180")
	}
	return nil
}

// ApplyTo copies every provided field onto d.
func (in SurveyDetailsInput) ApplyTo(d *SurveyDetails) {
	if in.OwnerName != nil {
		d.OwnerName = strings.TrimSpace(*in.OwnerName)
	}
	if in.OwnerPhone != nil {
		d.OwnerPhone = optString(*in.OwnerPhone)
	}
	if in.PropertyAddress != nil {
		d.PropertyAddress = strings.TrimSpace(*in.PropertyAddress)
	}
	if in.Locality != nil {
		d.Locality = optString(*in.Locality)
	}
	if in.Ward != nil {
		d.Ward = optString(*in.Ward)
	}
	if in.Zone != nil {
		d.Zone = strings.TrimSpace(*in.Zone)
	}
	if in.PropertyType != nil {
		d.PropertyType = strings.TrimSpace(*in.PropertyType)
	}
	if in.PlotArea != nil {
		d.PlotArea = in.PlotArea
	}
	if in.BuiltUpArea != nil {
		d.BuiltUpArea = in.BuiltUpArea
	}
	if in.CarpetArea != nil {
		d.CarpetArea = in.CarpetArea
	}
	if in.NumberOfFloors != nil {
		d.NumberOfFloors = in.NumberOfFloors
	}
	if in.ConstructionDate != nil {
		d.ConstructionDate = in.ConstructionDate.Time
	}
	if in.LastTaxPaidDate != nil {
		d.LastTaxPaidDate = in.LastTaxPaidDate.Time
	}
	if in.WaterConnection != nil {
		d.WaterConnection = in.WaterConnection
	}
	if in.ElectricityConnection != nil {
		d.ElectricityConnection = in.ElectricityConnection
	}
	if in.SewerageConnection != nil {
		d.SewerageConnection = in.SewerageConnection
	}
	if in.Latitude != nil {
		d.Latitude = in.Latitude
	}
	if in.Longitude != nil {
		d.Longitude = in.Longitude
	}
	if in.Remarks != nil {
		d.Remarks = optString(*in.Remarks)
	}
}

// ValidateRequired checks the fields a survey cannot exist without.
func (d SurveyDetails) ValidateRequired() error {
	switch {
	case d.OwnerName == "":
		return apperror.Field("owner_name", "owner_name is required")
	case d.PropertyAddress == "":
		return apperror.Field("property_address", "property_address is required")
	case d.Zone == "":
		return apperror.Field("zone", "zone is required")
	case d.PropertyType == "":
		return apperror.Field("property_type", "property_type is required")
	}
	return nil
}

type CreateSurveyRequest struct {
	PropertyID   string `json:"property_id"`
	SurveyNumber string `json:"survey_number,omitempty"`
	SurveyDetailsInput
}

type UpdateSurveyRequest struct {
	SurveyDetailsInput
	EditComment string `json:"edit_comment,omitempty"`
}

type ReviewRequest struct {
	Action  string  `json:"action"` // "approve" or "reject"
	Remarks *string `json:"remarks,omitempty"`
}

type ApproveRequest struct {
	AdminNotes *string `json:"admin_notes,omitempty"`
}

type RejectRequest struct {
	RejectionReason string  `json:"rejection_reason"`
	AdminNotes      *string `json:"admin_notes,omitempty"`
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
