package model

import "time"

// CreateLeadRequest is the form payload accepted by POST /api/leads.
//
// source and status are deliberately absent: clients cannot set them.
type CreateLeadRequest struct {
	Name         string      `json:"name" validate:"required"`
	Email        string      `json:"email" validate:"required,email"`
	Phone        string      `json:"phone" validate:"required"`
	ServiceType  ServiceType `json:"service_type" validate:"required,service_type"`
	SquareMeters *int        `json:"square_meters" validate:"omitempty,min=0,max=1000000"`
	Frequency    *Frequency  `json:"frequency" validate:"omitempty,frequency"`
	Message      *string     `json:"message"`
}

func (r *CreateLeadRequest) Validate() error {
	return validate.Struct(r)
}

// ToLead builds the record to persist, with source and status defaulted.
func (r *CreateLeadRequest) ToLead(now time.Time) *Lead {
	return &Lead{
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		ServiceType:  r.ServiceType,
		SquareMeters: r.SquareMeters,
		Frequency:    r.Frequency,
		Message:      r.Message,
		Source:       DefaultSource,
		Status:       StatusNew,
		CreatedAt:    now.UTC(),
	}
}

type CreateLeadResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// ListLeadsRequest carries no parameters; the listing is unfiltered.
type ListLeadsRequest struct{}

func (r *ListLeadsRequest) Validate() error {
	return nil
}
