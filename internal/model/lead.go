// Package model holds the domain types shared by the store, service and
// handler layers.
package model

import "time"

// LeadCollection is the document collection holding Lead records.
const LeadCollection = "lead"

// DefaultSource is the source recorded for every form submission.
const DefaultSource = "website"

// ServiceType is the kind of cleaning service a lead asks for.
type ServiceType string

const (
	ServiceHome         ServiceType = "Pulizie domestiche"
	ServiceOffices      ServiceType = "Uffici"
	ServiceCondominiums ServiceType = "Condomini"
	ServicePostBuild    ServiceType = "Post-cantiere"
	ServiceWindows      ServiceType = "Vetrate"
	ServiceOther        ServiceType = "Altro"
)

// ServiceTypes lists every accepted ServiceType.
var ServiceTypes = []ServiceType{
	ServiceHome,
	ServiceOffices,
	ServiceCondominiums,
	ServicePostBuild,
	ServiceWindows,
	ServiceOther,
}

func (s ServiceType) Valid() bool {
	for _, v := range ServiceTypes {
		if s == v {
			return true
		}
	}
	return false
}

// Frequency is how often the service should be performed.
type Frequency string

const (
	FrequencyOnce     Frequency = "Una tantum"
	FrequencyWeekly   Frequency = "Settimanale"
	FrequencyBiweekly Frequency = "Quindicinale"
	FrequencyMonthly  Frequency = "Mensile"
)

var Frequencies = []Frequency{
	FrequencyOnce,
	FrequencyWeekly,
	FrequencyBiweekly,
	FrequencyMonthly,
}

func (f Frequency) Valid() bool {
	for _, v := range Frequencies {
		if f == v {
			return true
		}
	}
	return false
}

// Status is the lifecycle stage of a lead.
type Status string

const (
	StatusNew       Status = "nuovo"
	StatusContacted Status = "contattato"
	StatusQuoted    Status = "preventivo"
	StatusClosed    Status = "chiuso"
)

// Statuses is ordered along the lifecycle.
var Statuses = []Status{
	StatusNew,
	StatusContacted,
	StatusQuoted,
	StatusClosed,
}

func (s Status) Valid() bool {
	return s.rank() >= 0
}

// CanTransitionTo reports whether staff may move a lead from s to next.
// Leads only move forward; a status never transitions to itself.
func (s Status) CanTransitionTo(next Status) bool {
	from, to := s.rank(), next.rank()
	return from >= 0 && to > from
}

func (s Status) rank() int {
	for i, v := range Statuses {
		if s == v {
			return i
		}
	}
	return -1
}

// Lead is a contact-form submission from a prospective customer.
//
// ID holds the stringified store identifier and is only set on records
// read back from the store.
type Lead struct {
	ID           string      `json:"_id,omitempty"`
	Name         string      `json:"name" validate:"required"`
	Email        string      `json:"email" validate:"required,email"`
	Phone        string      `json:"phone" validate:"required"`
	ServiceType  ServiceType `json:"service_type" validate:"required,service_type"`
	SquareMeters *int        `json:"square_meters" validate:"omitempty,min=0,max=1000000"`
	Frequency    *Frequency  `json:"frequency" validate:"omitempty,frequency"`
	Message      *string     `json:"message"`
	Source       string      `json:"source" validate:"required"`
	Status       Status      `json:"status" validate:"required,lead_status"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Validate checks the full record before it is written.
func (l *Lead) Validate() error {
	return validate.Struct(l)
}
