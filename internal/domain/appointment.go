package domain

import (
	"strings"
	"time"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// statusAliases accepts the labels older clients send.
var statusAliases = map[string]AppointmentStatus{
	"pending":    StatusPending,
	"en attente": StatusPending,
	"confirmed":  StatusConfirmed,
	"confirmé":   StatusConfirmed,
	"confirme":   StatusConfirmed,
	"cancelled":  StatusCancelled,
	"canceled":   StatusCancelled,
	"annulé":     StatusCancelled,
	"annule":     StatusCancelled,
}

func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	return st, ok
}

var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusPending},
	StatusCancelled: nil,
}

// CanTransitionTo reports whether next is reachable from s. Staying put is always allowed.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if s == next {
		return true
	}
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Active appointments hold their doctor slot.
func (s AppointmentStatus) Active() bool {
	return s != StatusCancelled
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

var genderAliases = map[string]Gender{
	"male":   GenderMale,
	"homme":  GenderMale,
	"female": GenderFemale,
	"femme":  GenderFemale,
	"other":  GenderOther,
	"autre":  GenderOther,
}

func ParseGender(s string) (Gender, bool) {
	g, ok := genderAliases[strings.ToLower(strings.TrimSpace(s))]
	return g, ok
}

type Appointment struct {
	ID         string            `json:"id"`
	UserID     string            `json:"userId"`
	FullName   string            `json:"fullName"`
	Email      string            `json:"email"`
	Phone      string            `json:"phone"`
	Age        int               `json:"age"`
	Gender     Gender            `json:"gender"`
	Service    string            `json:"service"`
	Date       string            `json:"date"`
	Time       string            `json:"time"`
	DoctorName string            `json:"doctorName"`
	Reason     string            `json:"reason"`
	Notes      string            `json:"notes"`
	Diagnosis  string            `json:"diagnosis"`
	Status     AppointmentStatus `json:"status"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

type CreateAppointmentRequest struct {
	FullName   string `json:"fullName" validate:"required"`
	Email      string `json:"email" validate:"required,clinic_email"`
	Phone      string `json:"phone" validate:"required"`
	Age        *int   `json:"age" validate:"required,gte=0,lte=150"`
	Gender     string `json:"gender" validate:"required"`
	Service    string `json:"service" validate:"required"`
	Date       string `json:"date" validate:"required,day"`
	Time       string `json:"time" validate:"required,hhmm"`
	DoctorName string `json:"doctorName" validate:"required"`
	Reason     string `json:"reason"`
	Notes      string `json:"notes"`
}

func (r *CreateAppointmentRequest) Normalize() {
	r.FullName = NormalizeName(r.FullName)
	r.Email = NormalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Gender = strings.TrimSpace(r.Gender)
	r.Service = strings.TrimSpace(r.Service)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.DoctorName = strings.TrimSpace(r.DoctorName)
	r.Reason = strings.TrimSpace(r.Reason)
	r.Notes = strings.TrimSpace(r.Notes)
	// full ISO timestamps from date pickers keep only the day
	if len(r.Date) > len(DateLayout) && r.Date[len(DateLayout)] == 'T' {
		r.Date = r.Date[:len(DateLayout)]
	}
}

func (r *CreateAppointmentRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if _, ok := ParseGender(r.Gender); !ok {
		return Validation("gender must be one of: male, female, other")
	}
	return nil
}

// ToAppointment builds a pending appointment owned by userID. Call Validate first.
func (r *CreateAppointmentRequest) ToAppointment(userID string) *Appointment {
	g, _ := ParseGender(r.Gender)
	age := 0
	if r.Age != nil {
		age = *r.Age
	}
	return &Appointment{
		UserID:     userID,
		FullName:   r.FullName,
		Email:      r.Email,
		Phone:      r.Phone,
		Age:        age,
		Gender:     g,
		Service:    r.Service,
		Date:       r.Date,
		Time:       r.Time,
		DoctorName: r.DoctorName,
		Reason:     r.Reason,
		Notes:      r.Notes,
		Status:     StatusPending,
	}
}

// UpdateAppointmentRequest is the PATCH body. "diagnostic" is accepted for older clients.
type UpdateAppointmentRequest struct {
	Status     *string `json:"status,omitempty"`
	Diagnosis  *string `json:"diagnosis,omitempty"`
	Diagnostic *string `json:"diagnostic,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

func (r *UpdateAppointmentRequest) Normalize() {
	if r.Diagnosis == nil && r.Diagnostic != nil {
		r.Diagnosis = r.Diagnostic
	}
	r.Diagnostic = nil
}

func (r *UpdateAppointmentRequest) Validate() error {
	if r.Status == nil && r.Diagnosis == nil && r.Notes == nil {
		return Validation("nothing to update")
	}
	if r.Status != nil {
		if _, ok := ParseAppointmentStatus(*r.Status); !ok {
			return Validation("status must be one of: pending, confirmed, cancelled")
		}
	}
	return nil
}

// OnlyCancels reports whether the request does nothing but cancel.
func (r *UpdateAppointmentRequest) OnlyCancels() bool {
	if r.Status == nil || r.Diagnosis != nil || r.Notes != nil {
		return false
	}
	st, ok := ParseAppointmentStatus(*r.Status)
	return ok && st == StatusCancelled
}

type AppointmentFilter struct {
	Status AppointmentStatus
	Doctor string
}
