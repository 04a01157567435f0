package mongo

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/diagnosis/clinic-bookings/internal/domain"
)

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	LastName     string             `bson:"lastName"`
	FirstName    string             `bson:"firstName"`
	Phone        string             `bson:"phone"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password"`
	Role         string             `bson:"role"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func newUserDoc(u *domain.User) userDoc {
	return userDoc{
		LastName:     u.LastName,
		FirstName:    u.FirstName,
		Phone:        u.Phone,
		Email:        strings.ToLower(u.Email),
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		LastName:     d.LastName,
		FirstName:    d.FirstName,
		Phone:        d.Phone,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// appointmentDoc mirrors domain.Appointment. doctorKey and active back the
// partial unique index on live doctor slots.
type appointmentDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	UserID     primitive.ObjectID `bson:"userId"`
	FullName   string             `bson:"fullName"`
	Email      string             `bson:"email"`
	Phone      string             `bson:"phone"`
	Age        int                `bson:"age"`
	Gender     string             `bson:"gender"`
	Service    string             `bson:"service"`
	Date       string             `bson:"date"`
	Time       string             `bson:"time"`
	DoctorName string             `bson:"doctorName"`
	DoctorKey  string             `bson:"doctorKey"`
	Reason     string             `bson:"reason"`
	Notes      string             `bson:"notes"`
	Diagnosis  string             `bson:"diagnosis"`
	Status     string             `bson:"status"`
	Active     bool               `bson:"active"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

func newAppointmentDoc(a *domain.Appointment, owner primitive.ObjectID) appointmentDoc {
	return appointmentDoc{
		UserID:     owner,
		FullName:   a.FullName,
		Email:      a.Email,
		Phone:      a.Phone,
		Age:        a.Age,
		Gender:     string(a.Gender),
		Service:    a.Service,
		Date:       a.Date,
		Time:       a.Time,
		DoctorName: a.DoctorName,
		DoctorKey:  strings.ToLower(a.DoctorName),
		Reason:     a.Reason,
		Notes:      a.Notes,
		Diagnosis:  a.Diagnosis,
		Status:     string(a.Status),
		Active:     a.Status.Active(),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func (d *appointmentDoc) toDomain() *domain.Appointment {
	return &domain.Appointment{
		ID:         d.ID.Hex(),
		UserID:     d.UserID.Hex(),
		FullName:   d.FullName,
		Email:      d.Email,
		Phone:      d.Phone,
		Age:        d.Age,
		Gender:     domain.Gender(d.Gender),
		Service:    d.Service,
		Date:       d.Date,
		Time:       d.Time,
		DoctorName: d.DoctorName,
		Reason:     d.Reason,
		Notes:      d.Notes,
		Diagnosis:  d.Diagnosis,
		Status:     domain.AppointmentStatus(d.Status),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}
