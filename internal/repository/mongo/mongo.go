// Package mongo stores users and appointments in MongoDB collections.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/diagnosis/clinic-bookings/internal/domain"
	"github.com/diagnosis/clinic-bookings/internal/repository"
)

const (
	usersCollection        = "users"
	appointmentsCollection = "appointments"
)

// EnsureIndexes creates the unique email index, the live slot index and the owner index.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("users index: %w", err)
	}

	_, err = db.Collection(appointmentsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "doctorKey", Value: 1}, {Key: "date", Value: 1}, {Key: "time", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("active_slot_unique").
				SetPartialFilterExpression(bson.D{{Key: "active", Value: true}}),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("user_idx"),
		},
		{
			Keys:    bson.D{{Key: "date", Value: -1}, {Key: "time", Value: -1}},
			Options: options.Index().SetName("date_time_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("appointments index: %w", err)
	}
	return nil
}

type userRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) repository.UserRepository {
	return &userRepository{coll: db.Collection(usersCollection)}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	doc := newUserDoc(u)
	doc.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	doc.CreatedAt, doc.UpdatedAt = now, now

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, mapError(err)
	}
	return doc.toDomain(), nil
}

func (r *userRepository) findOne(ctx context.Context, filter bson.D) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	var doc userDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: strings.ToLower(email)}})
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "lastName", Value: u.LastName},
		{Key: "firstName", Value: u.FirstName},
		{Key: "phone", Value: u.Phone},
		{Key: "email", Value: strings.ToLower(u.Email)},
		{Key: "password", Value: u.PasswordHash},
		{Key: "role", Value: u.Role},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}

	var doc userDoc
	err = r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return doc.toDomain(), nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.User, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].toDomain())
	}
	return out, nil
}

type appointmentRepository struct {
	coll *mongo.Collection
}

func NewAppointmentRepository(db *mongo.Database) repository.AppointmentRepository {
	return &appointmentRepository{coll: db.Collection(appointmentsCollection)}
}

var apptSort = bson.D{{Key: "date", Value: -1}, {Key: "time", Value: -1}, {Key: "createdAt", Value: -1}}

func (r *appointmentRepository) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	owner, err := primitive.ObjectIDFromHex(a.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id %q: %w", a.UserID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	doc := newAppointmentDoc(a, owner)
	doc.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	doc.CreatedAt, doc.UpdatedAt = now, now

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, mapError(err)
	}
	return doc.toDomain(), nil
}

func (r *appointmentRepository) findOne(ctx context.Context, filter bson.D) (*domain.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	var doc appointmentDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *appointmentRepository) FindByID(ctx context.Context, id string) (*domain.Appointment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *appointmentRepository) FindActiveSlot(ctx context.Context, doctorName, date, tm string) (*domain.Appointment, error) {
	return r.findOne(ctx, bson.D{
		{Key: "doctorKey", Value: strings.ToLower(doctorName)},
		{Key: "date", Value: date},
		{Key: "time", Value: tm},
		{Key: "active", Value: true},
	})
}

func (r *appointmentRepository) List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	q := bson.D{}
	if filter.Status != "" {
		q = append(q, bson.E{Key: "status", Value: string(filter.Status)})
	}
	if filter.Doctor != "" {
		q = append(q, bson.E{Key: "doctorKey", Value: strings.ToLower(filter.Doctor)})
	}
	return r.find(ctx, q)
}

func (r *appointmentRepository) ListByUser(ctx context.Context, userID string) ([]domain.Appointment, error) {
	owner, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return []domain.Appointment{}, nil
	}
	return r.find(ctx, bson.D{{Key: "userId", Value: owner}})
}

func (r *appointmentRepository) find(ctx context.Context, filter bson.D) ([]domain.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(apptSort))
	if err != nil {
		return nil, err
	}
	var docs []appointmentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.Appointment, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].toDomain())
	}
	return out, nil
}

func (r *appointmentRepository) Update(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	oid, err := primitive.ObjectIDFromHex(a.ID)
	if err != nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: string(a.Status)},
		{Key: "active", Value: a.Status.Active()},
		{Key: "notes", Value: a.Notes},
		{Key: "diagnosis", Value: a.Diagnosis},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}

	var doc appointmentDoc
	err = r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return doc.toDomain(), nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func mapError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}

// NewStore builds both repositories on db. Closing the store disconnects client.
func NewStore(client *mongo.Client, db *mongo.Database) *repository.Store {
	return &repository.Store{
		Users:        NewUserRepository(db),
		Appointments: NewAppointmentRepository(db),
		Close:        client.Disconnect,
	}
}
