package identity

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/todo-team/todolist/internal/apperr"
)

const usersCollection = "users"

type userDocument struct {
	ID          string     `bson:"_id"`
	PersonalID  string     `bson:"personal_id"`
	Name        string     `bson:"name"`
	Email       string     `bson:"email"`
	Address     string     `bson:"address,omitempty"`
	PhoneNumber string     `bson:"phone_number,omitempty"`
	Role        string     `bson:"role,omitempty"`
	Password    []byte     `bson:"password"`
	IsVerified  bool       `bson:"isVerified"`
	OTP         *string    `bson:"otp"`
	OTPExpires  *time.Time `bson:"otpExpires"`
	CreatedAt   time.Time  `bson:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt"`
}

func toDocument(u User) userDocument {
	return userDocument{
		ID:          u.ID,
		PersonalID:  u.PersonalID,
		Name:        u.Name,
		Email:       u.Email,
		Address:     u.Address,
		PhoneNumber: u.PhoneNumber,
		Role:        string(u.Role),
		Password:    u.PasswordHash,
		IsVerified:  u.IsVerified,
		OTP:         nullString(u.OTP),
		OTPExpires:  nullTime(u.OTPExpiresAt),
		CreatedAt:   u.CreatedAt.UTC(),
		UpdatedAt:   u.UpdatedAt.UTC(),
	}
}

func (d userDocument) user() User {
	u := User{
		ID:           d.ID,
		PersonalID:   d.PersonalID,
		Name:         d.Name,
		Email:        d.Email,
		Address:      d.Address,
		PhoneNumber:  d.PhoneNumber,
		Role:         NormalizeRole(d.Role),
		PasswordHash: d.Password,
		IsVerified:   d.IsVerified,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
	if d.OTP != nil {
		u.OTP = *d.OTP
	}
	if d.OTPExpires != nil {
		u.OTPExpiresAt = d.OTPExpires.UTC()
	}
	return u
}

// MongoRepository implements Repository on a MongoDB collection.
type MongoRepository struct {
	users *mongo.Collection
}

// NewMongoRepository builds a MongoDB-backed identity repository.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{users: db.Collection(usersCollection)}
}

// EnsureIndexes creates the unique email index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Create inserts a new user.
func (r *MongoRepository) Create(ctx context.Context, user User) error {
	_, err := r.users.InsertOne(ctx, toDocument(user))
	return mapMongoWriteErr(err)
}

// FindByID fetches a user by identifier.
func (r *MongoRepository) FindByID(ctx context.Context, id string) (User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByEmail fetches a user by email address.
func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// List returns every user, oldest first.
func (r *MongoRepository) List(ctx context.Context) ([]User, error) {
	cursor, err := r.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperr.Internal(err)
	}
	users := make([]User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.user())
	}
	return users, nil
}

// Update overwrites the mutable profile fields of a user.
func (r *MongoRepository) Update(ctx context.Context, user User) error {
	res, err := r.users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"personal_id":  user.PersonalID,
		"name":         user.Name,
		"email":        user.Email,
		"address":      user.Address,
		"phone_number": user.PhoneNumber,
		"role":         string(user.Role),
		"password":     user.PasswordHash,
		"updatedAt":    user.UpdatedAt.UTC(),
	}})
	if err != nil {
		return mapMongoWriteErr(err)
	}
	return matched(res)
}

// SetOTP replaces the pending code of a user.
func (r *MongoRepository) SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error {
	res, err := r.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"otp":        code,
		"otpExpires": expiresAt.UTC(),
		"updatedAt":  time.Now().UTC(),
	}})
	if err != nil {
		return apperr.Internal(err)
	}
	return matched(res)
}

// MarkVerified flags the user verified and clears the pending code.
func (r *MongoRepository) MarkVerified(ctx context.Context, id string) error {
	res, err := r.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"isVerified": true,
		"otp":        nil,
		"otpExpires": nil,
		"updatedAt":  time.Now().UTC(),
	}})
	if err != nil {
		return apperr.Internal(err)
	}
	return matched(res)
}

// Delete removes a user.
func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Internal(err)
	}
	if res.DeletedCount == 0 {
		return errStoreNotFound
	}
	return nil
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (User, error) {
	var doc userDocument
	err := r.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, errStoreNotFound
	}
	if err != nil {
		return User{}, apperr.Internal(err)
	}
	return doc.user(), nil
}

func matched(res *mongo.UpdateResult) error {
	if res.MatchedCount == 0 {
		return errStoreNotFound
	}
	return nil
}

func mapMongoWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return errStoreDuplicate
	}
	return apperr.Internal(err)
}
