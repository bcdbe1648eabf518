package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/nkiryanov/delivery/internal/apperrors"
	"github.com/nkiryanov/delivery/internal/db"
	"github.com/nkiryanov/delivery/internal/models"
	"github.com/nkiryanov/delivery/internal/repository"
)

type userDocument struct {
	ID        bson.ObjectID `bson:"_id"`
	Username  string        `bson:"username"`
	Password  string        `bson:"password"`
	CreatedAt time.Time     `bson:"created_at"`
}

func (d userDocument) toModel() models.User {
	return models.User{
		ID:             d.ID.Hex(),
		CreatedAt:      d.CreatedAt,
		Username:       d.Username,
		HashedPassword: d.Password,
	}
}

type UserRepo struct {
	coll *mongo.Collection
}

var _ repository.UserRepo = (*UserRepo)(nil)

func NewUserRepo(database *mongo.Database) *UserRepo {
	return &UserRepo{coll: database.Collection(db.UserCollection)}
}

func (r *UserRepo) CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error) {
	doc := userDocument{
		ID:        bson.NewObjectID(),
		Username:  username,
		Password:  hashedPassword,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond), // mongo stores datetime with millisecond precision
	}

	_, err := r.coll.InsertOne(ctx, doc)
	switch {
	case mongo.IsDuplicateKeyError(err):
		return models.User{}, apperrors.ErrUserAlreadyExists
	case err != nil:
		return models.User{}, fmt.Errorf("db error: %w", err)
	}

	return doc.toModel(), nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	id, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: malformed id %q", apperrors.ErrUserNotFound, userID)
	}

	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "username", Value: username}})
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.D) (models.User, error) {
	var doc userDocument
	err := r.coll.FindOne(ctx, filter).Decode(&doc)

	switch {
	case err == nil:
		return doc.toModel(), nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.User{}, apperrors.ErrUserNotFound
	default:
		return models.User{}, fmt.Errorf("db error: %w", err)
	}
}
