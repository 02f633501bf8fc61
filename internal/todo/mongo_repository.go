package todo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/todo-team/todolist/internal/apperr"
)

type todoDocument struct {
	ID          string    `bson:"_id"`
	UserID      string    `bson:"user_id"`
	Name        string    `bson:"todo_name"`
	Description string    `bson:"todo_desc"`
	Image       string    `bson:"todo_image"`
	Done        bool      `bson:"todo_status"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

// MongoRepository stores todos in a MongoDB collection.
type MongoRepository struct {
	todos *mongo.Collection
}

// NewMongoRepository builds a MongoDB-backed todo repository.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{todos: db.Collection("todos")}
}

// EnsureIndexes indexes todos by owner.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.todos.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	return err
}

func (r *MongoRepository) Create(ctx context.Context, todo Todo) error {
	_, err := r.todos.InsertOne(ctx, todoDocument{
		ID:          todo.ID,
		UserID:      todo.UserID,
		Name:        todo.Name,
		Description: todo.Description,
		Image:       todo.Image,
		Done:        todo.Done,
		CreatedAt:   todo.CreatedAt.UTC(),
		UpdatedAt:   todo.UpdatedAt.UTC(),
	})
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (r *MongoRepository) ListByUser(ctx context.Context, userID string) ([]Todo, error) {
	cursor, err := r.todos.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	var docs []todoDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperr.Internal(err)
	}
	todos := make([]Todo, 0, len(docs))
	for _, d := range docs {
		todos = append(todos, d.todo())
	}
	return todos, nil
}

func (r *MongoRepository) Get(ctx context.Context, userID, id string) (Todo, error) {
	var doc todoDocument
	err := r.todos.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Todo{}, errNotFound
	}
	if err != nil {
		return Todo{}, apperr.Internal(err)
	}
	return doc.todo(), nil
}

func (r *MongoRepository) Update(ctx context.Context, todo Todo) error {
	res, err := r.todos.UpdateOne(ctx, bson.M{"_id": todo.ID, "user_id": todo.UserID}, bson.M{"$set": bson.M{
		"todo_name":   todo.Name,
		"todo_desc":   todo.Description,
		"todo_image":  todo.Image,
		"todo_status": todo.Done,
		"updatedAt":   todo.UpdatedAt.UTC(),
	}})
	if err != nil {
		return apperr.Internal(err)
	}
	if res.MatchedCount == 0 {
		return errNotFound
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.todos.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return apperr.Internal(err)
	}
	if res.DeletedCount == 0 {
		return errNotFound
	}
	return nil
}

func (d todoDocument) todo() Todo {
	return Todo{
		ID:          d.ID,
		UserID:      d.UserID,
		Name:        d.Name,
		Description: d.Description,
		Image:       d.Image,
		Done:        d.Done,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}
