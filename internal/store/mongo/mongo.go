// Package mongo implementa core.Repository sobre MongoDB.
//
// Las colecciones replican las del frontend original: "usuarios",
// "lecciones" y "session_logs". La unión de providers usa $addToSet en un
// solo FindOneAndUpdate: nunca hay read-modify-write del lado del cliente,
// así dos dispositivos vinculando providers distintos en el mismo instante
// no se pisan.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/store/core"
)

const (
	colUsers    = "usuarios"
	colLessons  = "lecciones"
	colSessions = "session_logs"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func New(ctx context.Context, uri, database string) (*Store, error) {
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, core.Unavailable(err)
	}
	if err := cli.Ping(ctx, nil); err != nil {
		return nil, core.Unavailable(err)
	}
	return &Store{client: cli, db: cli.Database(database)}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return core.Unavailable(err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// wrap traduce errores del driver al vocabulario de core.
func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return core.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return core.ErrConflict
	default:
		return core.Unavailable(err)
	}
}

func (s *Store) UpsertOnLogin(ctx context.Context, u *types.UserIdentity, providerID string) (*types.UserIdentity, error) {
	now := time.Now().UTC()

	set := bson.M{
		"email":     u.Email,
		"lastLogin": now,
	}
	// last-write-wins solo cuando el provider trae valor; un login por
	// password no debe borrar la foto que puso Google.
	if u.DisplayName != "" {
		set["displayName"] = u.DisplayName
	}
	if u.PhotoURL != "" {
		set["photoURL"] = u.PhotoURL
	}
	if u.GitHubUsername != "" {
		set["githubUsername"] = u.GitHubUsername
	}

	role := u.Role
	if role == "" {
		role = types.RoleUser
	}
	status := u.Status
	if status == "" {
		status = types.StatusActive
	}

	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"firstName": u.FirstName,
			"lastName":  u.LastName,
			"role":      role,
			"status":    status,
			"createdAt": now,
		},
		"$addToSet": bson.M{"providers": providerID},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out types.UserIdentity
	if err := s.db.Collection(colUsers).
		FindOneAndUpdate(ctx, bson.M{"_id": u.UID}, update, opts).
		Decode(&out); err != nil {
		return nil, wrap(err)
	}
	return &out, nil
}

func (s *Store) AddProvider(ctx context.Context, uid, providerID string) (*types.UserIdentity, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out types.UserIdentity
	err := s.db.Collection(colUsers).
		FindOneAndUpdate(ctx, bson.M{"_id": uid},
			bson.M{"$addToSet": bson.M{"providers": providerID}}, opts).
		Decode(&out)
	if err != nil {
		return nil, wrap(err)
	}
	return &out, nil
}

func (s *Store) RemoveProvider(ctx context.Context, uid, providerID string) (*types.UserIdentity, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out types.UserIdentity
	err := s.db.Collection(colUsers).
		FindOneAndUpdate(ctx, bson.M{"_id": uid},
			bson.M{"$pull": bson.M{"providers": providerID}}, opts).
		Decode(&out)
	if err != nil {
		return nil, wrap(err)
	}
	return &out, nil
}

func (s *Store) GetUser(ctx context.Context, uid string) (*types.UserIdentity, error) {
	var out types.UserIdentity
	if err := s.db.Collection(colUsers).FindOne(ctx, bson.M{"_id": uid}).Decode(&out); err != nil {
		return nil, wrap(err)
	}
	return &out, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*types.UserIdentity, error) {
	var out types.UserIdentity
	if err := s.db.Collection(colUsers).FindOne(ctx, bson.M{"email": email}).Decode(&out); err != nil {
		return nil, wrap(err)
	}
	return &out, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]types.UserIdentity, error) {
	cur, err := s.db.Collection(colUsers).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, wrap(err)
	}
	var out []types.UserIdentity
	if err := cur.All(ctx, &out); err != nil {
		return nil, wrap(err)
	}
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, u *types.UserIdentity) error {
	_, err := s.db.Collection(colUsers).InsertOne(ctx, u)
	return wrap(err)
}

func (s *Store) UpdateUser(ctx context.Context, uid string, up core.UserUpdate) (*types.UserIdentity, error) {
	set := bson.M{}
	if up.FirstName != nil {
		set["firstName"] = *up.FirstName
	}
	if up.LastName != nil {
		set["lastName"] = *up.LastName
	}
	if up.Email != nil {
		set["email"] = *up.Email
	}
	if up.Role != nil {
		set["role"] = *up.Role
	}
	if up.Status != nil {
		set["status"] = *up.Status
	}
	if len(set) == 0 {
		return s.GetUser(ctx, uid)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out types.UserIdentity
	err := s.db.Collection(colUsers).
		FindOneAndUpdate(ctx, bson.M{"_id": uid}, bson.M{"$set": set}, opts).
		Decode(&out)
	if err != nil {
		return nil, wrap(err)
	}
	return &out, nil
}

func (s *Store) DeleteUser(ctx context.Context, uid string) error {
	res, err := s.db.Collection(colUsers).DeleteOne(ctx, bson.M{"_id": uid})
	if err != nil {
		return wrap(err)
	}
	if res.DeletedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) CreateLesson(ctx context.Context, l *types.Lesson) error {
	_, err := s.db.Collection(colLessons).InsertOne(ctx, l)
	return wrap(err)
}

func (s *Store) GetLesson(ctx context.Context, id string) (*types.Lesson, error) {
	var out types.Lesson
	if err := s.db.Collection(colLessons).FindOne(ctx, bson.M{"_id": id}).Decode(&out); err != nil {
		return nil, wrap(err)
	}
	return &out, nil
}

func (s *Store) ListLessons(ctx context.Context) ([]types.Lesson, error) {
	cur, err := s.db.Collection(colLessons).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, wrap(err)
	}
	var out []types.Lesson
	if err := cur.All(ctx, &out); err != nil {
		return nil, wrap(err)
	}
	return out, nil
}

func (s *Store) UpdateLesson(ctx context.Context, id string, up core.LessonUpdate) (*types.Lesson, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if up.Title != nil {
		set["title"] = *up.Title
	}
	if up.Description != nil {
		set["description"] = *up.Description
	}
	if up.Status != nil {
		set["status"] = *up.Status
	}
	if up.Language != nil {
		set["language"] = *up.Language
	}
	if up.Level != nil {
		set["level"] = *up.Level
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out types.Lesson
	err := s.db.Collection(colLessons).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).
		Decode(&out)
	if err != nil {
		return nil, wrap(err)
	}
	return &out, nil
}

func (s *Store) DeleteLesson(ctx context.Context, id string) error {
	res, err := s.db.Collection(colLessons).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrap(err)
	}
	if res.DeletedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) AppendSessionEvent(ctx context.Context, ev *types.SessionEvent) error {
	_, err := s.db.Collection(colSessions).InsertOne(ctx, ev)
	return wrap(err)
}

func (s *Store) ListSessionEvents(ctx context.Context, f core.SessionEventFilter) ([]types.SessionEvent, error) {
	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if f.Provider != "" {
		filter["provider"] = f.Provider
	}
	if f.OnlyLinks {
		filter["isLinkAction"] = true
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	cur, err := s.db.Collection(colSessions).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "loginTime", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, wrap(err)
	}
	var out []types.SessionEvent
	if err := cur.All(ctx, &out); err != nil {
		return nil, wrap(err)
	}
	return out, nil
}
