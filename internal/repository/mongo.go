package repository

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
	accountmodels "io.winapps.traveljournal/internal/models/account"
	entrymodels "io.winapps.traveljournal/internal/models/entry"
)

type locationDocument struct {
	Lat float64 `bson:"lat"`
	Lng float64 `bson:"lng"`
	Raw string  `bson:"raw,omitempty"`
}

type mediaDocument struct {
	ID   string `bson:"id"`
	URL  string `bson:"url"`
	Kind string `bson:"type"`
}

type entryDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Owner       string             `bson:"user"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Location    *locationDocument  `bson:"location,omitempty"`
	Media       []mediaDocument    `bson:"media"`
	Archived    bool               `bson:"archived"`
	ArchivedAt  *time.Time         `bson:"archivedAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func toEntryDocument(e *entrymodels.Entry) entryDocument {
	doc := entryDocument{
		Owner:       e.Owner,
		Title:       e.Title,
		Description: e.Description,
		Media:       make([]mediaDocument, 0, len(e.Media)),
		Archived:    e.Archived,
		ArchivedAt:  e.ArchivedAt,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.Location != nil {
		doc.Location = &locationDocument{Lat: e.Location.Lat, Lng: e.Location.Lng, Raw: e.Location.Raw}
	}
	for _, m := range e.Media {
		doc.Media = append(doc.Media, mediaDocument{ID: m.ID, URL: m.URL, Kind: string(m.Kind)})
	}
	return doc
}

func (d entryDocument) toModel() *entrymodels.Entry {
	e := &entrymodels.Entry{
		ID:          d.ID.Hex(),
		Owner:       d.Owner,
		Title:       d.Title,
		Description: d.Description,
		Media:       make([]entrymodels.Media, 0, len(d.Media)),
		Archived:    d.Archived,
		ArchivedAt:  d.ArchivedAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.Location != nil {
		e.Location = &entrymodels.Location{Lat: d.Location.Lat, Lng: d.Location.Lng, Raw: d.Location.Raw}
	}
	for _, m := range d.Media {
		e.Media = append(e.Media, entrymodels.Media{ID: m.ID, URL: m.URL, Kind: entrymodels.MediaKind(m.Kind)})
	}
	return e
}

// entryQuery translates f into a bson filter. ok is false when f can match
// nothing, e.g. an ID that is not an ObjectID.
func entryQuery(f Filter) (bson.M, bool) {
	q := bson.M{}
	if f.ID != "" {
		oid, err := primitive.ObjectIDFromHex(f.ID)
		if err != nil {
			return nil, false
		}
		q["_id"] = oid
	}
	if f.Owner != "" {
		q["user"] = f.Owner
	}
	if f.Archived != nil {
		q["archived"] = *f.Archived
	}
	if f.ArchivedBefore != nil {
		q["archivedAt"] = bson.M{"$lt": *f.ArchivedBefore}
	}
	return q, true
}

type MongoEntries struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoEntries(ctx context.Context, db *mongo.Database) (*MongoEntries, error) {
	coll := db.Collection("entries")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}, {Key: "archived", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("user_archived_created_idx"),
	}
	if _, err := coll.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("create entries index: %w", err)
	}
	return &MongoEntries{coll: coll, now: time.Now}, nil
}

func (r *MongoEntries) Create(ctx context.Context, e *entrymodels.Entry) (*entrymodels.Entry, error) {
	doc := toEntryDocument(e)
	doc.ID = primitive.NewObjectID()
	now := r.now().UTC().Truncate(time.Millisecond)
	doc.CreatedAt, doc.UpdatedAt = now, now

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoEntries) FindOne(ctx context.Context, f Filter) (*entrymodels.Entry, error) {
	q, ok := entryQuery(f)
	if !ok {
		return nil, ErrNotFound
	}

	var doc entryDocument
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if err := r.coll.FindOne(ctx, q, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find entry: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoEntries) Find(ctx context.Context, f Filter) ([]*entrymodels.Entry, error) {
	out := []*entrymodels.Entry{}
	q, ok := entryQuery(f)
	if !ok {
		return out, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("find entries: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc entryDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode entry: %w", err)
		}
		out = append(out, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// Save replaces the whole document in one write, scoped by id and owner.
func (r *MongoEntries) Save(ctx context.Context, e *entrymodels.Entry) (*entrymodels.Entry, error) {
	oid, err := primitive.ObjectIDFromHex(e.ID)
	if err != nil {
		return nil, ErrNotFound
	}

	doc := toEntryDocument(e)
	doc.ID = oid
	doc.UpdatedAt = r.now().UTC().Truncate(time.Millisecond)

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid, "user": e.Owner}, doc)
	if err != nil {
		return nil, fmt.Errorf("replace entry: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return doc.toModel(), nil
}

func (r *MongoEntries) DeleteOne(ctx context.Context, f Filter) error {
	q, ok := entryQuery(f)
	if !ok || len(q) == 0 {
		return ErrNotFound
	}

	res, err := r.coll.DeleteOne(ctx, q)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password"`
	ProfilePic   string             `bson:"profilePic"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d userDocument) toModel() *accountmodels.User {
	return &accountmodels.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		ProfilePic:   d.ProfilePic,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type MongoUsers struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoUsers(ctx context.Context, db *mongo.Database) (*MongoUsers, error) {
	coll := db.Collection("users")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique_idx"),
	}
	if _, err := coll.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("create users index: %w", err)
	}
	return &MongoUsers{coll: coll, now: time.Now}, nil
}

func (r *MongoUsers) Create(ctx context.Context, u *accountmodels.User) (*accountmodels.User, error) {
	now := r.now().UTC().Truncate(time.Millisecond)
	doc := userDocument{
		ID:           primitive.NewObjectID(),
		Name:         u.Name,
		Email:        strings.ToLower(u.Email),
		PasswordHash: u.PasswordHash,
		ProfilePic:   u.ProfilePic,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoUsers) FindByID(ctx context.Context, id string) (*accountmodels.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoUsers) FindByEmail(ctx context.Context, email string) (*accountmodels.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (r *MongoUsers) findOne(ctx context.Context, q bson.M) (*accountmodels.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, q).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoUsers) Save(ctx context.Context, u *accountmodels.User) (*accountmodels.User, error) {
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return nil, ErrNotFound
	}

	update := bson.M{"$set": bson.M{
		"name":       u.Name,
		"email":      strings.ToLower(u.Email),
		"password":   u.PasswordHash,
		"profilePic": u.ProfilePic,
		"updatedAt":  r.now().UTC().Truncate(time.Millisecond),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return doc.toModel(), nil
}
