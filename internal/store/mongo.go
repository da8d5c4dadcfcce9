package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"plant-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoCollection = "plants"

// Mongo stores plants as documents with an embedded images array. Appends use
// $push so the server applies them atomically per document.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongo connects to uri and uses the plants collection of database.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	if database == "" {
		database = "plant_monitor"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	coll := client.Database(database).Collection(mongoCollection)
	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
	}); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Mongo{client: client, coll: coll}, nil
}

func (s *Mongo) Driver() Driver { return DriverMongo }

func (s *Mongo) List(ctx context.Context) ([]models.Plant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, storageErr("list", err)
	}
	plants := []models.Plant{}
	if err := cur.All(ctx, &plants); err != nil {
		return nil, storageErr("list", err)
	}
	return plants, nil
}

func (s *Mongo) Get(ctx context.Context, id string) (models.Plant, error) {
	var p models.Plant
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Plant{}, ErrNotFound
	}
	if err != nil {
		return models.Plant{}, storageErr("get", err)
	}
	return p, nil
}

func (s *Mongo) Create(ctx context.Context, name, imageURL string) (models.Plant, error) {
	name, err := validateCreate(name, imageURL)
	if err != nil {
		return models.Plant{}, err
	}
	p := newPlant(name, imageURL)
	// BSON dates carry milliseconds only
	p.CreatedAt = p.CreatedAt.Truncate(time.Millisecond)
	p.Images[0].UploadDate = p.CreatedAt
	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		return models.Plant{}, storageErr("create", err)
	}
	return p, nil
}

func (s *Mongo) AppendImage(ctx context.Context, id, imageURL string) (models.Plant, error) {
	if err := validateImage(imageURL); err != nil {
		return models.Plant{}, err
	}
	entry := models.ImageEntry{ImageURL: imageURL, UploadDate: now().Truncate(time.Millisecond)}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Plant
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{"images": entry}}, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Plant{}, ErrNotFound
	}
	if err != nil {
		return models.Plant{}, storageErr("append image", err)
	}
	return p, nil
}

func (s *Mongo) Ping(ctx context.Context) error {
	return storageErr("ping", s.client.Ping(ctx, readpref.Primary()))
}

func (s *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
