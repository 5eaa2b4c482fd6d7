package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCollection is the collection holding listing documents.
const MongoCollection = "cars"

// mongoRecord is the stored document shape. Creation time lives under "date".
type mongoRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	CustomerName string             `bson:"customerName"`
	PhoneNumber  string             `bson:"phoneNumber"`
	CarName      string             `bson:"carName"`
	CarModel     string             `bson:"carModel"`
	Price        float64            `bson:"price"`
	Description  string             `bson:"description"`
	Images       []string           `bson:"images"`
	IsAdminEntry bool               `bson:"isAdminEntry"`
	CreatedAt    time.Time          `bson:"date"`
}

func (m mongoRecord) record() Record {
	images := m.Images
	if images == nil {
		images = []string{}
	}
	return Record{
		ID:           m.ID.Hex(),
		CustomerName: m.CustomerName,
		PhoneNumber:  m.PhoneNumber,
		CarName:      m.CarName,
		CarModel:     m.CarModel,
		Price:        m.Price,
		Description:  m.Description,
		Images:       images,
		IsAdminEntry: m.IsAdminEntry,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type mongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore returns a Store over the cars collection of db.
func NewMongoStore(db *mongo.Database) Store {
	return &mongoStore{coll: db.Collection(MongoCollection)}
}

// EnsureMongoIndexes creates the partition/sort index used by List.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(MongoCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "isAdminEntry", Value: 1}, {Key: "date", Value: -1}},
		Options: options.Index().SetName("partition_date"),
	})
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (s *mongoStore) Create(ctx context.Context, r Record) (Record, error) {
	doc := mongoRecord{
		CustomerName: r.CustomerName,
		PhoneNumber:  r.PhoneNumber,
		CarName:      r.CarName,
		CarModel:     r.CarModel,
		Price:        r.Price,
		Description:  r.Description,
		Images:       r.Images,
		IsAdminEntry: r.IsAdminEntry,
		CreatedAt:    r.CreatedAt,
	}
	if doc.Images == nil {
		doc.Images = []string{}
	}

	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return Record{}, err
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return Record{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	doc.ID = id

	// BSON stores milliseconds; match what a later read returns.
	doc.CreatedAt = doc.CreatedAt.Truncate(time.Millisecond)
	return doc.record(), nil
}

func (s *mongoStore) List(ctx context.Context, f Filter) ([]Record, error) {
	filter := bson.M{}
	if f.IsAdminEntry != nil {
		filter["isAdminEntry"] = *f.IsAdminEntry
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var docs []mongoRecord
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	recs := make([]Record, len(docs))
	for i, d := range docs {
		recs[i] = d.record()
	}
	return recs, nil
}

func (s *mongoStore) Find(ctx context.Context, id string) (Record, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Record{}, ErrNotFound
	}

	var doc mongoRecord
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return Record{}, mapMongoError(err)
	}
	return doc.record(), nil
}

func (s *mongoStore) Update(ctx context.Context, id string, cmd UpdateCommand) (Record, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Record{}, ErrNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoRecord
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": mongoSet(cmd)}, opts).Decode(&doc)
	if err != nil {
		return Record{}, mapMongoError(err)
	}
	return doc.record(), nil
}

// mongoSet builds the $set document for the fields present in cmd.
func mongoSet(cmd UpdateCommand) bson.M {
	set := bson.M{}
	if cmd.CustomerName != nil {
		set["customerName"] = *cmd.CustomerName
	}
	if cmd.PhoneNumber != nil {
		set["phoneNumber"] = *cmd.PhoneNumber
	}
	if cmd.CarName != nil {
		set["carName"] = *cmd.CarName
	}
	if cmd.CarModel != nil {
		set["carModel"] = *cmd.CarModel
	}
	if cmd.Price != nil {
		set["price"] = *cmd.Price
	}
	if cmd.Description != nil {
		set["description"] = *cmd.Description
	}
	if cmd.Images != nil {
		set["images"] = append([]string{}, (*cmd.Images)...)
	}
	return set
}

func (s *mongoStore) Delete(ctx context.Context, id string) (Record, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Record{}, ErrNotFound
	}

	var doc mongoRecord
	if err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return Record{}, mapMongoError(err)
	}
	return doc.record(), nil
}

func mapMongoError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
