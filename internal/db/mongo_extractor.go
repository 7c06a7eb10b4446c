package db

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tordrt/schemagen/internal/schema"
)

// DefaultSampleSize is the number of documents read per collection
const DefaultSampleSize = 100

// MongoExtractor infers collection shapes from sampled documents
type MongoExtractor struct {
	client     *MongoClient
	database   string
	sampleSize int
}

// NewMongoExtractor creates a new MongoDB extractor. An empty database name
// uses the one from the connection URI.
func NewMongoExtractor(client *MongoClient, database string, sampleSize int) *MongoExtractor {
	if database == "" {
		database = client.DatabaseName()
	}
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &MongoExtractor{client: client, database: database, sampleSize: sampleSize}
}

// ExtractCollections samples the specified collections and returns one entity
// per collection. If collections is empty, every non-system collection is sampled.
func (e *MongoExtractor) ExtractCollections(ctx context.Context, collections []string) ([]*schema.Entity, error) {
	if e.database == "" {
		return nil, fmt.Errorf("no database given and none named in the connection URI")
	}
	database := e.client.GetDatabase(e.database)

	names, err := e.getCollectionNames(ctx, database, collections)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection names: %w", err)
	}

	entities := make([]*schema.Entity, 0, len(names))
	for _, name := range names {
		docs, err := e.sample(ctx, database.Collection(name))
		if err != nil {
			return nil, fmt.Errorf("failed to sample collection %s: %w", name, err)
		}
		entities = append(entities, InferEntity(name, docs))
	}
	return entities, nil
}

func (e *MongoExtractor) getCollectionNames(ctx context.Context, database *mongo.Database, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}

	all, err := database.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	var names []string
	for _, name := range all {
		if !strings.HasPrefix(name, "system.") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (e *MongoExtractor) sample(ctx context.Context, coll *mongo.Collection) ([]bson.D, error) {
	pipeline := mongo.Pipeline{{{Key: "$sample", Value: bson.D{{Key: "size", Value: e.sampleSize}}}}}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []bson.D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// InferEntity builds the entity of a collection from sampled documents. Field
// order is first appearance; a field whose values disagree on type is Mixed;
// a field present and non-null in every document is required.
func InferEntity(collection string, docs []bson.D) *schema.Entity {
	s := newShape()
	for _, doc := range docs {
		s.add(doc)
	}
	return &schema.Entity{
		ID:   EntityID(collection),
		Data: schema.EntityData{Label: collection, Fields: s.fields(collection, "")},
	}
}

// shape accumulates the fields seen across a set of documents
type shape struct {
	docs   int
	order  []*sampledField
	byName map[string]*sampledField
}

type sampledField struct {
	name     string
	types    []string
	count    int
	nullable bool
	object   *shape
	elems    []string
	elemDocs *shape
}

func newShape() *shape {
	return &shape{byName: make(map[string]*sampledField)}
}

func (s *shape) add(doc bson.D) {
	s.docs++
	for _, el := range doc {
		f, ok := s.byName[el.Key]
		if !ok {
			f = &sampledField{name: el.Key}
			s.byName[el.Key] = f
			s.order = append(s.order, f)
		}
		f.count++
		f.observe(el.Value)
	}
}

func (f *sampledField) observe(v any) {
	switch v := v.(type) {
	case nil, primitive.Null, primitive.Undefined:
		f.nullable = true
	case bson.D:
		f.types = appendDistinct(f.types, "Object")
		if f.object == nil {
			f.object = newShape()
		}
		f.object.add(v)
	case bson.A:
		f.types = appendDistinct(f.types, "Array")
		for _, item := range v {
			switch item := item.(type) {
			case nil:
			case bson.D:
				if f.elemDocs == nil {
					f.elemDocs = newShape()
				}
				f.elemDocs.add(item)
			default:
				f.elems = appendDistinct(f.elems, bsonType(item))
			}
		}
	default:
		f.types = appendDistinct(f.types, bsonType(v))
	}
}

func (s *shape) fields(collection, prefix string) []*schema.Field {
	out := make([]*schema.Field, 0, len(s.order))
	for _, sf := range s.order {
		path := sf.name
		if prefix != "" {
			path = prefix + "." + sf.name
		}
		f := &schema.Field{
			ID:   FieldID(collection, path),
			Name: sf.name,
			Type: "Mixed",
		}
		if len(sf.types) == 1 {
			f.Type = sf.types[0]
		}

		if prefix == "" && sf.name == "_id" {
			f.Key = true
		} else {
			f.Required = sf.count == s.docs && !sf.nullable
		}

		switch f.Type {
		case "Object":
			f.Children = sf.object.fields(collection, path)
		case "Array":
			switch {
			case sf.elemDocs != nil && len(sf.elems) == 0:
				f.Children = sf.elemDocs.fields(collection, path)
			case sf.elemDocs == nil && len(sf.elems) == 1:
				f.ArrayOfType = sf.elems[0]
			case len(sf.elems) > 0 || sf.elemDocs != nil:
				f.ArrayOfType = "Mixed"
			}
		}
		out = append(out, f)
	}
	return out
}

// bsonType maps a decoded BSON value onto the document field types
func bsonType(v any) string {
	switch v.(type) {
	case primitive.ObjectID:
		return "ObjectId"
	case string, primitive.Symbol:
		return "String"
	case int32, int64, float64, primitive.Decimal128:
		return "Number"
	case bool:
		return "Boolean"
	case primitive.DateTime, primitive.Timestamp, time.Time:
		return "Date"
	case primitive.Binary:
		return "Buffer"
	case bson.D, bson.M:
		return "Object"
	case bson.A:
		return "Array"
	}
	return "Mixed"
}

func appendDistinct(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
