package discover

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/schemarag/schemarag/internal/model"
)

func init() {
	Register(mongoConnector{})
}

type mongoConnector struct{}

func (mongoConnector) Type() model.DatabaseType { return model.DatabaseTypeMongoDB }

func (mongoConnector) Open(ctx context.Context, cfg model.ConnectionConfig, opts Options) (Conn, error) {
	uri := cfg.URI
	if uri == "" {
		if cfg.User != "" {
			uri = fmt.Sprintf("mongodb://%s:%s@%s:%d/%s", cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
		}
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb: ping: %w", err)
	}
	return &mongoConn{
		client:     client,
		name:       cfg.Database,
		host:       cfg.Host,
		sampleSize: opts.SampleSize,
		maxDepth:   opts.MaxFieldDepth,
	}, nil
}

type mongoConn struct {
	client     *mongo.Client
	name       string
	host       string
	sampleSize int
	maxDepth   int
}

func (c *mongoConn) Type() model.DatabaseType { return model.DatabaseTypeMongoDB }
func (c *mongoConn) DatabaseName() string     { return c.name }

func (c *mongoConn) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *mongoConn) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

func (c *mongoConn) Discover(ctx context.Context) (*model.DatabaseSchema, error) {
	out := &model.DatabaseSchema{
		DatabaseName: c.name,
		DatabaseType: model.DatabaseTypeMongoDB,
		Host:         c.host,
		Collections:  make(map[string]model.CollectionSchema),
	}

	db := c.client.Database(c.name)
	names, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongodb: list collections: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		cs, sampled, err := c.sampleCollection(ctx, db, name)
		if err != nil {
			return nil, err
		}
		// Collections with nothing to sample carry no field information and
		// are left out of the schema, matching an empty relational database.
		if !sampled {
			continue
		}
		out.Collections[name] = cs
	}
	return out, nil
}

func (c *mongoConn) sampleCollection(ctx context.Context, db *mongo.Database, name string) (model.CollectionSchema, bool, error) {
	coll := db.Collection(name)

	cur, err := coll.Find(ctx, bson.D{}, options.Find().SetLimit(int64(c.sampleSize)))
	if err != nil {
		return model.CollectionSchema{}, false, fmt.Errorf("mongodb: sample %s: %w", name, err)
	}
	defer cur.Close(ctx)

	acc := make(map[string]*fieldAccum)
	sampled := false
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return model.CollectionSchema{}, false, fmt.Errorf("mongodb: decode document in %s: %w", name, err)
		}
		sampled = true
		c.flattenFields(doc, acc, "", 0)
	}
	if err := cur.Err(); err != nil {
		return model.CollectionSchema{}, false, fmt.Errorf("mongodb: iterate %s: %w", name, err)
	}
	if !sampled {
		return model.CollectionSchema{}, false, nil
	}

	count, err := coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return model.CollectionSchema{}, false, fmt.Errorf("mongodb: count %s: %w", name, err)
	}

	fields := make(map[string]model.FieldInfo, len(acc))
	for path, fa := range acc {
		types := make([]string, 0, len(fa.types))
		for t := range fa.types {
			types = append(types, t)
		}
		sort.Strings(types)
		fields[path] = model.FieldInfo{
			Types:     types,
			Count:     fa.count,
			NullCount: fa.nullCount,
		}
	}
	return model.CollectionSchema{DocumentCount: count, Fields: fields}, true, nil
}

type fieldAccum struct {
	types     map[string]struct{}
	count     int64
	nullCount int64
}

// flattenFields walks one sampled document and merges its field paths into
// acc. Nested documents extend the path with a dot, array elements with a
// synthetic "[0]" segment for the first element. Recursion stops at the
// configured depth so pathological documents cannot blow up the analysis.
func (c *mongoConn) flattenFields(doc map[string]interface{}, acc map[string]*fieldAccum, prefix string, depth int) {
	if depth >= c.maxDepth {
		return
	}
	for key, value := range doc {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		fa := acc[fullKey]
		if fa == nil {
			fa = &fieldAccum{types: make(map[string]struct{})}
			acc[fullKey] = fa
		}
		fa.count++

		switch v := value.(type) {
		case nil:
			fa.nullCount++
			fa.types["null"] = struct{}{}
		case bson.M:
			fa.types["object"] = struct{}{}
			c.flattenFields(v, acc, fullKey, depth+1)
		case map[string]interface{}:
			fa.types["object"] = struct{}{}
			c.flattenFields(v, acc, fullKey, depth+1)
		case bson.A:
			fa.types["array"] = struct{}{}
			if len(v) > 0 {
				c.flattenFields(map[string]interface{}{"[0]": v[0]}, acc, fullKey, depth+1)
			}
		case []interface{}:
			fa.types["array"] = struct{}{}
			if len(v) > 0 {
				c.flattenFields(map[string]interface{}{"[0]": v[0]}, acc, fullKey, depth+1)
			}
		default:
			fa.types[fieldTypeName(value)] = struct{}{}
		}
	}
}

func fieldTypeName(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case int, int32:
		return "int"
	case int64:
		return "long"
	case float32, float64:
		return "double"
	case bool:
		return "bool"
	case primitive.ObjectID:
		return "objectId"
	case primitive.DateTime, time.Time:
		return "date"
	case primitive.Decimal128:
		return "decimal"
	case primitive.Binary:
		return "binData"
	case primitive.Timestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("%T", v)
	}
}
