package docstore

import (
	"context"
	"encoding/json"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo maps each collection to a MongoDB collection keyed by a string _id.
// Batch needs a replica set because it runs inside a transaction.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, mapMongoError("connect", "", err)
	}
	return &Mongo{client: client, db: client.Database(database)}, nil
}

var tenantIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: FieldTenant, Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetName("idx_companyId_name"),
	},
	{
		Keys:    bson.D{{Key: FieldTenant, Value: 1}, {Key: "employeeId", Value: 1}},
		Options: options.Index().SetName("idx_companyId_employeeId").SetSparse(true),
	},
}

// EnsureIndexes creates the tenant lookup indexes on every scoped collection.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	for _, collection := range []string{Employees, Evaluations, Sectors, Roles, Goals, AuditLogs, JobRuns} {
		if _, err := m.db.Collection(collection).Indexes().CreateMany(ctx, tenantIndexes); err != nil {
			return mapMongoError("indexes", collection, err)
		}
	}
	userIndexes := []mongo.IndexModel{{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("uniq_email").SetUnique(true),
	}}
	if _, err := m.db.Collection(Users).Indexes().CreateMany(ctx, userIndexes); err != nil {
		return mapMongoError("indexes", Users, err)
	}
	return nil
}

func (m *Mongo) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw bson.M
	if err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw); err != nil {
		return Document{}, mapMongoError("get", collection, err)
	}
	return fromBSON(raw)
}

func (m *Mongo) Find(ctx context.Context, q Query) ([]Document, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	return m.query(ctx, q, q.Limit)
}

func (m *Mongo) FindPage(ctx context.Context, q Query) (Page, error) {
	if err := q.validate(); err != nil {
		return Page{}, err
	}
	size := q.pageSize()
	docs, err := m.query(ctx, q, size+1)
	if err != nil {
		return Page{}, err
	}
	return paginate(docs, q.orderField(), size), nil
}

func (m *Mongo) query(ctx context.Context, q Query, limit int) ([]Document, error) {
	filter := bson.D{}
	for _, f := range q.scopedFilters() {
		key := f.Field
		if key == FieldID {
			key = "_id"
		}
		switch f.Op {
		case OpEq, OpArrayContains:
			filter = append(filter, bson.E{Key: key, Value: f.Value})
		case OpIn:
			filter = append(filter, bson.E{Key: key, Value: bson.M{"$in": f.Value}})
		default:
			return nil, newError(CodeFailedPrecondition, "query", q.Collection, errInvalidFilter)
		}
	}

	field := q.orderField()
	if field == FieldID {
		field = "_id"
	}
	dir, cmp := 1, "$gt"
	if q.Desc {
		dir, cmp = -1, "$lt"
	}

	if q.Cursor != "" {
		c, err := decodeCursor(q.Cursor)
		if err != nil {
			return nil, newError(CodeFailedPrecondition, "query", q.Collection, err)
		}
		if field == "_id" {
			filter = append(filter, bson.E{Key: "_id", Value: bson.M{cmp: c.ID}})
		} else {
			filter = append(filter, bson.E{Key: "$or", Value: bson.A{
				bson.M{field: bson.M{cmp: c.Value}},
				bson.M{field: c.Value, "_id": bson.M{cmp: c.ID}},
			}})
		}
	}

	sort := bson.D{{Key: field, Value: dir}}
	if field != "_id" {
		sort = append(sort, bson.E{Key: "_id", Value: dir})
	}
	opts := options.Find().SetSort(sort)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := m.db.Collection(q.Collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, mapMongoError("query", q.Collection, err)
	}
	defer cur.Close(ctx)

	var docs []Document
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, mapMongoError("query", q.Collection, err)
		}
		doc, err := fromBSON(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, mapMongoError("query", q.Collection, err)
	}
	return docs, nil
}

func (m *Mongo) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := NewID()
	if err := m.apply(ctx, Mutation{Kind: MutationCreate, Collection: collection, ID: id, Data: data}); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Mongo) Set(ctx context.Context, collection, id string, data map[string]any) error {
	return m.apply(ctx, Mutation{Kind: MutationSet, Collection: collection, ID: id, Data: data})
}

func (m *Mongo) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	return m.apply(ctx, Mutation{Kind: MutationUpdate, Collection: collection, ID: id, Data: patch})
}

func (m *Mongo) Delete(ctx context.Context, collection, id string) error {
	return m.apply(ctx, Mutation{Kind: MutationDelete, Collection: collection, ID: id})
}

func (m *Mongo) Batch(ctx context.Context, mutations []Mutation) error {
	if len(mutations) == 0 {
		return nil
	}
	session, err := m.client.StartSession()
	if err != nil {
		return mapMongoError("batch", "", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for _, mut := range mutations {
			if mut.Kind == MutationCreate && mut.ID == "" {
				mut.ID = NewID()
			}
			if err := m.apply(sc, mut); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		var de *Error
		if errors.As(err, &de) {
			return de
		}
		return mapMongoError("batch", "", err)
	}
	return nil
}

func (m *Mongo) apply(ctx context.Context, mut Mutation) error {
	if mut.Collection == "" {
		return newError(CodeFailedPrecondition, string(mut.Kind), "", errEmptyCollection)
	}
	coll := m.db.Collection(mut.Collection)
	switch mut.Kind {
	case MutationCreate:
		doc := toBSON(mut.ID, stampCreate(mut.Data, ""))
		_, err := coll.InsertOne(ctx, doc)
		return mapMongoError("create", mut.Collection, err)
	case MutationSet:
		createdAt := ""
		var existing bson.M
		err := coll.FindOne(ctx, bson.M{"_id": mut.ID}, options.FindOne().SetProjection(bson.M{FieldCreatedAt: 1})).Decode(&existing)
		switch {
		case err == nil:
			createdAt, _ = existing[FieldCreatedAt].(string)
		case !errors.Is(err, mongo.ErrNoDocuments):
			return mapMongoError("set", mut.Collection, err)
		}
		doc := toBSON(mut.ID, stampCreate(mut.Data, createdAt))
		_, err = coll.ReplaceOne(ctx, bson.M{"_id": mut.ID}, doc, options.Replace().SetUpsert(true))
		return mapMongoError("set", mut.Collection, err)
	case MutationUpdate:
		res, err := coll.UpdateOne(ctx, bson.M{"_id": mut.ID}, bson.M{"$set": bson.M(normalizeData(stampUpdate(mut.Data)))})
		if err != nil {
			return mapMongoError("update", mut.Collection, err)
		}
		if res.MatchedCount == 0 {
			return newError(CodeNotFound, "update", mut.Collection, errMissing)
		}
		return nil
	case MutationDelete:
		_, err := coll.DeleteOne(ctx, bson.M{"_id": mut.ID})
		return mapMongoError("delete", mut.Collection, err)
	}
	return newError(CodeFailedPrecondition, string(mut.Kind), mut.Collection, errInvalidFilter)
}

func (m *Mongo) Ping(ctx context.Context) error {
	return mapMongoError("ping", "", m.client.Ping(ctx, nil))
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func toBSON(id string, data map[string]any) bson.M {
	doc := bson.M(normalizeData(data))
	doc["_id"] = id
	return doc
}

// fromBSON goes through relaxed extended JSON so callers see the same plain
// types the other drivers return.
func fromBSON(raw bson.M) (Document, error) {
	id, _ := raw["_id"].(string)
	delete(raw, "_id")
	ext, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return Document{}, newError(CodeUnknown, "decode", "", err)
	}
	data := map[string]any{}
	if err := json.Unmarshal(ext, &data); err != nil {
		return Document{}, newError(CodeUnknown, "decode", "", err)
	}
	return Document{ID: id, Data: data}, nil
}

func mapMongoError(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return newError(CodeNotFound, op, collection, errMissing)
	}
	if mongo.IsDuplicateKeyError(err) {
		return newError(CodeAlreadyExists, op, collection, err)
	}
	var se mongo.ServerError
	if errors.As(err, &se) {
		switch {
		case se.HasErrorCode(13):
			return newError(CodePermissionDenied, op, collection, err)
		case se.HasErrorCode(18):
			return newError(CodeUnauthenticated, op, collection, err)
		}
	}
	if mongo.IsTimeout(err) {
		return newError(CodeResourceExhausted, op, collection, err)
	}
	return newError(CodeUnknown, op, collection, err)
}
