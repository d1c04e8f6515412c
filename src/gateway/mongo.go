package gateway

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Mongo implements Gateway on a MongoDB database. Relations map to
// collections and subscriptions to change streams.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.SugaredLogger
}

// Dial connects to the remote store and pings it before returning.
func Dial(ctx context.Context, uri, database string, log *zap.SugaredLogger) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	log.Infof("Connected to MongoDB database %s", database)
	return &Mongo{client: client, db: client.Database(database), log: log}, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) Query(ctx context.Context, relation string, q Query, out any) error {
	opts := options.Find()
	if q.SortBy != "" {
		order := 1
		if q.SortDesc {
			order = -1
		}
		opts.SetSort(bson.M{q.SortBy: order})
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cursor, err := m.db.Collection(relation).Find(ctx, q.Filter.bson(), opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	return cursor.All(ctx, out)
}

func (m *Mongo) Insert(ctx context.Context, relation string, doc any) error {
	_, err := m.db.Collection(relation).InsertOne(ctx, doc)
	return err
}

func (m *Mongo) Update(ctx context.Context, relation string, filter Filter, set map[string]any) (int64, error) {
	res, err := m.db.Collection(relation).UpdateMany(ctx, filter.bson(), bson.M{"$set": bson.M(set)})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (m *Mongo) Delete(ctx context.Context, relation string, filter Filter) (int64, error) {
	res, err := m.db.Collection(relation).DeleteMany(ctx, filter.bson())
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *Mongo) Subscribe(ctx context.Context, relation string, filter Filter, kinds ...EventKind) (Subscription, error) {
	if len(kinds) == 0 {
		kinds = []EventKind{EventInsert, EventUpdate, EventDelete}
	}

	ops := bson.A{}
	for _, k := range kinds {
		ops = append(ops, string(k))
	}
	match := bson.M{"operationType": bson.M{"$in": ops}}
	if len(filter) > 0 {
		// Delete events carry no fullDocument, so a field filter would
		// drop them; let deletes through and filter the rest.
		scoped := bson.M{}
		for k, v := range filter.bson() {
			scoped["fullDocument."+k] = v
		}
		match = bson.M{"$and": bson.A{
			match,
			bson.M{"$or": bson.A{bson.M{"operationType": "delete"}, scoped}},
		}}
	}

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := m.db.Collection(relation).Watch(streamCtx,
		mongo.Pipeline{bson.D{{Key: "$match", Value: match}}},
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		cancel()
		return nil, err
	}

	sub := &mongoSubscription{
		events: make(chan Event, 64),
		cancel: cancel,
	}
	go sub.pump(streamCtx, stream, relation, m.log)
	return sub, nil
}

type mongoSubscription struct {
	events chan Event
	cancel context.CancelFunc
}

func (s *mongoSubscription) Events() <-chan Event { return s.events }

func (s *mongoSubscription) Close() { s.cancel() }

func (s *mongoSubscription) pump(ctx context.Context, stream *mongo.ChangeStream, relation string, log *zap.SugaredLogger) {
	defer close(s.events)
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		var change struct {
			OperationType string `bson:"operationType"`
			FullDocument  bson.M `bson:"fullDocument"`
			DocumentKey   bson.M `bson:"documentKey"`
		}
		if err := stream.Decode(&change); err != nil {
			log.Errorf("Error decoding change event on %s: %v", relation, err)
			continue
		}

		doc := change.FullDocument
		if doc == nil {
			doc = change.DocumentKey
		}

		select {
		case s.events <- Event{Kind: EventKind(change.OperationType), Relation: relation, Doc: doc}:
		case <-ctx.Done():
			return
		}
	}
}
