// Package convlog is the append-only conversation history, the single source
// of truth for what was said in every conversation.
package convlog

import (
	"context"
	"log/slog"
	"time"

	"viki/app/config"

	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 5 * time.Second

// Log stores and retrieves immutable conversation turns. Writes are
// insert-only; history queries come back ordered by timestamp.
type Log interface {
	LogTurn(ctx context.Context, turn Turn) error
	ConversationTurns(ctx context.Context, conversationID uuid.UUID, query Query) ([]Turn, error)
	RecentUserTurns(ctx context.Context, userID uuid.UUID, limit int64) ([]Turn, error)
}

var _ Log = (*MongoLog)(nil)

type MongoLog struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func New(di *do.Injector) (*MongoLog, error) {
	appCtx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)

	return Connect(appCtx, cfg.Mongo)
}

func Connect(ctx context.Context, cfg config.Mongo) (*MongoLog, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, oops.Code("PERSISTENCE_ERROR").Errorf("failed to connect to mongodb: %w", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, oops.Code("PERSISTENCE_ERROR").Errorf("failed to ping mongodb: %w", err)
	}

	slog.Info("Connected to conversation log",
		"uri", cfg.URI,
		"database", cfg.Database,
		"collection", cfg.Collection,
	)

	return &MongoLog{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// turnDoc is the persisted shape: ids as strings so documents stay readable
// and queryable from the shell.
type turnDoc struct {
	TurnID         string    `bson:"turn_id"`
	ConversationID string    `bson:"conversation_id"`
	UserID         string    `bson:"user_id"`
	Timestamp      time.Time `bson:"timestamp"`
	Speaker        string    `bson:"speaker"`
	Text           string    `bson:"text"`
}

func toDoc(turn Turn) turnDoc {
	return turnDoc{
		TurnID:         turn.TurnID.String(),
		ConversationID: turn.ConversationID.String(),
		UserID:         turn.UserID.String(),
		Timestamp:      turn.Timestamp.UTC(),
		Speaker:        turn.Speaker,
		Text:           turn.Text,
	}
}

func fromDoc(doc turnDoc) Turn {
	turnID, _ := uuid.Parse(doc.TurnID)
	conversationID, _ := uuid.Parse(doc.ConversationID)
	userID, _ := uuid.Parse(doc.UserID)

	return Turn{
		TurnID:         turnID,
		ConversationID: conversationID,
		UserID:         userID,
		Timestamp:      doc.Timestamp,
		Speaker:        doc.Speaker,
		Text:           doc.Text,
	}
}

func fromDocs(docs []turnDoc) []Turn {
	turns := make([]Turn, 0, len(docs))
	for _, doc := range docs {
		turns = append(turns, fromDoc(doc))
	}

	return turns
}

func (l *MongoLog) LogTurn(ctx context.Context, turn Turn) error {
	if _, err := l.collection.InsertOne(ctx, toDoc(turn)); err != nil {
		return oops.Code("PERSISTENCE_ERROR").Errorf("failed to insert turn: %w", err)
	}

	slog.Debug("Turn logged",
		"turn_id", turn.TurnID,
		"conversation_id", turn.ConversationID,
		"speaker", turn.Speaker,
	)

	return nil
}

func (l *MongoLog) ConversationTurns(ctx context.Context, conversationID uuid.UUID, query Query) ([]Turn, error) {
	filter := conversationFilter(conversationID, query)

	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	if query.Offset > 0 {
		findOptions = findOptions.SetSkip(query.Offset)
	}
	if query.Limit > 0 {
		findOptions = findOptions.SetLimit(query.Limit)
	}

	cursor, err := l.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, oops.Code("RETRIEVAL_ERROR").Errorf("failed to query turns: %w", err)
	}

	var docs []turnDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, oops.Code("RETRIEVAL_ERROR").Errorf("failed to decode turns: %w", err)
	}

	return fromDocs(docs), nil
}

func (l *MongoLog) RecentUserTurns(ctx context.Context, userID uuid.UUID, limit int64) ([]Turn, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		findOptions = findOptions.SetLimit(limit)
	}

	cursor, err := l.collection.Find(ctx, bson.M{"user_id": userID.String()}, findOptions)
	if err != nil {
		return nil, oops.Code("RETRIEVAL_ERROR").Errorf("failed to query recent turns: %w", err)
	}

	var docs []turnDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, oops.Code("RETRIEVAL_ERROR").Errorf("failed to decode recent turns: %w", err)
	}

	return fromDocs(docs), nil
}

// conversationFilter builds the mongo filter for a bounded conversation
// history lookup.
func conversationFilter(conversationID uuid.UUID, query Query) bson.M {
	filter := bson.M{"conversation_id": conversationID.String()}

	timestampFilter := bson.M{}
	if query.From != nil {
		timestampFilter["$gte"] = *query.From
	}
	if query.To != nil {
		timestampFilter["$lte"] = *query.To
	}
	if len(timestampFilter) > 0 {
		filter["timestamp"] = timestampFilter
	}

	return filter
}

func (l *MongoLog) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	return l.client.Disconnect(ctx)
}
