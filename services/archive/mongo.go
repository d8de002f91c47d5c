package archive

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rizalgs/adimology/services/stockbit"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	databaseName       = "adimology"
	snapshotCollection = "detector_snapshots"
	connectTimeout     = 10 * time.Second
)

// Service archives raw market-detector payloads to MongoDB so batch runs
// can be audited after the fact. Archiving is optional; the batch runs
// without it when MONGODB_URI is not configured.
type Service struct {
	client *mongo.Client
	db     *mongo.Database
}

// DetectorSnapshot is one archived market-detector payload
type DetectorSnapshot struct {
	Symbol     string                 `bson:"symbol"`
	Date       time.Time              `bson:"date"`
	Summary    *stockbit.BrokerSummary `bson:"summary"`
	ArchivedAt time.Time              `bson:"archived_at"`
}

// NewService connects to MongoDB. Returns an error when the URI is empty or
// the server is unreachable.
func NewService(uri string) (*Service, error) {
	if uri == "" {
		return nil, fmt.Errorf("MONGODB_URI is not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("MongoDB ping failed: %w", err)
	}

	log.Println("Snapshot archive connected to MongoDB")
	return &Service{
		client: client,
		db:     client.Database(databaseName),
	}, nil
}

// SaveDetectorSnapshot upserts the raw broker summary for (symbol, date)
func (s *Service) SaveDetectorSnapshot(ctx context.Context, symbol string, date time.Time, summary *stockbit.BrokerSummary) error {
	snapshot := DetectorSnapshot{
		Symbol:     symbol,
		Date:       date,
		Summary:    summary,
		ArchivedAt: time.Now(),
	}

	filter := bson.M{"symbol": symbol, "date": date}
	update := bson.M{"$set": snapshot}
	opts := options.Update().SetUpsert(true)

	_, err := s.db.Collection(snapshotCollection).UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to archive snapshot for %s: %w", symbol, err)
	}
	return nil
}

// Close disconnects from MongoDB
func (s *Service) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
