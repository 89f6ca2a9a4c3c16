package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/scantrak/internal/config"
	"github.com/mamadbah2/scantrak/internal/domain/models"
)

// Repository defines the record storage operations backed by MongoDB.
type Repository interface {
	Write(ctx context.Context, record models.SubmittedRecord) (models.SubmittedRecord, error)
	Subscribe(ctx context.Context, onChange func([]models.SubmittedRecord)) (func(), error)
	List(ctx context.Context) ([]models.SubmittedRecord, error)
	Close(ctx context.Context) error
}

// MongoDBRepository stores submitted records in the `<app path>_records` collection.
type MongoDBRepository struct {
	client       *mongo.Client
	collection   *mongo.Collection
	pollInterval time.Duration
	logger       *zap.Logger
	lastTS       atomic.Int64
	now          func() time.Time
}

// CollectionName returns the collection holding the records of an application path.
func CollectionName(appPath string) string {
	return appPath + "_records"
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, cfg config.MongoDBConfig, appPath string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(cfg.URI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	collection := client.Database(cfg.DBName).Collection(CollectionName(appPath))

	index := mongo.IndexModel{Keys: bson.D{{Key: "timestamp", Value: -1}}}
	if _, err := collection.Indexes().CreateOne(ctx, index); err != nil {
		logger.Warn("failed to ensure timestamp index", zap.Error(err))
	}

	return &MongoDBRepository{
		client:       client,
		collection:   collection,
		pollInterval: cfg.PollInterval,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// Write inserts one record stamped with a strictly increasing millisecond timestamp.
func (r *MongoDBRepository) Write(ctx context.Context, record models.SubmittedRecord) (models.SubmittedRecord, error) {
	record.Timestamp = r.nextTimestamp()

	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return models.SubmittedRecord{}, fmt.Errorf("failed to insert submitted record: %w", err)
	}

	r.logger.Debug("record inserted", zap.String("product_id", record.ProductID), zap.Int64("timestamp", record.Timestamp))
	return record, nil
}

// List returns every record, newest first.
func (r *MongoDBRepository) List(ctx context.Context) ([]models.SubmittedRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	var records []models.SubmittedRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, nil
}

// Subscribe delivers the full record set now and after every change. Changes
// come from a change stream; deployments without one (standalone servers) are
// polled instead. The returned function stops the watcher and waits for it.
func (r *MongoDBRepository) Subscribe(ctx context.Context, onChange func([]models.SubmittedRecord)) (func(), error) {
	initial, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	onChange(initial)

	watchCtx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.watch(watchCtx, onChange)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) watch(ctx context.Context, onChange func([]models.SubmittedRecord)) {
	stream, err := r.collection.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.Info("change stream unavailable, polling records", zap.Error(err), zap.Duration("interval", r.pollInterval))
		r.poll(ctx, onChange)
		return
	}
	defer func() { _ = stream.Close(context.Background()) }()

	for stream.Next(ctx) {
		r.reload(ctx, onChange)
	}

	if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) && ctx.Err() == nil {
		r.logger.Warn("change stream ended, polling records", zap.Error(err))
		r.poll(ctx, onChange)
	}
}

func (r *MongoDBRepository) poll(ctx context.Context, onChange func([]models.SubmittedRecord)) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	var lastCount int
	var lastTop int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			records, err := r.List(ctx)
			if err != nil {
				if ctx.Err() == nil {
					r.logger.Warn("failed to poll records", zap.Error(err))
				}
				continue
			}

			var top int64
			if len(records) > 0 {
				top = records[0].Timestamp
			}
			if len(records) == lastCount && top == lastTop {
				continue
			}
			lastCount, lastTop = len(records), top
			onChange(records)
		}
	}
}

func (r *MongoDBRepository) reload(ctx context.Context, onChange func([]models.SubmittedRecord)) {
	records, err := r.List(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("failed to reload records after change", zap.Error(err))
		}
		return
	}
	onChange(records)
}

func (r *MongoDBRepository) nextTimestamp() int64 {
	for {
		last := r.lastTS.Load()
		ts := r.now().UnixMilli()
		if ts <= last {
			ts = last + 1
		}
		if r.lastTS.CompareAndSwap(last, ts) {
			return ts
		}
	}
}
