// Package taskstore reads task snapshots from the MongoDB system of record.
package taskstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/optassign/optassign/internal/planning"
	"github.com/optassign/optassign/pkg/model"
)

// Store implements planning.TaskSource on top of a MongoDB collection.
type Store struct {
	client      *mongo.Client
	db          *mongo.Database
	coll        *mongo.Collection
	eligibility *eligibilityFilter
	logger      *slog.Logger
}

// New connects to MongoDB and verifies the connection.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to task store: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping task store: %w", err)
	}

	var filter *eligibilityFilter
	if cfg.Eligibility != "" {
		filter, err = newEligibilityFilter(cfg.Eligibility)
		if err != nil {
			return nil, fmt.Errorf("invalid eligibility expression: %w", err)
		}
	}

	db := client.Database(cfg.Database)
	return &Store{
		client:      client,
		db:          db,
		coll:        db.Collection(cfg.Collection),
		eligibility: filter,
		logger:      logger.With("component", "taskstore"),
	}, nil
}

// FindTasks implements planning.TaskSource. The query timestamp is read from
// the MongoDB server so watermarks are immune to client clock drift.
func (s *Store) FindTasks(ctx context.Context, statuses []model.TaskStatus, modifiedSince time.Time, projection planning.Projection) (planning.FindResult, error) {
	filter := buildFilter(statuses, modifiedSince)

	opts := options.Find().SetSort(bson.D{{Key: "last_modified", Value: 1}})
	if projection == planning.ProjectionPending {
		opts.SetProjection(bson.M{"inputs": 0})
	}

	queryTime, err := s.serverTime(ctx)
	if err != nil {
		return planning.FindResult{}, fmt.Errorf("failed to read server time: %w", err)
	}

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return planning.FindResult{}, fmt.Errorf("task query failed: %w", err)
	}
	defer cursor.Close(ctx)

	var tasks []*model.Task
	for cursor.Next(ctx) {
		var t model.Task
		if err := cursor.Decode(&t); err != nil {
			return planning.FindResult{}, fmt.Errorf("failed to decode task: %w", err)
		}
		if s.eligibility != nil {
			ok, err := s.eligibility.allow(&t)
			if err != nil {
				return planning.FindResult{}, fmt.Errorf("eligibility evaluation failed for task %s: %w", t.ID, err)
			}
			if !ok {
				continue
			}
		}
		tasks = append(tasks, &t)
	}
	if err := cursor.Err(); err != nil {
		return planning.FindResult{}, fmt.Errorf("task cursor failed: %w", err)
	}

	s.logger.Debug("task query done", "tasks", len(tasks), "query_time", queryTime)
	return planning.FindResult{Tasks: tasks, QueryTime: queryTime}, nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// serverTime returns the server's current time via the hello command.
func (s *Store) serverTime(ctx context.Context) (time.Time, error) {
	var reply struct {
		LocalTime primitive.DateTime `bson:"localTime"`
	}
	res := s.db.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}})
	if err := res.Err(); err != nil {
		return time.Time{}, err
	}
	if err := res.Decode(&reply); err != nil {
		return time.Time{}, err
	}
	return reply.LocalTime.Time().UTC(), nil
}

// buildFilter maps the planning query shape onto a bson filter. Status-based
// lookups are used at bootstrap; time-based lookups scan all statuses so
// incremental sync can observe tasks leaving the active set.
func buildFilter(statuses []model.TaskStatus, modifiedSince time.Time) bson.M {
	filter := bson.M{}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	if !modifiedSince.IsZero() {
		filter["last_modified"] = bson.M{"$gte": modifiedSince}
	}
	return filter
}
