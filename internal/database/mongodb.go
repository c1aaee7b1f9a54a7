package database

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDB owns the client and tracks whether the deployment has answered a
// ping yet. Handles to collections are valid before that, calls just fail.
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
	ready    atomic.Bool
	ping     func(ctx context.Context) error
	logger   *logrus.Logger
}

// NewMongoDB builds the client without waiting for the server.
func NewMongoDB(uri, database string, logger *logrus.Logger) (*MongoDB, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1).
		SetStrict(true).
		SetDeprecationErrors(true)

	clientOptions := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(serverAPI).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	return &MongoDB{
		Client:   client,
		Database: client.Database(database),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		logger: logger,
	}, nil
}

// WaitReady pings the deployment until it answers and setup succeeds, then
// marks the store ready. The wait between attempts starts at backoff and
// doubles up to maxBackoff. It only gives up when ctx is cancelled.
func (m *MongoDB) WaitReady(ctx context.Context, backoff, maxBackoff time.Duration, setup func(context.Context) error) error {
	wait := backoff
	for attempt := 1; ; attempt++ {
		err := m.prepare(ctx, setup)
		if err == nil {
			m.ready.Store(true)
			m.logger.Info("MongoDB connected successfully")
			return nil
		}

		m.logger.WithError(err).WithFields(logrus.Fields{
			"attempt":  attempt,
			"retry_in": wait.String(),
		}).Warn("MongoDB is not ready")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		wait *= 2
		if wait > maxBackoff {
			wait = maxBackoff
		}
	}
}

func (m *MongoDB) prepare(ctx context.Context, setup func(context.Context) error) error {
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := m.ping(pingCtx); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	if setup != nil {
		if err := setup(ctx); err != nil {
			return fmt.Errorf("failed to prepare MongoDB: %w", err)
		}
	}
	return nil
}

// Ready reports whether the store answered a ping and indexes exist.
func (m *MongoDB) Ready() bool {
	return m.ready.Load()
}

func (m *MongoDB) Close(ctx context.Context) error {
	m.ready.Store(false)
	return m.Client.Disconnect(ctx)
}
