package redis

import "go.uber.org/zap"

// Repository groups the Redis-backed stores.
type Repository struct {
	log    *zap.Logger
	client *Client

	Snapshots *SnapshotRepository
}

func NewRepository(log *zap.Logger, client *Client, keyPrefix string) *Repository {
	log = log.Named("repo")
	return &Repository{
		log:       log,
		client:    client,
		Snapshots: newSnapshotRepository(log, client, keyPrefix),
	}
}

func (r *Repository) Close() error { return r.client.Close() }
