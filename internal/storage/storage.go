package storage

import "poolWatch/internal/model"

// Storage defines a sink for pool snapshots.
type Storage interface {
	PutSnapshotBatch(snapshots []model.PoolSnapshot) error
}
