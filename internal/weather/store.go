package weather

import (
	"context"
	"time"
)

// Store is the persistence contract the service relies on. Implementations must assign
// strictly increasing ids that are never reused and must reject a second record for the
// same (location, timestamp) with ErrDuplicate.
type Store interface {
	FindByID(ctx context.Context, id int64) (Record, error)
	// FindAll returns every record ordered by id.
	FindAll(ctx context.Context) ([]Record, error)
	// FindLatest returns the record with the highest id.
	FindLatest(ctx context.Context) (Record, error)
	// FindByTimestampRange returns records with start <= timestamp <= end.
	FindByTimestampRange(ctx context.Context, start, end time.Time) ([]Record, error)
	FindByLocationAndTimestamp(ctx context.Context, location string, ts time.Time) (Record, error)
	// Insert stores rec and returns it with its id assigned.
	Insert(ctx context.Context, rec Record) (Record, error)
}
