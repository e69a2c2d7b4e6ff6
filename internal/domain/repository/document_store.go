package repository

import "context"

// Document-store collection names used by the cloud mirror.
const (
	CollectionDailyFlights = "daily_flights"
	CollectionPairings     = "pairings"
	CollectionIOE          = "ioe_assignments"
	CollectionMetadata     = "metadata"
)

// DocumentStore is the key/value document mirror. Flights are grouped by
// day (one document per flight, with a day field) to respect per-document
// size ceilings.
type DocumentStore interface {
	Put(ctx context.Context, collection, docID string, data map[string]interface{}) error
	Get(ctx context.Context, collection, docID string) (map[string]interface{}, error)
	// Stream invokes fn for every document of the collection. A non-nil
	// return from fn stops the stream.
	Stream(ctx context.Context, collection string, fn func(docID string, data map[string]interface{}) error) error
}
