package adapter

import (
	"context"
	"net/url"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const DefaultFirestoreCollection = "profmemo"

// FirestoreKV implements KVStore with one Firestore document per key
type FirestoreKV struct {
	client     *firestore.Client
	collection string
}

type kvDocument struct {
	Value     string    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

// NewFirestoreKV creates a Firestore-backed KV store
func NewFirestoreKV(ctx context.Context, projectID, databaseID, collection string) (*FirestoreKV, error) {
	if collection == "" {
		collection = DefaultFirestoreCollection
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID),
			goerr.V("database", databaseID),
		)
	}

	return &FirestoreKV{
		client:     client,
		collection: collection,
	}, nil
}

// Close releases the underlying client
func (f *FirestoreKV) Close() error {
	return f.client.Close()
}

func (f *FirestoreKV) doc(key string) *firestore.DocumentRef {
	// Document IDs must not contain "/"
	return f.client.Collection(f.collection).Doc(url.PathEscape(key))
}

func (f *FirestoreKV) GetItem(ctx context.Context, key string) (string, bool, error) {
	snap, err := f.doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, goerr.Wrap(err, "failed to get document", goerr.V("key", key))
	}

	var doc kvDocument
	if err := snap.DataTo(&doc); err != nil {
		return "", false, goerr.Wrap(err, "failed to decode document", goerr.V("key", key))
	}
	return doc.Value, true, nil
}

func (f *FirestoreKV) SetItem(ctx context.Context, key, value string) error {
	doc := kvDocument{
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	if _, err := f.doc(key).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to set document", goerr.V("key", key))
	}
	return nil
}

func (f *FirestoreKV) RemoveItem(ctx context.Context, key string) error {
	if _, err := f.doc(key).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete document", goerr.V("key", key))
	}
	return nil
}
