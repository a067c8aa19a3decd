package store

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/Lllllllleong/consultancysite/internal/apperr"
	"github.com/Lllllllleong/consultancysite/internal/gcp"
	"github.com/Lllllllleong/consultancysite/internal/models"
)

// Ensure FirestoreUploads implements the interface.
var _ UploadLog = (*FirestoreUploads)(nil)

// FirestoreUploads keeps one Firestore document per upload.
type FirestoreUploads struct {
	col *firestore.CollectionRef
}

func NewFirestoreUploads(client *firestore.Client, collection string) *FirestoreUploads {
	return &FirestoreUploads{col: client.Collection(collection)}
}

// Append sets the document keyed by the record's path.
func (s *FirestoreUploads) Append(ctx context.Context, rec *models.UploadedImageRecord) error {
	if _, err := s.col.Doc(models.UploadRecordID(rec.Path)).Set(ctx, rec); err != nil {
		return apperr.Backend("firestore set upload record", err)
	}
	return nil
}

// Backfill creates the document keyed by the record's path. An existing
// document is left alone.
func (s *FirestoreUploads) Backfill(ctx context.Context, rec *models.UploadedImageRecord) (bool, error) {
	_, err := s.col.Doc(models.UploadRecordID(rec.Path)).Create(ctx, rec)
	if gcp.IsAlreadyExists(err) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Backend("firestore create upload record", err)
	}
	return true, nil
}

// List returns the newest records first.
func (s *FirestoreUploads) List(ctx context.Context, limit int) ([]models.UploadedImageRecord, error) {
	q := s.col.OrderBy("uploadedAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	it := q.Documents(ctx)
	defer it.Stop()

	var out []models.UploadedImageRecord
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, apperr.Backend("firestore list upload records", err)
		}
		var rec models.UploadedImageRecord
		if err := snap.DataTo(&rec); err != nil {
			return nil, apperr.Backend("firestore decode upload record", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
