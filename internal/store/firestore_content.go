package store

import (
	"context"

	"cloud.google.com/go/firestore"

	"github.com/Lllllllleong/consultancysite/internal/apperr"
	"github.com/Lllllllleong/consultancysite/internal/gcp"
	"github.com/Lllllllleong/consultancysite/internal/models"
)

// Ensure FirestoreContent implements the interface.
var _ ContentRepository = (*FirestoreContent)(nil)

// FirestoreContent stores the content record as one Firestore document.
type FirestoreContent struct {
	doc *firestore.DocumentRef
}

// NewFirestoreContent addresses the record at collection/docID.
func NewFirestoreContent(client *firestore.Client, collection, docID string) *FirestoreContent {
	return &FirestoreContent{doc: client.Collection(collection).Doc(docID)}
}

func (s *FirestoreContent) Get(ctx context.Context) (*models.ContentRecord, error) {
	snap, err := s.doc.Get(ctx)
	if err != nil {
		if gcp.IsNotFound(err) {
			return nil, apperr.NotFound("content document %s", s.doc.Path)
		}
		return nil, apperr.Backend("firestore get", err)
	}
	var rec models.ContentRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, apperr.Backend("firestore decode", err)
	}
	return &rec, nil
}

// Put replaces the whole record. There is no precondition: last writer wins.
func (s *FirestoreContent) Put(ctx context.Context, rec *models.ContentRecord) error {
	if _, err := s.doc.Set(ctx, rec); err != nil {
		return apperr.Backend("firestore set", err)
	}
	return nil
}
