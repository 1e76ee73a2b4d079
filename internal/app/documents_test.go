package app_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"pdfquiz-service/internal/app"
	"pdfquiz-service/internal/domain"
	"pdfquiz-service/internal/infra/memory"
)

func TestUploadStoresObjectAndRow(t *testing.T) {
	ctx := context.Background()
	objects := memory.NewObjectStore()
	store := memory.NewStore()
	service := app.NewDocumentService(objects, store, store, zap.NewNop())

	data := bytes.Repeat([]byte("x"), 2048)
	doc, err := service.Upload(ctx, "user-1", "notes.pdf", "application/pdf", data)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if doc.ID == "" || doc.Processed {
		t.Fatalf("unexpected document %+v", doc)
	}
	if doc.FileSize != 2048 || doc.FileName != "notes.pdf" {
		t.Fatalf("metadata mismatch: %+v", doc)
	}
	if !objects.Has(doc.FilePath) {
		t.Fatalf("object missing at %s", doc.FilePath)
	}
	if _, err := store.GetDocument(ctx, doc.ID); err != nil {
		t.Fatalf("row missing: %v", err)
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	service := app.NewDocumentService(memory.NewObjectStore(), memory.NewStore(), memory.NewStore(), zap.NewNop())

	_, err := service.Upload(context.Background(), "user-1", "notes.txt", "text/plain", []byte("hello"))
	if !errors.Is(err, domain.ErrNotPDF) {
		t.Fatalf("expected not-pdf error, got %v", err)
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	service := app.NewDocumentService(memory.NewObjectStore(), memory.NewStore(), memory.NewStore(), zap.NewNop())

	data := make([]byte, app.MaxUploadBytes+1)
	_, err := service.Upload(context.Background(), "user-1", "big.pdf", "application/pdf", data)
	if !errors.Is(err, domain.ErrFileTooLarge) {
		t.Fatalf("expected too-large error, got %v", err)
	}
}

type failingDocumentStore struct {
	*memory.Store
}

func (s failingDocumentStore) InsertDocument(context.Context, domain.Document) (domain.Document, error) {
	return domain.Document{}, errors.New("insert refused")
}

func TestUploadCleansUpObjectOnRowFailure(t *testing.T) {
	objects := memory.NewObjectStore()
	store := memory.NewStore()
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	service := app.NewDocumentServiceWithClock(objects, failingDocumentStore{store}, store, zap.NewNop(), func() time.Time { return fixed })

	_, err := service.Upload(context.Background(), "user-1", "notes.pdf", "application/pdf", []byte("pdf bytes"))
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	// The uploaded object must not be left orphaned.
	path := fmt.Sprintf("user-1/%d.pdf", fixed.UnixMilli())
	if objects.Has(path) {
		t.Fatalf("object at %s should have been removed", path)
	}
}
