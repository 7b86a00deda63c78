package models_test

import (
	"testing"

	"github.com/dalemusser/noticeboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestProjectAnnouncement_FullDocument(t *testing.T) {
	doc := map[string]any{
		"_id":             "abc-123",
		"title":           "Downtime",
		"message":         "Maintenance",
		"start_date":      "2026-01-01T00:00:00",
		"expiration_date": "2099-01-01T00:00:00",
		"created_by":      "alice",
		"created_at":      "2026-01-01T00:00:00.000000",
		"extra":           "ignored",
	}

	got := models.ProjectAnnouncement(doc)

	if got.ID != "abc-123" {
		t.Errorf("ID: got %q, want %q", got.ID, "abc-123")
	}
	if got.Title != "Downtime" || got.Message != "Maintenance" {
		t.Errorf("Title/Message: got %q/%q", got.Title, got.Message)
	}
	if got.StartDate == nil || *got.StartDate != "2026-01-01T00:00:00" {
		t.Errorf("StartDate: got %v", got.StartDate)
	}
	if got.CreatedBy == nil || *got.CreatedBy != "alice" {
		t.Errorf("CreatedBy: got %v", got.CreatedBy)
	}
}

func TestProjectAnnouncement_MissingFieldsDefault(t *testing.T) {
	got := models.ProjectAnnouncement(map[string]any{"expiration_date": "2099-01-01"})

	if got.ID != "" {
		t.Errorf("ID: got %q, want empty", got.ID)
	}
	if got.Title != "" || got.Message != "" {
		t.Errorf("Title/Message should default to empty, got %q/%q", got.Title, got.Message)
	}
	if got.StartDate != nil {
		t.Errorf("StartDate should be nil, got %q", *got.StartDate)
	}
	if got.CreatedBy != nil || got.CreatedAt != nil {
		t.Error("audit fields should be nil when absent")
	}
}

func TestProjectAnnouncement_ObjectIDRenderedAsHex(t *testing.T) {
	oid := primitive.NewObjectID()
	got := models.ProjectAnnouncement(map[string]any{"_id": oid})
	if got.ID != oid.Hex() {
		t.Errorf("ID: got %q, want %q", got.ID, oid.Hex())
	}
}

func TestProjectAnnouncement_NonStringValues(t *testing.T) {
	got := models.ProjectAnnouncement(map[string]any{"title": 42, "start_date": nil})
	if got.Title != "42" {
		t.Errorf("Title: got %q, want %q", got.Title, "42")
	}
	if got.StartDate != nil {
		t.Error("explicit null start_date should project as nil")
	}
}
