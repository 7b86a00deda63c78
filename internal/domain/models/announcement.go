// internal/domain/models/announcement.go
package models

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Announcement document field names. Documents are schemaless field-maps;
// these are the keys the service reads, stamps or projects.
const (
	FieldID             = "_id"
	FieldTitle          = "title"
	FieldMessage        = "message"
	FieldStartDate      = "start_date"
	FieldExpirationDate = "expiration_date"
	FieldCreatedBy      = "created_by"
	FieldCreatedAt      = "created_at"
)

// TimestampLayout is the ISO-8601 rendering used for server-set timestamps
// and for "now" in the active-window comparison. Dates are compared as strings.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Announcement is the fixed projection returned to clients.
// Date and audit fields are nil when absent from the stored document.
type Announcement struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Message        string  `json:"message"`
	StartDate      *string `json:"start_date"`
	ExpirationDate *string `json:"expiration_date"`
	CreatedBy      *string `json:"created_by"`
	CreatedAt      *string `json:"created_at"`
}

// ProjectAnnouncement maps a stored document onto the client projection.
// Missing fields default to empty/nil; non-string values are rendered with
// fmt so a hand-edited document never fails a list request.
func ProjectAnnouncement(doc map[string]any) Announcement {
	return Announcement{
		ID:             idString(doc[FieldID]),
		Title:          textOr(doc[FieldTitle]),
		Message:        textOr(doc[FieldMessage]),
		StartDate:      optionalText(doc[FieldStartDate]),
		ExpirationDate: optionalText(doc[FieldExpirationDate]),
		CreatedBy:      optionalText(doc[FieldCreatedBy]),
		CreatedAt:      optionalText(doc[FieldCreatedAt]),
	}
}

func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case primitive.ObjectID:
		return id.Hex()
	default:
		return fmt.Sprint(id)
	}
}

func textOr(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func optionalText(v any) *string {
	if v == nil {
		return nil
	}
	s := textOr(v)
	return &s
}
