// internal/app/features/announcements/handler.go
package announcements

import (
	"go.uber.org/zap"
)

// Handler owns the announcement HTTP handlers.
type Handler struct {
	Service *Service
	Log     *zap.Logger
}

// NewHandler constructs a Handler backed by store.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{
		Service: NewService(store, logger),
		Log:     logger,
	}
}
