package feed

import (
	"fmt"

	"github.com/eshop/backend/internal/domain/shared"
)

// Feed domain errors
var (
	ErrFeedNotFound   = shared.NewDomainError("NOT_FOUND", "Feed not found")
	ErrSyncInProgress = shared.NewDomainError("SYNC_IN_PROGRESS", "A sync for this feed is already running")

	// ErrProductPathNotSequence matches every invalid document error through its code
	ErrProductPathNotSequence = NewInvalidDocumentError("No product array found")
)

// NewInvalidDocumentError reports a feed document that cannot be reconciled
func NewInvalidDocumentError(message string) *shared.DomainError {
	return shared.NewDomainError("INVALID_FEED_DOCUMENT", message)
}

// NewProductPathError reports that the configured product path does not
// select a sequence of records
func NewProductPathError(path string) *shared.DomainError {
	return NewInvalidDocumentError(fmt.Sprintf("No product array found at path: %s", path))
}
