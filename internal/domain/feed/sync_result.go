package feed

import "fmt"

// SyncResult is the outcome of one reconciliation run. Errors hold
// per-record messages only, never the raw supplier payloads.
type SyncResult struct {
	Created     int      `json:"created"`
	Updated     int      `json:"updated"`
	Deactivated int      `json:"deactivated"`
	Errors      []string `json:"errors"`
}

// NewSyncResult creates an empty result
func NewSyncResult() *SyncResult {
	return &SyncResult{Errors: []string{}}
}

// AddError records a per-record error
func (r *SyncResult) AddError(message string) {
	r.Errors = append(r.Errors, message)
}

// Summary renders the status message stored on the feed
func (r *SyncResult) Summary() string {
	msg := fmt.Sprintf("Created: %d, Updated: %d, Deactivated: %d", r.Created, r.Updated, r.Deactivated)
	if len(r.Errors) > 0 {
		msg += fmt.Sprintf(", Errors: %d", len(r.Errors))
	}
	return msg
}
