package models

import "time"

// Checkpoint records the last revision notified about for a ref.
type Checkpoint struct {
	Key       string    `json:"key"`
	Revision  string    `json:"revision"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// ShortRevision returns a shortened revision (first 7 characters)
func (c *Checkpoint) ShortRevision() string {
	if len(c.Revision) > 7 {
		return c.Revision[:7]
	}
	return c.Revision
}
