package ledger

import "time"

type (
	// Media is an identifier embedded as a single ID or as a source layer.
	Media struct {
		ID        int64     `json:"id"`
		Payload   string    `json:"payload"` // Unique constraint
		MediaType string    `json:"media_type"`
		Mode      string    `json:"mode"`
		FilePath  string    `json:"file_path"`
		CreatedAt time.Time `json:"created_at"`
	}

	// Distribution is a recipient copy carrying a forensic layer.
	Distribution struct {
		ID        int64     `json:"id"`
		MediaID   int64     `json:"media_id"`
		Recipient string    `json:"recipient"`
		FilePath  string    `json:"file_path"`
		SharedAt  time.Time `json:"shared_at"`
		// Unique constraint on (MediaID, Recipient)
	}

	// Trace resolves the two layers extracted from a leaked copy.
	Trace struct {
		Media        *Media
		Distribution *Distribution // nil when the recipient is not on record
	}
)
