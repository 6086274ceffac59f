package models

// Provenance records which ingestion path produced a record. Diagnostic
// only, never consulted for dedup.
type Provenance string

const (
	ProvenanceLive    Provenance = "live"
	ProvenanceHistory Provenance = "history"
	ProvenanceManual  Provenance = "manual"
	ProvenanceTest    Provenance = "test"
)

// ImageRecord is one entry in the gallery, one per distinct Telegram file.
// FileID is the unique key and is immutable once the record is created.
type ImageRecord struct {
	ID           string `json:"id"`
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`

	// Native photos carry dimensions, image documents carry file metadata.
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`

	// Timestamp keeps whatever form the source message provided: the
	// platform's numeric date for real messages, an RFC3339 string for
	// records that had none. Mixed forms coexist in old store files, so
	// this is deliberately untyped and never normalized on load.
	Timestamp any `json:"timestamp"`

	Caption   string `json:"caption"`
	MessageID int    `json:"message_id"`

	ThumbURL string `json:"thumb_url"`
	FullURL  string `json:"full_url"`

	Provenance Provenance `json:"provenance,omitempty"`
}

// BackfillResult summarizes one backfill run.
// Found counts image messages seen in the drained history (including ones
// already recorded); Added counts records actually committed.
type BackfillResult struct {
	RunID           string `json:"run_id"`
	Found           int    `json:"found"`
	Added           int    `json:"added"`
	WebhookRestored bool   `json:"webhook_restored"`
}
