package domain

// RecordRows streams rows from a select. It is forward-only.
type RecordRows interface {
	Next() bool
	Scan(rec *DownloadRecord) error
	Err() error
	Close() error
}

// DownloadStore is the persistence contract of the queue manager. Every
// method runs as a single statement; a Transaction groups several.
type DownloadStore interface {
	// Insert stores rec and its headers and assigns rec.ID
	Insert(rec *DownloadRecord) error

	// Select streams the rows matching sel in the given order
	Select(sel Selection, orderBy string) (RecordRows, error)

	// First returns the first row matching sel, or nil when nothing matches
	First(sel Selection) (*DownloadRecord, error)

	// Count returns the number of rows matching sel
	Count(sel Selection) (int64, error)

	// Update applies values to the rows matching sel and returns the number changed
	Update(sel Selection, values map[string]interface{}) (int64, error)

	// Delete removes the rows matching sel with their headers
	Delete(sel Selection) (int64, error)

	// Transaction runs fn against a store bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	Transaction(fn func(store DownloadStore) error) error
}

// DownloadStats counts visible downloads by public status
type DownloadStats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	Running    int64 `json:"running"`
	Paused     int64 `json:"paused"`
	Successful int64 `json:"successful"`
	Failed     int64 `json:"failed"`
}
