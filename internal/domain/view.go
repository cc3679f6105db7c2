package domain

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
)

// Column names a public column of a record view. Names are part of the
// public contract and never change.
type Column string

const (
	ColumnID                    Column = "_id"
	ColumnTitle                 Column = "title"
	ColumnDescription           Column = "description"
	ColumnURI                   Column = "uri"
	ColumnMediaType             Column = "media_type"
	ColumnTotalSizeBytes        Column = "total_size"
	ColumnLocalURI              Column = "local_uri"
	ColumnStatus                Column = "status"
	ColumnReason                Column = "reason"
	ColumnBytesDownloadedSoFar  Column = "bytes_so_far"
	ColumnLastModifiedTimestamp Column = "last_modified_timestamp"
)

var columns = []Column{
	ColumnID,
	ColumnTitle,
	ColumnDescription,
	ColumnURI,
	ColumnMediaType,
	ColumnTotalSizeBytes,
	ColumnLocalURI,
	ColumnStatus,
	ColumnReason,
	ColumnBytesDownloadedSoFar,
	ColumnLastModifiedTimestamp,
}

// Columns returns the public columns in their fixed order.
func Columns() []Column {
	return append([]Column(nil), columns...)
}

// isInt64 reports whether the column holds an integer value.
func (c Column) isInt64() bool {
	switch c {
	case ColumnID, ColumnTotalSizeBytes, ColumnStatus, ColumnReason,
		ColumnBytesDownloadedSoFar, ColumnLastModifiedTimestamp:
		return true
	}
	return false
}

// RecordView is a read-only projection of one stored row onto the public
// columns. Status and reason are computed through the translator.
type RecordView struct {
	rec        *DownloadRecord
	translator *Translator
}

// NewRecordView projects rec. It fails when the row's internal status is
// outside the translator's vocabulary.
func NewRecordView(rec *DownloadRecord, t *Translator) (*RecordView, error) {
	if _, err := t.PublicStatus(rec.Status); err != nil {
		return nil, fmt.Errorf("download %d: %w", rec.ID, err)
	}
	return &RecordView{rec: rec, translator: t}, nil
}

// ID returns the download id.
func (v *RecordView) ID() int64 { return v.rec.ID }

// Title returns the user-visible title.
func (v *RecordView) Title() string { return v.rec.Title }

// Description returns the user-visible description.
func (v *RecordView) Description() string { return v.rec.Description }

// URI returns the source URI.
func (v *RecordView) URI() string { return v.rec.URI }

// MediaType returns the MIME type, as given or as reported by the server.
func (v *RecordView) MediaType() string { return v.rec.MimeType }

// TotalSizeBytes returns the expected size, -1 while unknown.
func (v *RecordView) TotalSizeBytes() int64 { return v.rec.TotalBytes }

// BytesDownloadedSoFar returns the bytes transferred so far.
func (v *RecordView) BytesDownloadedSoFar() int64 { return v.rec.CurrentBytes }

// LastModifiedTimestamp returns the last change in unix milliseconds.
func (v *RecordView) LastModifiedTimestamp() int64 { return v.rec.LastModified }

// LocalURI returns the materialized file as a file:// URI. ok is false when
// the engine has not written a local file.
func (v *RecordView) LocalURI() (string, bool) {
	if v.rec.LocalPath == nil || *v.rec.LocalPath == "" {
		return "", false
	}
	abs, err := filepath.Abs(*v.rec.LocalPath)
	if err != nil {
		abs = *v.rec.LocalPath
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), true
}

// Status returns the public status.
func (v *RecordView) Status() PublicStatus {
	// Validated in NewRecordView.
	status, _ := v.translator.PublicStatus(v.rec.Status)
	return status
}

// Reason returns the paused or error reason; zero for other statuses.
func (v *RecordView) Reason() int64 {
	reason, _ := v.translator.Reason(v.rec.Status)
	return reason
}

// ColumnCount returns the number of public columns.
func (v *RecordView) ColumnCount() int {
	return len(columns)
}

// ColumnNames returns the public column names.
func (v *RecordView) ColumnNames() []Column {
	return Columns()
}

// ColumnName returns the name of the column at index.
func (v *RecordView) ColumnName(index int) (Column, error) {
	if index < 0 || index >= len(columns) {
		return "", invalidArgument("column", "invalid column index %d, %d columns exist", index, len(columns))
	}
	return columns[index], nil
}

// ColumnIndex returns the position of name, or -1.
func (v *RecordView) ColumnIndex(name Column) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Int64 reads an integer column.
func (v *RecordView) Int64(c Column) (int64, error) {
	switch c {
	case ColumnID:
		return v.ID(), nil
	case ColumnTotalSizeBytes:
		return v.TotalSizeBytes(), nil
	case ColumnStatus:
		return int64(v.Status()), nil
	case ColumnReason:
		return v.Reason(), nil
	case ColumnBytesDownloadedSoFar:
		return v.BytesDownloadedSoFar(), nil
	case ColumnLastModifiedTimestamp:
		return v.LastModifiedTimestamp(), nil
	}
	if v.ColumnIndex(c) < 0 {
		return 0, invalidArgument("column", "no such column: %s", c)
	}
	return 0, invalidArgument("column", "column %s is not an integer", c)
}

// String reads any column as text. Integer columns are formatted in base 10;
// an absent local URI reads as "".
func (v *RecordView) String(c Column) (string, error) {
	if c.isInt64() {
		n, err := v.Int64(c)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d", n), nil
	}

	switch c {
	case ColumnTitle:
		return v.Title(), nil
	case ColumnDescription:
		return v.Description(), nil
	case ColumnURI:
		return v.URI(), nil
	case ColumnMediaType:
		return v.MediaType(), nil
	case ColumnLocalURI:
		localURI, _ := v.LocalURI()
		return localURI, nil
	}
	return "", invalidArgument("column", "no such column: %s", c)
}

// Blob is not supported by the projection.
func (v *RecordView) Blob(c Column) ([]byte, error) {
	return nil, fmt.Errorf("blob access to %s: %w", c, ErrUnsupported)
}

// MarshalJSON encodes exactly the public columns.
func (v *RecordView) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(columns))
	for _, c := range columns {
		if c.isInt64() {
			n, _ := v.Int64(c)
			out[string(c)] = n
			continue
		}
		if c == ColumnLocalURI {
			if localURI, ok := v.LocalURI(); ok {
				out[string(c)] = localURI
			} else {
				out[string(c)] = nil
			}
			continue
		}
		s, _ := v.String(c)
		out[string(c)] = s
	}
	return json.Marshal(out)
}

// Cursor is a lazy, forward-only sequence of record views. It cannot be
// rewound. An open cursor holds a store connection until Close.
type Cursor struct {
	rows       RecordRows
	translator *Translator
	current    *RecordView
	err        error
	done       bool
}

// NewCursor wraps store rows.
func NewCursor(rows RecordRows, t *Translator) *Cursor {
	return &Cursor{rows: rows, translator: t}
}

// Next advances to the next row. It returns false at the end of the rows or
// on the first error; check Err afterwards.
func (c *Cursor) Next() bool {
	if c.done {
		return false
	}
	if !c.rows.Next() {
		c.err = c.rows.Err()
		c.finish()
		return false
	}

	var rec DownloadRecord
	if err := c.rows.Scan(&rec); err != nil {
		c.err = fmt.Errorf("failed to scan download: %w", err)
		c.finish()
		return false
	}

	view, err := NewRecordView(&rec, c.translator)
	if err != nil {
		c.err = err
		c.finish()
		return false
	}
	c.current = view
	return true
}

// View returns the row Next moved to.
func (c *Cursor) View() *RecordView {
	return c.current
}

// Err returns the error that stopped iteration, if any.
func (c *Cursor) Err() error {
	return c.err
}

// Close releases the underlying rows. It is safe to call more than once.
func (c *Cursor) Close() error {
	if c.done {
		return nil
	}
	c.done = true
	c.current = nil
	return c.rows.Close()
}

// All drains the cursor and closes it.
func (c *Cursor) All() ([]*RecordView, error) {
	defer c.Close()

	views := make([]*RecordView, 0)
	for c.Next() {
		views = append(views, c.View())
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return views, nil
}

func (c *Cursor) finish() {
	c.current = nil
	if err := c.Close(); err != nil && c.err == nil {
		c.err = err
	}
}
