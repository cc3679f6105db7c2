package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newTestRecord() *DownloadRecord {
	return &DownloadRecord{
		ID:           42,
		URI:          "http://x/y",
		Title:        "Song",
		Description:  "A song",
		MimeType:     "audio/mpeg",
		Status:       InternalWaitingForNetwork,
		CurrentBytes: 1024,
		TotalBytes:   4096,
		LastModified: 1700000000123,
	}
}

func TestRecordView_Accessors(t *testing.T) {
	view, err := NewRecordView(newTestRecord(), newTestTranslator())
	require.NoError(t, err)

	assert.Equal(t, int64(42), view.ID())
	assert.Equal(t, "Song", view.Title())
	assert.Equal(t, "A song", view.Description())
	assert.Equal(t, "http://x/y", view.URI())
	assert.Equal(t, "audio/mpeg", view.MediaType())
	assert.Equal(t, int64(4096), view.TotalSizeBytes())
	assert.Equal(t, int64(1024), view.BytesDownloadedSoFar())
	assert.Equal(t, int64(1700000000123), view.LastModifiedTimestamp())
	assert.Equal(t, StatusPaused, view.Status())
	assert.Equal(t, int64(PausedWaitingForNetwork), view.Reason())

	_, ok := view.LocalURI()
	assert.False(t, ok)
}

func TestRecordView_UnmappedStatus(t *testing.T) {
	rec := newTestRecord()
	rec.Status = 42

	_, err := NewRecordView(rec, newTestTranslator())
	assert.ErrorIs(t, err, ErrUnmappedStatus)
}

func TestRecordView_Columns(t *testing.T) {
	view, err := NewRecordView(newTestRecord(), newTestTranslator())
	require.NoError(t, err)

	assert.Equal(t, 11, view.ColumnCount())
	assert.Equal(t, Columns(), view.ColumnNames())

	name, err := view.ColumnName(0)
	require.NoError(t, err)
	assert.Equal(t, ColumnID, name)

	_, err = view.ColumnName(11)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = view.ColumnName(-1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, 7, view.ColumnIndex(ColumnStatus))
	assert.Equal(t, -1, view.ColumnIndex("notification_package"))
}

func TestRecordView_TypedReads(t *testing.T) {
	view, err := NewRecordView(newTestRecord(), newTestTranslator())
	require.NoError(t, err)

	status, err := view.Int64(ColumnStatus)
	require.NoError(t, err)
	assert.Equal(t, int64(StatusPaused), status)

	_, err = view.Int64(ColumnTitle)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = view.Int64("control")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	s, err := view.String(ColumnTotalSizeBytes)
	require.NoError(t, err)
	assert.Equal(t, "4096", s)

	s, err = view.String(ColumnLocalURI)
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = view.String("hint")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = view.Blob(ColumnTitle)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestRecordView_LocalURI(t *testing.T) {
	rec := newTestRecord()
	rec.Status = InternalSuccess
	rec.LocalPath = strPtr("/data/files/song.mp3")

	view, err := NewRecordView(rec, newTestTranslator())
	require.NoError(t, err)

	localURI, ok := view.LocalURI()
	assert.True(t, ok)
	assert.Equal(t, "file:///data/files/song.mp3", localURI)
	assert.Equal(t, int64(0), view.Reason())
}

func TestRecordView_MarshalJSON(t *testing.T) {
	rec := newTestRecord()
	rec.Status = 404

	view, err := NewRecordView(rec, newTestTranslator())
	require.NoError(t, err)

	data, err := json.Marshal(view)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Len(t, out, 11)
	assert.Equal(t, float64(42), out["_id"])
	assert.Equal(t, float64(StatusFailed), out["status"])
	assert.Equal(t, float64(404), out["reason"])
	assert.Equal(t, "audio/mpeg", out["media_type"])
	assert.Nil(t, out["local_uri"])
	assert.NotContains(t, out, "notification_package")
	assert.NotContains(t, out, "deleted")
}

// fakeRows serves records from memory
type fakeRows struct {
	records []DownloadRecord
	pos     int
	closed  int
	scanErr error
}

func (f *fakeRows) Next() bool {
	if f.pos >= len(f.records) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeRows) Scan(rec *DownloadRecord) error {
	if f.scanErr != nil {
		return f.scanErr
	}
	*rec = f.records[f.pos-1]
	return nil
}

func (f *fakeRows) Err() error { return nil }

func (f *fakeRows) Close() error {
	f.closed++
	return nil
}

func TestCursor_IteratesAndCloses(t *testing.T) {
	rows := &fakeRows{records: []DownloadRecord{
		{ID: 1, Status: InternalPending},
		{ID: 2, Status: InternalRunning},
	}}
	cursor := NewCursor(rows, newTestTranslator())

	views, err := cursor.All()
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, int64(1), views[0].ID())
	assert.Equal(t, StatusRunning, views[1].Status())

	assert.False(t, cursor.Next())
	assert.NoError(t, cursor.Close())
	assert.Equal(t, 1, rows.closed)
}

func TestCursor_EmptyIsNotAnError(t *testing.T) {
	cursor := NewCursor(&fakeRows{}, newTestTranslator())

	views, err := cursor.All()
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestCursor_StopsOnUnmappedStatus(t *testing.T) {
	rows := &fakeRows{records: []DownloadRecord{
		{ID: 1, Status: InternalPending},
		{ID: 2, Status: 7},
		{ID: 3, Status: InternalPending},
	}}
	cursor := NewCursor(rows, newTestTranslator())

	require.True(t, cursor.Next())
	assert.False(t, cursor.Next())
	assert.ErrorIs(t, cursor.Err(), ErrUnmappedStatus)
	assert.Nil(t, cursor.View())
	assert.Equal(t, 1, rows.closed)
}

func TestCursor_ScanError(t *testing.T) {
	rows := &fakeRows{records: []DownloadRecord{{ID: 1}}, scanErr: errors.New("boom")}

	_, err := NewCursor(rows, newTestTranslator()).All()
	assert.ErrorContains(t, err, "boom")
}
