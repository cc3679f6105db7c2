package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirs struct {
	files  string
	public string
	err    error
}

func (f fakeDirs) FilesDir(dirType string) (string, error) {
	return f.files + "/" + dirType, f.err
}

func (f fakeDirs) PublicDir(dirType string) (string, error) {
	return f.public + "/" + dirType, f.err
}

func TestNewRequest_Defaults(t *testing.T) {
	req, err := NewRequest("http://x/y")
	require.NoError(t, err)

	assert.Equal(t, "http://x/y", req.URI())
	assert.Empty(t, req.DestinationURI())
	assert.Empty(t, req.Headers())
	assert.True(t, req.ShowRunningNotification)
	assert.True(t, req.VisibleInDownloadsUI)
	assert.True(t, req.AllowedOverRoaming)
	assert.Equal(t, NetworkAll, req.AllowedNetworkTypes)
}

func TestNewRequest_RejectsNonHTTP(t *testing.T) {
	for _, raw := range []string{"", "ftp://x/y", "https://x/y", "file:///tmp/a", "x/y", "://bad"} {
		_, err := NewRequest(raw)
		assert.ErrorIs(t, err, ErrInvalidArgument, raw)

		var argErr *ArgumentError
		assert.True(t, errors.As(err, &argErr), raw)
		assert.Equal(t, "uri", argErr.Field)
	}
}

func TestRequest_RecordWithoutDestination(t *testing.T) {
	req, err := NewRequest("http://x/y")
	require.NoError(t, err)
	req.Title = "Title"
	req.Description = "Desc"
	req.MimeType = "video/mp4"

	now := time.UnixMilli(1700000000123)
	rec := req.Record(DefaultVocabulary(), "owner-a", now)

	assert.Equal(t, "http://x/y", rec.URI)
	assert.Equal(t, DestinationExternal, rec.Destination)
	assert.Empty(t, rec.Hint)
	assert.Equal(t, InternalPending, rec.Status)
	assert.Equal(t, ControlRun, rec.Control)
	assert.Equal(t, VisibilityVisible, rec.Visibility)
	assert.Equal(t, UnknownTotalBytes, rec.TotalBytes)
	assert.Zero(t, rec.CurrentBytes)
	assert.Equal(t, int64(1700000000123), rec.LastModified)
	assert.True(t, rec.NoIntegrity)
	assert.True(t, rec.IsPublicAPI)
	assert.Equal(t, "owner-a", rec.NotificationPackage)
	assert.Equal(t, "Title", rec.Title)
	assert.Equal(t, "Desc", rec.Description)
	assert.Equal(t, "video/mp4", rec.MimeType)
	assert.Nil(t, rec.LocalPath)
	assert.Empty(t, rec.Headers)

	status, err := NewTranslator(DefaultVocabulary()).PublicStatus(rec.Status)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)
}

func TestRequest_RecordWithDestination(t *testing.T) {
	req, err := NewRequest("http://x/y")
	require.NoError(t, err)
	require.NoError(t, req.SetDestinationURI("file:///sdcard/a.bin"))
	req.ShowRunningNotification = false
	req.VisibleInDownloadsUI = false
	req.AllowedNetworkTypes = NetworkWifi
	req.AllowedOverRoaming = false

	rec := req.Record(DefaultVocabulary(), "owner-a", time.Now())

	assert.Equal(t, DestinationFileURI, rec.Destination)
	assert.Equal(t, "file:///sdcard/a.bin", rec.Hint)
	assert.Equal(t, VisibilityHidden, rec.Visibility)
	assert.False(t, rec.IsVisibleInDownloadsUI)
	assert.Equal(t, NetworkWifi, rec.AllowedNetworkTypes)
	assert.False(t, rec.AllowRoaming)

	require.NoError(t, req.SetDestinationURI(""))
	assert.Equal(t, DestinationExternal, req.Record(DefaultVocabulary(), "owner-a", time.Now()).Destination)
}

func TestRequest_Headers(t *testing.T) {
	req, err := NewRequest("http://x/y")
	require.NoError(t, err)

	require.NoError(t, req.AddRequestHeader("Cookie", "a=b"))
	require.NoError(t, req.AddRequestHeader("Referer", "http://x/"))
	require.NoError(t, req.AddRequestHeader("X-Empty", ""))
	require.NoError(t, req.AddRequestHeader("Cookie", "c=d"))

	assert.Equal(t, []Header{
		{Name: "Cookie", Value: "a=b"},
		{Name: "Referer", Value: "http://x/"},
		{Name: "X-Empty", Value: ""},
		{Name: "Cookie", Value: "c=d"},
	}, req.Headers())

	rec := req.Record(DefaultVocabulary(), "owner-a", time.Now())
	require.Len(t, rec.Headers, 4)
	for i, h := range rec.Headers {
		assert.Equal(t, i, h.Position)
	}
	assert.Equal(t, "header-0", rec.Headers[0].Key)
	assert.Equal(t, "Cookie: a=b", rec.Headers[0].Value)
	assert.Equal(t, "header-1", rec.Headers[1].Key)
	assert.Equal(t, "Referer: http://x/", rec.Headers[1].Value)
	assert.Equal(t, "X-Empty: ", rec.Headers[2].Value)
	assert.Equal(t, "header-3", rec.Headers[3].Key)
}

func TestRequest_HeadersReturnsCopy(t *testing.T) {
	req, err := NewRequest("http://x/y")
	require.NoError(t, err)
	require.NoError(t, req.AddRequestHeader("A", "1"))

	headers := req.Headers()
	headers[0].Value = "changed"
	assert.Equal(t, "1", req.Headers()[0].Value)
}

func TestRequest_AddRequestHeaderRejectsInvalidName(t *testing.T) {
	req, err := NewRequest("http://x/y")
	require.NoError(t, err)

	assert.ErrorIs(t, req.AddRequestHeader("", "v"), ErrInvalidArgument)
	assert.ErrorIs(t, req.AddRequestHeader("Bad:Name", "v"), ErrInvalidArgument)
	assert.Empty(t, req.Headers())
}

func TestRequest_DestinationInExternalDirs(t *testing.T) {
	dirs := fakeDirs{files: "/data/files", public: "/storage/public"}

	req, err := NewRequest("http://x/y")
	require.NoError(t, err)

	require.NoError(t, req.SetDestinationInExternalFilesDir(dirs, "music", "album/song.mp3"))
	assert.Equal(t, "file:///data/files/music/album/song.mp3", req.DestinationURI())

	require.NoError(t, req.SetDestinationInExternalPublicDir(dirs, "Download", "a.bin"))
	assert.Equal(t, "file:///storage/public/Download/a.bin", req.DestinationURI())

	assert.ErrorIs(t, req.SetDestinationInExternalPublicDir(dirs, "Download", ""), ErrInvalidArgument)
	assert.Equal(t, "file:///storage/public/Download/a.bin", req.DestinationURI())

	failing := fakeDirs{err: assert.AnError}
	assert.ErrorIs(t, req.SetDestinationInExternalFilesDir(failing, "music", "a"), assert.AnError)
}
