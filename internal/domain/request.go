package domain

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
)

// HeaderKeyPrefix prefixes the indexed keys serialized request headers are stored under.
const HeaderKeyPrefix = "header-"

// StorageDirs resolves the base directories destinations can be placed in.
type StorageDirs interface {
	// FilesDir returns the caller's private external files directory for dirType.
	FilesDir(dirType string) (string, error)
	// PublicDir returns the shared public directory for dirType.
	PublicDir(dirType string) (string, error)
}

// Header is a single request header in insertion order.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Request describes a download to enqueue. Create one with NewRequest so the
// source URI is validated and the defaults are in place.
type Request struct {
	uri            *url.URL
	destinationURI *url.URL
	headers        []Header

	Title       string
	Description string
	MimeType    string

	ShowRunningNotification bool
	VisibleInDownloadsUI    bool
	AllowedNetworkTypes     int
	AllowedOverRoaming      bool
}

// NewRequest creates a request for an http URI.
func NewRequest(rawURI string) (*Request, error) {
	if rawURI == "" {
		return nil, invalidArgument("uri", "uri cannot be empty")
	}
	u, err := url.Parse(rawURI)
	if err != nil {
		return nil, invalidArgument("uri", "%v", err)
	}
	if u.Scheme != "http" {
		return nil, invalidArgument("uri", "can only download HTTP URIs: %s", rawURI)
	}

	return &Request{
		uri:                     u,
		ShowRunningNotification: true,
		VisibleInDownloadsUI:    true,
		AllowedNetworkTypes:     NetworkAll,
		AllowedOverRoaming:      true,
	}, nil
}

// URI returns the source URI.
func (r *Request) URI() string {
	return r.uri.String()
}

// DestinationURI returns the explicit destination, empty when the engine picks one.
func (r *Request) DestinationURI() string {
	if r.destinationURI == nil {
		return ""
	}
	return r.destinationURI.String()
}

// Headers returns a copy of the request headers.
func (r *Request) Headers() []Header {
	return append([]Header(nil), r.headers...)
}

// SetDestinationURI stores the download at an explicit URI. An empty string
// clears the destination.
func (r *Request) SetDestinationURI(rawURI string) error {
	if rawURI == "" {
		r.destinationURI = nil
		return nil
	}
	u, err := url.Parse(rawURI)
	if err != nil {
		return invalidArgument("destination_uri", "%v", err)
	}
	r.destinationURI = u
	return nil
}

// SetDestinationInExternalFilesDir stores the download under the caller's
// external files directory of the given type.
func (r *Request) SetDestinationInExternalFilesDir(dirs StorageDirs, dirType, subPath string) error {
	base, err := dirs.FilesDir(dirType)
	if err != nil {
		return fmt.Errorf("failed to resolve files dir: %w", err)
	}
	return r.setDestinationFromBase(base, subPath)
}

// SetDestinationInExternalPublicDir stores the download under the shared
// public directory of the given type.
func (r *Request) SetDestinationInExternalPublicDir(dirs StorageDirs, dirType, subPath string) error {
	base, err := dirs.PublicDir(dirType)
	if err != nil {
		return fmt.Errorf("failed to resolve public dir: %w", err)
	}
	return r.setDestinationFromBase(base, subPath)
}

func (r *Request) setDestinationFromBase(base, subPath string) error {
	if subPath == "" {
		return invalidArgument("sub_path", "subPath cannot be empty")
	}
	r.destinationURI = &url.URL{Scheme: "file", Path: path.Join(base, subPath)}
	return nil
}

// AddRequestHeader appends a header. The name may not contain ':'.
func (r *Request) AddRequestHeader(name, value string) error {
	if name == "" {
		return invalidArgument("header", "header cannot be empty")
	}
	if strings.Contains(name, ":") {
		return invalidArgument("header", "header may not contain ':'")
	}
	r.headers = append(r.headers, Header{Name: name, Value: value})
	return nil
}

// Record normalizes the request into the row inserted for owner.
func (r *Request) Record(vocab *Vocabulary, owner string, now time.Time) *DownloadRecord {
	rec := &DownloadRecord{
		URI:                    r.uri.String(),
		Destination:            DestinationExternal,
		Title:                  r.Title,
		Description:            r.Description,
		MimeType:               r.MimeType,
		Visibility:             VisibilityHidden,
		IsVisibleInDownloadsUI: r.VisibleInDownloadsUI,
		AllowedNetworkTypes:    r.AllowedNetworkTypes,
		AllowRoaming:           r.AllowedOverRoaming,
		Status:                 vocab.Pending,
		Control:                ControlRun,
		CurrentBytes:           0,
		TotalBytes:             UnknownTotalBytes,
		LastModified:           NowMillis(now),
		NoIntegrity:            true,
		IsPublicAPI:            true,
		NotificationPackage:    owner,
	}

	if r.ShowRunningNotification {
		rec.Visibility = VisibilityVisible
	}

	if r.destinationURI != nil {
		rec.Destination = DestinationFileURI
		rec.Hint = r.destinationURI.String()
	}

	if len(r.headers) > 0 {
		rec.Headers = make([]RequestHeader, 0, len(r.headers))
		for i, h := range r.headers {
			rec.Headers = append(rec.Headers, RequestHeader{
				Position: i,
				Key:      fmt.Sprintf("%s%d", HeaderKeyPrefix, i),
				Value:    h.Name + ": " + h.Value,
			})
		}
	}

	return rec
}
