package domain

import "time"

// ControlFlag asks the execution engine to run or halt work on a record.
type ControlFlag int

const (
	ControlRun    ControlFlag = 0
	ControlPaused ControlFlag = 1
)

// Destination tells the execution engine where to place the file.
type Destination int

const (
	// DestinationExternal lets the engine generate a path in shared storage.
	DestinationExternal Destination = 0
	// DestinationFileURI writes to the file URI stored in the hint.
	DestinationFileURI Destination = 4
)

// Visibility controls the running notification.
type Visibility int

const (
	VisibilityVisible Visibility = 0
	VisibilityHidden  Visibility = 2
)

// Network types accepted by AllowedNetworkTypes.
const (
	NetworkMobile = 1 << 0
	NetworkWifi   = 1 << 1

	// NetworkAll allows every network type, including future ones.
	NetworkAll = ^0
)

// UnknownTotalBytes marks a record whose size is not known yet.
const UnknownTotalBytes int64 = -1

// DownloadRecord is a persisted download row. The store owns it; callers see
// it through a RecordView.
type DownloadRecord struct {
	ID                     int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	URI                    string          `json:"uri" gorm:"not null"`
	Destination            Destination     `json:"destination" gorm:"not null"`
	Hint                   string          `json:"hint,omitempty"`
	Title                  string          `json:"title,omitempty"`
	Description            string          `json:"description,omitempty"`
	MimeType               string          `json:"mime_type,omitempty"`
	Headers                []RequestHeader `json:"headers,omitempty" gorm:"foreignKey:DownloadID"`
	Visibility             Visibility      `json:"visibility"`
	IsVisibleInDownloadsUI bool            `json:"is_visible_in_downloads_ui" gorm:"column:is_visible_in_downloads_ui;index"`
	AllowedNetworkTypes    int             `json:"allowed_network_types"`
	AllowRoaming           bool            `json:"allow_roaming"`
	Status                 InternalStatus  `json:"status" gorm:"not null;index"`
	Control                ControlFlag     `json:"control"`
	CurrentBytes           int64           `json:"current_bytes"`
	TotalBytes             int64           `json:"total_bytes"`
	LocalPath              *string         `json:"local_path,omitempty"`
	LastModified           int64           `json:"last_modified" gorm:"index"`
	Deleted                bool            `json:"deleted" gorm:"index"`
	NoIntegrity            bool            `json:"no_integrity"`
	IsPublicAPI            bool            `json:"is_public_api" gorm:"column:is_public_api"`
	NotificationPackage    string          `json:"notification_package" gorm:"index"`
}

// TableName specifies the table name for GORM
func (DownloadRecord) TableName() string {
	return "downloads"
}

// RequestHeader is one serialized request header. Key is header-<n> where n
// preserves insertion order; Value holds "Name: value".
type RequestHeader struct {
	ID         int64  `json:"-" gorm:"primaryKey;autoIncrement"`
	DownloadID int64  `json:"-" gorm:"not null;index"`
	Position   int    `json:"-" gorm:"not null"`
	Key        string `json:"key" gorm:"not null"`
	Value      string `json:"value"`
}

// TableName specifies the table name for GORM
func (RequestHeader) TableName() string {
	return "download_headers"
}

// Column names of the downloads table used in selections and updates.
const (
	ColID                  = "id"
	ColStatus              = "status"
	ColControl             = "control"
	ColCurrentBytes        = "current_bytes"
	ColTotalBytes          = "total_bytes"
	ColLocalPath           = "local_path"
	ColLastModified        = "last_modified"
	ColDeleted             = "deleted"
	ColNoIntegrity         = "no_integrity"
	ColVisibleInDownloads  = "is_visible_in_downloads_ui"
	ColNotificationPackage = "notification_package"
)

// NowMillis returns t as unix milliseconds, the resolution of LastModified.
func NowMillis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}
