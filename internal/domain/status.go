package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PublicStatus is the coarse status exposed to callers. Values are bit flags
// so a query can filter on several at once; a record has exactly one.
type PublicStatus int

const (
	StatusPending    PublicStatus = 1 << 0
	StatusRunning    PublicStatus = 1 << 1
	StatusPaused     PublicStatus = 1 << 2
	StatusSuccessful PublicStatus = 1 << 3
	StatusFailed     PublicStatus = 1 << 4

	// StatusAll matches every public status.
	StatusAll = StatusPending | StatusRunning | StatusPaused | StatusSuccessful | StatusFailed
)

// PublicStatuses lists all public statuses in bit order.
var PublicStatuses = []PublicStatus{StatusPending, StatusRunning, StatusPaused, StatusSuccessful, StatusFailed}

func (s PublicStatus) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusRunning:
		return "RUNNING"
	case StatusPaused:
		return "PAUSED"
	case StatusSuccessful:
		return "SUCCESSFUL"
	case StatusFailed:
		return "FAILED"
	}
	var names []string
	for _, flag := range PublicStatuses {
		if s&flag != 0 {
			names = append(names, flag.String())
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("PublicStatus(%d)", int(s))
	}
	return strings.Join(names, "|")
}

// ParsePublicStatus parses a status mask given as a number or as names
// joined by '|' or ',', e.g. "paused|failed".
func ParsePublicStatus(s string) (PublicStatus, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, invalidArgument("status", "status cannot be empty")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || PublicStatus(n)&^StatusAll != 0 {
			return 0, invalidArgument("status", "invalid status mask: %d", n)
		}
		return PublicStatus(n), nil
	}

	var mask PublicStatus
	for _, name := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		name = strings.ToUpper(strings.TrimSpace(name))
		found := false
		for _, flag := range PublicStatuses {
			if flag.String() == name {
				mask |= flag
				found = true
				break
			}
		}
		if !found {
			return 0, invalidArgument("status", "unknown status: %s", name)
		}
	}
	return mask, nil
}

// ErrorReason is the public reason code for a FAILED download. Raw HTTP
// statuses in [400, 600) may appear as reasons as well.
type ErrorReason int

const (
	ErrorUnknown           ErrorReason = 1000
	ErrorFileError         ErrorReason = 1001
	ErrorUnhandledHTTPCode ErrorReason = 1002
	ErrorHTTPDataError     ErrorReason = 1004
	ErrorTooManyRedirects  ErrorReason = 1005
	ErrorInsufficientSpace ErrorReason = 1006
	ErrorDeviceNotFound    ErrorReason = 1007
	ErrorCannotResume      ErrorReason = 1008
	ErrorFileAlreadyExists ErrorReason = 1009
)

// PausedReason is the public reason code for a PAUSED download.
type PausedReason int

const (
	PausedWaitingToRetry    PausedReason = 1
	PausedWaitingForNetwork PausedReason = 2
	PausedQueuedForWifi     PausedReason = 3
	PausedUnknown           PausedReason = 4
)

// Broadcast identifiers emitted by the notification collaborator.
const (
	ActionDownloadComplete    = "android.intent.action.DOWNLOAD_COMPLETE"
	ActionNotificationClicked = "android.intent.action.DOWNLOAD_NOTIFICATION_CLICKED"
	ActionViewDownloads       = "android.intent.action.VIEW_DOWNLOADS"
	ExtraDownloadID           = "extra_download_id"
)

// StatusSpan is a half-open range [Lo, Hi) of internal status codes.
type StatusSpan struct {
	Lo InternalStatus
	Hi InternalStatus
}

// Single reports whether the span holds exactly one code.
func (s StatusSpan) Single() bool {
	return s.Hi == s.Lo+1
}

// Translator maps internal status codes to the public vocabulary and back.
// It is pure and safe for concurrent use.
type Translator struct {
	vocab *Vocabulary
}

// NewTranslator creates a translator over the given vocabulary.
func NewTranslator(vocab *Vocabulary) *Translator {
	return &Translator{vocab: vocab}
}

// Vocabulary returns the vocabulary the translator was built with.
func (t *Translator) Vocabulary() *Vocabulary {
	return t.vocab
}

// PublicStatus translates an internal status code. A code outside the
// vocabulary is a programming error and yields ErrUnmappedStatus.
func (t *Translator) PublicStatus(code InternalStatus) (PublicStatus, error) {
	switch {
	case code == t.vocab.Pending:
		return StatusPending, nil
	case code == t.vocab.Running:
		return StatusRunning, nil
	case code == t.vocab.Success:
		return StatusSuccessful, nil
	}
	if _, ok := t.vocab.Paused[code]; ok {
		return StatusPaused, nil
	}
	if t.vocab.IsError(code) {
		return StatusFailed, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnmappedStatus, int(code))
}

// Reason derives the status-dependent reason code. It is zero unless the
// public status is PAUSED or FAILED.
func (t *Translator) Reason(code InternalStatus) (int64, error) {
	status, err := t.PublicStatus(code)
	if err != nil {
		return 0, err
	}

	switch status {
	case StatusPaused:
		return int64(t.pausedReason(code)), nil
	case StatusFailed:
		return t.errorReason(code), nil
	default:
		return 0, nil
	}
}

func (t *Translator) pausedReason(code InternalStatus) PausedReason {
	if reason, ok := t.vocab.Paused[code]; ok {
		return reason
	}
	return PausedUnknown
}

func (t *Translator) errorReason(code InternalStatus) int64 {
	if (code >= t.vocab.MinError && code < t.vocab.MinArtificialError) ||
		(code >= 500 && code < t.vocab.MaxError) {
		return int64(code)
	}
	if reason, ok := t.vocab.Errors[code]; ok {
		return int64(reason)
	}
	return int64(ErrorUnknown)
}

// Spans returns the internal status ranges denoted by a single public status.
// Flags combined in a mask are expanded one by one by the caller.
func (t *Translator) Spans(status PublicStatus) []StatusSpan {
	single := func(code InternalStatus) StatusSpan {
		return StatusSpan{Lo: code, Hi: code + 1}
	}

	switch status {
	case StatusPending:
		return []StatusSpan{single(t.vocab.Pending)}
	case StatusRunning:
		return []StatusSpan{single(t.vocab.Running)}
	case StatusSuccessful:
		return []StatusSpan{single(t.vocab.Success)}
	case StatusFailed:
		return []StatusSpan{{Lo: t.vocab.MinError, Hi: t.vocab.MaxError}}
	case StatusPaused:
		codes := make([]int, 0, len(t.vocab.Paused))
		for code := range t.vocab.Paused {
			codes = append(codes, int(code))
		}
		sort.Ints(codes)
		spans := make([]StatusSpan, 0, len(codes))
		for _, code := range codes {
			spans = append(spans, single(InternalStatus(code)))
		}
		return spans
	}
	return nil
}

// SpansForMask expands every flag set in mask, in bit order.
func (t *Translator) SpansForMask(mask PublicStatus) []StatusSpan {
	var spans []StatusSpan
	for _, flag := range PublicStatuses {
		if mask&flag != 0 {
			spans = append(spans, t.Spans(flag)...)
		}
	}
	return spans
}
