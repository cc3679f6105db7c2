package domain

// InternalStatus is the fine-grained status code stored on a download record.
// It covers lifecycle states, paused sub-states and numeric HTTP/custom errors.
type InternalStatus int

// Internal status codes used by the execution engine.
const (
	InternalPending           InternalStatus = 190
	InternalRunning           InternalStatus = 192
	InternalPausedByApp       InternalStatus = 193
	InternalWaitingToRetry    InternalStatus = 194
	InternalWaitingForNetwork InternalStatus = 195
	InternalQueuedForWifi     InternalStatus = 196
	InternalSuccess           InternalStatus = 200

	InternalBadRequest         InternalStatus = 400
	InternalNotAcceptable      InternalStatus = 406
	InternalLengthRequired     InternalStatus = 411
	InternalPreconditionFailed InternalStatus = 412

	// Codes from 488 up to 499 are not HTTP statuses; the engine uses them
	// for its own failure causes.
	InternalMinArtificialError  InternalStatus = 488
	InternalFileAlreadyExists   InternalStatus = 488
	InternalCannotResume        InternalStatus = 489
	InternalCanceled            InternalStatus = 490
	InternalUnknownError        InternalStatus = 491
	InternalFileError           InternalStatus = 492
	InternalUnhandledRedirect   InternalStatus = 493
	InternalUnhandledHTTPCode   InternalStatus = 494
	InternalHTTPDataError       InternalStatus = 495
	InternalHTTPException       InternalStatus = 496
	InternalTooManyRedirects    InternalStatus = 497
	InternalInsufficientSpace   InternalStatus = 498
	InternalDeviceNotFoundError InternalStatus = 499
)

// Vocabulary describes the internal status codes the Translator understands.
// It is built once at startup and handed to NewTranslator.
type Vocabulary struct {
	Pending InternalStatus
	Running InternalStatus
	Success InternalStatus

	// Paused lists every internal paused sub-state with its public reason.
	Paused map[InternalStatus]PausedReason

	// MinError and MaxError bound the error range [MinError, MaxError).
	MinError InternalStatus
	MaxError InternalStatus

	// MinArtificialError starts the engine-defined block inside the 4xx range.
	// Codes in [MinArtificialError, 500) never pass through as raw HTTP statuses.
	MinArtificialError InternalStatus

	// Errors maps engine-defined error codes to their public reason.
	Errors map[InternalStatus]ErrorReason
}

// DefaultVocabulary returns the vocabulary used by the execution engine.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		Pending: InternalPending,
		Running: InternalRunning,
		Success: InternalSuccess,
		Paused: map[InternalStatus]PausedReason{
			InternalPausedByApp:       PausedUnknown,
			InternalWaitingToRetry:    PausedWaitingToRetry,
			InternalWaitingForNetwork: PausedWaitingForNetwork,
			InternalQueuedForWifi:     PausedQueuedForWifi,
		},
		MinError:           400,
		MaxError:           600,
		MinArtificialError: InternalMinArtificialError,
		Errors: map[InternalStatus]ErrorReason{
			InternalFileError:           ErrorFileError,
			InternalUnhandledHTTPCode:   ErrorUnhandledHTTPCode,
			InternalUnhandledRedirect:   ErrorUnhandledHTTPCode,
			InternalHTTPDataError:       ErrorHTTPDataError,
			InternalTooManyRedirects:    ErrorTooManyRedirects,
			InternalInsufficientSpace:   ErrorInsufficientSpace,
			InternalDeviceNotFoundError: ErrorDeviceNotFound,
			InternalCannotResume:        ErrorCannotResume,
			InternalFileAlreadyExists:   ErrorFileAlreadyExists,
		},
	}
}

// IsError reports whether code lies in the error range.
func (v *Vocabulary) IsError(code InternalStatus) bool {
	return code >= v.MinError && code < v.MaxError
}

// Known reports whether code belongs to the vocabulary at all.
func (v *Vocabulary) Known(code InternalStatus) bool {
	if code == v.Pending || code == v.Running || code == v.Success {
		return true
	}
	if _, ok := v.Paused[code]; ok {
		return true
	}
	return v.IsError(code)
}
