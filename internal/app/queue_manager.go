package app

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/dlqueue/internal/domain"
)

// QueueManager is the control surface over persisted downloads. It holds no
// locks across calls; the store serializes concurrent mutation.
type QueueManager struct {
	store      domain.DownloadStore
	translator *domain.Translator
	owner      string
	logger     *zap.Logger
	now        func() time.Time

	mu        sync.RWMutex
	accessAll bool
}

// NewQueueManager creates a new queue manager acting on behalf of owner
func NewQueueManager(
	store domain.DownloadStore,
	translator *domain.Translator,
	owner string,
	logger *zap.Logger,
) *QueueManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueManager{
		store:      store,
		translator: translator,
		owner:      owner,
		logger:     logger,
		now:        time.Now,
	}
}

// SetAccessAllDownloads switches between the owner's downloads and every
// download in the store. Seeing all downloads is a privileged mode.
func (qm *QueueManager) SetAccessAllDownloads(accessAll bool) {
	qm.mu.Lock()
	qm.accessAll = accessAll
	qm.mu.Unlock()

	qm.logger.Info("scope_changed", zap.Bool("access_all_downloads", accessAll))
}

// AccessAllDownloads reports the current scope
func (qm *QueueManager) AccessAllDownloads() bool {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	return qm.accessAll
}

// scope returns the base selection every operation is restricted to
func (qm *QueueManager) scope() domain.Selection {
	if qm.AccessAllDownloads() {
		return domain.Selection{}
	}
	return domain.Selection{Clauses: []domain.Clause{domain.OwnerClause(qm.owner)}}
}

// Enqueue persists a request and returns the new download id
func (qm *QueueManager) Enqueue(req *domain.Request) (int64, error) {
	if req == nil {
		return 0, &domain.ArgumentError{Field: "request", Reason: "request cannot be nil"}
	}

	rec := req.Record(qm.translator.Vocabulary(), qm.owner, qm.now())
	if err := qm.store.Insert(rec); err != nil {
		return 0, fmt.Errorf("failed to create download: %w", err)
	}

	qm.logger.Info("download_enqueued",
		zap.Int64("id", rec.ID),
		zap.String("uri", rec.URI),
		zap.Int("destination", int(rec.Destination)),
		zap.Int("headers", len(rec.Headers)))

	return rec.ID, nil
}

// Query runs q within the current scope. The returned cursor is empty, not
// an error, when nothing matches.
func (qm *QueueManager) Query(q *domain.Query) (*domain.Cursor, error) {
	if q == nil {
		q = domain.NewQuery()
	}
	sel, orderBy := q.Compile(qm.translator)

	rows, err := qm.store.Select(qm.scope().And(sel.Clauses...), orderBy)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	return domain.NewCursor(rows, qm.translator), nil
}

// GetDownload returns the view of a single download
func (qm *QueueManager) GetDownload(id int64) (*domain.RecordView, error) {
	rec, err := qm.find(id)
	if err != nil {
		return nil, err
	}
	return domain.NewRecordView(rec, qm.translator)
}

// find loads a download that is in scope and not soft-deleted
func (qm *QueueManager) find(id int64) (*domain.DownloadRecord, error) {
	rec, err := qm.store.First(qm.targets(id).And(domain.NotDeletedClause()))
	if err != nil {
		return nil, fmt.Errorf("failed to get download: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("download %d: %w", id, domain.ErrNotFound)
	}
	return rec, nil
}

// Stats counts visible downloads by public status
func (qm *QueueManager) Stats() (*domain.DownloadStats, error) {
	base := qm.scope().And(domain.NotDeletedClause())
	stats := &domain.DownloadStats{}

	counters := map[domain.PublicStatus]*int64{
		domain.StatusPending:    &stats.Pending,
		domain.StatusRunning:    &stats.Running,
		domain.StatusPaused:     &stats.Paused,
		domain.StatusSuccessful: &stats.Successful,
		domain.StatusFailed:     &stats.Failed,
	}
	for status, counter := range counters {
		n, err := qm.store.Count(base.And(domain.StatusClause(qm.translator.Spans(status))))
		if err != nil {
			return nil, fmt.Errorf("failed to count %s downloads: %w", status, err)
		}
		*counter = n
		stats.Total += n
	}

	return stats, nil
}

// Pause asks the engine to halt the given downloads. Every targeted download
// must be PENDING or RUNNING.
func (qm *QueueManager) Pause(ids ...int64) error {
	return qm.transition("pause", ids,
		[]domain.PublicStatus{domain.StatusPending, domain.StatusRunning},
		map[string]interface{}{
			domain.ColControl:     int(domain.ControlPaused),
			domain.ColNoIntegrity: true,
		})
}

// Resume makes paused downloads runnable again. Every targeted download must
// be PAUSED.
func (qm *QueueManager) Resume(ids ...int64) error {
	return qm.transition("resume", ids,
		[]domain.PublicStatus{domain.StatusPaused},
		map[string]interface{}{
			domain.ColStatus:  int(qm.translator.Vocabulary().Pending),
			domain.ColControl: int(domain.ControlRun),
		})
}

// Restart reruns finished downloads from scratch. Every targeted download
// must be SUCCESSFUL or FAILED.
func (qm *QueueManager) Restart(ids ...int64) error {
	return qm.transition("restart", ids,
		[]domain.PublicStatus{domain.StatusSuccessful, domain.StatusFailed},
		map[string]interface{}{
			domain.ColCurrentBytes: 0,
			domain.ColTotalBytes:   domain.UnknownTotalBytes,
			domain.ColLocalPath:    nil,
			domain.ColStatus:       int(qm.translator.Vocabulary().Pending),
		})
}

// transition applies values to the targeted downloads whose public status
// is one of allowed. The precondition check and the guarded update run in
// one transaction, so either every targeted download changes or none does.
func (qm *QueueManager) transition(op string, ids []int64, allowed []domain.PublicStatus, values map[string]interface{}) error {
	if len(ids) == 0 {
		return &domain.ArgumentError{Field: "ids", Reason: "input param 'ids' can't be empty"}
	}

	var spans []domain.StatusSpan
	for _, status := range allowed {
		spans = append(spans, qm.translator.Spans(status)...)
	}
	guard := domain.StatusClause(spans)
	targets := qm.targets(ids...).And(domain.NotDeletedClause())

	values[domain.ColLastModified] = domain.NowMillis(qm.now())

	var affected int64
	err := qm.store.Transaction(func(store domain.DownloadStore) error {
		offender, err := store.First(targets.And(domain.NotClause(guard)))
		if err != nil {
			return fmt.Errorf("failed to check downloads before %s: %w", op, err)
		}
		if offender != nil {
			status, err := qm.translator.PublicStatus(offender.Status)
			if err != nil {
				return fmt.Errorf("download %d: %w", offender.ID, err)
			}
			return &domain.StateError{Op: op, ID: offender.ID, Status: status}
		}

		// The guard stays on the update itself: a row the engine moved out of
		// an allowed status after the check is left alone.
		n, err := store.Update(targets.And(guard), values)
		if err != nil {
			return fmt.Errorf("failed to %s downloads: %w", op, err)
		}
		affected = n
		return nil
	})
	if err != nil {
		var stateErr *domain.StateError
		if errors.As(err, &stateErr) {
			qm.logger.Warn("transition_rejected",
				zap.String("op", op),
				zap.Int64("id", stateErr.ID),
				zap.String("status", stateErr.Status.String()))
		} else {
			qm.logger.Error("transition_failed", zap.String("op", op), zap.Error(err))
		}
		return err
	}

	qm.logger.Info("downloads_"+op,
		zap.Int64s("ids", ids),
		zap.Int64("affected", affected))
	return nil
}

// Remove hard-deletes downloads, soft-deleted ones included
func (qm *QueueManager) Remove(ids ...int64) (int64, error) {
	if len(ids) == 0 {
		return 0, &domain.ArgumentError{Field: "ids", Reason: "input param 'ids' can't be empty"}
	}

	n, err := qm.store.Delete(qm.targets(ids...))
	if err != nil {
		return 0, fmt.Errorf("failed to remove downloads: %w", err)
	}

	qm.logger.Info("downloads_removed", zap.Int64s("ids", ids), zap.Int64("affected", n))
	return n, nil
}

// MarkDeleted soft-deletes downloads so they drop out of every query
func (qm *QueueManager) MarkDeleted(ids ...int64) (int64, error) {
	if len(ids) == 0 {
		return 0, &domain.ArgumentError{Field: "ids", Reason: "input param 'ids' can't be empty"}
	}

	n, err := qm.store.Update(qm.targets(ids...), map[string]interface{}{
		domain.ColDeleted: true,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to mark downloads deleted: %w", err)
	}

	qm.logger.Info("downloads_marked_deleted", zap.Int64s("ids", ids), zap.Int64("affected", n))
	return n, nil
}

// OpenCompletedFile opens the local file of a successful download read-only
func (qm *QueueManager) OpenCompletedFile(id int64) (*os.File, error) {
	rec, err := qm.find(id)
	if err != nil {
		return nil, err
	}
	status, err := qm.translator.PublicStatus(rec.Status)
	if err != nil {
		return nil, fmt.Errorf("download %d: %w", id, err)
	}
	if status != domain.StatusSuccessful {
		return nil, fmt.Errorf("download %d has not completed: %w", id, domain.ErrNotFound)
	}
	if rec.LocalPath == nil || *rec.LocalPath == "" {
		return nil, fmt.Errorf("download %d has no local file: %w", id, domain.ErrNotFound)
	}

	f, err := os.Open(*rec.LocalPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("download %d file missing: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open download %d: %w", id, err)
	}
	return f, nil
}

// targets selects the given ids inside the current scope
func (qm *QueueManager) targets(ids ...int64) domain.Selection {
	return qm.scope().And(domain.IDClause(ids))
}
