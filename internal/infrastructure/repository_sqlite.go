package infrastructure

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/dlqueue/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const busyTimeoutMillis = 5000

// SQLiteDownloadRepository implements domain.DownloadStore using SQLite
type SQLiteDownloadRepository struct {
	db *gorm.DB
}

// NewSQLiteDownloadRepository creates a new SQLite repository. File
// databases run in WAL mode with a busy timeout and a connection pool, so an
// open cursor does not block writers. In-memory databases are private to a
// connection and are pinned to one.
func NewSQLiteDownloadRepository(dbPath string) (*SQLiteDownloadRepository, error) {
	memory := isMemoryDSN(dbPath)
	dsn := dbPath
	if !memory {
		dsn = withPragmas(dbPath)
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if memory {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&domain.DownloadRecord{}, &domain.RequestHeader{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteDownloadRepository{db: db}, nil
}

func isMemoryDSN(dbPath string) bool {
	return dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")
}

// withPragmas appends the driver options for a shared file database.
// Transactions take the write lock up front so a read-then-write
// transaction waits on busy_timeout instead of failing.
func withPragmas(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_journal_mode=WAL&_busy_timeout=" + strconv.Itoa(busyTimeoutMillis) + "&_txlock=immediate"
}

// where applies a selection to a query on the downloads table
func (r *SQLiteDownloadRepository) where(sel domain.Selection) *gorm.DB {
	query := r.db.Model(&domain.DownloadRecord{})
	if where, args := sel.Where(); where != "" {
		query = query.Where(where, args...)
	}
	return query
}

// Insert stores a new download together with its headers
func (r *SQLiteDownloadRepository) Insert(rec *domain.DownloadRecord) error {
	return r.db.Create(rec).Error
}

// Select streams the downloads matching sel. The rows hold a connection
// until closed.
func (r *SQLiteDownloadRepository) Select(sel domain.Selection, orderBy string) (domain.RecordRows, error) {
	query := r.where(sel)
	if orderBy != "" {
		query = query.Order(orderBy)
	}

	rows, err := query.Rows()
	if err != nil {
		return nil, err
	}
	return &sqliteRecordRows{db: r.db, rows: rows}, nil
}

// First returns the first download matching sel, or nil
func (r *SQLiteDownloadRepository) First(sel domain.Selection) (*domain.DownloadRecord, error) {
	var rec domain.DownloadRecord
	err := r.where(sel).Order(domain.ColID + " ASC").Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Count returns the number of downloads matching sel
func (r *SQLiteDownloadRepository) Count(sel domain.Selection) (int64, error) {
	var count int64
	err := r.where(sel).Count(&count).Error
	return count, err
}

// Update applies values to every download matching sel in one statement
func (r *SQLiteDownloadRepository) Update(sel domain.Selection, values map[string]interface{}) (int64, error) {
	if len(sel.Clauses) == 0 {
		return 0, fmt.Errorf("refusing to update without a selection")
	}
	result := r.where(sel).Updates(values)
	return result.RowsAffected, result.Error
}

// Delete removes the downloads matching sel and their headers
func (r *SQLiteDownloadRepository) Delete(sel domain.Selection) (int64, error) {
	if len(sel.Clauses) == 0 {
		return 0, fmt.Errorf("refusing to delete without a selection")
	}

	var affected int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		where, args := sel.Where()
		ids := tx.Model(&domain.DownloadRecord{}).Select(domain.ColID).Where(where, args...)
		if err := tx.Where("download_id IN (?)", ids).Delete(&domain.RequestHeader{}).Error; err != nil {
			return err
		}

		result := tx.Where(where, args...).Delete(&domain.DownloadRecord{})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	return affected, err
}

// Transaction runs fn inside a database transaction
func (r *SQLiteDownloadRepository) Transaction(fn func(store domain.DownloadStore) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&SQLiteDownloadRepository{db: tx})
	})
}

// Headers returns the serialized request headers of a download in order
func (r *SQLiteDownloadRepository) Headers(id int64) ([]domain.RequestHeader, error) {
	var headers []domain.RequestHeader
	err := r.db.Where("download_id = ?", id).Order("position ASC").Find(&headers).Error
	return headers, err
}

// FindByID loads a single download with its headers, regardless of scope
// and soft-delete state.
func (r *SQLiteDownloadRepository) FindByID(id int64) (*domain.DownloadRecord, error) {
	var rec domain.DownloadRecord
	err := r.db.Preload("Headers", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&rec, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ============================================================================
// Execution engine write API
// ============================================================================

// UpdateProgress records transfer progress for a running download
func (r *SQLiteDownloadRepository) UpdateProgress(id, currentBytes, totalBytes int64, lastModified int64) error {
	return r.db.Model(&domain.DownloadRecord{}).Where("id = ?", id).Updates(map[string]interface{}{
		domain.ColCurrentBytes: currentBytes,
		domain.ColTotalBytes:   totalBytes,
		domain.ColLastModified: lastModified,
	}).Error
}

// UpdateStatus records a new internal status, and the local file when the
// engine has materialized one.
func (r *SQLiteDownloadRepository) UpdateStatus(id int64, status domain.InternalStatus, localPath string, lastModified int64) error {
	values := map[string]interface{}{
		domain.ColStatus:       int(status),
		domain.ColLastModified: lastModified,
	}
	if localPath != "" {
		values[domain.ColLocalPath] = localPath
	}
	return r.db.Model(&domain.DownloadRecord{}).Where("id = ?", id).Updates(values).Error
}

// Close closes the database connection
func (r *SQLiteDownloadRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the database connection
func (r *SQLiteDownloadRepository) Ping() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// sqliteRecordRows adapts *sql.Rows to domain.RecordRows
type sqliteRecordRows struct {
	db   *gorm.DB
	rows *sql.Rows
}

func (s *sqliteRecordRows) Next() bool { return s.rows.Next() }

func (s *sqliteRecordRows) Scan(rec *domain.DownloadRecord) error {
	return s.db.ScanRows(s.rows, rec)
}

func (s *sqliteRecordRows) Err() error { return s.rows.Err() }

func (s *sqliteRecordRows) Close() error { return s.rows.Close() }
