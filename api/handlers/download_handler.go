package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/dlqueue/internal/app"
	"github.com/yourusername/dlqueue/internal/domain"
	"go.uber.org/zap"
)

// DownloadHandler handles download-related HTTP requests
type DownloadHandler struct {
	queueMgr *app.QueueManager
	dirs     domain.StorageDirs
	logger   *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(queueMgr *app.QueueManager, dirs domain.StorageDirs, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		queueMgr: queueMgr,
		dirs:     dirs,
		logger:   logger,
	}
}

// AddDownloadRequest represents a request to add a download
type AddDownloadRequest struct {
	URI         string          `json:"uri" binding:"required"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	MimeType    string          `json:"mime_type,omitempty"`
	Headers     []domain.Header `json:"headers,omitempty"`

	// Either an explicit destination or a directory resolved by the server
	DestinationURI string `json:"destination_uri,omitempty"`
	DestinationDir string `json:"destination_dir,omitempty"` // files, public
	DirType        string `json:"dir_type,omitempty"`
	SubPath        string `json:"sub_path,omitempty"`

	ShowRunningNotification *bool `json:"show_running_notification,omitempty"`
	VisibleInDownloadsUI    *bool `json:"visible_in_downloads_ui,omitempty"`
	AllowedNetworkTypes     *int  `json:"allowed_network_types,omitempty"`
	AllowedOverRoaming      *bool `json:"allowed_over_roaming,omitempty"`
}

// IDsRequest carries the targets of a batch operation
type IDsRequest struct {
	IDs []int64 `json:"ids"`
}

// AddDownload handles POST /api/v1/downloads
func (h *DownloadHandler) AddDownload(c *gin.Context) {
	var body AddDownloadRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.buildRequest(&body)
	if err != nil {
		h.writeError(c, err)
		return
	}

	id, err := h.queueMgr.Enqueue(req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *DownloadHandler) buildRequest(body *AddDownloadRequest) (*domain.Request, error) {
	req, err := domain.NewRequest(body.URI)
	if err != nil {
		return nil, err
	}
	req.Title = body.Title
	req.Description = body.Description
	req.MimeType = body.MimeType

	for _, header := range body.Headers {
		if err := req.AddRequestHeader(header.Name, header.Value); err != nil {
			return nil, err
		}
	}

	switch body.DestinationDir {
	case "":
		if err := req.SetDestinationURI(body.DestinationURI); err != nil {
			return nil, err
		}
	case "files":
		if err := req.SetDestinationInExternalFilesDir(h.dirs, body.DirType, body.SubPath); err != nil {
			return nil, err
		}
	case "public":
		if err := req.SetDestinationInExternalPublicDir(h.dirs, body.DirType, body.SubPath); err != nil {
			return nil, err
		}
	default:
		return nil, &domain.ArgumentError{Field: "destination_dir", Reason: "must be files or public"}
	}

	if body.ShowRunningNotification != nil {
		req.ShowRunningNotification = *body.ShowRunningNotification
	}
	if body.VisibleInDownloadsUI != nil {
		req.VisibleInDownloadsUI = *body.VisibleInDownloadsUI
	}
	if body.AllowedNetworkTypes != nil {
		req.AllowedNetworkTypes = *body.AllowedNetworkTypes
	}
	if body.AllowedOverRoaming != nil {
		req.AllowedOverRoaming = *body.AllowedOverRoaming
	}
	return req, nil
}

// ListDownloads handles GET /api/v1/downloads
func (h *DownloadHandler) ListDownloads(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	cursor, err := h.queueMgr.Query(q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	views, err := cursor.All()
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

// parseQuery reads id, status, visible_only, order_by and order parameters.
// Repeated and comma-separated ids are both accepted.
func parseQuery(c *gin.Context) (*domain.Query, error) {
	q := domain.NewQuery()

	if rawIDs, ok := c.GetQueryArray("id"); ok {
		var ids []int64
		for _, raw := range rawIDs {
			for _, part := range strings.Split(raw, ",") {
				if part = strings.TrimSpace(part); part == "" {
					continue
				}
				id, err := strconv.ParseInt(part, 10, 64)
				if err != nil {
					return nil, &domain.ArgumentError{Field: "id", Reason: "invalid id: " + part}
				}
				ids = append(ids, id)
			}
		}
		q.FilterByID(ids...)
	}

	if status := c.Query("status"); status != "" {
		mask, err := domain.ParsePublicStatus(status)
		if err != nil {
			return nil, err
		}
		q.FilterByStatus(mask)
	}

	if visible := c.Query("visible_only"); visible != "" {
		value, err := strconv.ParseBool(visible)
		if err != nil {
			return nil, &domain.ArgumentError{Field: "visible_only", Reason: "must be a boolean"}
		}
		q.OnlyIncludeVisibleInDownloadsUI(value)
	}

	if orderBy := c.Query("order_by"); orderBy != "" {
		direction, err := domain.ParseSortDirection(c.DefaultQuery("order", "desc"))
		if err != nil {
			return nil, err
		}
		if err := q.OrderBy(orderBy, direction); err != nil {
			return nil, err
		}
	}

	return q, nil
}

// GetDownload handles GET /api/v1/downloads/:id
func (h *DownloadHandler) GetDownload(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	view, err := h.queueMgr.GetDownload(id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetFile handles GET /api/v1/downloads/:id/file
func (h *DownloadHandler) GetFile(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	view, err := h.queueMgr.GetDownload(id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	f, err := h.queueMgr.OpenCompletedFile(id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.writeError(c, err)
		return
	}

	if mediaType := view.MediaType(); mediaType != "" {
		c.Header("Content-Type", mediaType)
	}
	http.ServeContent(c.Writer, c.Request, filepath.Base(f.Name()), info.ModTime(), f)
}

// GetStats handles GET /api/v1/downloads/stats
func (h *DownloadHandler) GetStats(c *gin.Context) {
	stats, err := h.queueMgr.Stats()
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// PauseDownloads handles POST /api/v1/downloads/pause
func (h *DownloadHandler) PauseDownloads(c *gin.Context) {
	h.transition(c, "paused", h.queueMgr.Pause)
}

// ResumeDownloads handles POST /api/v1/downloads/resume
func (h *DownloadHandler) ResumeDownloads(c *gin.Context) {
	h.transition(c, "resumed", h.queueMgr.Resume)
}

// RestartDownloads handles POST /api/v1/downloads/restart
func (h *DownloadHandler) RestartDownloads(c *gin.Context) {
	h.transition(c, "restarted", h.queueMgr.Restart)
}

func (h *DownloadHandler) transition(c *gin.Context, done string, apply func(ids ...int64) error) {
	var body IDsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := apply(body.IDs...); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "downloads " + done, "ids": body.IDs})
}

// MarkDeleted handles POST /api/v1/downloads/delete
func (h *DownloadHandler) MarkDeleted(c *gin.Context) {
	h.batch(c, h.queueMgr.MarkDeleted)
}

// RemoveDownloads handles DELETE /api/v1/downloads
func (h *DownloadHandler) RemoveDownloads(c *gin.Context) {
	h.batch(c, h.queueMgr.Remove)
}

func (h *DownloadHandler) batch(c *gin.Context, apply func(ids ...int64) (int64, error)) {
	var body IDsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := apply(body.IDs...)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"affected": n})
}

func (h *DownloadHandler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid download id"})
		return 0, false
	}
	return id, true
}

// writeError maps domain errors onto HTTP statuses
func (h *DownloadHandler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	}

	_ = c.Error(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
