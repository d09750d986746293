package api

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"ops-insights-go/internal/ingest"
	"ops-insights-go/internal/service"
	"ops-insights-go/internal/snapshot"
	"ops-insights-go/internal/types"
)

// Handler exposes the dashboard domains over HTTP. Snapshots are read
// straight from storage; ingest endpoints run the full pipeline.
type Handler struct {
	Complaints *service.ComplaintService
	Chats      *service.ChatService
	Metrics    *service.MetricsService
	Repo       *snapshot.Repo
}

func NewHandler(complaints *service.ComplaintService, chats *service.ChatService, metrics *service.MetricsService, repo *snapshot.Repo) *Handler {
	return &Handler{Complaints: complaints, Chats: chats, Metrics: metrics, Repo: repo}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// recordsPayload is the JSON ingest body shared by complaints and chats.
type recordsPayload struct {
	Date    string            `json:"date" binding:"required"`
	Records []types.RawRecord `json:"records"`
}

// ingestBody accepts either a multipart CSV upload (file field "file",
// date field "date") or a JSON body with inline records.
func ingestBody(c *gin.Context) (date string, records []types.RawRecord, err error) {
	if file, ferr := c.FormFile("file"); ferr == nil {
		date = c.PostForm("date")
		records, err = parseUpload(file)
		return date, records, err
	}
	var body recordsPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		return "", nil, err
	}
	return body.Date, body.Records, nil
}

func parseUpload(file *multipart.FileHeader) ([]types.RawRecord, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ingest.ParseComplaintsCSV(f)
}

func (h *Handler) IngestComplaints(c *gin.Context) {
	date, records, err := ingestBody(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := ingest.ValidateDate(date); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if len(records) == 0 {
		fail(c, http.StatusBadRequest, "empty record array")
		return
	}

	snap, err := h.Complaints.IngestDaily(c.Request.Context(), date, records)
	switch {
	case errors.Is(err, service.ErrLocked):
		fail(c, http.StatusConflict, "another upload for this date is in progress")
	case errors.Is(err, service.ErrLockStorage):
		fail(c, http.StatusServiceUnavailable, "lock storage unavailable")
	case err != nil:
		fail(c, http.StatusInternalServerError, err.Error())
	default:
		ok(c, "complaints ingested", snap)
	}
}

func (h *Handler) RebuildComplaints(c *gin.Context) {
	date := c.Query("date")
	if err := ingest.ValidateDate(date); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := h.Complaints.RebuildFromHistory(c.Request.Context(), date)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, "complaints rebuilt", snap)
}

func (h *Handler) LatestComplaints(c *gin.Context) {
	ok(c, "latest complaints snapshot", h.Complaints.Latest(c.Request.Context()))
}

func (h *Handler) ComplaintsForDate(c *gin.Context) {
	date := c.Param("date")
	if err := ingest.ValidateDate(date); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	ok(c, "complaints snapshot", h.Complaints.ForDate(c.Request.Context(), date))
}

func (h *Handler) AnalyzeChats(c *gin.Context) {
	date, records, err := ingestBody(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := ingest.ValidateDate(date); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if len(records) == 0 {
		fail(c, http.StatusBadRequest, "empty record array")
		return
	}
	snap, err := h.Chats.AnalyzeDaily(c.Request.Context(), date, records)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, "chats analyzed", snap)
}

func (h *Handler) LatestChats(c *gin.Context) {
	ok(c, "latest chat snapshot", h.Chats.Latest(c.Request.Context()))
}

func (h *Handler) ChatsForDate(c *gin.Context) {
	date := c.Param("date")
	if err := ingest.ValidateDate(date); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	ok(c, "chat snapshot", h.Chats.ForDate(c.Request.Context(), date))
}

// IngestDelays takes an Excel delay report as a multipart upload. The
// column set in the sheet decides which report variant it is.
func (h *Handler) IngestDelays(c *gin.Context) {
	date := c.PostForm("date")
	if err := ingest.ValidateDate(date); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "missing file upload")
		return
	}
	f, err := file.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	defer f.Close()

	records, err := ingest.LoadDelayReport(f)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := h.Metrics.IngestDelays(c.Request.Context(), date, records)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, "delays ingested", snap)
}

func (h *Handler) LatestDelays(c *gin.Context) {
	ok(c, "latest delay snapshot", h.Metrics.LatestDelays(c.Request.Context()))
}

func (h *Handler) DelaysForDate(c *gin.Context) {
	date := c.Param("date")
	if err := ingest.ValidateDate(date); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	ok(c, "delay snapshot", h.Metrics.DelaysForDate(c.Request.Context(), date))
}

func (h *Handler) IngestPnL(c *gin.Context) {
	date := c.PostForm("date")
	if err := ingest.ValidateDate(date); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "missing file upload")
		return
	}
	f, err := file.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	defer f.Close()

	rows, err := ingest.LoadPnLSheet(f)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := h.Metrics.IngestPnL(c.Request.Context(), date, rows)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, "pnl ingested", snap)
}

func (h *Handler) LatestPnL(c *gin.Context) {
	ok(c, "latest pnl snapshot", h.Metrics.LatestPnL(c.Request.Context()))
}

func (h *Handler) PnLForDate(c *gin.Context) {
	date := c.Param("date")
	if err := ingest.ValidateDate(date); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	ok(c, "pnl snapshot", h.Metrics.PnLForDate(c.Request.Context(), date))
}

type npsPayload struct {
	Date   string `json:"date" binding:"required"`
	Scores []int  `json:"scores" binding:"required"`
}

func (h *Handler) IngestNPS(c *gin.Context) {
	var body npsPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := ingest.ValidateDate(body.Date); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := h.Metrics.IngestNPS(c.Request.Context(), body.Date, body.Scores)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, "nps ingested", snap)
}

func (h *Handler) LatestNPS(c *gin.Context) {
	ok(c, "latest nps snapshot", h.Metrics.LatestNPS(c.Request.Context()))
}

func (h *Handler) NPSForDate(c *gin.Context) {
	date := c.Param("date")
	if err := ingest.ValidateDate(date); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	ok(c, "nps snapshot", h.Metrics.NPSForDate(c.Request.Context(), date))
}

// ClearBlobs deletes every stored blob under the given prefix. The only
// deletion path the service exposes; snapshots otherwise only get
// replaced.
func (h *Handler) ClearBlobs(c *gin.Context) {
	prefix := c.Query("prefix")
	if prefix == "" {
		fail(c, http.StatusBadRequest, "missing prefix")
		return
	}
	deleted, err := h.Repo.ClearPrefix(c.Request.Context(), prefix)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, "blobs cleared", gin.H{"deleted": deleted})
}
