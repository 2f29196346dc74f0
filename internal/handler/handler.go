// Package handler exposes the dashboard and portaria operations over HTTP.
package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"edutrack/internal/alert"
	"edutrack/internal/auth"
	"edutrack/internal/bulletin"
	"edutrack/internal/catalog"
	"edutrack/internal/checkin"
	"edutrack/internal/kiosk"
	"edutrack/internal/media"
	"edutrack/internal/metrics"
	"edutrack/internal/occupancy"
	"edutrack/internal/roster"
	"edutrack/internal/schedule"
)

// TokenConfig is what the handler needs to mint terminal/operator tokens.
type TokenConfig struct {
	Issuer     string
	SigningKey string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Handler struct {
	roster      *roster.Store
	terminal    *checkin.Terminal
	broadcaster *alert.Broadcaster
	sender      *alert.Sender
	grid        *schedule.Grid
	board       *bulletin.Board
	catalog     catalog.Provider
	kiosk       *kiosk.Controller
	photos      media.PhotoStore // nil when not configured
	enroll      func(c *gin.Context, st roster.Student)
	tokens      TokenConfig
	now         func() time.Time
}

// Options wires a Handler. Enroll, Photos and Now are optional.
type Options struct {
	Roster      *roster.Store
	Terminal    *checkin.Terminal
	Broadcaster *alert.Broadcaster
	Sender      *alert.Sender
	Grid        *schedule.Grid
	Board       *bulletin.Board
	Catalog     catalog.Provider
	Kiosk       *kiosk.Controller
	Photos      media.PhotoStore
	// Enroll is called after a student is created, to register the face.
	Enroll func(c *gin.Context, st roster.Student)
	Tokens TokenConfig
	Now    func() time.Time
}

func New(opts Options) *Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{
		roster:      opts.Roster,
		terminal:    opts.Terminal,
		broadcaster: opts.Broadcaster,
		sender:      opts.Sender,
		grid:        opts.Grid,
		board:       opts.Board,
		catalog:     opts.Catalog,
		kiosk:       opts.Kiosk,
		photos:      opts.Photos,
		enroll:      opts.Enroll,
		tokens:      opts.Tokens,
		now:         opts.Now,
	}
}

// Register mounts every route on the router.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/v1/terminals/register", h.RegisterTerminal)
	r.POST("/v1/operators/register", h.RegisterOperator)

	bearer := auth.Bearer(h.tokens.SigningKey, h.tokens.Issuer)

	gate := r.Group("/v1/portaria", bearer,
		auth.Require(auth.RoleTerminal, auth.RoleSecurity, auth.RoleAdmin))
	{
		gate.GET("", h.TerminalState)
		gate.POST("/method", h.SetMethod)
		gate.POST("/scan", h.Scan)
		gate.POST("/cancel", h.CancelScan)
		gate.POST("/retry", h.RetryScan)
		gate.POST("/fallback", h.FallbackManual)
		gate.DELETE("/journal", h.ClearJournal)
	}

	view := r.Group("/v1", bearer)
	{
		view.GET("/dashboard", h.Dashboard)
		view.GET("/students", h.ListStudents)
		view.GET("/students/:id", h.GetStudent)
		view.GET("/classrooms", h.Classrooms)
		view.GET("/announcements", h.ListAnnouncements)
		view.GET("/schedule/:classId", h.ScheduleByClass)
		view.GET("/alerts/current", h.CurrentAlert)
		view.GET("/kiosk", h.KioskState)
	}

	admin := r.Group("/v1", bearer, auth.Require(auth.RoleAdmin))
	{
		admin.POST("/students", h.CreateStudent)
		admin.POST("/students/photo", h.UploadPhoto)
		admin.PATCH("/students/:id/status", h.UpdateStudentStatus)

		admin.GET("/management/classes", h.ManagementClasses)
		admin.GET("/management/teachers", h.ManagementTeachers)
		admin.GET("/management/rooms", h.ManagementRooms)

		admin.PUT("/schedule/:classId/:day/:slot", h.SetLesson)
		admin.DELETE("/schedule/:classId/:day/:slot", h.RemoveLesson)

		admin.POST("/announcements", h.PostAnnouncement)
		admin.DELETE("/announcements/:id", h.RemoveAnnouncement)

		admin.POST("/alerts", h.SendAlert)
		admin.DELETE("/alerts/current", h.DismissAlert)

		admin.POST("/kiosk/tv", h.EnterTV)
		admin.DELETE("/kiosk/tv", h.ExitTV)
		admin.POST("/kiosk/theme", h.ToggleTheme)
	}
}

// ---------- Tokens ----------

func (h *Handler) RegisterTerminal(c *gin.Context) {
	var req struct {
		TerminalID string `json:"terminal_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.issueToken(c, req.TerminalID, auth.RoleTerminal)
}

func (h *Handler) RegisterOperator(c *gin.Context) {
	var req struct {
		Name string    `json:"name" binding:"required"`
		Role auth.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Role.Valid() || req.Role == auth.RoleTerminal {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}
	h.issueToken(c, req.Name, req.Role)
}

func (h *Handler) issueToken(c *gin.Context, subject string, role auth.Role) {
	tokens, err := auth.Issue(subject, role, h.tokens.Issuer, h.tokens.SigningKey,
		h.tokens.AccessTTL, h.tokens.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

// ---------- Portaria ----------

func (h *Handler) TerminalState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state":   h.terminal.State(),
		"method":  h.terminal.Method(),
		"matched": h.terminal.Matched(),
		"error":   h.terminal.ErrorMessage(),
		"journal": h.terminal.Journal(),
	})
}

func (h *Handler) SetMethod(c *gin.Context) {
	var req struct {
		Method checkin.Method `json:"method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.terminal.SetMethod(req.Method); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"method": req.Method, "state": h.terminal.State()})
}

func (h *Handler) Scan(c *gin.Context) {
	var req struct {
		Code     string `json:"code"`
		ImageURL string `json:"image_url"`
	}
	_ = c.ShouldBindJSON(&req)

	err := h.terminal.Start(checkin.Sample{Code: req.Code, ImageURL: req.ImageURL})
	if err != nil {
		if errors.Is(err, checkin.ErrNotIdle) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"state": h.terminal.State(), "error": h.terminal.ErrorMessage()})
}

func (h *Handler) CancelScan(c *gin.Context) {
	h.terminal.Cancel()
	c.JSON(http.StatusOK, gin.H{"state": h.terminal.State()})
}

func (h *Handler) RetryScan(c *gin.Context) {
	var req struct {
		Code     string `json:"code"`
		ImageURL string `json:"image_url"`
	}
	_ = c.ShouldBindJSON(&req)
	if err := h.terminal.Retry(checkin.Sample{Code: req.Code, ImageURL: req.ImageURL}); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"state": h.terminal.State(), "error": h.terminal.ErrorMessage()})
}

func (h *Handler) FallbackManual(c *gin.Context) {
	h.terminal.FallbackToManual()
	c.JSON(http.StatusOK, gin.H{"state": h.terminal.State(), "method": h.terminal.Method()})
}

func (h *Handler) ClearJournal(c *gin.Context) {
	h.terminal.ClearJournal()
	c.Status(http.StatusNoContent)
}

// ---------- Students ----------

func (h *Handler) ListStudents(c *gin.Context) {
	students := h.roster.Search(c.Query("q"))
	if students == nil {
		students = []roster.Student{}
	}
	c.JSON(http.StatusOK, students)
}

func (h *Handler) GetStudent(c *gin.Context) {
	st, err := h.roster.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) CreateStudent(c *gin.Context) {
	var req roster.Student
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := h.roster.Add(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.enroll != nil {
		h.enroll(c, st)
	}
	c.JSON(http.StatusCreated, st)
}

// UploadPhoto stores the admission photo and returns its URL for the
// subsequent student creation call. Accepts multipart "photo" or JSON
// {"data": "<base64 data URL>"}.
func (h *Handler) UploadPhoto(c *gin.Context) {
	if h.photos == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "photo storage not configured"})
		return
	}

	var photo media.Photo
	var err error
	if file, header, ferr := c.Request.FormFile("photo"); ferr == nil {
		defer file.Close()
		data, rerr := io.ReadAll(file)
		if rerr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
			return
		}
		photo, err = h.photos.UploadBytes(c.Request.Context(), data, header.Filename)
	} else {
		var body struct {
			Data string `json:"data" binding:"required"`
		}
		if berr := c.ShouldBindJSON(&body); berr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provide a photo file or {\"data\": \"<base64 data URL>\"}"})
			return
		}
		photo, err = h.photos.UploadBase64(c.Request.Context(), body.Data)
	}
	if err != nil {
		log.Printf("photo upload failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "photo upload failed"})
		return
	}
	c.JSON(http.StatusOK, photo)
}

func (h *Handler) UpdateStudentStatus(c *gin.Context) {
	var req struct {
		Status     roster.Status `json:"status" binding:"required"`
		AccessTime string        `json:"accessTime"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.AccessTime == "" {
		req.AccessTime = h.now().Format("15:04")
	}
	err := h.roster.UpdateStatus(c.Param("id"), req.Status, req.AccessTime)
	switch {
	case errors.Is(err, roster.ErrNotFound):
		// Unknown ids never break the update pipeline; log and move on.
		log.Printf("status update for unknown student %s ignored", c.Param("id"))
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		st, _ := h.roster.Get(c.Param("id"))
		c.JSON(http.StatusOK, st)
	}
}

// ---------- Rooms & dashboard ----------

type roomView struct {
	catalog.Classroom
	CurrentCount  int     `json:"currentCount"`
	OccupancyRate float64 `json:"occupancyRate"`
	High          bool    `json:"high"`
}

func (h *Handler) roomViews() []roomView {
	students := h.roster.List()
	rooms := h.catalog.Classrooms()
	out := make([]roomView, 0, len(rooms))
	for _, room := range rooms {
		count := occupancy.Count(students, room.ID)
		rate := occupancy.Rate(count, room.Capacity)
		metrics.RoomOccupancy.WithLabelValues(room.ID).Set(float64(count))
		out = append(out, roomView{
			Classroom:     room,
			CurrentCount:  count,
			OccupancyRate: rate,
			High:          occupancy.High(rate),
		})
	}
	return out
}

func (h *Handler) Classrooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.roomViews())
}

func (h *Handler) Dashboard(c *gin.Context) {
	now := h.now()
	birthdays := h.roster.BirthdaysOn(now.Format("01-02"))
	if birthdays == nil {
		birthdays = []roster.Student{}
	}
	c.JSON(http.StatusOK, gin.H{
		"statusCounts":  h.roster.CountByStatus(),
		"rosterSize":    h.roster.Len(),
		"rooms":         h.roomViews(),
		"birthdays":     birthdays,
		"menu":          h.catalog.Menu(),
		"announcements": h.board.List(),
		"weekly":        h.catalog.WeeklyAttendance(),
		"alert":         h.broadcaster.Current(),
		"kioskMode":     h.kiosk.Mode(),
		"kioskTheme":    h.kiosk.Theme(),
	})
}

// ---------- Management records ----------

func (h *Handler) ManagementClasses(c *gin.Context)  { c.JSON(http.StatusOK, h.catalog.Classes()) }
func (h *Handler) ManagementTeachers(c *gin.Context) { c.JSON(http.StatusOK, h.catalog.Teachers()) }
func (h *Handler) ManagementRooms(c *gin.Context)    { c.JSON(http.StatusOK, h.catalog.Rooms()) }

// ---------- Schedule ----------

func gridKey(c *gin.Context) (string, int, int, bool) {
	classID := c.Param("classId")
	day, err1 := strconv.Atoi(c.Param("day"))
	slot, err2 := strconv.Atoi(c.Param("slot"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day and slot must be integers"})
		return "", 0, 0, false
	}
	return classID, day, slot, true
}

func (h *Handler) SetLesson(c *gin.Context) {
	classID, day, slot, ok := gridKey(c)
	if !ok {
		return
	}
	var entry schedule.Entry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.grid.Set(classID, day, slot, entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, schedule.Slot{ClassID: classID, Day: day, Slot: slot, Entry: entry})
}

func (h *Handler) RemoveLesson(c *gin.Context) {
	classID, day, slot, ok := gridKey(c)
	if !ok {
		return
	}
	if err := h.grid.Remove(classID, day, slot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ScheduleByClass(c *gin.Context) {
	lessons := h.grid.ByClass(c.Param("classId"))
	if lessons == nil {
		lessons = []schedule.Slot{}
	}
	c.JSON(http.StatusOK, gin.H{"lessons": lessons, "slotRanges": schedule.SlotRanges})
}

// ---------- Announcements ----------

func (h *Handler) ListAnnouncements(c *gin.Context) {
	c.JSON(http.StatusOK, h.board.List())
}

func (h *Handler) PostAnnouncement(c *gin.Context) {
	var req bulletin.Announcement
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	posted, err := h.board.Post(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, posted)
}

func (h *Handler) RemoveAnnouncement(c *gin.Context) {
	if err := h.board.Remove(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------- Emergency alerts ----------

// SendAlert runs the full send pipeline: progress ticks, then dispatch to
// the banner and the notification queue. The response reports the final
// progress curve so the form can replay it.
func (h *Handler) SendAlert(c *gin.Context) {
	var req alert.Alert
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var progress []int
	if err := h.sender.Send(c.Request.Context(), req, func(pct int) {
		progress = append(progress, pct)
	}); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alert": h.broadcaster.Current(), "progress": progress})
}

func (h *Handler) CurrentAlert(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alert": h.broadcaster.Current()})
}

func (h *Handler) DismissAlert(c *gin.Context) {
	h.broadcaster.Dismiss()
	c.Status(http.StatusNoContent)
}

// ---------- Kiosk ----------

func (h *Handler) KioskState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"mode": h.kiosk.Mode(), "theme": h.kiosk.Theme()})
}

func (h *Handler) EnterTV(c *gin.Context) {
	if err := h.kiosk.EnterTV(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": h.kiosk.Mode()})
}

func (h *Handler) ExitTV(c *gin.Context) {
	if err := h.kiosk.ExitTV(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": h.kiosk.Mode()})
}

func (h *Handler) ToggleTheme(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"theme": h.kiosk.ToggleTheme()})
}
