package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"edutrack/internal/alert"
	"edutrack/internal/bulletin"
	"edutrack/internal/catalog"
	"edutrack/internal/checkin"
	"edutrack/internal/config"
	"edutrack/internal/facegate"
	"edutrack/internal/handler"
	"edutrack/internal/httpmiddleware"
	"edutrack/internal/kiosk"
	"edutrack/internal/media"
	"edutrack/internal/notify"
	"edutrack/internal/roster"
	"edutrack/internal/schedule"
	"edutrack/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var q notify.Queue
	if cfg.QueueBackend == "memory" {
		q = notify.NewInMemory(64)
	} else {
		q = notify.NewRedisQueue(redisClient.Client, "edutrack:notifications")
	}

	face := facegate.New(cfg.FaceServiceURL, cfg.FaceSkip)
	if !cfg.FaceSkip {
		if err := face.Health(context.Background()); err != nil {
			log.Printf("WARNING: Face service not available: %v", err)
		} else {
			log.Println("Face service connected")
		}
	}

	// Photo storage (nil when not configured; student creation then
	// requires the caller to supply a photo URL directly).
	var photos media.PhotoStore
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		photos = media.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	} else {
		log.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
	}

	students := roster.NewStore(roster.Seed())

	cutoff, err := checkin.ParseCutoff(cfg.LateCutoff)
	if err != nil {
		log.Printf("invalid LATE_CUTOFF %q, using 08:15: %v", cfg.LateCutoff, err)
		cutoff = checkin.Cutoff{Hour: 8, Minute: 15}
	}

	// The facial method goes through the recognition service unless the
	// terminal runs in demo mode, where a random roster pick stands in.
	var facial checkin.Matcher
	if cfg.CameraSkip {
		facial = checkin.NewRandomMatcher(0)
	} else {
		facial = &checkin.FaceMatcher{Gallery: face}
	}

	ctx := context.Background()
	terminal := checkin.NewTerminal(checkin.Options{
		Roster: students,
		Matchers: map[checkin.Method]checkin.Matcher{
			checkin.MethodFacial: facial,
			checkin.MethodQR:     checkin.IDMatcher{},
			checkin.MethodManual: checkin.IDMatcher{},
		},
		Camera:      &checkin.MockCamera{},
		Cutoff:      cutoff,
		ScanDelay:   cfg.ScanDelay,
		SuccessHold: cfg.SuccessHold,
		Notify: func(n checkin.Notification) {
			err := notify.PublishGuardianPing(ctx, q, notify.GuardianPing{
				StudentID:   n.StudentID,
				StudentName: n.StudentName,
				Guardian:    n.Guardian,
				Contact:     n.Contact,
				Status:      n.Status,
				Time:        n.Time,
			})
			if err != nil {
				log.Printf("guardian ping publish failed: %v", err)
			}
		},
	})

	broadcaster := alert.NewBroadcaster(cfg.AlertTTL)
	sender := alert.NewSender(cfg.SendTicks, cfg.TickEvery, broadcaster,
		alert.DispatcherFunc(func(ctx context.Context, a alert.Alert) error {
			body, err := json.Marshal(a)
			if err != nil {
				return err
			}
			log.Printf("alert %s dispatched to %s: %s", a.Type, a.Target, a.Title)
			return q.Publish(ctx, notify.Message{Type: "alert", Body: body})
		}))

	grid := schedule.NewGrid()
	seedSchedule(grid)

	board := bulletin.NewBoard(bulletin.Seed())
	kioskCtl := kiosk.NewController(&kiosk.HeadlessPresenter{})

	h := handler.New(handler.Options{
		Roster:      students,
		Terminal:    terminal,
		Broadcaster: broadcaster,
		Sender:      sender,
		Grid:        grid,
		Board:       board,
		Catalog:     catalog.Static{},
		Kiosk:       kioskCtl,
		Photos:      photos,
		Enroll: func(c *gin.Context, st roster.Student) {
			if err := face.Enroll(c.Request.Context(), st.ID, st.Name, st.PhotoURL); err != nil {
				log.Printf("face enroll for %s failed: %v", st.ID, err)
			}
		},
		Tokens: handler.TokenConfig{
			Issuer:     cfg.JWTIssuer,
			SigningKey: cfg.JWTSigningKey,
			AccessTTL:  cfg.AccessTTL,
			RefreshTTL: cfg.RefreshTTL,
		},
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		status := http.StatusOK
		if cfg.QueueBackend != "memory" && !redisHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy})
	})

	h.Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// seedSchedule fills the demo timetable for class 3A's week.
func seedSchedule(g *schedule.Grid) {
	lessons := []schedule.Slot{
		{ClassID: "3A", Day: 1, Slot: 0, Entry: schedule.Entry{Subject: "Matemática", TeacherID: "prof1", RoomID: "301"}},
		{ClassID: "3A", Day: 1, Slot: 1, Entry: schedule.Entry{Subject: "Português", TeacherID: "prof2", RoomID: "301"}},
		{ClassID: "3A", Day: 2, Slot: 0, Entry: schedule.Entry{Subject: "Ciências", TeacherID: "prof3", RoomID: "LAB1"}},
		{ClassID: "3A", Day: 3, Slot: 2, Entry: schedule.Entry{Subject: "História", TeacherID: "prof2", RoomID: "301"}},
		{ClassID: "3A", Day: 5, Slot: 3, Entry: schedule.Entry{Subject: "Educação Física", TeacherID: "prof1", RoomID: "AUD"}},
	}
	for _, l := range lessons {
		if err := g.Set(l.ClassID, l.Day, l.Slot, l.Entry); err != nil {
			log.Printf("seed schedule %s d%d s%d: %v", l.ClassID, l.Day, l.Slot, err)
		}
	}
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
