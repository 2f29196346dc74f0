// Package metrics exposes the service's prometheus collectors. Everything
// registers on the default registry and is served by /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckinsTotal counts completed gate check-ins by method and the
	// status the student ended up with (IN_SCHOOL or LATE).
	CheckinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edutrack_checkins_total",
		Help: "Completed portaria check-ins.",
	}, []string{"method", "status"})

	// ScanErrorsTotal counts failed scan attempts by error category.
	ScanErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edutrack_scan_errors_total",
		Help: "Failed portaria scans.",
	}, []string{"category"})

	// NotificationsTotal counts guardian notifications handed to the queue.
	NotificationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edutrack_guardian_notifications_total",
		Help: "Guardian notifications published.",
	})

	// AlertActive is 1 while an emergency alert is being displayed.
	AlertActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "edutrack_alert_active",
		Help: "Whether an emergency alert is currently shown.",
	})

	// RoomOccupancy tracks the last computed head count per room.
	RoomOccupancy = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "edutrack_room_occupancy",
		Help: "Students currently in class per room.",
	}, []string{"class_id"})
)
