package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"zoneguard-worker-go/internal/db"
	"zoneguard-worker-go/internal/services/notification"
)

// AlertJournal is the read side of the alert journal.
type AlertJournal interface {
	RecentAlerts(ctx context.Context, limit int) ([]db.AlertRecord, error)
	AlertHistogram(ctx context.Context, since time.Time, bucket time.Duration) ([]db.AlertBucket, error)
	LoiterDwellStats(ctx context.Context, since time.Time) (db.DwellStats, error)
}

// DispatchStatser reports alert delivery counters.
type DispatchStatser interface {
	Stats() notification.DispatcherStats
}

type AlertsHandler struct {
	journal    AlertJournal
	dispatcher DispatchStatser
	now        func() time.Time
}

func NewAlertsHandler(journal AlertJournal, dispatcher DispatchStatser) *AlertsHandler {
	return &AlertsHandler{journal: journal, dispatcher: dispatcher, now: time.Now}
}

type AlertsResponse struct {
	Total  int              `json:"total"`
	Alerts []db.AlertRecord `json:"alerts"`
}

type AlertStatsResponse struct {
	Window   string                       `json:"window"`
	Buckets  []db.AlertBucket             `json:"buckets"`
	Dwell    db.DwellStats                `json:"loiter_dwell"`
	Delivery notification.DispatcherStats `json:"delivery"`
}

// @Summary Recent alerts
// @Description Journaled alerts, newest first
// @Tags alerts
// @Produce json
// @Param limit query int false "Maximum number of alerts to return (default: 50, max: 500)"
// @Success 200 {object} AlertsResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/alerts [get]
func (h *AlertsHandler) ListAlerts(c *gin.Context) {
	limit := 50
	if s := c.Query("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 || v > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = v
	}

	alerts, err := h.journal.RecentAlerts(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if alerts == nil {
		alerts = []db.AlertRecord{}
	}
	c.JSON(http.StatusOK, AlertsResponse{Total: len(alerts), Alerts: alerts})
}

func parseWindow(c *gin.Context) (window, bucket time.Duration, err error) {
	window, bucket = 24*time.Hour, time.Hour
	if s := c.Query("window"); s != "" {
		if window, err = time.ParseDuration(s); err != nil || window <= 0 {
			return 0, 0, fmt.Errorf("invalid window %q", s)
		}
	}
	if s := c.Query("bucket"); s != "" {
		if bucket, err = time.ParseDuration(s); err != nil || bucket < time.Minute {
			return 0, 0, fmt.Errorf("invalid bucket %q", s)
		}
	}
	return window, bucket, nil
}

// @Summary Alert statistics
// @Description Alert counts per time bucket, loiter dwell statistics and delivery counters
// @Tags alerts
// @Produce json
// @Param window query string false "Look-back window as a Go duration (default: 24h)"
// @Param bucket query string false "Bucket width as a Go duration, at least 1m (default: 1h)"
// @Success 200 {object} AlertStatsResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/alerts/stats [get]
func (h *AlertsHandler) AlertStats(c *gin.Context) {
	window, bucket, err := parseWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	since := h.now().Add(-window)
	ctx := c.Request.Context()

	buckets, err := h.journal.AlertHistogram(ctx, since, bucket)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	dwell, err := h.journal.LoiterDwellStats(ctx, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if buckets == nil {
		buckets = []db.AlertBucket{}
	}

	resp := AlertStatsResponse{Window: window.String(), Buckets: buckets, Dwell: dwell}
	if h.dispatcher != nil {
		resp.Delivery = h.dispatcher.Stats()
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Alert chart
// @Description HTML bar chart of alerts per bucket
// @Tags alerts
// @Produce html
// @Param window query string false "Look-back window as a Go duration (default: 24h)"
// @Param bucket query string false "Bucket width as a Go duration, at least 1m (default: 1h)"
// @Success 200 {string} string
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/alerts/chart [get]
func (h *AlertsHandler) AlertChart(c *gin.Context) {
	window, bucket, err := parseWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	buckets, err := h.journal.AlertHistogram(c.Request.Context(), h.now().Add(-window), bucket)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	x := make([]string, 0, len(buckets))
	loiter := make([]opts.BarData, 0, len(buckets))
	banned := make([]opts.BarData, 0, len(buckets))
	for _, b := range buckets {
		x = append(x, b.Start.Local().Format("01-02 15:04"))
		loiter = append(loiter, opts.BarData{Value: b.Loiter})
		banned = append(banned, opts.BarData{Value: b.Banned})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Zone Alerts", Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Zone Alerts", Subtitle: fmt.Sprintf("last %s, %s buckets", window, bucket)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("loiter", loiter, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff5252"})).
		AddSeries("banned", banned, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ab47bc"})).
		SetSeriesOptions(charts.WithBarChartOpts(opts.BarChart{Stack: "alerts"}))

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("render error: %v", err)})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
