package metrics

import (
	"github.com/FadyMorkos3/VIGIL-sub001/internal/domain/camera"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/livestatus"
	"github.com/prometheus/client_golang/prometheus"
)

// Source is what the collector reads at scrape time.
type Source interface {
	State() livestatus.State
	Entries() []camera.ViewEntry
}

var (
	systemUpDesc = prometheus.NewDesc(
		namespace+"_backend_up", "Live-status endpoint reachable on the last fetch (1=operational).", nil, nil,
	)
	pollingDesc = prometheus.NewDesc(
		namespace+"_polling_enabled", "Whether the poll loop is running.", nil, nil,
	)
	offlineModeDesc = prometheus.NewDesc(
		namespace+"_offline_mode", "Backend offline-mode flag.", nil, nil,
	)
	staleDesc = prometheus.NewDesc(
		namespace+"_snapshot_stale", "Snapshot kept from before the last failed fetch.", nil, nil,
	)
	lastUpdateDesc = prometheus.NewDesc(
		namespace+"_last_update_timestamp_seconds", "Time of the last successful live-status fetch.", nil, nil,
	)
	cameraUpDesc = prometheus.NewDesc(
		namespace+"_camera_up", "Roster camera reported online.", []string{"id", "location"}, nil,
	)
	cameraAlertDesc = prometheus.NewDesc(
		namespace+"_camera_alert", "Roster camera has an active violence/crash alert.", []string{"id", "type"}, nil,
	)
	camerasDesc = prometheus.NewDesc(
		namespace+"_cameras", "Roster cameras grouped by reported status.", []string{"status"}, nil,
	)
)

// Collector turns the dashboard's current view into const metrics per scrape.
type Collector struct {
	src Source
}

func NewCollector(src Source) *Collector { return &Collector{src: src} }

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- systemUpDesc
	ch <- pollingDesc
	ch <- offlineModeDesc
	ch <- staleDesc
	ch <- lastUpdateDesc
	ch <- cameraUpDesc
	ch <- cameraAlertDesc
	ch <- camerasDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.State()

	ch <- prometheus.MustNewConstMetric(systemUpDesc, prometheus.GaugeValue, b2f(st.SystemStatus == camera.SystemOperational))
	ch <- prometheus.MustNewConstMetric(pollingDesc, prometheus.GaugeValue, b2f(st.IsPolling))
	ch <- prometheus.MustNewConstMetric(offlineModeDesc, prometheus.GaugeValue, b2f(st.OfflineMode))
	ch <- prometheus.MustNewConstMetric(staleDesc, prometheus.GaugeValue, b2f(st.Stale))
	if !st.LastUpdate.IsZero() {
		ch <- prometheus.MustNewConstMetric(lastUpdateDesc, prometheus.GaugeValue, float64(st.LastUpdate.UnixMilli())/1e3)
	}

	byStatus := make(map[string]float64)
	for _, e := range c.src.Entries() {
		ch <- prometheus.MustNewConstMetric(cameraUpDesc, prometheus.GaugeValue, b2f(e.Online()), e.ID, e.Location)
		if e.HasAlert {
			ch <- prometheus.MustNewConstMetric(cameraAlertDesc, prometheus.GaugeValue, 1, e.ID, *e.AlertType)
		}
		byStatus[e.Status]++
	}
	for status, n := range byStatus {
		ch <- prometheus.MustNewConstMetric(camerasDesc, prometheus.GaugeValue, n, status)
	}
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
