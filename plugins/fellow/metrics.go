package fellow

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	loginTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiden_fellow_login_total",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)
	requestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiden_fellow_requests_total",
			Help: "Fellow API requests by method and status code",
		},
		[]string{"method", "code"},
	)
)

// SessionCollectors returns the counters shared by every session.
func SessionCollectors() []prometheus.Collector {
	return []prometheus.Collector{loginTotal, requestTotal}
}

// MetricsCollector exposes the brewer snapshot.
type MetricsCollector struct {
	client *Client

	info               *prometheus.GaugeVec
	connected          *prometheus.GaugeVec
	brewing            *prometheus.GaugeVec
	carafePresent      *prometheus.GaugeVec
	singleBasket       *prometheus.GaugeVec
	batchBasket        *prometheus.GaugeVec
	totalBrewingCycles *prometheus.GaugeVec
	totalWaterLiters   *prometheus.GaugeVec
}

func NewMetricsCollector(client *Client) *MetricsCollector {
	labels := []string{"device_id"}
	return &MetricsCollector{
		client: client,
		info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aiden_fellow_brewer_info",
			Help: "Brewer identity",
		}, []string{"device_id", "name", "serial", "firmware", "selected_profile"}),
		connected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aiden_fellow_brewer_connected",
			Help: "1 if the brewer is connected to the cloud",
		}, labels),
		brewing: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aiden_fellow_brewer_brewing",
			Help: "1 while a brew is running",
		}, labels),
		carafePresent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aiden_fellow_brewer_carafe_present",
			Help: "1 if the carafe is in place",
		}, labels),
		singleBasket: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aiden_fellow_brewer_single_basket_present",
			Help: "1 if the single-serve basket is inserted",
		}, labels),
		batchBasket: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aiden_fellow_brewer_batch_basket_present",
			Help: "1 if the batch basket is inserted",
		}, labels),
		totalBrewingCycles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aiden_fellow_brewer_brewing_cycles_total",
			Help: "Lifetime brewing cycles reported by the brewer",
		}, labels),
		totalWaterLiters: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aiden_fellow_brewer_water_volume_liters_total",
			Help: "Lifetime water volume brewed (liters)",
		}, labels),
	}
}

func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	c.info.Describe(ch)
	c.connected.Describe(ch)
	c.brewing.Describe(ch)
	c.carafePresent.Describe(ch)
	c.singleBasket.Describe(ch)
	c.batchBasket.Describe(ch)
	c.totalBrewingCycles.Describe(ch)
	c.totalWaterLiters.Describe(ch)
}

// Collect reports the snapshot taken at login; it makes no API calls.
func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	if c.client != nil {
		c.observe(c.client.Device())
	}

	c.info.Collect(ch)
	c.connected.Collect(ch)
	c.brewing.Collect(ch)
	c.carafePresent.Collect(ch)
	c.singleBasket.Collect(ch)
	c.batchBasket.Collect(ch)
	c.totalBrewingCycles.Collect(ch)
	c.totalWaterLiters.Collect(ch)
}

func (c *MetricsCollector) observe(device Device) {
	c.info.Reset()
	c.info.With(prometheus.Labels{
		"device_id":        device.ID,
		"name":             device.DisplayName,
		"serial":           device.SerialNumber,
		"firmware":         device.FirmwareVersion,
		"selected_profile": device.SelectedProfileID,
	}).Set(1)

	labels := prometheus.Labels{"device_id": device.ID}
	c.connected.With(labels).Set(boolGauge(device.IsConnected))
	c.brewing.With(labels).Set(boolGauge(device.Brewing))
	c.carafePresent.With(labels).Set(boolGauge(device.CarafePresent))
	c.singleBasket.With(labels).Set(boolGauge(device.SingleBrewBasketPresent))
	c.batchBasket.With(labels).Set(boolGauge(device.BatchBrewBasketPresent))
	c.totalBrewingCycles.With(labels).Set(float64(device.TotalBrewingCycles))
	c.totalWaterLiters.With(labels).Set(device.TotalWaterVolumeL)
}

func boolGauge(value bool) float64 {
	if value {
		return 1
	}
	return 0
}
