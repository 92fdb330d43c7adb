// Package metrics collects and exposes prometheus metrics for the
// coordination engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements app.Metrics on a prometheus registry.
type Collector struct {
	connsOpen       prometheus.Gauge
	usersOnline     prometheus.Gauge
	roomsLive       prometheus.Gauge
	typingRouted    prometheus.Counter
	typingDropped   prometheus.Counter
	playbackRelayed *prometheus.CounterVec
	sendsDropped    prometheus.Counter
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		connsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vibe_connections_open",
			Help: "Currently open websocket connections.",
		}),
		usersOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vibe_users_online",
			Help: "Identities currently mapped in the connection registry.",
		}),
		roomsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vibe_rooms_live",
			Help: "Watch-party rooms with at least one member.",
		}),
		typingRouted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vibe_typing_routed_total",
			Help: "Typing signals delivered to a live recipient.",
		}),
		typingDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vibe_typing_dropped_total",
			Help: "Typing signals dropped because the recipient was offline.",
		}),
		playbackRelayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vibe_playback_relayed_total",
			Help: "Playback events relayed to room members, by kind.",
		}, []string{"kind"}),
		sendsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vibe_sends_dropped_total",
			Help: "Frames dropped due to backpressure on a connection.",
		}),
	}
	reg.MustRegister(
		c.connsOpen, c.usersOnline, c.roomsLive,
		c.typingRouted, c.typingDropped, c.playbackRelayed, c.sendsDropped,
	)
	return c
}

func (c *Collector) ConnOpened()     { c.connsOpen.Inc() }
func (c *Collector) ConnClosed()     { c.connsOpen.Dec() }
func (c *Collector) SetOnline(n int) { c.usersOnline.Set(float64(n)) }
func (c *Collector) SetRooms(n int)  { c.roomsLive.Set(float64(n)) }
func (c *Collector) TypingRouted()   { c.typingRouted.Inc() }
func (c *Collector) TypingDropped()  { c.typingDropped.Inc() }

func (c *Collector) PlaybackRelayed(kind string, receivers int) {
	c.playbackRelayed.WithLabelValues(kind).Add(float64(receivers))
}

func (c *Collector) SendDropped(n int) { c.sendsDropped.Add(float64(n)) }

// Handler serves the registry in the standard exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
