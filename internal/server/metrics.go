// Package server reports operational counters for the chat service.
package server

import (
	"io"
	"os"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
)

// Counter names.
const (
	metricClients      = "chat.clients"
	metricMessages     = "chat.messages"
	metricDrops        = "chat.drops"
	metricRejects      = "chat.rejects"
	metricAuthFailures = "chat.auth.failures"
)

type metrics struct {
	log  io.Writer
	reg  gometrics.Registry
	tick time.Duration
}

var m = &metrics{
	log:  os.Stderr,
	reg:  gometrics.DefaultRegistry,
	tick: 60 * time.Second,
}

// StartMetrics begins the periodic JSON metrics report on stderr.
func StartMetrics() {
	m.start()
}

// FinalMetrics writes one last metrics report, for use at shutdown.
func FinalMetrics() {
	m.writeOnce()
}

func incr(name string, i int64) {
	m.incr(name, i)
}

func decr(name string, i int64) {
	m.decr(name, i)
}

func (m *metrics) start() {
	go gometrics.WriteJSON(m.reg, m.tick, m.log)
}

func (m *metrics) writeOnce() {
	gometrics.WriteJSONOnce(m.reg, m.log)
}

func (m *metrics) incr(name string, i int64) {
	gometrics.GetOrRegisterCounter(name, m.reg).Inc(i)
}

func (m *metrics) decr(name string, i int64) {
	gometrics.GetOrRegisterCounter(name, m.reg).Dec(i)
}
