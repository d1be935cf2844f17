package api

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/everforgeworks/domefall/internal/api"

// Match end reasons.
const (
	EndWinner     = "winner"
	EndDraw       = "draw"
	EndDisconnect = "disconnect"
)

// Metrics are the Coordinator's counters. They report to the global OTel
// meter provider, which is a no-op unless one is installed.
type Metrics struct {
	matchesStarted metric.Int64Counter
	matchesEnded   metric.Int64Counter
	shotsFired     metric.Int64Counter
	lobbyWaiting   metric.Int64UpDownCounter
}

// NewMetrics registers the instruments on the global meter.
func NewMetrics() (*Metrics, error) {
	return newMetrics(otel.Meter(instrumentationName))
}

func newMetrics(m metric.Meter) (*Metrics, error) {
	var (
		mt  Metrics
		err error
	)
	mt.matchesStarted, err = m.Int64Counter("domefall.matches.started",
		metric.WithDescription("Matches created from a full lobby"))
	if err != nil {
		return nil, fmt.Errorf("creating matches started counter: %w", err)
	}
	mt.matchesEnded, err = m.Int64Counter("domefall.matches.ended",
		metric.WithDescription("Matches torn down, by reason"))
	if err != nil {
		return nil, fmt.Errorf("creating matches ended counter: %w", err)
	}
	mt.shotsFired, err = m.Int64Counter("domefall.shots.fired",
		metric.WithDescription("Accepted fire actions"))
	if err != nil {
		return nil, fmt.Errorf("creating shots counter: %w", err)
	}
	mt.lobbyWaiting, err = m.Int64UpDownCounter("domefall.lobby.waiting",
		metric.WithDescription("Players queued in lobbies"))
	if err != nil {
		return nil, fmt.Errorf("creating lobby counter: %w", err)
	}
	return &mt, nil
}

func (m *Metrics) MatchStarted(players int) {
	if m == nil {
		return
	}
	m.matchesStarted.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Int("players", players)))
}

func (m *Metrics) MatchEnded(reason string) {
	if m == nil {
		return
	}
	m.matchesEnded.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) ShotFired() {
	if m == nil {
		return
	}
	m.shotsFired.Add(context.Background(), 1)
}

func (m *Metrics) LobbyChanged(delta int) {
	if m == nil || delta == 0 {
		return
	}
	m.lobbyWaiting.Add(context.Background(), int64(delta))
}
