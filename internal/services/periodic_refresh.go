package services

import (
	"context"
	"log"
	"time"
)

// PeriodicRefreshService invokes one traffic refresh cycle per interval.
// Cycles are serialized by the single loop goroutine; the subsystem itself
// does not guard against concurrent invocations.
type PeriodicRefreshService struct {
	trafficService *TrafficService
	alertsService  *AlertsService
	interval       time.Duration

	stopChan chan struct{}
	running  bool
}

// NewPeriodicRefreshService creates a new periodic refresh service
func NewPeriodicRefreshService(trafficService *TrafficService, alertsService *AlertsService, interval time.Duration) *PeriodicRefreshService {
	return &PeriodicRefreshService{
		trafficService: trafficService,
		alertsService:  alertsService,
		interval:       interval,
		stopChan:       make(chan struct{}),
	}
}

// StartPeriodicRefresh begins the background refresh loop
func (p *PeriodicRefreshService) StartPeriodicRefresh(ctx context.Context) error {
	if p.running {
		return nil // Already running
	}
	p.running = true

	log.Printf("Starting periodic traffic refresh every %v", p.interval)
	go p.refreshLoop(ctx)
	return nil
}

// Stop gracefully stops the periodic refresh
func (p *PeriodicRefreshService) Stop() {
	if !p.running {
		return
	}
	p.running = false
	close(p.stopChan)
	log.Printf("Stopped periodic refresh service")
}

// IsRunning returns whether periodic refresh is active
func (p *PeriodicRefreshService) IsRunning() bool {
	return p.running
}

// refreshLoop runs refresh cycles in the background, starting with an
// immediate one
func (p *PeriodicRefreshService) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Periodic refresh stopping due to context cancellation")
			return
		case <-p.stopChan:
			log.Printf("Periodic refresh stopping due to stop signal")
			return
		case <-ticker.C:
			p.runCycle(ctx)
		}
	}
}

// runCycle executes one traffic refresh followed by an alert fetch, with a
// timeout bounding the whole pass
func (p *PeriodicRefreshService) runCycle(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	updated, errs := p.trafficService.RefreshRouteEstimates(cycleCtx)
	for _, msg := range errs {
		log.Printf("Traffic refresh error: %s", msg)
	}
	log.Printf("Periodic refresh: %d routes updated", updated)

	if _, err := p.alertsService.FetchActiveAlerts(cycleCtx); err != nil {
		log.Printf("Alert fetch failed: %v", err)
	}
}
