package handlers

import (
	"context"
	"sync"
	"time"

	"chamber_control/internal/models"
	"chamber_control/internal/schedule"
	"chamber_control/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

// mockMonitoring is read by the websocket goroutine while tests update it.
type mockMonitoring struct {
	mu    sync.Mutex
	state models.ControllerState
	err   error
	reads int
}

func (m *mockMonitoring) GetState(ctx context.Context) (models.ControllerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	return m.state, m.err
}

func (m *mockMonitoring) set(st models.ControllerState, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state, m.err = st, err
}

func (m *mockMonitoring) readCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

type mockEventLog struct {
	resp      []models.ControllerEvent
	err       error
	lastFrom  time.Time
	lastTo    time.Time
	lastType  string
	lastLimit int
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.ControllerEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	m.lastLimit = f.Limit
	return m.resp, m.err
}

type mockScheduler struct {
	sched schedule.Schedule
	runs  int
}

func (m *mockScheduler) Run(ctx context.Context, tick time.Duration) { m.runs++ }

func (m *mockScheduler) Schedule() schedule.Schedule { return m.sched }

func (m *mockScheduler) Active(t time.Time) (schedule.Slot, bool) { return m.sched.Active(t) }

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
