package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kaelthys/atreia/internal/detect"
	"github.com/kaelthys/atreia/internal/event"
	"github.com/kaelthys/atreia/internal/utils"
)

// Supervisor owns one hunting profile's driver lifecycle: a cancellable run
// and a status view for the dashboard. The cancellation context doubles as
// the emergency stop signal the driver polls every tick.
type Supervisor struct {
	name   string
	logger *slog.Logger
	driver *Driver

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	startedAt time.Time
}

func NewSupervisor(name string, logger *slog.Logger, driver *Driver) *Supervisor {
	return &Supervisor{
		name:   name,
		logger: logger,
		driver: driver,
	}
}

// Start blocks until the driver finishes or is stopped.
func (s *Supervisor) Start() error {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		cancel()
		return fmt.Errorf("supervisor %s is already running", s.name)
	}
	s.cancel = cancel
	s.done = make(chan struct{})
	s.startedAt = time.Now()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		close(s.done)
		s.done = nil
		s.cancel = nil
		s.mu.Unlock()
	}()

	utils.SetSessionStart()
	defer utils.ResetSession()

	s.logger.Info("Supervisor starting", slog.String("supervisor", s.name))
	err := s.driver.Run(ctx)

	reason := event.FinishedOK
	if err != nil {
		reason = event.FinishedError
	} else if ctx.Err() != nil {
		reason = event.FinishedStopped
	}
	event.Send(event.HuntFinished(event.Text(s.name, fmt.Sprintf("Hunting finished: %s", reason)), reason))
	s.logger.Info("Supervisor finished", slog.String("reason", string(reason)))

	return err
}

// Stop triggers the emergency stop. The driver observes it at the top of
// its next tick and never dispatches another action afterwards. Blocks
// until the run loop has fully unwound.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	event.Send(event.EmergencyStop(event.Text(s.name, "Stop requested")))
	cancel()
	if done != nil {
		<-done
	}
}

// Running reports whether the driver loop is active.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

func (s *Supervisor) Name() string {
	return s.name
}

func (s *Supervisor) Status() Status {
	return s.driver.Status()
}

func (s *Supervisor) Feed() *detect.Feed {
	return s.driver.Feed()
}

func (s *Supervisor) ClearCooldowns() {
	s.driver.ClearCooldowns()
}
