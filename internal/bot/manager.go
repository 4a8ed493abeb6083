package bot

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/kaelthys/atreia/cmd/atreia/log"
	"github.com/kaelthys/atreia/internal/config"
	"github.com/kaelthys/atreia/internal/detect"
	"github.com/kaelthys/atreia/internal/event"
	"github.com/kaelthys/atreia/internal/input"
)

// DefaultDetectionEndpoint is where the inference sidecar listens.
const DefaultDetectionEndpoint = "http://127.0.0.1:9090"

// SupervisorManager creates and tracks one supervisor per hunting profile.
type SupervisorManager struct {
	logger        *slog.Logger
	mu            sync.RWMutex // protects supervisors
	supervisors   map[string]*Supervisor
	eventListener *event.Listener

	// Factories are swappable so the dashboard and tests can run without a
	// game window or a live inference sidecar.
	NewDispatcher func(cfg *config.HunterCfg, logger *slog.Logger) (input.Dispatcher, error)
	NewSource     func(cfg *config.HunterCfg) detect.Source
}

func NewSupervisorManager(logger *slog.Logger, eventListener *event.Listener) *SupervisorManager {
	return &SupervisorManager{
		logger:        logger,
		supervisors:   make(map[string]*Supervisor),
		eventListener: eventListener,
		NewDispatcher: func(cfg *config.HunterCfg, logger *slog.Logger) (input.Dispatcher, error) {
			return input.NewWindowDispatcher(cfg.GameWindowTitle, logger)
		},
		NewSource: func(cfg *config.HunterCfg) detect.Source {
			return detect.NewHTTPSource(DefaultDetectionEndpoint, cfg.GameWindowTitle)
		},
	}
}

// AvailableSupervisors lists the configured profiles, minus the scaffold
// template.
func (mng *SupervisorManager) AvailableSupervisors() []string {
	available := make([]string, 0)
	for name := range config.GetProfiles() {
		if name != "template" {
			available = append(available, name)
		}
	}
	return available
}

// Start launches the supervisor for the named profile and blocks until it
// finishes. Configuration is reloaded first so local edits take effect.
func (mng *SupervisorManager) Start(supervisorName string) error {
	mng.mu.RLock()
	_, exists := mng.supervisors[supervisorName]
	mng.mu.RUnlock()
	if exists {
		return fmt.Errorf("supervisor %s is already running", supervisorName)
	}

	if err := config.Load(); err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	cfg, found := config.GetProfile(supervisorName)
	if !found {
		return fmt.Errorf("profile %s not found", supervisorName)
	}

	supervisorLogger, err := log.NewLogger(config.Atreia.Debug.Log, config.Atreia.LogSaveDirectory, supervisorName)
	if err != nil {
		return err
	}

	dispatcher, err := mng.NewDispatcher(cfg, supervisorLogger)
	if err != nil {
		return fmt.Errorf("error attaching to game window: %w", err)
	}

	driver := NewDriver(supervisorName, cfg, supervisorLogger, dispatcher, mng.NewSource(cfg))
	supervisor := NewSupervisor(supervisorName, supervisorLogger, driver)

	mng.mu.Lock()
	// Double-check under the write lock: two concurrent Start calls can both
	// pass the initial existence check.
	if _, alreadyRunning := mng.supervisors[supervisorName]; alreadyRunning {
		mng.mu.Unlock()
		return fmt.Errorf("supervisor %s is already running", supervisorName)
	}
	mng.supervisors[supervisorName] = supervisor
	mng.mu.Unlock()

	defer func() {
		mng.mu.Lock()
		delete(mng.supervisors, supervisorName)
		mng.mu.Unlock()
	}()

	return supervisor.Start()
}

// Stop signals the named supervisor and waits for it to unwind.
func (mng *SupervisorManager) Stop(supervisorName string) {
	mng.mu.RLock()
	supervisor, found := mng.supervisors[supervisorName]
	mng.mu.RUnlock()
	if !found {
		return
	}
	mng.logger.Info("Stopping supervisor", slog.String("supervisor", supervisorName))
	supervisor.Stop()
}

// StopAll signals every running supervisor.
func (mng *SupervisorManager) StopAll() {
	mng.mu.RLock()
	running := make([]*Supervisor, 0, len(mng.supervisors))
	for _, s := range mng.supervisors {
		running = append(running, s)
	}
	mng.mu.RUnlock()

	for _, s := range running {
		s.Stop()
	}
}

// Running lists the names of currently running supervisors.
func (mng *SupervisorManager) Running() []string {
	mng.mu.RLock()
	defer mng.mu.RUnlock()
	names := make([]string, 0, len(mng.supervisors))
	for name := range mng.supervisors {
		names = append(names, name)
	}
	return names
}

// Status returns the named supervisor's driver status.
func (mng *SupervisorManager) Status(supervisorName string) (Status, bool) {
	mng.mu.RLock()
	supervisor, found := mng.supervisors[supervisorName]
	mng.mu.RUnlock()
	if !found {
		return Status{}, false
	}
	return supervisor.Status(), true
}

// LatestSnapshot returns the last detection snapshot the named supervisor
// published, for the dashboard overlay.
func (mng *SupervisorManager) LatestSnapshot(supervisorName string) (detect.Snapshot, bool) {
	mng.mu.RLock()
	supervisor, found := mng.supervisors[supervisorName]
	mng.mu.RUnlock()
	if !found {
		return detect.Snapshot{}, false
	}
	return supervisor.Feed().Latest()
}

// ClearCooldowns resets cooldown bookkeeping for the named supervisor.
func (mng *SupervisorManager) ClearCooldowns(supervisorName string) bool {
	mng.mu.RLock()
	supervisor, found := mng.supervisors[supervisorName]
	mng.mu.RUnlock()
	if !found {
		return false
	}
	supervisor.ClearCooldowns()
	return true
}
