package event

import (
	"time"

	"github.com/google/uuid"
)

type FinishReason string

const (
	FinishedOK      FinishReason = "ok"
	FinishedStopped FinishReason = "stopped"
	FinishedError   FinishReason = "error"
)

// Event is anything the engine broadcasts to the dashboard and the remote
// notifiers.
type Event interface {
	ID() string
	Message() string
	Supervisor() string
	OccurredAt() time.Time
}

type BaseEvent struct {
	id         string
	message    string
	supervisor string
	occurredAt time.Time
}

func (b BaseEvent) ID() string            { return b.id }
func (b BaseEvent) Message() string       { return b.message }
func (b BaseEvent) Supervisor() string    { return b.supervisor }
func (b BaseEvent) OccurredAt() time.Time { return b.occurredAt }

// Text builds the common event payload.
func Text(supervisor, message string) BaseEvent {
	return BaseEvent{
		id:         uuid.NewString(),
		message:    message,
		supervisor: supervisor,
		occurredAt: time.Now(),
	}
}

// HuntStartedEvent fires when a supervisor leaves the startup delay and
// begins acting.
type HuntStartedEvent struct {
	BaseEvent
}

func HuntStarted(be BaseEvent) HuntStartedEvent {
	return HuntStartedEvent{BaseEvent: be}
}

// HuntFinishedEvent fires when a supervisor stops, with the reason.
type HuntFinishedEvent struct {
	BaseEvent
	Reason FinishReason
}

func HuntFinished(be BaseEvent, reason FinishReason) HuntFinishedEvent {
	return HuntFinishedEvent{BaseEvent: be, Reason: reason}
}

// ComboExecutedEvent fires after a combo rotation was dispatched.
type ComboExecutedEvent struct {
	BaseEvent
	ComboName string
}

func ComboExecuted(be BaseEvent, comboName string) ComboExecutedEvent {
	return ComboExecutedEvent{BaseEvent: be, ComboName: comboName}
}

// EmergencyStopEvent fires when the user triggers the panic stop.
type EmergencyStopEvent struct {
	BaseEvent
}

func EmergencyStop(be BaseEvent) EmergencyStopEvent {
	return EmergencyStopEvent{BaseEvent: be}
}

// NgrokTunnelEvent carries the public dashboard URL once the tunnel is up.
type NgrokTunnelEvent struct {
	BaseEvent
	URL string
}

func NgrokTunnel(url string) NgrokTunnelEvent {
	return NgrokTunnelEvent{BaseEvent: Text("", "Ngrok tunnel established"), URL: url}
}
