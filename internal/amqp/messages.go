package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"backoffice/internal/core"
)

// FigureRefreshMessage asks the worker to re-read figures from the upstream
// sheet. An empty section list means every section.
type FigureRefreshMessage struct {
	ID          uuid.UUID      `json:"id"`
	Sections    []core.Section `json:"sections,omitempty"`
	RequestedAt time.Time      `json:"requested_at"`
}

func NewFigureRefreshMessage(sections ...core.Section) *FigureRefreshMessage {
	return &FigureRefreshMessage{
		ID:          uuid.New(),
		Sections:    sections,
		RequestedAt: time.Now().UTC(),
	}
}

func (m *FigureRefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FigureRefreshMessageFromJSON decodes a message and rejects unknown sections.
func FigureRefreshMessageFromJSON(data []byte) (*FigureRefreshMessage, error) {
	var msg FigureRefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == uuid.Nil {
		return nil, fmt.Errorf("refresh message without id")
	}
	for _, s := range msg.Sections {
		if !s.IsValid() {
			return nil, fmt.Errorf("%w: %q", core.ErrUnknownSection, s)
		}
	}
	return &msg, nil
}

// FigureSyncedMessage announces that the worker stored fresh figures.
// RefreshID links it to the refresh request that caused it, if any.
type FigureSyncedMessage struct {
	ID        uuid.UUID      `json:"id"`
	RefreshID uuid.UUID      `json:"refresh_id,omitempty"`
	Sections  []core.Section `json:"sections"`
	Figures   int            `json:"figures"`
	SyncedAt  time.Time      `json:"synced_at"`
}

func NewFigureSyncedMessage(refreshID uuid.UUID, sections []core.Section, figures int) *FigureSyncedMessage {
	return &FigureSyncedMessage{
		ID:        uuid.New(),
		RefreshID: refreshID,
		Sections:  sections,
		Figures:   figures,
		SyncedAt:  time.Now().UTC(),
	}
}

func (m *FigureSyncedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FigureSyncedMessageFromJSON decodes a message and rejects unknown or
// missing sections.
func FigureSyncedMessageFromJSON(data []byte) (*FigureSyncedMessage, error) {
	var msg FigureSyncedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == uuid.Nil {
		return nil, fmt.Errorf("synced message without id")
	}
	if len(msg.Sections) == 0 {
		return nil, fmt.Errorf("synced message without sections")
	}
	for _, s := range msg.Sections {
		if !s.IsValid() {
			return nil, fmt.Errorf("%w: %q", core.ErrUnknownSection, s)
		}
	}
	return &msg, nil
}
