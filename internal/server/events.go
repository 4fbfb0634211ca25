package server

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Event types published by the service.
const (
	EventStatus        = "status"
	EventUpload        = "upload"
	EventEdits         = "edits"
	EventCategoryAdded = "category_added"
	EventKeywordAdded  = "keyword_added"
	EventBudgetSet     = "budget_set"
	EventBudgetsSaved  = "budgets_saved"
)

// Event is emitted whenever the session or the store changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// publish stamps ev, appends it to the ring buffer and fans it out to
// subscribers. Slow subscribers miss events rather than block.
func (s *Service) publish(typ string, data any) Event {
	s.evMu.Lock()
	defer s.evMu.Unlock()

	s.nextEventID++
	ev := Event{
		ID:        s.nextEventID,
		Type:      typ,
		Timestamp: time.Now(),
		Data:      data,
	}
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

// recentEvents returns a copy of the ring buffer, oldest first.
func (s *Service) recentEvents() []Event {
	s.evMu.RLock()
	defer s.evMu.RUnlock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	return events
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.evMu.Lock()
	defer s.evMu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.evMu.Lock()
	defer s.evMu.Unlock()
	delete(s.subs, id)
}

func (s *Service) subscriberCount() int {
	s.evMu.RLock()
	defer s.evMu.RUnlock()
	return len(s.subs)
}

func writeSSE(w io.Writer, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", ev.Type); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
