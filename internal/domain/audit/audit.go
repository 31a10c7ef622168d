package audit

import (
	"context"
	"encoding/json"
	"time"

	"perfcycle/internal/apperror"
	"perfcycle/internal/domain/auth"
)

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	ActorUser  string
}

type StoreAPI interface {
	InsertEvent(ctx context.Context, evt Event) error
	CountEvents(ctx context.Context, filter Filter) (int, error)
	ListEvents(ctx context.Context, filter Filter, limit, offset int) ([]Event, error)
}

type Service struct {
	store StoreAPI
}

func New(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) Record(ctx context.Context, actorID, action, entityType, entityID, requestID, ip string, before, after any) error {
	evt := Event{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestID,
		IP:         ip,
	}
	if before != nil {
		payload, err := json.Marshal(before)
		if err != nil {
			return err
		}
		evt.Before = payload
	}
	if after != nil {
		payload, err := json.Marshal(after)
		if err != nil {
			return err
		}
		evt.After = payload
	}
	return s.store.InsertEvent(ctx, evt)
}

// List returns a page of events, newest first, with the total matching count.
func (s *Service) List(ctx context.Context, caller auth.UserContext, filter Filter, limit, offset int) ([]Event, int, error) {
	if caller.UserID == "" {
		return nil, 0, apperror.ErrUnauthenticated
	}
	if !caller.IsHR() {
		return nil, 0, apperror.Forbidden("HR admin access required")
	}
	total, err := s.store.CountEvents(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	events, err := s.store.ListEvents(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
