package notifications

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/albapepper/coach-notify/internal/store"
)

var errStoreDown = errors.New("store down")

// memStore is an in-memory store.Store. failUsers makes GetUser fail for
// the listed ids; panicUsers makes LatestActivity panic.
type memStore struct {
	users         map[string]*store.User
	plans         map[string]*store.TrainingPlan
	achievements  map[string]*store.Achievement
	notifications map[string]*store.Notification
	assignments   map[string]*store.PlanAssignment
	activity      map[string]*store.ActivityLog
	unlocks       map[string]*store.UserAchievement
	latest        map[string]*store.ActivityLog

	failUsers  map[string]bool
	panicUsers map[string]bool
	failPlans  bool
	failList   bool
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[string]*store.User{},
		plans:         map[string]*store.TrainingPlan{},
		achievements:  map[string]*store.Achievement{},
		notifications: map[string]*store.Notification{},
		assignments:   map[string]*store.PlanAssignment{},
		activity:      map[string]*store.ActivityLog{},
		unlocks:       map[string]*store.UserAchievement{},
		latest:        map[string]*store.ActivityLog{},
		failUsers:     map[string]bool{},
		panicUsers:    map[string]bool{},
	}
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func (m *memStore) addUser(id, name, role, token, coachID string) {
	u := &store.User{ID: id, Name: name, Role: role}
	if token != "" {
		u.FCMToken = strPtr(token)
	}
	if coachID != "" {
		u.CoachID = strPtr(coachID)
	}
	m.users[id] = u
}

func (m *memStore) GetUser(_ context.Context, id string) (*store.User, error) {
	if m.failUsers[id] {
		return nil, errStoreDown
	}
	return m.users[id], nil
}

func (m *memStore) GetTrainingPlan(_ context.Context, id string) (*store.TrainingPlan, error) {
	if m.failPlans {
		return nil, errStoreDown
	}
	return m.plans[id], nil
}

func (m *memStore) GetAchievement(_ context.Context, id string) (*store.Achievement, error) {
	return m.achievements[id], nil
}

func (m *memStore) GetNotification(_ context.Context, id string) (*store.Notification, error) {
	return m.notifications[id], nil
}

func (m *memStore) GetPlanAssignment(_ context.Context, id string) (*store.PlanAssignment, error) {
	return m.assignments[id], nil
}

func (m *memStore) GetActivityLog(_ context.Context, id string) (*store.ActivityLog, error) {
	return m.activity[id], nil
}

func (m *memStore) GetUserAchievement(_ context.Context, id string) (*store.UserAchievement, error) {
	return m.unlocks[id], nil
}

func (m *memStore) ActiveAssignments(context.Context) ([]store.PlanAssignment, error) {
	if m.failList {
		return nil, errStoreDown
	}
	var out []store.PlanAssignment
	for _, a := range m.assignments {
		if a.Status == store.StatusActive {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memStore) UsersByRole(_ context.Context, role string) ([]store.User, error) {
	if m.failList {
		return nil, errStoreDown
	}
	var out []store.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memStore) LatestActivity(_ context.Context, athleteID string) (*store.ActivityLog, error) {
	if m.panicUsers[athleteID] {
		panic("boom")
	}
	if m.failUsers[athleteID] {
		return nil, errStoreDown
	}
	return m.latest[athleteID], nil
}

// fakeSender records sent messages. Tokens in failTokens fail delivery.
type fakeSender struct {
	mu         sync.Mutex
	sent       []Message
	failTokens map[string]bool
}

func (s *fakeSender) Send(_ context.Context, msg Message) (string, error) {
	if s.failTokens[msg.Token] {
		return "", &DeliveryError{Provider: "fake", Err: errors.New("unregistered token")}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return "msg-" + msg.Token, nil
}

func (s *fakeSender) messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}

func (s *fakeSender) tokens() []string {
	var out []string
	for _, m := range s.messages() {
		out = append(out, m.Token)
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
