package user

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tally/internal/auth/models"
	id "tally/pkg/domain"
)

// InMemoryStore keeps user aggregates in process memory. The development
// default and the workhorse for unit tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	users   map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

func New() *InMemoryStore {
	return &InMemoryStore{
		users:   make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

func (s *InMemoryStore) CreateIfEmailAvailable(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := emailKey(user.Email)
	if _, taken := s.byEmail[key]; taken {
		return ErrEmailTaken
	}
	s.users[user.ID] = user.Clone()
	s.byEmail[key] = user.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[userID]; ok {
		return user.Clone(), nil
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if userID, ok := s.byEmail[emailKey(email)]; ok {
		return s.users[userID].Clone(), nil
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*models.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user.Clone())
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// Execute runs validate then mutate under the store lock, so concurrent
// mutations of one user are fully serialized. Validate failures leave the
// stored state untouched.
func (s *InMemoryStore) Execute(_ context.Context, userID id.UserID,
	validate func(*models.User) error,
	mutate func(*models.User)) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}

	working := stored.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	working.Version++
	s.users[userID] = working
	return working.Clone(), nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
