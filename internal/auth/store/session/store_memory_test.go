package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tally/internal/auth/models"
	"tally/internal/policy"
	id "tally/pkg/domain"
)

type SessionStoreSuite struct {
	suite.Suite
	store *InMemorySessionStore
	ctx   context.Context
}

func TestSessionStoreSuite(t *testing.T) {
	suite.Run(t, new(SessionStoreSuite))
}

func (s *SessionStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func (s *SessionStoreSuite) newSession(userID id.UserID) *models.Session {
	return models.NewSession(id.NewSessionID(), userID, policy.RoleCustomer, "Firefox on Linux", time.Now(), time.Hour)
}

func (s *SessionStoreSuite) TestCreateAndFind() {
	s.Run("round trip", func() {
		session := s.newSession(id.NewUserID())
		s.Require().NoError(s.store.Create(s.ctx, session))

		found, err := s.store.FindByID(s.ctx, session.ID)
		s.Require().NoError(err)
		s.Equal(session.UserID, found.UserID)
		s.Equal(models.SessionStatusActive, found.Status)
	})

	s.Run("unknown session returns not found", func() {
		_, err := s.store.FindByID(s.ctx, id.NewSessionID())
		s.Require().ErrorIs(err, ErrNotFound)
	})
}

func (s *SessionStoreSuite) TestExecute() {
	s.Run("revocation persists", func() {
		session := s.newSession(id.NewUserID())
		s.Require().NoError(s.store.Create(s.ctx, session))

		now := time.Now()
		_, err := s.store.Execute(s.ctx, session.ID,
			func(sess *models.Session) error { return sess.CanRevoke() },
			func(sess *models.Session) { sess.ApplyRevocation(now) },
		)
		s.Require().NoError(err)

		found, err := s.store.FindByID(s.ctx, session.ID)
		s.Require().NoError(err)
		s.Equal(models.SessionStatusRevoked, found.Status)
		s.False(found.IsActive(now))
	})

	s.Run("validate failure leaves session untouched", func() {
		session := s.newSession(id.NewUserID())
		s.Require().NoError(s.store.Create(s.ctx, session))

		now := time.Now()
		_, err := s.store.Execute(s.ctx, session.ID,
			func(sess *models.Session) error { return sess.CanRevoke() },
			func(sess *models.Session) { sess.ApplyRevocation(now) },
		)
		s.Require().NoError(err)

		_, err = s.store.Execute(s.ctx, session.ID,
			func(sess *models.Session) error { return sess.CanRevoke() },
			func(sess *models.Session) { sess.ApplyRevocation(now) },
		)
		s.Require().Error(err)
	})
}

func (s *SessionStoreSuite) TestListByUser() {
	userID := id.NewUserID()
	other := id.NewUserID()

	s.Require().NoError(s.store.Create(s.ctx, s.newSession(userID)))
	s.Require().NoError(s.store.Create(s.ctx, s.newSession(userID)))
	s.Require().NoError(s.store.Create(s.ctx, s.newSession(other)))

	sessions, err := s.store.ListByUser(s.ctx, userID)
	s.Require().NoError(err)
	s.Len(sessions, 2)
	for _, session := range sessions {
		s.Equal(userID, session.UserID)
	}
}
