package service

import (
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	id "tally/pkg/domain"
	dErrors "tally/pkg/domain-errors"
)

func (s *ServiceSuite) registerUser(email string) id.UserID {
	user, err := s.service.Register(s.ctx, "", email, "s3cretpass")
	require.NoError(s.T(), err)
	return user.ID
}

func (s *ServiceSuite) TestLogin() {
	s.Run("valid credentials mint a token and session", func() {
		userID := s.registerUser("login@example.com")
		s.mockTokens.EXPECT().
			GenerateAccessToken(gomock.Any(), gomock.Any(), "customer", gomock.Any()).
			Return("signed-token", nil)

		userAgent := "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
		result, err := s.service.Login(s.ctx, "login@example.com", "s3cretpass", userAgent)
		s.Require().NoError(err)
		s.Equal("signed-token", result.AccessToken)
		s.Equal(3600, result.ExpiresIn)
		s.Equal(userID, result.User.ID)

		sessions, err := s.sessions.ListByUser(s.ctx, userID)
		s.Require().NoError(err)
		s.Require().Len(sessions, 1)
		s.Contains(sessions[0].Device, "Firefox")
	})

	s.Run("missing user agent stamps an unknown device", func() {
		userID := s.registerUser("nodevice@example.com")
		s.mockTokens.EXPECT().
			GenerateAccessToken(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return("signed-token", nil)

		_, err := s.service.Login(s.ctx, "nodevice@example.com", "s3cretpass", "")
		s.Require().NoError(err)

		sessions, err := s.sessions.ListByUser(s.ctx, userID)
		s.Require().NoError(err)
		s.Require().Len(sessions, 1)
		s.Equal("Unknown Device", sessions[0].Device)
	})

	s.Run("unknown email is unauthorized", func() {
		_, err := s.service.Login(s.ctx, "nobody@example.com", "s3cretpass", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("wrong password is unauthorized with same message", func() {
		s.registerUser("wrongpass@example.com")

		_, err := s.service.Login(s.ctx, "wrongpass@example.com", "not-the-password", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal("invalid credentials", dErrors.MessageOf(err))
	})
}

func (s *ServiceSuite) TestLogout() {
	login := func(email string) id.SessionID {
		userID := s.registerUser(email)
		s.mockTokens.EXPECT().
			GenerateAccessToken(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return("signed-token", nil)
		_, err := s.service.Login(s.ctx, email, "s3cretpass", "")
		s.Require().NoError(err)
		sessions, err := s.sessions.ListByUser(s.ctx, userID)
		s.Require().NoError(err)
		s.Require().Len(sessions, 1)
		return sessions[0].ID
	}

	s.Run("revokes the session", func() {
		sessionID := login("logout@example.com")

		s.Require().NoError(s.service.Logout(s.ctx, sessionID))

		active, err := s.service.IsSessionActive(s.ctx, sessionID)
		s.Require().NoError(err)
		s.False(active)
	})

	s.Run("second logout is a no-op", func() {
		sessionID := login("logout2@example.com")
		s.Require().NoError(s.service.Logout(s.ctx, sessionID))
		s.Require().NoError(s.service.Logout(s.ctx, sessionID))
	})

	s.Run("unknown session is a no-op", func() {
		s.Require().NoError(s.service.Logout(s.ctx, id.NewSessionID()))
	})

	s.Run("nil session is unauthorized", func() {
		err := s.service.Logout(s.ctx, id.SessionID{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestIsSessionActive() {
	s.Run("unknown session is inactive without error", func() {
		active, err := s.service.IsSessionActive(s.ctx, id.NewSessionID())
		s.Require().NoError(err)
		s.False(active)
	})
}
