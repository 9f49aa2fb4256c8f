package service

import (
	"context"
	"time"

	"go.uber.org/mock/gomock"

	"tally/internal/auth/models"
	"tally/internal/platform/fetch"
	"tally/internal/policy"
	id "tally/pkg/domain"
	dErrors "tally/pkg/domain-errors"
)

func (s *ServiceSuite) TestProfile() {
	s.Run("returns the account", func() {
		userID := s.registerUser("profile@example.com")

		user, err := s.service.Profile(s.ctx, userID)
		s.Require().NoError(err)
		s.Equal("profile@example.com", user.Email)
	})

	s.Run("unknown user is not found", func() {
		_, err := s.service.Profile(s.ctx, id.NewUserID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestListUsers() {
	s.Run("lists every account without a cache", func() {
		s.registerUser("list1@example.com")
		s.registerUser("list2@example.com")

		users, stale, err := s.service.ListUsers(s.ctx)
		s.Require().NoError(err)
		s.False(stale)
		s.Len(users, 2)
	})

	s.Run("cached listing is invalidated by registration", func() {
		cache := fetch.NewResource("users-test", time.Minute,
			func(ctx context.Context) ([]*models.User, error) {
				return s.users.List(ctx)
			},
		)
		cached := New(s.users, s.sessions, s.mockTokens, s.mockSettings,
			WithUsersCache(cache),
			WithAuditPublisher(s.mockAudits),
			WithBcryptCost(4),
		)

		before, _, err := cached.ListUsers(s.ctx)
		s.Require().NoError(err)

		_, err = cached.Register(s.ctx, "", "cached@example.com", "s3cretpass")
		s.Require().NoError(err)

		after, _, err := cached.ListUsers(s.ctx)
		s.Require().NoError(err)
		s.Len(after, len(before)+1)
	})
}

func (s *ServiceSuite) TestUpdateUserRole() {
	superAdmin := id.NewUserID()

	s.Run("requires the change-roles capability", func() {
		target := s.registerUser("norole@example.com")

		for _, role := range []policy.Role{policy.RoleCustomer, policy.RoleAdmin} {
			_, err := s.service.UpdateUserRole(s.ctx, superAdmin, role, target, policy.RoleAdmin)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		}
	})

	s.Run("unknown target is not found", func() {
		_, err := s.service.UpdateUserRole(s.ctx, superAdmin, policy.RoleSuperAdmin, id.NewUserID(), policy.RoleAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("assigns the new role and revokes sessions", func() {
		target := s.registerUser("promote@example.com")
		s.mockTokens.EXPECT().
			GenerateAccessToken(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return("signed-token", nil)
		_, err := s.service.Login(s.ctx, "promote@example.com", "s3cretpass", "")
		s.Require().NoError(err)

		updated, err := s.service.UpdateUserRole(s.ctx, superAdmin, policy.RoleSuperAdmin, target, policy.RoleAdmin)
		s.Require().NoError(err)
		s.Equal(policy.RoleAdmin, updated.Role)

		sessions, err := s.sessions.ListByUser(s.ctx, target)
		s.Require().NoError(err)
		s.Require().Len(sessions, 1)
		s.Equal(models.SessionStatusRevoked, sessions[0].Status)
	})

	s.Run("same role is a no-op", func() {
		target := s.registerUser("noop@example.com")

		updated, err := s.service.UpdateUserRole(s.ctx, superAdmin, policy.RoleSuperAdmin, target, policy.RoleCustomer)
		s.Require().NoError(err)
		s.Equal(policy.RoleCustomer, updated.Role)
	})
}
