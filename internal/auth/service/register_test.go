package service

import (
	"tally/internal/policy"
	dErrors "tally/pkg/domain-errors"
)

func (s *ServiceSuite) TestRegister() {
	s.Run("creates customer account with limit snapshot", func() {
		user, err := s.service.Register(s.ctx, "Alice", "alice@example.com", "s3cretpass")
		s.Require().NoError(err)
		s.Equal("Alice", user.Name)
		s.Equal("alice@example.com", user.Email)
		s.Equal(policy.RoleCustomer, user.Role)
		s.Equal(testPurchaseLimit, user.PurchaseLimit)
		s.Equal(0, user.Purchases)
		s.NotEqual("s3cretpass", user.PasswordHash)
	})

	s.Run("derives name from email when blank", func() {
		user, err := s.service.Register(s.ctx, "", "jane.doe@example.com", "s3cretpass")
		s.Require().NoError(err)
		s.Equal("Jane Doe", user.Name)
	})

	s.Run("rejects invalid email", func() {
		_, err := s.service.Register(s.ctx, "Bob", "not-an-email", "s3cretpass")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects short password", func() {
		_, err := s.service.Register(s.ctx, "Bob", "bob@example.com", "short")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("duplicate email conflicts", func() {
		_, err := s.service.Register(s.ctx, "Dup", "dup@example.com", "s3cretpass")
		s.Require().NoError(err)

		_, err = s.service.Register(s.ctx, "Dup Again", "dup@example.com", "s3cretpass")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}
