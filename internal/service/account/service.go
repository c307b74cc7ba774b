// Package account covers registration and the profile of the logged-in
// user. Passwords are checked by the shop API; nothing is hashed here.
package account

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/gateway"
	"storefront/internal/service/identity"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type accountAPI interface {
	Register(ctx context.Context, req gateway.RegisterRequest) (domain.User, error)
	UpdateProfile(ctx context.Context, creds gateway.Credentials, req gateway.ProfileUpdate) (domain.User, error)
	ChangePassword(ctx context.Context, creds gateway.Credentials, oldPassword, newPassword string) error
}

// Profile is the logged-in identity whose stored user is kept in sync.
type Profile interface {
	gateway.Credentials
	User() (domain.User, bool)
	UpdateUser(ctx context.Context, user domain.User) error
}

type RegisterInput struct {
	FullName        string `json:"fullName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"omitempty,numeric,len=10"`
	Address         string `json:"address"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type ProfileInput struct {
	FullName string `json:"fullName" validate:"required"`
	Phone    string `json:"phone" validate:"required,numeric,len=10"`
	Address  string `json:"address"`
}

type PasswordInput struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,nefield=OldPassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type Service struct {
	api      accountAPI
	logger   *zap.Logger
	validate *validator.Validate
}

func New(api accountAPI, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		api:      api,
		logger:   logger.Named("account"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	if err := s.validate.Struct(in); err != nil {
		return domain.User{}, err
	}
	user, err := s.api.Register(ctx, gateway.RegisterRequest{
		FullName: in.FullName,
		Email:    in.Email,
		Phone:    in.Phone,
		Address:  in.Address,
		Password: in.Password,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("register: %w", err)
	}
	s.logger.Info("account registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

// UpdateProfile saves the profile upstream and refreshes the user stored
// with the session.
func (s *Service) UpdateProfile(ctx context.Context, p Profile, in ProfileInput) (domain.User, error) {
	current, ok := p.User()
	if !ok || p.Token() == "" {
		return domain.User{}, identity.ErrNotAuthenticated
	}
	if err := s.validate.Struct(in); err != nil {
		return domain.User{}, err
	}
	updated, err := s.api.UpdateProfile(ctx, p, gateway.ProfileUpdate{
		FullName: strings.TrimSpace(in.FullName),
		Phone:    in.Phone,
		Address:  in.Address,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("update profile: %w", err)
	}
	user := current
	user.Name = firstNonEmpty(updated.Name, in.FullName)
	user.Phone = firstNonEmpty(updated.Phone, in.Phone)
	user.Address = firstNonEmpty(updated.Address, in.Address)
	if err := p.UpdateUser(ctx, user); err != nil {
		s.logger.Error("store updated profile", zap.Error(err))
		return domain.User{}, err
	}
	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, p Profile, in PasswordInput) error {
	if p.Token() == "" {
		return identity.ErrNotAuthenticated
	}
	if err := s.validate.Struct(in); err != nil {
		return err
	}
	if err := s.api.ChangePassword(ctx, p, in.OldPassword, in.NewPassword); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
