package gateway

import (
	"context"
	"net/http"

	"storefront/internal/domain"
)

type LoginResult struct {
	Token string
	User  domain.User
}

type userDTO struct {
	domain.User
	FullName string `json:"fullName"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	in := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}
	var out struct {
		Token string  `json:"token"`
		User  userDTO `json:"user"`
	}
	if err := c.do(ctx, nil, http.MethodPost, "/auth/login", in, &out); err != nil {
		return nil, err
	}
	return &LoginResult{Token: out.Token, User: out.User.user()}, nil
}

type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Password string `json:"password"`
}

type ProfileUpdate struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Address  string `json:"address,omitempty"`
}

// accountReply is the shape of the account endpoints. Some answer with a
// 200 and success=false instead of an error status.
type accountReply struct {
	Success *bool    `json:"success"`
	Message string   `json:"message"`
	User    *userDTO `json:"user"`
}

func (r accountReply) err(method, path string) error {
	if r.Success != nil && !*r.Success {
		return &APIError{Method: method, Path: path, Status: http.StatusUnprocessableEntity, Message: r.Message}
	}
	return nil
}

func (d userDTO) user() domain.User {
	u := d.User
	if u.Name == "" {
		u.Name = d.FullName
	}
	return u
}

// Register creates an account. It does not log the new user in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (domain.User, error) {
	var out accountReply
	if err := c.do(ctx, nil, http.MethodPost, "/auth/register", req, &out); err != nil {
		return domain.User{}, err
	}
	if err := out.err(http.MethodPost, "/auth/register"); err != nil {
		return domain.User{}, err
	}
	if out.User == nil {
		return domain.User{Email: req.Email, Name: req.FullName, Phone: req.Phone, Address: req.Address}, nil
	}
	return out.User.user(), nil
}

func (c *Client) UpdateProfile(ctx context.Context, creds Credentials, req ProfileUpdate) (domain.User, error) {
	var out accountReply
	if err := c.do(ctx, creds, http.MethodPut, "/auth/profile", req, &out); err != nil {
		return domain.User{}, err
	}
	if err := out.err(http.MethodPut, "/auth/profile"); err != nil {
		return domain.User{}, err
	}
	if out.User == nil {
		return domain.User{Name: req.FullName, Phone: req.Phone, Address: req.Address}, nil
	}
	return out.User.user(), nil
}

func (c *Client) ChangePassword(ctx context.Context, creds Credentials, oldPassword, newPassword string) error {
	in := struct {
		OldPassword     string `json:"oldPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}{oldPassword, newPassword, newPassword}
	var out accountReply
	if err := c.do(ctx, creds, http.MethodPut, "/auth/change-password", in, &out); err != nil {
		return err
	}
	return out.err(http.MethodPut, "/auth/change-password")
}
