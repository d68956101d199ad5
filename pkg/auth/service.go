// Package auth owns the login, signup and logout flows. It is the only
// writer of the console session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nexusforge/console/pkg/api"
	"github.com/nexusforge/console/pkg/common/logger"
	"github.com/nexusforge/console/pkg/common/models"
	"github.com/nexusforge/console/pkg/notice"
)

const serverErrorMessage = "Server error: Try again later."

var (
	ErrInvalidCredentials  = errors.New("Invalid email or password")
	ErrSignupFailed        = errors.New("Signup failed: Email may already exist.")
	ErrCredentialsRequired = errors.New("email and password are required")
)

type API interface {
	Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error)
	Signup(ctx context.Context, req models.SignupRequest) (models.AuthResponse, error)
}

type SessionWriter interface {
	Set(ctx context.Context, token, tokenType string, user models.User) error
	Clear(ctx context.Context) error
}

type Service struct {
	api      API
	sessions SessionWriter
	notifier notice.Notifier
}

func NewService(client API, sessions SessionWriter, notifier notice.Notifier) *Service {
	if notifier == nil {
		notifier = notice.Discard
	}
	return &Service{api: client, sessions: sessions, notifier: notifier}
}

func (s *Service) Login(ctx context.Context, email, password string) (models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		notice.Error(s.notifier, ErrCredentialsRequired.Error())
		return models.User{}, ErrCredentialsRequired
	}

	resp, err := s.api.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		if api.IsUnauthorized(err) {
			notice.Error(s.notifier, ErrInvalidCredentials.Error())
			return models.User{}, ErrInvalidCredentials
		}
		logger.Log.WithError(err).Warn("Login request failed")
		notice.Error(s.notifier, serverErrorMessage)
		return models.User{}, fmt.Errorf("login: %w", err)
	}

	return s.establish(ctx, email, resp)
}

// Signup creates the account and leaves the console logged in as it. When
// the registry does not hand back a token on signup, the same credentials
// are used to log in.
func (s *Service) Signup(ctx context.Context, name, email, password string) (models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		notice.Error(s.notifier, ErrCredentialsRequired.Error())
		return models.User{}, ErrCredentialsRequired
	}

	resp, err := s.api.Signup(ctx, models.SignupRequest{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Password: password,
	})
	if err != nil {
		logger.Log.WithError(err).WithField("email", email).Warn("Signup request failed")
		notice.Error(s.notifier, ErrSignupFailed.Error())
		return models.User{}, fmt.Errorf("%w: %v", ErrSignupFailed, err)
	}

	if resp.AccessToken != "" {
		return s.establish(ctx, email, resp)
	}

	login, err := s.api.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		logger.Log.WithError(err).Warn("Login after signup failed")
		notice.Error(s.notifier, ErrInvalidCredentials.Error())
		return models.User{}, fmt.Errorf("login after signup: %w", err)
	}
	if login.User.Name == "" {
		login.User.Name = strings.TrimSpace(name)
	}
	return s.establish(ctx, email, login)
}

func (s *Service) Logout(ctx context.Context) error {
	if err := s.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	notice.Info(s.notifier, "Logged out")
	return nil
}

func (s *Service) establish(ctx context.Context, email string, resp models.AuthResponse) (models.User, error) {
	if resp.AccessToken == "" {
		return models.User{}, errors.New("registry returned no access token")
	}
	user := resp.User
	if user.Email == "" {
		user.Email = email
	}

	if err := s.sessions.Set(ctx, resp.AccessToken, resp.TokenType, user); err != nil {
		return models.User{}, fmt.Errorf("store session: %w", err)
	}

	logger.Log.WithField("email", user.Email).Info("Session established")
	notice.Success(s.notifier, fmt.Sprintf("Welcome, %s", displayName(user)))
	return user, nil
}

func displayName(u models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
