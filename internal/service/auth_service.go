package service

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"agrimarket/internal/marketerrors"
	"agrimarket/internal/model"
	"agrimarket/internal/repository"
	"agrimarket/pkg/jwt"
)

var (
	ErrSessionExpired = errors.New("session expired (logged in on another device)")
	ErrUserInactive   = errors.New("user account is inactive")
	ErrWrongPassword  = errors.New("current password is incorrect")
)

type AuthService interface {
	Register(req *RegisterRequest) (*model.User, error)
	Authenticate(email, password string) (*model.User, error)
	Login(email, password string) (*LoginResponse, error)
	ValidateToken(tokenString string) (*TokenValidationResponse, error)
	ResolveActor(tokenString string) (model.Actor, error)
	ChangePassword(actor model.Actor, oldPassword, newPassword string) error
	Heartbeat(actor model.Actor) error
}

// RegisterRequest is the public sign-up form; admins cannot be self-registered
type RegisterRequest struct {
	Name              string `json:"name" validate:"required,max=255"`
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required,min=6"`
	Role              string `json:"role" validate:"required,self_role"`
	Phone             string `json:"phone" validate:"omitempty,max=20"`
	Address           string `json:"address"`
	PreferredLanguage string `json:"preferred_language" validate:"language"`
}

type LoginResponse struct {
	Token        string             `json:"token"`
	User         model.UserResponse `json:"user"`
	Capabilities []model.Capability `json:"capabilities"`
}

type TokenValidationResponse struct {
	User         model.UserResponse `json:"user"`
	Capabilities []model.Capability `json:"capabilities"`
}

type authService struct {
	userRepo repository.UserRepository
	events   EventPublisher
}

func NewAuthService(userRepo repository.UserRepository, events EventPublisher) AuthService {
	return &authService{
		userRepo: userRepo,
		events:   publisherOrNoop(events),
	}
}

func (s *authService) Register(req *RegisterRequest) (*model.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validate(req); err != nil {
		return nil, err
	}
	return createAccount(s.userRepo, model.SystemActor, &CreateUserRequest{
		Name:              req.Name,
		Email:             req.Email,
		Password:          req.Password,
		Role:              req.Role,
		Phone:             req.Phone,
		Address:           req.Address,
		PreferredLanguage: req.PreferredLanguage,
	})
}

// Authenticate returns the same error for an unknown email, a wrong password
// and an inactive account.
func (s *authService) Authenticate(email, password string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, marketerrors.ErrNotFound) {
			return nil, marketerrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive || !user.CheckPassword(password) {
		return nil, marketerrors.ErrInvalidCredentials
	}
	return user, nil
}

func (s *authService) Login(email, password string) (*LoginResponse, error) {
	user, err := s.Authenticate(email, password)
	if err != nil {
		return nil, err
	}

	// Single session: a new token version invalidates tokens issued earlier
	version := uuid.NewString()
	now := time.Now()
	if err := s.userRepo.UpdateSession(user.ID, version, now); err != nil {
		return nil, err
	}
	user.TokenVersion = version
	user.LastSeenAt = &now

	token, err := jwt.GenerateToken(user.ID, user.Email, user.Name, string(user.Role), version)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Token:        token,
		User:         user.ToResponse(),
		Capabilities: user.Role.Capabilities(),
	}, nil
}

func (s *authService) ValidateToken(tokenString string) (*TokenValidationResponse, error) {
	user, err := s.userFromToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &TokenValidationResponse{
		User:         user.ToResponse(),
		Capabilities: user.Role.Capabilities(),
	}, nil
}

// ResolveActor verifies a bearer token against the stored session and builds the caller
func (s *authService) ResolveActor(tokenString string) (model.Actor, error) {
	user, err := s.userFromToken(tokenString)
	if err != nil {
		return model.Actor{}, err
	}
	return user.Actor(), nil
}

func (s *authService) userFromToken(tokenString string) (*model.User, error) {
	claims, err := jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, marketerrors.ErrNotFound) {
			return nil, jwt.ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionExpired
	}
	return user, nil
}

// ChangePassword verifies the current password, stores the new hash and ends other sessions
func (s *authService) ChangePassword(actor model.Actor, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return marketerrors.ErrValidation
	}
	user, err := s.userRepo.FindByID(actor.UserID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(user.ID, user.Password); err != nil {
		return err
	}
	return s.userRepo.UpdateSession(user.ID, uuid.NewString(), time.Now())
}

func (s *authService) Heartbeat(actor model.Actor) error {
	if err := s.userRepo.UpdateLastSeen(actor.UserID); err != nil {
		return err
	}
	s.events.Publish(EventUserStatus, map[string]any{
		"user_id":      actor.UserID,
		"status":       "online",
		"last_seen_at": time.Now(),
	})
	return nil
}
