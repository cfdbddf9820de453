package service

import (
	"strings"

	"agrimarket/internal/marketerrors"
	"agrimarket/internal/model"
	"agrimarket/internal/repository"
)

type UserService interface {
	CreateUser(actor model.Actor, req *CreateUserRequest) (*model.User, error)
	GetAllUsers(actor model.Actor) ([]model.UserResponse, error)
	GetUserByID(actor model.Actor, id uint) (*model.UserResponse, error)
	GetFarmers(actor model.Actor) ([]model.UserResponse, error)
	SetActive(actor model.Actor, id uint, active bool) error
}

type CreateUserRequest struct {
	Name              string `json:"name" validate:"required,max=255"`
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required,min=6"`
	Role              string `json:"role" validate:"required,role"`
	Phone             string `json:"phone" validate:"omitempty,max=20"`
	Address           string `json:"address"`
	PreferredLanguage string `json:"preferred_language" validate:"language"`
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// createAccount validates, hashes and stores a new user on behalf of actor
func createAccount(users repository.UserRepository, actor model.Actor, req *CreateUserRequest) (*model.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return nil, marketerrors.ErrValidation
	}

	user := &model.User{
		Name:              req.Name,
		Email:             req.Email,
		Role:              role,
		Phone:             strings.TrimSpace(req.Phone),
		Address:           req.Address,
		PreferredLanguage: req.PreferredLanguage,
		IsActive:          true,
	}
	if user.PreferredLanguage == "" {
		user.PreferredLanguage = "en"
	}
	user.CreatedBy = actor.AuditName()
	user.UpdatedBy = actor.AuditName()

	if err := user.SetPassword(req.Password); err != nil {
		return nil, err
	}
	if err := users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) CreateUser(actor model.Actor, req *CreateUserRequest) (*model.User, error) {
	if !actor.Role.Can(model.CapUserCreate) {
		return nil, marketerrors.ErrForbidden
	}
	return createAccount(s.userRepo, actor, req)
}

func (s *userService) GetAllUsers(actor model.Actor) ([]model.UserResponse, error) {
	if !actor.Role.Can(model.CapUserView) {
		return nil, marketerrors.ErrForbidden
	}
	users, err := s.userRepo.FindAll()
	if err != nil {
		return nil, err
	}
	return toResponses(users), nil
}

// GetUserByID lets admins read anyone and everyone else read themselves
func (s *userService) GetUserByID(actor model.Actor, id uint) (*model.UserResponse, error) {
	if actor.UserID != id && !actor.Role.Can(model.CapUserView) {
		return nil, marketerrors.ErrForbidden
	}
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

// GetFarmers lists active farmer accounts an agent can list on behalf of
func (s *userService) GetFarmers(actor model.Actor) ([]model.UserResponse, error) {
	if !actor.Role.Can(model.CapListingCreate) {
		return nil, marketerrors.ErrForbidden
	}
	users, err := s.userRepo.FindByRole(model.RoleFarmer)
	if err != nil {
		return nil, err
	}
	active := users[:0]
	for _, u := range users {
		if u.IsActive {
			active = append(active, u)
		}
	}
	return toResponses(active), nil
}

func (s *userService) SetActive(actor model.Actor, id uint, active bool) error {
	if !actor.Role.Can(model.CapUserToggle) {
		return marketerrors.ErrForbidden
	}
	if actor.UserID == id && !active {
		return marketerrors.ErrForbidden
	}
	return s.userRepo.SetActive(id, active, actor.AuditName())
}

func toResponses(users []model.User) []model.UserResponse {
	out := make([]model.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToResponse())
	}
	return out
}
