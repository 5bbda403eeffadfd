package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"go-2pack-wms/internal/model"
	"go-2pack-wms/internal/repository"
	"go-2pack-wms/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrEmailExists   = errors.New("email already exists")
	ErrInviteInvalid = errors.New("invite is invalid, expired, or already used")
)

const inviteTTL = 7 * 24 * time.Hour

type UserService interface {
	CreateUser(req *CreateUserRequest, orgID uuid.UUID, creatorID string) (*model.User, error)
	UpdateUser(userID uuid.UUID, req *UpdateUserRequest, updaterID string) (*model.User, error)
	DeleteUser(userID uuid.UUID) error
	UpdateUserPrivileges(userID uuid.UUID, privilegeCodes []string, updaterID string) (*model.User, error)
	GetAllUsers(orgID uuid.UUID) ([]model.UserResponse, error)
	GetUserByID(id uuid.UUID) (*model.UserResponse, error)

	InviteUser(req *InviteUserRequest, orgID uuid.UUID, creatorID string) (*model.UserInvite, error)
	AcceptInvite(req *AcceptInviteRequest) (*model.User, error)
	GetInvites(orgID uuid.UUID) ([]model.UserInvite, error)
	RevokeInvite(id uuid.UUID) error
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
	RoleID   uint   `json:"role_id" validate:"required"`
}

type UpdateUserRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6"` // Optional
	FullName string  `json:"full_name" validate:"required"`
	RoleID   uint    `json:"role_id" validate:"required"`
	IsActive *bool   `json:"is_active"`
}

type InviteUserRequest struct {
	Email  string `json:"email" validate:"required,email"`
	RoleID uint   `json:"role_id" validate:"required"`
}

type AcceptInviteRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
}

type userService struct {
	userRepo      repository.UserRepository
	privilegeRepo repository.PrivilegeRepository
	roleRepo      repository.RoleRepository
	inviteRepo    repository.InviteRepository
}

func NewUserService(
	userRepo repository.UserRepository,
	privilegeRepo repository.PrivilegeRepository,
	roleRepo repository.RoleRepository,
	inviteRepo repository.InviteRepository,
) UserService {
	return &userService{
		userRepo:      userRepo,
		privilegeRepo: privilegeRepo,
		roleRepo:      roleRepo,
		inviteRepo:    inviteRepo,
	}
}

func (s *userService) CreateUser(req *CreateUserRequest, orgID uuid.UUID, creatorID string) (*model.User, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("Validation failed: Field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	existing, _ := s.userRepo.FindByEmail(req.Email)
	if existing != nil {
		return nil, ErrEmailExists
	}

	role, err := s.roleRepo.FindByID(req.RoleID)
	if err != nil {
		return nil, errors.New("role not found")
	}

	user := &model.User{
		OrganizationID: orgID,
		Email:          req.Email,
		FullName:       req.FullName,
		RoleID:         &req.RoleID,
		IsActive:       true,
	}
	user.CreatedBy = creatorID
	user.UpdatedBy = creatorID

	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}

	// Privileges follow the role at creation time
	user.Privileges = role.Privileges

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateUser(userID uuid.UUID, req *UpdateUserRequest, updaterID string) (*model.User, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("Validation failed: Field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if req.Email != user.Email {
		existing, _ := s.userRepo.FindByEmail(req.Email)
		if existing != nil {
			return nil, ErrEmailExists
		}
	}

	role, err := s.roleRepo.FindByID(req.RoleID)
	if err != nil {
		return nil, errors.New("role not found")
	}

	user.Email = req.Email
	user.FullName = req.FullName
	user.RoleID = &req.RoleID
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = updaterID

	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, errors.New("failed to hash password")
		}
	}

	user.Privileges = role.Privileges

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(userID)
}

func (s *userService) DeleteUser(userID uuid.UUID) error {
	return s.userRepo.Delete(userID)
}

func (s *userService) UpdateUserPrivileges(userID uuid.UUID, privilegeCodes []string, updaterID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	privileges, err := s.privilegeRepo.FindByCodes(privilegeCodes)
	if err != nil {
		return nil, errors.New("failed to find privileges")
	}

	if err := s.userRepo.UpdatePrivileges(userID, privileges); err != nil {
		return nil, err
	}

	user.UpdatedBy = updaterID
	s.userRepo.Update(user)

	return s.userRepo.FindByID(userID)
}

func (s *userService) GetAllUsers(orgID uuid.UUID) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindByOrganization(orgID)
	if err != nil {
		return nil, err
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	response := user.ToResponse()
	return &response, nil
}

func (s *userService) InviteUser(req *InviteUserRequest, orgID uuid.UUID, creatorID string) (*model.UserInvite, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("Validation failed: Field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	existing, _ := s.userRepo.FindByEmail(req.Email)
	if existing != nil {
		return nil, ErrEmailExists
	}

	if _, err := s.roleRepo.FindByID(req.RoleID); err != nil {
		return nil, errors.New("role not found")
	}

	invite := &model.UserInvite{
		OrganizationID: orgID,
		Email:          req.Email,
		Token:          uuid.New().String(),
		RoleID:         &req.RoleID,
		ExpiresAt:      time.Now().Add(inviteTTL),
	}
	invite.CreatedBy = creatorID
	invite.UpdatedBy = creatorID

	if err := s.inviteRepo.Create(invite); err != nil {
		return nil, err
	}

	// Delivery is external; the stub keeps an operator-visible trace.
	log.Printf("Invite created for %s (org %s), token %s", invite.Email, orgID, invite.Token)

	return invite, nil
}

func (s *userService) AcceptInvite(req *AcceptInviteRequest) (*model.User, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("Validation failed: Field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	invite, err := s.inviteRepo.FindByToken(req.Token)
	if err != nil {
		return nil, ErrInviteInvalid
	}
	if !invite.Usable(time.Now()) {
		return nil, ErrInviteInvalid
	}

	var role *model.Role
	if invite.RoleID != nil {
		role, _ = s.roleRepo.FindByID(*invite.RoleID)
	}

	user := &model.User{
		OrganizationID: invite.OrganizationID,
		Email:          invite.Email,
		FullName:       req.FullName,
		RoleID:         invite.RoleID,
		IsActive:       true,
	}
	user.CreatedBy = invite.CreatedBy
	user.UpdatedBy = invite.CreatedBy
	if role != nil {
		user.Privileges = role.Privileges
	}

	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.inviteRepo.MarkAccepted(invite.ID, now); err != nil {
		log.Printf("Failed to mark invite %s accepted: %v", invite.ID, err)
	}

	return user, nil
}

func (s *userService) GetInvites(orgID uuid.UUID) ([]model.UserInvite, error) {
	return s.inviteRepo.FindByOrganization(orgID)
}

func (s *userService) RevokeInvite(id uuid.UUID) error {
	return s.inviteRepo.Delete(id)
}
