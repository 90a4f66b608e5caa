package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sudarmaa/sudarmaa/internal/auth"
	"github.com/sudarmaa/sudarmaa/internal/database/users"
	"github.com/sudarmaa/sudarmaa/internal/entities"
)

// UserStore defines the user queries admins need.
type UserStore interface {
	ListUsers() ([]entities.User, error)
	DeleteUser(id uint) error
}

// AccountService registers users and changes account settings. auth.Service
// implements it; registration also creates the default shelves.
type AccountService interface {
	CreateUser(username, email, password string, role entities.UserRole) (*entities.User, error)
	GetUserByID(id uint) (*entities.User, error)
	UpdateEmail(userID uint, email string) (*entities.User, error)
	ChangePassword(userID uint, oldPassword, newPassword string) error
	SetRole(userID uint, role entities.UserRole) (*entities.User, error)
}

type createUserRequest struct {
	Username string            `json:"username" validate:"required"`
	Email    string            `json:"email" validate:"required"`
	Password string            `json:"password" validate:"required"`
	Role     entities.UserRole `json:"role" validate:"omitempty,oneof=admin editor viewer"`
}

type updateMeRequest struct {
	Email           *string `json:"email"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     string  `json:"new_password"`
}

type setRoleRequest struct {
	Role entities.UserRole `json:"role" validate:"required,oneof=admin editor viewer"`
}

type UsersController struct {
	store    UserStore
	accounts AccountService
}

func NewUsersController(store UserStore, accounts AccountService) *UsersController {
	return &UsersController{store: store, accounts: accounts}
}

// ListUsers returns every user
// GET /api/users
func (uc *UsersController) ListUsers(c *gin.Context) {
	list, err := uc.store.ListUsers()
	if err != nil {
		respondInternalError(c, err, "list users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list, "count": len(list)})
}

// CreateUser registers a user with the default shelves
// POST /api/users
func (uc *UsersController) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}
	role := req.Role
	if role == "" {
		role = entities.UserRoleViewer
	}

	user, err := uc.accounts.CreateUser(req.Username, req.Email, req.Password, role)
	if err != nil {
		status := auth.RegistrationStatus(err)
		if status == http.StatusInternalServerError {
			respondInternalError(c, err, "create user")
			return
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}
	zap.L().Info("user created", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	respondCreated(c, user)
}

// SetRole changes a user's role
// PATCH /api/users/:id/role
func (uc *UsersController) SetRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req setRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	if id == GetUserID(c) && req.Role != entities.UserRoleAdmin {
		respondBadRequest(c, "cannot demote yourself")
		return
	}

	user, err := uc.accounts.SetRole(id, req.Role)
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		respondNotFound(c, "user")
	case errors.Is(err, auth.ErrInvalidRole):
		respondBadRequest(c, err.Error())
	case err != nil:
		respondInternalError(c, err, "set role")
	default:
		c.JSON(http.StatusOK, user)
	}
}

// DeleteUser removes a user with their shelves and picks
// DELETE /api/users/:id
func (uc *UsersController) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if id == GetUserID(c) {
		respondBadRequest(c, "cannot delete yourself")
		return
	}

	if err := uc.store.DeleteUser(id); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			respondNotFound(c, "user")
			return
		}
		respondInternalError(c, err, "delete user")
		return
	}
	zap.L().Info("user deleted", zap.Uint("user_id", id), zap.Uint("by", GetUserID(c)))
	respondSuccess(c, "user deleted")
}

// UpdateMe changes the caller's email and/or password. Updating a user never
// creates shelves.
// PATCH /api/users/me
func (uc *UsersController) UpdateMe(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}
	var req updateMeRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Email == nil && req.NewPassword == "" {
		respondBadRequest(c, "nothing to update")
		return
	}

	if req.NewPassword != "" {
		err := uc.accounts.ChangePassword(userID, req.CurrentPassword, req.NewPassword)
		switch {
		case errors.Is(err, auth.ErrInvalidPassword):
			respondForbidden(c, "current password is incorrect")
			return
		case errors.Is(err, auth.ErrPasswordTooShort), errors.Is(err, auth.ErrPasswordTooLong):
			respondBadRequest(c, err.Error())
			return
		case err != nil:
			respondInternalError(c, err, "change password")
			return
		}
	}

	if req.Email != nil {
		_, err := uc.accounts.UpdateEmail(userID, *req.Email)
		switch {
		case errors.Is(err, auth.ErrUserExists):
			respondConflict(c, "email already in use")
			return
		case errors.Is(err, auth.ErrEmailRequired), errors.Is(err, auth.ErrEmailInvalid):
			respondBadRequest(c, err.Error())
			return
		case err != nil:
			respondInternalError(c, err, "update email")
			return
		}
	}

	user, err := uc.accounts.GetUserByID(userID)
	if err != nil {
		respondInternalError(c, err, "reload user")
		return
	}
	c.JSON(http.StatusOK, user)
}
