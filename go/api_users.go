package bookstoreserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	userhttpmapper "github.com/hamrobooks/bookstore-api/internal/domains/users/adapters/http/mapper"
	usersapp "github.com/hamrobooks/bookstore-api/internal/domains/users/application"
	userdomain "github.com/hamrobooks/bookstore-api/internal/domains/users/domain"
	usersports "github.com/hamrobooks/bookstore-api/internal/domains/users/ports"
)

// UsersAPI wires HTTP transport with the users bounded context service.
type UsersAPI struct {
	service usersports.Service
}

// NewUsersAPI creates a UsersAPI backed by the provided service.
func NewUsersAPI(service usersports.Service) UsersAPI {
	return UsersAPI{service: service}
}

// Post /api/auth/signup
// Register a buyer account. Public signup never grants elevated roles.
func (api *UsersAPI) Signup(c *gin.Context) {
	var payload userhttpmapper.SignupRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	user, err := userhttpmapper.ToDomainUser(0, payload, userdomain.RoleBuyer)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	created, err := api.service.Signup(c.Request.Context(), user)
	if err != nil {
		respondUserServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userhttpmapper.FromDomainUser(created))
}

// Post /api/auth/login
// Exchange credentials for a session token
func (api *UsersAPI) Login(c *gin.Context) {
	var payload userhttpmapper.LoginRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	token, user, err := api.service.Login(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		respondUserServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.LoginResponse{
		Token: token,
		User:  userhttpmapper.FromDomainUser(user),
	})
}

// Post /api/auth/logout
// Invalidate the current session token
func (api *UsersAPI) Logout(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		respondError(c, http.StatusUnauthorized, errMissingToken)
		return
	}
	if err := api.service.Logout(c.Request.Context(), token); err != nil {
		respondUserServiceError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Get /api/auth/profile
// Return the authenticated account
func (api *UsersAPI) GetProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, errMissingToken)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.FromDomainUser(user))
}

// Get /api/users
// List every account (admin)
func (api *UsersAPI) GetAllUsers(c *gin.Context) {
	users, err := api.service.List(c.Request.Context())
	if err != nil {
		respondUserServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.FromDomainUsers(users))
}

// Get /api/users/:userId
// Find account by ID (admin)
func (api *UsersAPI) GetUserById(c *gin.Context) {
	id, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}
	user, err := api.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondUserServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.FromDomainUser(user))
}

// Put /api/users/:userId
// Update an account (admin)
func (api *UsersAPI) UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}
	var payload userhttpmapper.UpdateUserRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	role, err := resolveRole(c, payload.Role, id, api.service)
	if err != nil {
		if errors.Is(err, userdomain.ErrInvalidRole) {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		respondUserServiceError(c, err)
		return
	}
	user, err := userhttpmapper.ToDomainUpdate(id, payload, role)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	updated, err := api.service.Update(c.Request.Context(), id, user)
	if err != nil {
		respondUserServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.FromDomainUser(updated))
}

// Delete /api/users/:userId
// Remove an account (admin)
func (api *UsersAPI) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}
	if err := api.service.Delete(c.Request.Context(), id); err != nil {
		respondUserServiceError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// resolveRole keeps the stored role when the payload omits one.
func resolveRole(c *gin.Context, raw string, id int64, service usersports.Service) (userdomain.Role, error) {
	if raw != "" {
		return userdomain.ParseRole(raw)
	}
	existing, err := service.GetByID(c.Request.Context(), id)
	if err != nil {
		return "", err
	}
	return existing.Role, nil
}

func respondUserServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, usersports.ErrNotFound):
		respondError(c, http.StatusNotFound, err)
	case errors.Is(err, usersports.ErrEmailTaken):
		respondError(c, http.StatusConflict, err)
	case errors.Is(err, usersapp.ErrAuthentication):
		respondError(c, http.StatusUnauthorized, err)
	case errors.Is(err, usersapp.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, err)
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}
