package mapper

import userdomain "github.com/hamrobooks/bookstore-api/internal/domains/users/domain"

// SignupRequest is the inbound account creation payload. Role is accepted but
// public signup always produces a buyer; only admin management sets roles.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// LoginRequest carries the credentials for a login attempt.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the opaque session token plus the account it belongs
// to.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// UpdateUserRequest is the inbound profile mutation payload. Empty password
// means keep the current one.
type UpdateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role,omitempty"`
}

// User is the transport-level account representation. The password hash never
// leaves the service.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ToDomainUser builds a domain user from a signup payload.
func ToDomainUser(id int64, req SignupRequest, role userdomain.Role) (*userdomain.User, error) {
	return userdomain.NewUser(id, req.Name, req.Email, req.Password, role)
}

// ToDomainUpdate builds the domain user carrying the requested mutation. An
// empty password leaves the stored hash untouched.
func ToDomainUpdate(id int64, req UpdateUserRequest, role userdomain.Role) (*userdomain.User, error) {
	if req.Password != "" {
		return userdomain.NewUser(id, req.Name, req.Email, req.Password, role)
	}
	user := &userdomain.User{ID: id, Role: role}
	if err := user.SetName(req.Name); err != nil {
		return nil, err
	}
	if err := user.SetEmail(req.Email); err != nil {
		return nil, err
	}
	return user, nil
}

// FromDomainUser converts a domain user into a transport representation.
func FromDomainUser(user *userdomain.User) User {
	if user == nil {
		return User{}
	}
	return User{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	}
}

// FromDomainUsers converts a slice of domain users to transport representation.
func FromDomainUsers(users []*userdomain.User) []User {
	result := make([]User, 0, len(users))
	for _, user := range users {
		result = append(result, FromDomainUser(user))
	}
	return result
}
