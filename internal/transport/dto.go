package transport

// LoginRequest accepts the account name under either "email" or "username".
type LoginRequest struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	Password string  `json:"password"`
}

func (r LoginRequest) Identity() string {
	if r.Email != nil {
		return *r.Email
	}
	if r.Username != nil {
		return *r.Username
	}
	return ""
}

type RegisterRequest struct {
	Email     *string `json:"email"`
	Username  *string `json:"username"`
	Password  string  `json:"password"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
}

func (r RegisterRequest) Identity() string {
	return LoginRequest{Email: r.Email, Username: r.Username}.Identity()
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type ResetRequest struct {
	Email string `json:"email"`
}

type ResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	ID           uint     `json:"id"`
	Username     string   `json:"username"`
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Roles        []string `json:"roles"`
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresIn    int      `json:"expiresIn"`
}

type UserResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type SearchResponse struct {
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
	Users []UserResponse `json:"users"`
}

type RefreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expiresIn"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ResetRequestResponse struct {
	Message    string `json:"message"`
	Dispatched *bool  `json:"dispatched,omitempty"`
	Transport  string `json:"transport,omitempty"`
}
