package events

import "time"

const (
	UserRegistered         = "user_registered"
	UserLoggedIn           = "user_logged_in"
	PasswordChanged        = "password_changed"
	PasswordResetRequested = "password_reset_requested"
	PasswordResetCompleted = "password_reset_completed"
)

type UserEvent struct {
	Type     string    `json:"type"`
	UserID   uint      `json:"user_id"`
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}

func NewUserEvent(typ string, userID uint, username string) UserEvent {
	return UserEvent{Type: typ, UserID: userID, Username: username, At: time.Now().UTC()}
}
