package domain

import "time"

// ChatKind classifies a dialog.
type ChatKind string

const (
	ChatKindUser    ChatKind = "user"
	ChatKindGroup   ChatKind = "group"
	ChatKindChannel ChatKind = "channel"
)

// ChatMessage is the last-message preview attached to a chat.
type ChatMessage struct {
	ID       int       `json:"id"`
	Text     string    `json:"text"`
	Date     time.Time `json:"date"`
	SenderID int64     `json:"from_id,omitempty"`
}

// Chat is a read projection of a dialog, derived fresh on every listing.
type Chat struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Kind        ChatKind     `json:"type"`
	UnreadCount int          `json:"unread_count"`
	LastMessage *ChatMessage `json:"last_message"`
}

// Message is a read projection of a single message. Sender fields are set
// only when the sender resolves to a user; media is a coarse tag, never
// downloaded content.
type Message struct {
	ID             int       `json:"id"`
	Text           string    `json:"text"`
	Date           time.Time `json:"date"`
	SenderID       int64     `json:"from_id,omitempty"`
	SenderName     string    `json:"from_name,omitempty"`
	SenderUsername string    `json:"from_username,omitempty"`
	ReplyToID      int       `json:"reply_to,omitempty"`
	MediaKind      string    `json:"media,omitempty"`
}

// SendResult describes a successfully sent message.
type SendResult struct {
	MessageID int       `json:"message_id"`
	ChatID    int64     `json:"chat_id"`
	Date      time.Time `json:"date"`
}

// User is the account identity returned after authentication.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// DisplayName returns a human-readable name for the user.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return u.Username
	}
	return "Unknown"
}

// AuthState is the login state machine position.
type AuthState int

const (
	StateUnauthenticated AuthState = iota
	StateCodeSent
	StatePasswordNeeded
	StateAuthenticated
)

func (s AuthState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateCodeSent:
		return "code_sent"
	case StatePasswordNeeded:
		return "password_needed"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// AuthStatus is the outcome of a login step as reported to the caller.
type AuthStatus string

const (
	AuthCodeSent       AuthStatus = "code_sent"
	AuthPasswordNeeded AuthStatus = "password_needed"
	AuthAuthenticated  AuthStatus = "authenticated"
)

// AuthResult is returned by every successful login step. User and Session
// are set only once Status is AuthAuthenticated.
type AuthResult struct {
	Status  AuthStatus `json:"status"`
	User    *User      `json:"user,omitempty"`
	Session string     `json:"session,omitempty"`
	Message string     `json:"message,omitempty"`
}
