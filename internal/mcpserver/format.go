package mcpserver

import (
	"fmt"
	"strings"
	"time"

	"github.com/StreetFDN/telegram-mcp/internal/domain"
)

// previewLen caps last-message previews in chat listings.
const previewLen = 50

func formatAuthResult(r *domain.AuthResult) string {
	switch r.Status {
	case domain.AuthCodeSent:
		return "Verification code sent to your phone.\n\n" +
			"Call authenticate again with the same phone and the code."
	case domain.AuthPasswordNeeded:
		return "Two-factor authentication is enabled.\n\n" +
			"Call authenticate again with your 2FA password."
	case domain.AuthAuthenticated:
		var b strings.Builder
		b.WriteString("Successfully authenticated!\n\n")
		if u := r.User; u != nil {
			fmt.Fprintf(&b, "User: %s\n", u.DisplayName())
			if u.Username != "" {
				fmt.Fprintf(&b, "Username: @%s\n", u.Username)
			}
			if u.Phone != "" {
				fmt.Fprintf(&b, "Phone: %s\n", u.Phone)
			}
		}
		if r.Session != "" {
			b.WriteString("\nSave this session string to avoid re-authenticating:\n")
			fmt.Fprintf(&b, "TELEGRAM_SESSION=%s", r.Session)
		}
		return b.String()
	}
	return r.Message
}

func formatChats(chats []domain.Chat) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d chats:\n\n", len(chats))
	for _, c := range chats {
		fmt.Fprintf(&b, "• %s (ID: %d)\n", c.Name, c.ID)
		fmt.Fprintf(&b, "  Type: %s, Unread: %d\n", c.Kind, c.UnreadCount)
		if c.LastMessage != nil {
			fmt.Fprintf(&b, "  Last: %s\n", preview(c.LastMessage.Text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatMessages(chatID int64, msgs []domain.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Retrieved %d messages from chat %d:\n\n", len(msgs), chatID)
	for _, m := range msgs {
		from := m.SenderName
		if from == "" {
			from = "Unknown"
		}
		fmt.Fprintf(&b, "[%s] %s (ID: %d):\n", m.Date.Format(time.RFC3339), from, m.ID)
		b.WriteString(m.Text)
		b.WriteString("\n")
		if m.ReplyToID != 0 {
			fmt.Fprintf(&b, "Reply to: %d\n", m.ReplyToID)
		}
		if m.MediaKind != "" {
			fmt.Fprintf(&b, "Media: %s\n", m.MediaKind)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatSendResult(r *domain.SendResult) string {
	return fmt.Sprintf("Message sent successfully!\n\nMessage ID: %d\nChat ID: %d\nDate: %s",
		r.MessageID, r.ChatID, r.Date.Format(time.RFC3339))
}

// preview truncates text for a single-line listing.
func preview(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)
	if len(runes) <= previewLen {
		return text
	}
	return string(runes[:previewLen]) + "..."
}
