package telegram

import (
	"time"

	"github.com/gotd/td/tg"

	"github.com/StreetFDN/telegram-mcp/internal/domain"
)

// convertUser projects the account identity.
func convertUser(u *tg.User) *domain.User {
	if u == nil {
		return nil
	}
	return &domain.User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		Phone:     u.Phone,
	}
}

// convertMessage projects a tg.Message. Sender fields are populated only
// when the sender resolves to a user in the accompanying entity map; group
// and channel senders without a user identity leave them unset.
func convertMessage(msg *tg.Message, users map[int64]*tg.User, self *tg.User) domain.Message {
	out := domain.Message{
		ID:   msg.ID,
		Text: msg.Message,
		Date: time.Unix(int64(msg.Date), 0).UTC(),
	}

	var sender *tg.User
	if fromID, ok := msg.GetFromID(); ok {
		if p, ok := fromID.(*tg.PeerUser); ok {
			sender = users[p.UserID]
		}
	} else if p, ok := msg.PeerID.(*tg.PeerUser); ok {
		// DMs often omit FromID: incoming messages come from the peer,
		// outgoing ones from the account itself.
		if msg.Out {
			sender = self
		} else {
			sender = users[p.UserID]
		}
	}
	if sender != nil {
		out.SenderID = sender.ID
		out.SenderName = formatUserName(sender)
		out.SenderUsername = sender.Username
	}

	if hdr, ok := msg.GetReplyTo(); ok {
		if h, ok := hdr.(*tg.MessageReplyHeader); ok {
			if id, ok := h.GetReplyToMsgID(); ok {
				out.ReplyToID = id
			}
		}
	}

	if media, ok := msg.GetMedia(); ok {
		out.MediaKind = mediaKind(media)
	}

	return out
}

// mediaKind tags attached media with a coarse kind; content is never
// fetched.
func mediaKind(media tg.MessageMediaClass) string {
	switch media.(type) {
	case *tg.MessageMediaEmpty:
		return ""
	case *tg.MessageMediaPhoto:
		return "photo"
	case *tg.MessageMediaDocument:
		return "document"
	case *tg.MessageMediaGeo, *tg.MessageMediaGeoLive:
		return "geo"
	case *tg.MessageMediaContact:
		return "contact"
	case *tg.MessageMediaPoll:
		return "poll"
	case *tg.MessageMediaWebPage:
		return "webpage"
	case *tg.MessageMediaVenue:
		return "venue"
	case *tg.MessageMediaGame:
		return "game"
	case *tg.MessageMediaInvoice:
		return "invoice"
	case *tg.MessageMediaDice:
		return "dice"
	case *tg.MessageMediaStory:
		return "story"
	default:
		return "other"
	}
}

// peerID extracts the numeric ID from a message/dialog peer.
func peerID(peer tg.PeerClass) int64 {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return p.UserID
	case *tg.PeerChat:
		return p.ChatID
	case *tg.PeerChannel:
		return p.ChannelID
	default:
		return 0
	}
}

// inputPeerID extracts the numeric ID from an input peer.
func inputPeerID(peer tg.InputPeerClass) int64 {
	switch p := peer.(type) {
	case *tg.InputPeerUser:
		return p.UserID
	case *tg.InputPeerChat:
		return p.ChatID
	case *tg.InputPeerChannel:
		return p.ChannelID
	default:
		return 0
	}
}

// channelKind distinguishes broadcast channels from megagroup chats.
func channelKind(ch *tg.Channel) domain.ChatKind {
	if ch.Broadcast {
		return domain.ChatKindChannel
	}
	return domain.ChatKindGroup
}

// formatUserName returns a display name for a user.
func formatUserName(u *tg.User) string {
	if u.FirstName != "" && u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return "Unknown"
}

// usersToMap converts a UserClass slice to a map of User by ID.
func usersToMap(users []tg.UserClass) map[int64]*tg.User {
	m := make(map[int64]*tg.User, len(users))
	for _, u := range users {
		user, ok := u.(*tg.User)
		if !ok {
			continue
		}
		m[user.ID] = user
	}
	return m
}
