package telegram

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/query/dialogs"
	"github.com/gotd/td/tg"

	"github.com/StreetFDN/telegram-mcp/internal/domain"
)

// peerScanLimit bounds the dialog scan used to resolve an uncached peer.
const peerScanLimit = 500

// GotdClient implements Client using gotd/td.
type GotdClient struct {
	apiID   int
	apiHash string
	storage *StringSession
	logger  *zap.Logger

	client *telegram.Client
	api    *tg.Client
	sender *message.Sender
	self   *tg.User

	mu        sync.Mutex
	peerCache map[int64]tg.InputPeerClass

	connMu    sync.Mutex
	connected bool
	cancel    context.CancelFunc
	done      chan struct{}
	runErr    error
}

// NewGotdClient creates a client for the given API credentials and session
// storage. No network activity happens until Connect.
func NewGotdClient(apiID int, apiHash string, storage *StringSession, logger *zap.Logger) *GotdClient {
	return &GotdClient{
		apiID:     apiID,
		apiHash:   apiHash,
		storage:   storage,
		logger:    logger,
		peerCache: make(map[int64]tg.InputPeerClass),
	}
}

// Connect starts the client's connection loop in the background and waits
// until the connection is usable. Calling Connect on a connected client is
// a no-op.
func (c *GotdClient) Connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.connected {
		return nil
	}

	c.client = telegram.NewClient(c.apiID, c.apiHash, telegram.Options{
		Logger:         c.logger.Named("gotd"),
		SessionStorage: c.storage,
	})

	runCtx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		c.runErr = c.client.Run(runCtx, func(ctx context.Context) error {
			c.api = c.client.API()
			c.sender = message.NewSender(c.api)
			close(ready)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	select {
	case <-ready:
		c.cancel = cancel
		c.done = done
		c.connected = true
		c.logger.Info("connected")
		return nil
	case <-done:
		cancel()
		return translate(c.runErr)
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}
}

// Close stops the connection loop. Safe to call multiple times and on a
// never-connected client.
func (c *GotdClient) Close() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if !c.connected {
		return nil
	}
	c.cancel()
	<-c.done
	c.connected = false
	c.logger.Info("disconnected")
	return nil
}

func (c *GotdClient) ensureConnected() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if !c.connected {
		return domain.NewError(domain.ErrUnavailable, "client is not connected")
	}
	return nil
}

// IsAuthorized probes whether the current session is usable.
func (c *GotdClient) IsAuthorized(ctx context.Context) (bool, error) {
	if err := c.ensureConnected(); err != nil {
		return false, err
	}
	status, err := c.client.Auth().Status(ctx)
	if err != nil {
		return false, translate(err)
	}
	return status.Authorized, nil
}

// SendCode dispatches a one-time login code and returns the code hash
// needed to complete sign-in.
func (c *GotdClient) SendCode(ctx context.Context, phone string) (string, error) {
	if err := c.ensureConnected(); err != nil {
		return "", err
	}
	sent, err := c.client.Auth().SendCode(ctx, phone, auth.SendCodeOptions{})
	if err != nil {
		return "", translate(err)
	}
	switch s := sent.(type) {
	case *tg.AuthSentCode:
		return s.PhoneCodeHash, nil
	case *tg.AuthSentCodeSuccess:
		// Future-auth-token path: already signed in, no code step needed.
		return "", nil
	default:
		return "", domain.Errorf(domain.ErrUnavailable, "unexpected sent code type %T", sent)
	}
}

// SignIn completes phone/code authentication.
func (c *GotdClient) SignIn(ctx context.Context, phone, code, codeHash string) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}
	if _, err := c.client.Auth().SignIn(ctx, phone, code, codeHash); err != nil {
		return translate(err)
	}
	return nil
}

// SignInPassword completes two-factor authentication.
func (c *GotdClient) SignInPassword(ctx context.Context, password string) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}
	if _, err := c.client.Auth().Password(ctx, password); err != nil {
		return translate(err)
	}
	return nil
}

// Self fetches the authenticated account identity.
func (c *GotdClient) Self(ctx context.Context) (*domain.User, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}
	self, err := c.client.Self(ctx)
	if err != nil {
		return nil, translate(err)
	}
	c.self = self
	return convertUser(self), nil
}

// ExportSession serializes the current session into a portable token.
func (c *GotdClient) ExportSession() (string, error) {
	return c.storage.Export()
}

// Dialogs fetches up to limit dialogs in provider order, most recently
// active first, caching peers for later ID resolution.
func (c *GotdClient) Dialogs(ctx context.Context, limit int) ([]domain.Chat, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	iter := dialogs.NewQueryBuilder(c.api).GetDialogs().BatchSize(100).Iter()

	out := make([]domain.Chat, 0, limit)
	for len(out) < limit && iter.Next(ctx) {
		chat, ok := c.convertDialog(iter.Value())
		if !ok {
			continue
		}
		out = append(out, chat)
	}
	if err := iter.Err(); err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// convertDialog projects a dialog element and caches its peer.
func (c *GotdClient) convertDialog(elem dialogs.Elem) (domain.Chat, bool) {
	id := inputPeerID(elem.Peer)
	if id == 0 {
		return domain.Chat{}, false
	}
	c.cachePeer(id, elem.Peer)

	chat := domain.Chat{ID: id, Name: "Unknown", Kind: domain.ChatKindUser}

	switch p := elem.Dialog.GetPeer().(type) {
	case *tg.PeerUser:
		if u, ok := elem.Entities.User(p.UserID); ok {
			chat.Name = formatUserName(u)
		}
	case *tg.PeerChat:
		chat.Kind = domain.ChatKindGroup
		if ch, ok := elem.Entities.Chat(p.ChatID); ok {
			chat.Name = ch.Title
		}
	case *tg.PeerChannel:
		chat.Kind = domain.ChatKindChannel
		if ch, ok := elem.Entities.Channel(p.ChannelID); ok {
			chat.Name = ch.Title
			chat.Kind = channelKind(ch)
		}
	}

	if dlg, ok := elem.Dialog.(*tg.Dialog); ok {
		chat.UnreadCount = dlg.UnreadCount
	}
	if elem.Last != nil {
		if msg, ok := elem.Last.(*tg.Message); ok {
			last := &domain.ChatMessage{
				ID:   msg.ID,
				Text: msg.Message,
				Date: time.Unix(int64(msg.Date), 0).UTC(),
			}
			if fromID, ok := msg.GetFromID(); ok {
				if p, ok := fromID.(*tg.PeerUser); ok {
					last.SenderID = p.UserID
				}
			}
			chat.LastMessage = last
		}
	}
	return chat, true
}

// History retrieves up to limit messages from chatID, newest first. A
// non-zero offsetID returns only messages older than it.
func (c *GotdClient) History(ctx context.Context, chatID int64, limit, offsetID int) ([]domain.Message, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}
	peer, err := c.resolvePeer(ctx, chatID)
	if err != nil {
		return nil, err
	}

	result, err := c.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:     peer,
		Limit:    limit,
		OffsetID: offsetID,
	})
	if err != nil {
		return nil, translate(err)
	}
	return c.convertHistory(result)
}

// convertHistory extracts messages from a history response, preserving the
// provider's newest-first order.
func (c *GotdClient) convertHistory(result tg.MessagesMessagesClass) ([]domain.Message, error) {
	var messages []tg.MessageClass
	var users []tg.UserClass

	switch r := result.(type) {
	case *tg.MessagesMessages:
		messages = r.Messages
		users = r.Users
	case *tg.MessagesMessagesSlice:
		messages = r.Messages
		users = r.Users
	case *tg.MessagesChannelMessages:
		messages = r.Messages
		users = r.Users
	default:
		return nil, domain.Errorf(domain.ErrUnavailable, "unexpected messages type %T", result)
	}

	userMap := usersToMap(users)

	out := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		msg, ok := m.(*tg.Message)
		if !ok {
			continue
		}
		out = append(out, convertMessage(msg, userMap, c.self))
	}
	return out, nil
}

// Send delivers text to chatID, optionally as a reply.
func (c *GotdClient) Send(ctx context.Context, chatID int64, text string, replyTo int) (*domain.SendResult, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}
	peer, err := c.resolvePeer(ctx, chatID)
	if err != nil {
		return nil, err
	}

	req := c.sender.To(peer)
	var updates tg.UpdatesClass
	if replyTo > 0 {
		updates, err = req.Reply(replyTo).Text(ctx, text)
	} else {
		updates, err = req.Text(ctx, text)
	}
	if err != nil {
		return nil, translate(err)
	}
	return extractSendResult(updates, chatID), nil
}

// extractSendResult pulls the new message ID and date out of the updates
// returned by a send call.
func extractSendResult(updates tg.UpdatesClass, chatID int64) *domain.SendResult {
	switch u := updates.(type) {
	case *tg.UpdateShortSentMessage:
		return &domain.SendResult{
			MessageID: u.ID,
			ChatID:    chatID,
			Date:      time.Unix(int64(u.Date), 0).UTC(),
		}
	case *tg.Updates:
		return sendResultFromUpdates(u.Updates, u.Date, chatID)
	case *tg.UpdatesCombined:
		return sendResultFromUpdates(u.Updates, u.Date, chatID)
	}
	return &domain.SendResult{ChatID: chatID, Date: time.Now().UTC()}
}

func sendResultFromUpdates(updates []tg.UpdateClass, date int, chatID int64) *domain.SendResult {
	res := &domain.SendResult{ChatID: chatID, Date: time.Unix(int64(date), 0).UTC()}
	for _, upd := range updates {
		switch u := upd.(type) {
		case *tg.UpdateNewMessage:
			if msg, ok := u.Message.(*tg.Message); ok {
				res.MessageID = msg.ID
				res.Date = time.Unix(int64(msg.Date), 0).UTC()
				return res
			}
		case *tg.UpdateNewChannelMessage:
			if msg, ok := u.Message.(*tg.Message); ok {
				res.MessageID = msg.ID
				res.Date = time.Unix(int64(msg.Date), 0).UTC()
				return res
			}
		case *tg.UpdateMessageID:
			res.MessageID = u.ID
		}
	}
	return res
}

// resolvePeer finds the input peer for a chat ID. On a cache miss it warms
// the cache with one dialog scan; a second miss is NotFound.
func (c *GotdClient) resolvePeer(ctx context.Context, chatID int64) (tg.InputPeerClass, error) {
	if peer := c.findPeer(chatID); peer != nil {
		return peer, nil
	}
	if err := c.scanPeers(ctx, chatID); err != nil {
		return nil, err
	}
	if peer := c.findPeer(chatID); peer != nil {
		return peer, nil
	}
	return nil, domain.Errorf(domain.ErrNotFound, "chat %d not found", chatID)
}

// scanPeers walks dialogs to populate the peer cache, stopping early once
// wanted shows up.
func (c *GotdClient) scanPeers(ctx context.Context, wanted int64) error {
	iter := dialogs.NewQueryBuilder(c.api).GetDialogs().BatchSize(100).Iter()

	seen := 0
	for seen < peerScanLimit && iter.Next(ctx) {
		elem := iter.Value()
		id := inputPeerID(elem.Peer)
		if id != 0 {
			c.cachePeer(id, elem.Peer)
			if id == wanted {
				return nil
			}
		}
		seen++
	}
	if err := iter.Err(); err != nil {
		return translate(err)
	}
	return nil
}

func (c *GotdClient) findPeer(chatID int64) tg.InputPeerClass {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peerCache[chatID]
}

func (c *GotdClient) cachePeer(chatID int64, peer tg.InputPeerClass) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peerCache[chatID] = peer
}
