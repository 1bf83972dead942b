// Package mcpserver exposes the account operations as MCP tools. It is a
// thin transport: argument plumbing and response formatting only, with all
// behavior defined by the account layer.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/StreetFDN/telegram-mcp/internal/account"
	"github.com/StreetFDN/telegram-mcp/internal/domain"
)

const shutdownTimeout = 5 * time.Second

// Server wraps an MCP server with the four Telegram tools registered.
type Server struct {
	acct   *account.Account
	logger *zap.Logger
	mcp    *server.MCPServer
}

// New builds the tool server around acct.
func New(acct *account.Account, version string, logger *zap.Logger) *Server {
	s := &Server{
		acct:   acct,
		logger: logger,
		mcp: server.NewMCPServer(
			"telegram-mcp",
			version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	return s
}

// ServeStdio serves the MCP protocol over stdin/stdout and blocks until
// the stream closes.
func (s *Server) ServeStdio() error {
	s.logger.Info("serving over stdio")
	return server.ServeStdio(s.mcp)
}

// ServeHTTP serves the streamable HTTP transport on addr until ctx is
// cancelled.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.mcp)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start(addr)
	}()
	s.logger.Info("serving over http", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("authenticate",
		mcp.WithDescription("Authenticate with Telegram using a phone number. Multi-step: 1) provide phone to receive a code, 2) provide phone and code to sign in, 3) provide the 2FA password if the account requires one."),
		mcp.WithString("phone", mcp.Description("Phone number in international format (e.g. +15551234567). Required for first-time setup.")),
		mcp.WithString("code", mcp.Description("Verification code sent to the phone.")),
		mcp.WithString("password", mcp.Description("Two-factor authentication password, if enabled.")),
	), s.handleAuthenticate)

	s.mcp.AddTool(mcp.NewTool("list_chats",
		mcp.WithDescription("List the user's chats, groups and channels with unread counts and last-message previews."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of chats to return (default 20, max 100).")),
	), s.handleListChats)

	s.mcp.AddTool(mcp.NewTool("get_messages",
		mcp.WithDescription("Get messages from a specific chat, group or channel, newest first."),
		mcp.WithNumber("chat_id", mcp.Required(), mcp.Description("Chat ID, as returned by list_chats.")),
		mcp.WithNumber("limit", mcp.Description("Number of messages to return (default 10, max 100).")),
		mcp.WithNumber("offset", mcp.Description("Message-ID pagination cursor; returns messages older than this ID (default 0).")),
	), s.handleGetMessages)

	s.mcp.AddTool(mcp.NewTool("send_message",
		mcp.WithDescription("Send a text message to a specific chat, group or channel."),
		mcp.WithNumber("chat_id", mcp.Required(), mcp.Description("Chat ID to send to.")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Message text.")),
		mcp.WithNumber("reply_to", mcp.Description("Optional message ID to reply to.")),
	), s.handleSendMessage)
}

func (s *Server) handleAuthenticate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phone := req.GetString("phone", "")
	code := req.GetString("code", "")
	password := req.GetString("password", "")

	result, err := s.acct.Login(ctx, phone, code, password)
	if err != nil {
		return s.toolError("authenticate", err), nil
	}
	return mcp.NewToolResultText(formatAuthResult(result)), nil
}

func (s *Server) handleListChats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 0)

	chats, err := s.acct.ListChats(ctx, limit)
	if err != nil {
		return s.toolError("list_chats", err), nil
	}
	return mcp.NewToolResultText(formatChats(chats)), nil
}

func (s *Server) handleGetMessages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	chatID, err := req.RequireInt("chat_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", 0)
	offset := req.GetInt("offset", 0)

	msgs, err := s.acct.Messages(ctx, int64(chatID), limit, offset)
	if err != nil {
		return s.toolError("get_messages", err), nil
	}
	return mcp.NewToolResultText(formatMessages(int64(chatID), msgs)), nil
}

func (s *Server) handleSendMessage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	chatID, err := req.RequireInt("chat_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	replyTo := req.GetInt("reply_to", 0)

	result, err := s.acct.Send(ctx, int64(chatID), text, replyTo)
	if err != nil {
		return s.toolError("send_message", err), nil
	}
	return mcp.NewToolResultText(formatSendResult(result)), nil
}

// toolError renders a domain error as an in-band tool failure. Raw
// provider errors never reach this point; everything is already one of
// the closed error kinds.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Warn("tool failed", zap.String("tool", tool), zap.Error(err))

	var de *domain.Error
	if errors.As(err, &de) {
		if de.Kind == domain.ErrRateLimited {
			return mcp.NewToolResultError(fmt.Sprintf("%s: retry after %s", de.Kind, de.RetryAfter))
		}
		return mcp.NewToolResultError(de.Error())
	}
	return mcp.NewToolResultError(err.Error())
}
