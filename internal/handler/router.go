package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/pr-poehali-dev/telegram-copy-project/internal/metrics"
	"github.com/pr-poehali-dev/telegram-copy-project/internal/repository"
)

// Handle routes one event to its operation and always returns an envelope.
// A connection is taken only for valid requests and is released on every path.
func (h *Handler) Handle(ctx context.Context, ev Event) (resp Response) {
	start := time.Now()
	method := strings.ToUpper(ev.HTTPMethod)
	if method == "" {
		method = http.MethodGet
	}
	log := h.Log.With("request_id", uuid.NewString(), "method", method)

	if method == http.MethodOptions {
		return h.preflight()
	}

	action := "invalid"
	defer func() {
		metrics.Observe(action, resp.StatusCode, time.Since(start))
		log.Info("handler: Request handled", "action", action, "status", resp.StatusCode, "duration", time.Since(start))
	}()

	req, err := parseRequest(method, ev)
	if err != nil {
		log.Warn("handler: Bad request", "error", err)
		return h.errorResponse(http.StatusBadRequest, err.Error())
	}
	action = req.action()

	conn, err := h.Gateway.Acquire(ctx)
	if err != nil {
		log.Error("handler: Database unavailable", "error", err)
		return h.errorResponse(http.StatusInternalServerError, "Internal server error")
	}
	defer conn.Close()

	defer func() {
		if p := recover(); p != nil {
			log.Error("handler: Recovered from panic", "panic", p, "action", action)
			resp = h.errorResponse(http.StatusInternalServerError, "Internal server error")
		}
	}()

	userID, err := h.Identity.CurrentUser(ctx, ev)
	if err != nil {
		log.Warn("handler: Caller not resolved", "error", err)
		return h.errorResponse(http.StatusUnauthorized, "Unauthorized")
	}

	repos := repository.New(conn, log, h.Settings)
	payload, err := h.execute(ctx, repos, userID, req)
	if err != nil {
		return h.failure(log, err)
	}
	return h.jsonResponse(http.StatusOK, payload)
}

func (h *Handler) execute(ctx context.Context, repos repository.Repositories, userID int64, req Request) (any, error) {
	switch r := req.(type) {
	case ListChats:
		chats, err := repos.Chats.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"chats": chats}, nil

	case ListMessages:
		messages, err := repos.Messages.List(ctx, r.ChatID, userID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"messages": messages}, nil

	case ListContacts:
		contacts, err := repos.Contacts.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"contacts": contacts}, nil

	case SendMessage:
		msg, err := repos.Messages.Send(ctx, r.ChatID, lo.FromPtrOr(r.UserID, userID), userID, r.Text)
		if err != nil {
			return nil, err
		}
		return map[string]any{"message": msg}, nil

	case CreateGroup:
		chatID, err := repos.Chats.CreateGroup(ctx, userID, r.Name, r.MemberIDs, r.AdminIDs)
		if err != nil {
			return nil, err
		}
		return map[string]any{"chat_id": chatID, "success": true}, nil

	case ArchiveChat:
		if err := repos.Chats.SetArchived(ctx, r.ChatID, lo.FromPtrOr(r.IsArchived, true)); err != nil {
			return nil, err
		}
		return success(), nil

	case EditMessage:
		edited, err := repos.Messages.Edit(ctx, r.MessageID, userID, r.Text)
		if err != nil {
			return nil, err
		}
		return map[string]any{"success": true, "message": edited}, nil

	case DeleteMessage:
		if err := repos.Messages.Delete(ctx, r.MessageID, userID); err != nil {
			return nil, err
		}
		return success(), nil

	case AddReaction:
		if err := repos.Reactions.Add(ctx, r.MessageID, lo.FromPtrOr(r.UserID, userID), r.Emoji); err != nil {
			return nil, err
		}
		return success(), nil

	case RemoveReaction:
		if err := repos.Reactions.Remove(ctx, r.MessageID, lo.FromPtrOr(r.UserID, userID), r.Emoji); err != nil {
			return nil, err
		}
		return success(), nil

	case SetTyping:
		if err := repos.Typing.Heartbeat(ctx, r.ChatID, lo.FromPtrOr(r.UserID, userID)); err != nil {
			return nil, err
		}
		return success(), nil

	case GetTyping:
		names, err := repos.Typing.ListTyping(ctx, r.ChatID, userID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"typing": names}, nil

	default:
		return nil, fmt.Errorf("unhandled request %T", req)
	}
}

func success() map[string]bool {
	return map[string]bool{"success": true}
}

// failure maps repository errors onto the envelope. Details stay in the log.
func (h *Handler) failure(log *slog.Logger, err error) Response {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		log.Warn("handler: Not found", "error", err)
		return h.errorResponse(http.StatusNotFound, "Not found")
	case errors.Is(err, repository.ErrForbidden):
		log.Warn("handler: Forbidden", "error", err)
		return h.errorResponse(http.StatusForbidden, "Forbidden")
	default:
		log.Error("handler: Operation failed", "error", err)
		return h.errorResponse(http.StatusInternalServerError, "Internal server error")
	}
}
