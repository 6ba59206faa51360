package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Request is one of the operations below. The unexported method keeps the set closed.
type Request interface {
	action() string
}

type ListChats struct{}

type ListMessages struct {
	ChatID int64 `json:"chat_id" validate:"required,gt=0"`
}

type ListContacts struct{}

type SendMessage struct {
	ChatID int64  `json:"chat_id" validate:"required,gt=0"`
	Text   string `json:"text" validate:"required"`
	UserID *int64 `json:"user_id" validate:"omitempty,gt=0"`
}

type CreateGroup struct {
	Name      string  `json:"name" validate:"required,max=255"`
	MemberIDs []int64 `json:"member_ids" validate:"dive,gt=0"`
	AdminIDs  []int64 `json:"admin_ids" validate:"dive,gt=0"`
}

type ArchiveChat struct {
	ChatID     int64 `json:"chat_id" validate:"required,gt=0"`
	IsArchived *bool `json:"is_archived"`
}

type EditMessage struct {
	MessageID int64  `json:"message_id" validate:"required,gt=0"`
	Text      string `json:"text" validate:"required"`
}

type DeleteMessage struct {
	MessageID int64 `json:"message_id" validate:"required,gt=0"`
}

// ReactionTarget identifies one reaction row.
type ReactionTarget struct {
	MessageID int64  `json:"message_id" validate:"required,gt=0"`
	Emoji     string `json:"emoji" validate:"required,max=32"`
	UserID    *int64 `json:"user_id" validate:"omitempty,gt=0"`
}

type AddReaction struct{ ReactionTarget }

type RemoveReaction struct{ ReactionTarget }

type SetTyping struct {
	ChatID int64  `json:"chat_id" validate:"required,gt=0"`
	UserID *int64 `json:"user_id" validate:"omitempty,gt=0"`
}

type GetTyping struct {
	ChatID int64 `json:"chat_id" validate:"required,gt=0"`
}

func (ListChats) action() string      { return "chats" }
func (ListMessages) action() string   { return "messages" }
func (ListContacts) action() string   { return "contacts" }
func (SendMessage) action() string    { return "send_message" }
func (CreateGroup) action() string    { return "create_group" }
func (ArchiveChat) action() string    { return "archive_chat" }
func (EditMessage) action() string    { return "edit_message" }
func (DeleteMessage) action() string  { return "delete_message" }
func (AddReaction) action() string    { return "add_reaction" }
func (RemoveReaction) action() string { return "remove_reaction" }
func (SetTyping) action() string      { return "set_typing" }
func (GetTyping) action() string      { return "get_typing" }

// requestError is a client mistake answered with 400.
type requestError struct {
	message string
}

func (e *requestError) Error() string { return e.message }

var errInvalidRequest = &requestError{message: "Invalid request"}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// エラーメッセージには JSON のフィールド名を使う
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseRequest turns an event into a typed request. method must already be upper-cased.
func parseRequest(method string, ev Event) (Request, error) {
	switch method {
	case http.MethodGet:
		return parseQuery(ev.QueryStringParameters)
	case http.MethodPost:
		body, err := eventBody(ev)
		if err != nil {
			return nil, err
		}
		return parseBody(body)
	default:
		return nil, errInvalidRequest
	}
}

func parseQuery(params map[string]string) (Request, error) {
	action := params["action"]
	if action == "" {
		action = "chats"
	}

	switch action {
	case "chats":
		return ListChats{}, nil
	case "contacts":
		return ListContacts{}, nil
	case "messages":
		raw := params["chat_id"]
		if raw == "" {
			return nil, &requestError{message: "chat_id is required"}
		}
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &requestError{message: "invalid chat_id"}
		}
		return checked(ListMessages{ChatID: chatID})
	default:
		return nil, errInvalidRequest
	}
}

func eventBody(ev Event) ([]byte, error) {
	if ev.Body == "" {
		return []byte("{}"), nil
	}
	if !ev.IsBase64Encoded {
		return []byte(ev.Body), nil
	}
	body, err := base64.StdEncoding.DecodeString(ev.Body)
	if err != nil {
		return nil, &requestError{message: "Invalid request body"}
	}
	return body, nil
}

func parseBody(body []byte) (Request, error) {
	var head struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return nil, &requestError{message: "Invalid request body"}
	}

	switch head.Action {
	case "send_message":
		return decode[SendMessage](body)
	case "create_group":
		return decode[CreateGroup](body)
	case "archive_chat":
		return decode[ArchiveChat](body)
	case "edit_message":
		return decode[EditMessage](body)
	case "delete_message":
		return decode[DeleteMessage](body)
	case "add_reaction":
		return decode[AddReaction](body)
	case "remove_reaction":
		return decode[RemoveReaction](body)
	case "set_typing":
		return decode[SetTyping](body)
	case "get_typing":
		return decode[GetTyping](body)
	default:
		return nil, errInvalidRequest
	}
}

func decode[T Request](body []byte) (Request, error) {
	var req T
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &requestError{message: "Invalid request body"}
	}
	return checked(req)
}

func checked[T Request](req T) (Request, error) {
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	return req, nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errInvalidRequest
	}
	fe := fieldErrs[0]
	if fe.Tag() == "required" {
		return &requestError{message: fmt.Sprintf("%s is required", fe.Field())}
	}
	return &requestError{message: fmt.Sprintf("invalid %s", fe.Field())}
}
