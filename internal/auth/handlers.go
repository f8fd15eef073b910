package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jimdaga/apod-auth/internal/validation"
)

// Flows is the surface the HTTP handlers drive. *Service implements it.
type Flows interface {
	Signup(ctx context.Context, req SignupRequest) error
	Login(ctx context.Context, req LoginRequest) (string, error)
	LoginWithGoogle(ctx context.Context, credential string) (string, error)
}

// GoogleLoginRequest is the Google login payload.
type GoogleLoginRequest struct {
	Credential string `json:"credential"`
}

// Handlers serves the auth endpoints.
type Handlers struct {
	flows        Flows
	exposeErrors bool
}

// NewHandlers creates the auth handlers. When exposeErrors is set, internal
// failure details are added to error responses; enable it in development only.
func NewHandlers(flows Flows, exposeErrors bool) *Handlers {
	return &Handlers{flows: flows, exposeErrors: exposeErrors}
}

// Register mounts the auth routes on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.POST("/api/users", h.Signup)
	r.POST("/api/auth", h.Login)
	r.POST("/api/auth/google", h.GoogleLogin)
}

// Signup handles POST /api/users.
func (h *Handlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := decodeStrict(c.Request.Body, &req); err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.flows.Signup(c.Request.Context(), req); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully"})
}

// Login handles POST /api/auth.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := decodeStrict(c.Request.Body, &req); err != nil {
		h.respondError(c, err)
		return
	}

	tok, err := h.flows.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tok, "message": "logged in successfully"})
}

// GoogleLogin handles POST /api/auth/google.
func (h *Handlers) GoogleLogin(c *gin.Context) {
	var req GoogleLoginRequest
	if err := decodeLenient(c.Request.Body, &req); err != nil {
		h.respondError(c, err)
		return
	}

	tok, err := h.flows.LoginWithGoogle(c.Request.Context(), req.Credential)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tok, "message": "Logged in successfully with Google"})
}

func (h *Handlers) respondError(c *gin.Context, err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = newError(KindInternal, msgInternal, err)
	}

	body := gin.H{"message": e.Message}
	if h.exposeErrors {
		if detail := e.Detail(); detail != "" {
			body["error"] = detail
		}
	}

	c.JSON(StatusFor(e), body)
}

// StatusFor maps a flow error onto an HTTP status code.
func StatusFor(e *Error) int {
	switch e.Kind {
	case KindValidation, KindInvalidRequest:
		return http.StatusBadRequest
	case KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindInvalidAssertion:
		if e.Code == CodeEmailMissing {
			return http.StatusBadRequest
		}
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// decodeStrict decodes a JSON object and rejects keys dst does not declare.
func decodeStrict(body io.Reader, dst interface{}) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if name, ok := unknownField(err); ok {
			fe := validation.UnknownField(name)
			return &Error{Kind: KindValidation, Code: KindValidation.String(), Field: fe.Field, Message: fe.Message}
		}
		return malformedBody(err)
	}
	return nil
}

// decodeLenient decodes a JSON object; an empty body decodes to the zero value.
func decodeLenient(body io.Reader, dst interface{}) error {
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return malformedBody(err)
	}
	return nil
}

func malformedBody(err error) *Error {
	return newError(KindInvalidRequest, "Invalid request body", err)
}

// unknownField extracts the key from encoding/json's unknown field error.
func unknownField(err error) (string, bool) {
	const prefix = "json: unknown field "
	msg := err.Error()
	if !strings.HasPrefix(msg, prefix) {
		return "", false
	}
	return strings.Trim(strings.TrimPrefix(msg, prefix), `"`), true
}
