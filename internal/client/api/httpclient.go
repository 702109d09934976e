package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chatpulse/chatpulse-cli/internal/client/models"
	"github.com/chatpulse/chatpulse-cli/internal/logging"
)

// maxErrorBody caps how much of an error response is read for the detail field.
const maxErrorBody = 1 << 16

// HTTPClient talks JSON over HTTP to the ChatPulse backend.
//
// It holds a nullable current credential. When set, every request carries
// Authorization: Bearer <token>. The session store is the only writer.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	log     logging.Logger
	token   string
}

func NewHTTPClient(baseURL string, timeout time.Duration, log logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (c *HTTPClient) AttachCredential(token string) {
	c.token = token
}

func (c *HTTPClient) DetachCredential() {
	c.token = ""
}

func (c *HTTPClient) Credential() string {
	return c.token
}

// Close releases idle connections held by the underlying transport.
func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// do issues one JSON request and decodes the response into out (when non-nil).
// Transport-level failures map to ErrUnavailable; backend rejections come
// back as *Error carrying the detail string.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug(ctx, "request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.rejection(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// rejection extracts the FastAPI-style {"detail": ...} reason, if any.
func (c *HTTPClient) rejection(resp *http.Response) error {
	var payload struct {
		Detail string `json:"detail"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&payload)
	return &Error{Status: resp.StatusCode, Detail: payload.Detail}
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (string, error) {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *HTTPClient) Register(ctx context.Context, reg models.Registration) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.do(ctx, http.MethodPost, "/auth/register", reg, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *HTTPClient) SendVerificationCode(ctx context.Context, email string) (*VerificationDispatch, error) {
	req := struct {
		Email string `json:"email"`
	}{email}

	var resp VerificationDispatch
	if err := c.do(ctx, http.MethodPost, "/auth/send-verification", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) VerifyCode(ctx context.Context, email, code string) error {
	req := struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}{email, code}

	return c.do(ctx, http.MethodPost, "/auth/verify-code", req, nil)
}

func (c *HTTPClient) SignupWithVerification(ctx context.Context, signup models.Signup) (*models.UserProfile, error) {
	var resp struct {
		Message string             `json:"message"`
		User    models.UserProfile `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/signup-with-verification", signup, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, email string) (*ResetDispatch, error) {
	req := struct {
		Email string `json:"email"`
	}{email}

	var resp ResetDispatch
	if err := c.do(ctx, http.MethodPost, "/auth/forgot-password", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyResetToken checks a reset token without consuming it and returns the
// email it belongs to.
func (c *HTTPClient) VerifyResetToken(ctx context.Context, token string) (string, error) {
	var resp struct {
		Valid bool   `json:"valid"`
		Email string `json:"email"`
	}
	path := "/auth/verify-reset-token/" + url.PathEscape(token)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	if !resp.Valid {
		return "", &Error{Status: http.StatusBadRequest, Detail: "Invalid or expired reset token"}
	}
	return resp.Email, nil
}

func (c *HTTPClient) ResetPassword(ctx context.Context, token, newPassword string) error {
	req := struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}{token, newPassword}

	return c.do(ctx, http.MethodPost, "/auth/reset-password", req, nil)
}

func (c *HTTPClient) GoogleCallback(ctx context.Context, code, state string) (*GoogleLogin, error) {
	q := url.Values{}
	q.Set("code", code)
	q.Set("state", state)

	var resp GoogleLogin
	path := "/auth/google/google/callback?" + q.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *HTTPClient) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	req := struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}{currentPassword, newPassword}

	return c.do(ctx, http.MethodPut, "/auth/change-password", req, nil)
}

var _ Client = (*HTTPClient)(nil)
