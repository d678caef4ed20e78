package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jafarshop/backoffice/internal/config"
	"github.com/jafarshop/backoffice/pkg/errors"
)

type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	sessions   SessionCache
	sessionTTL time.Duration
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewClient creates a new carrier API client. Session tokens are cached in
// sessions for cfg.SessionTTL; a nil cache or a zero TTL logs in on every call.
func NewClient(cfg config.CarrierConfig, sessions SessionCache, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		sessions:   sessions,
		sessionTTL: cfg.SessionTTL,
		validate:   validator.New(),
		logger:     logger,
	}
}

// Login opens a carrier session and returns its token
func (c *Client) Login(ctx context.Context) (string, error) {
	env, err := c.execute(ctx, http.MethodPost, "/api/login", "", loginRequest{
		Username: c.username,
		Password: c.password,
	})
	if carrierErr, ok := err.(*errors.ErrCarrier); ok {
		return "", &errors.ErrCarrierAuth{Message: carrierErr.Message}
	}
	if err != nil {
		return "", err
	}

	var data loginData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return "", fmt.Errorf("failed to decode login response: %w", err)
		}
	}
	if data.Token == "" {
		return "", &errors.ErrCarrierAuth{Message: "login response carried no session token"}
	}

	return data.Token, nil
}

// CreateOrUpdateDelivery saves a delivery. The carrier must echo the
// delivery identifier; a success without one is reported as a validation
// failure with the carrier's raw message.
func (c *Client) CreateOrUpdateDelivery(ctx context.Context, payload DeliveryPayload) (*DeliveryResult, error) {
	if err := c.validatePayload(payload); err != nil {
		return nil, err
	}

	env, err := c.authorized(ctx, http.MethodPost, "/api/deliveries/save", payload)
	if err != nil {
		return nil, err
	}

	var result DeliveryResult
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &result); err != nil {
			return nil, &errors.ErrCarrierValidation{Message: rawMessage(env)}
		}
	}
	if result.ID == "" {
		return nil, &errors.ErrCarrierValidation{Message: rawMessage(env)}
	}

	c.logger.Info("Carrier delivery saved",
		zap.String("reference", payload.Reference),
		zap.String("shipping_id", result.ID),
		zap.Bool("update", payload.ID != ""),
	)

	return &result, nil
}

// RequestPickup asks the carrier to collect every delivery in ids at the
// given pickup point, in one batch
func (c *Client) RequestPickup(ctx context.Context, ids []string, pickupPointID string) error {
	req := pickupRequest{IDs: ids, PickupPointID: pickupPointID}
	if err := c.validate.Struct(req); err != nil {
		return &errors.ErrCarrierValidation{Message: formatValidationErrors(err)}
	}

	if _, err := c.authorized(ctx, http.MethodPost, "/api/pickups", req); err != nil {
		return err
	}

	c.logger.Info("Carrier pickup requested",
		zap.Int("deliveries", len(ids)),
		zap.String("pickup_point_id", pickupPointID),
	)
	return nil
}

// ListCities returns the destinations served by the carrier
func (c *Client) ListCities(ctx context.Context) ([]City, error) {
	env, err := c.authorized(ctx, http.MethodGet, "/api/cities", nil)
	if err != nil {
		return nil, err
	}

	cities := make([]City, 0)
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &cities); err != nil {
			return nil, fmt.Errorf("failed to decode cities: %w", err)
		}
	}
	return cities, nil
}

func (c *Client) validatePayload(payload DeliveryPayload) error {
	if err := c.validate.Struct(payload); err != nil {
		return &errors.ErrCarrierValidation{Message: formatValidationErrors(err)}
	}
	if payload.Amount.IsNegative() {
		return &errors.ErrCarrierValidation{Message: "amount must not be negative"}
	}
	return nil
}

// authorized runs a call with the current session token. A rejected token
// is evicted from the cache so the next call logs in again.
func (c *Client) authorized(ctx context.Context, method, path string, body interface{}) (*Envelope, error) {
	token, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	env, err := c.execute(ctx, method, path, token, body)
	if _, ok := err.(*errors.ErrCarrierAuth); ok && c.cachingEnabled() {
		if invErr := c.sessions.Invalidate(ctx, c.username); invErr != nil {
			c.logger.Warn("Failed to invalidate carrier session", zap.Error(invErr))
		}
	}
	return env, err
}

func (c *Client) cachingEnabled() bool {
	return c.sessions != nil && c.sessionTTL > 0
}

func (c *Client) session(ctx context.Context) (string, error) {
	if c.cachingEnabled() {
		token, ok, err := c.sessions.Get(ctx, c.username)
		if err != nil {
			c.logger.Warn("Carrier session cache unavailable", zap.Error(err))
		}
		if ok {
			return token, nil
		}
	}

	token, err := c.Login(ctx)
	if err != nil {
		return "", err
	}

	if c.cachingEnabled() {
		if err := c.sessions.Set(ctx, c.username, token, c.sessionTTL); err != nil {
			c.logger.Warn("Failed to cache carrier session", zap.Error(err))
		}
	}
	return token, nil
}

// execute performs one request. Transport and HTTP failures are returned as
// wrapped errors; a non-zero envelope status becomes *errors.ErrCarrier.
func (c *Client) execute(ctx context.Context, method, path, token string, body interface{}) (*Envelope, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &errors.ErrCarrierAuth{Message: strings.TrimSpace(string(raw))}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("carrier API error: status %d, body: %s", resp.StatusCode, string(raw))
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if env.Status != 0 {
		c.logger.Warn("Carrier rejected request",
			zap.String("path", path),
			zap.Int("carrier_status", env.Status),
			zap.String("carrier_message", env.Message),
		)
		return &env, &errors.ErrCarrier{Code: env.Status, Message: env.Message}
	}

	return &env, nil
}

func rawMessage(env *Envelope) string {
	if env.Message != "" {
		return env.Message
	}
	if len(env.Data) > 0 {
		return string(env.Data)
	}
	return "carrier response carried no delivery identifier"
}

func formatValidationErrors(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(messages, "; ")
}
