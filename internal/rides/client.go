package rides

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/ridemeter/internal/pricing"
	"github.com/richxcame/ridemeter/pkg/common"
	"github.com/richxcame/ridemeter/pkg/httpclient"
)

// Client talks to the ride API. It satisfies Store, so a remote driver or
// passenger session runs the same code as an in-process one.
type Client struct {
	http *httpclient.Client
}

// Ensure the client can back both session kinds.
var _ Store = (*Client)(nil)

// NewClient creates an API client with retries on transient failures
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{http: httpclient.NewClientWithOptions(baseURL, timeout, httpclient.WithDefaultRetry())}
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   *common.ErrorInfo `json:"error"`
}

// GetRide fetches the ride record
func (c *Client) GetRide(ctx context.Context, id uuid.UUID) (*Ride, error) {
	body, err := c.http.Get(ctx, ridePath(id), nil)
	if err != nil {
		return nil, mapError(err)
	}
	var ride Ride
	if err := decode(body, &ride); err != nil {
		return nil, err
	}
	return &ride, nil
}

// UpdateRide sends a patch
func (c *Client) UpdateRide(ctx context.Context, id uuid.UUID, patch Patch) (*Ride, error) {
	body, err := c.http.Patch(ctx, ridePath(id), patch, nil)
	if err != nil {
		return nil, mapError(err)
	}
	var ride Ride
	if err := decode(body, &ride); err != nil {
		return nil, err
	}
	return &ride, nil
}

// Settle asks the API to price a completed ride for req.ElapsedSeconds
func (c *Client) Settle(ctx context.Context, req pricing.SettleRequest) (*pricing.Settlement, error) {
	payload := map[string]int64{"elapsed_seconds": req.ElapsedSeconds}
	body, err := c.http.Post(ctx, ridePath(req.RideID)+"/settlement", payload, nil)
	if err != nil {
		return nil, mapError(err)
	}
	var settlement pricing.Settlement
	if err := decode(body, &settlement); err != nil {
		return nil, err
	}
	return &settlement, nil
}

func ridePath(id uuid.UUID) string {
	return "/api/v1/rides/" + id.String()
}

func decode(body []byte, out interface{}) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.Success {
		if env.Error != nil {
			return common.NewAppError(env.Error.Code, env.Error.Message, nil)
		}
		return errors.New("request was not successful")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// mapError turns API error statuses back into AppErrors
func mapError(err error) error {
	var httpErr *httpclient.HTTPError
	if !errors.As(err, &httpErr) {
		return err
	}
	message := http.StatusText(httpErr.StatusCode)
	var env envelope
	if json.Unmarshal([]byte(httpErr.Body), &env) == nil && env.Error != nil {
		message = env.Error.Message
	}
	return common.NewAppError(httpErr.StatusCode, message, err)
}
