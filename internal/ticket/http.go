package ticket

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPBridge opens tickets in an external helpdesk over a JSON API:
// POST {base}/tickets answers with {"id": "..."}.
type HTTPBridge struct {
	client *resty.Client
}

// NewHTTPBridge builds a helpdesk client. token is sent as a bearer token
// when non-empty.
func NewHTTPBridge(baseURL, token string) *HTTPBridge {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)
	if token != "" {
		client.SetAuthToken(token)
	}
	return &HTTPBridge{client: client}
}

type openTicketResponse struct {
	ID string `json:"id"`
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (b *HTTPBridge) OpenTicket(ctx context.Context, req Request) (string, error) {
	result := new(openTicketResponse)
	apiErr := new(apiError)

	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(result).
		SetError(apiErr).
		Post("/tickets")
	if err != nil {
		return "", fmt.Errorf("%w: open ticket: %v", ErrBridge, err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error
		}
		return "", fmt.Errorf("%w: helpdesk error: code=%d, message=%s", ErrBridge, resp.StatusCode(), message)
	}
	if result.ID == "" {
		return "", fmt.Errorf("%w: helpdesk returned no ticket id", ErrBridge)
	}

	return result.ID, nil
}
