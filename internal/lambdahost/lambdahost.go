// Package lambdahost adapts the bridge handler to API Gateway proxy events.
package lambdahost

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/KafClaw/lexteams/internal/bridge"
	"github.com/KafClaw/lexteams/internal/logging"
)

// ActivityHandler processes one raw activity.
type ActivityHandler interface {
	Handle(ctx context.Context, raw []byte) (bridge.Response, error)
}

// RequestBody returns the activity JSON carried by req.
func RequestBody(req events.APIGatewayProxyRequest) ([]byte, error) {
	if !req.IsBase64Encoded {
		return []byte(req.Body), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return nil, fmt.Errorf("decode proxy body: %w", err)
	}
	return decoded, nil
}

// Handler returns a Lambda handler for h. Delivery failures are returned as
// invocation errors; every other outcome, including an undecodable body, is a
// proxy response.
func Handler(h ActivityHandler) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		raw, err := RequestBody(req)
		if err != nil {
			logging.FromContext(ctx).Error("Proxy body rejected", "error", err)
			return proxyResponse(bridge.Respond(http.StatusBadRequest, bridge.MissingInfoText))
		}
		resp, err := h.Handle(ctx, raw)
		if err != nil {
			return events.APIGatewayProxyResponse{}, err
		}
		return proxyResponse(resp)
	}
}

func proxyResponse(resp bridge.Response) (events.APIGatewayProxyResponse, error) {
	body, err := json.Marshal(resp.Body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}, nil
}
