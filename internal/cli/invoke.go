package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/spf13/cobra"

	"github.com/KafClaw/lexteams/internal/lambdahost"
)

var invokeEventPath string

var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Run a single activity through the bridge and print the acknowledgment",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(invokeEventPath)
		if err != nil {
			return fmt.Errorf("read event: %w", err)
		}
		raw, err := eventBody(data)
		if err != nil {
			return err
		}

		env, err := loadEnv()
		if err != nil {
			return err
		}
		logger := newLogger(cmd.ErrOrStderr(), env)
		h, err := buildHandler(cmd.Context(), env, logger, false)
		if err != nil {
			return err
		}

		resp, err := h.Handle(cmd.Context(), raw)
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

// eventBody returns the activity JSON in data. An API Gateway proxy request
// is unwrapped to its body; anything else is taken as the activity itself.
func eventBody(data []byte) ([]byte, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("event is not a JSON object: %w", err)
	}
	if _, ok := probe["body"]; !ok {
		return data, nil
	}
	if _, ok := probe["httpMethod"]; !ok {
		return data, nil
	}
	var req events.APIGatewayProxyRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode proxy request: %w", err)
	}
	return lambdahost.RequestBody(req)
}

func init() {
	invokeCmd.Flags().StringVar(&invokeEventPath, "event", "", "Path to an activity JSON or API Gateway proxy request")
	_ = invokeCmd.MarkFlagRequired("event")
}
