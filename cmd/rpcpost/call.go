package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

func newCallCommand(a *app) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "call <method> [params-json]",
		Short: "Call a single JSON-RPC method",
		Long: `Call a single JSON-RPC method and print its result.

The parameters, if given, must be a JSON array or object.

Examples:
  rpcpost call getblockcount
  rpcpost call getblockhash '[1000]'
  rpcpost call getblockchaininfo --query verificationprogress
  rpcpost --url http://localhost:18443 --user alice call getbalance '{"minconf": 6}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := args[0]

			var params any
			if len(args) > 1 {
				p, err := parseParams(args[1])
				if err != nil {
					return err
				}
				params = p
			}

			var result json.RawMessage
			if err := a.client.Call(cmd.Context(), method, params, &result); err != nil {
				return err
			}

			if query != "" {
				r, err := selectResult(result, query)
				if err != nil {
					return err
				}
				result = r
			}

			return render(cmd.OutOrStdout(), a.output, result)
		},
	}

	cmd.Flags().StringVarP(
		&query,
		"query", "q",
		"",
		"print only the part of the result at this path (gjson syntax)",
	)

	return cmd
}

// selectResult returns the part of result at the given gjson path.
func selectResult(result json.RawMessage, query string) (json.RawMessage, error) {
	r := gjson.GetBytes(result, query)
	if !r.Exists() {
		return nil, fmt.Errorf("query (%s) did not match the result", query)
	}

	return json.RawMessage(r.Raw), nil
}

// parseParams parses the parameters given on the command line.
func parseParams(s string) (json.RawMessage, error) {
	if !json.Valid([]byte(s)) {
		return nil, errors.New("parameters are not valid JSON")
	}

	p := json.RawMessage(s)

	var v any
	if err := json.Unmarshal(p, &v); err != nil {
		return nil, err
	}

	switch v.(type) {
	case []any, map[string]any, nil:
		return p, nil
	default:
		return nil, fmt.Errorf("parameters must be a JSON array or object, got %s", s)
	}
}
