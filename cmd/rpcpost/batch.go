package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dogmatiq/rpcpost"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newBatchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <file>",
		Short: "Call several JSON-RPC methods in a single batch",
		Long: `Call several JSON-RPC methods in a single batch and print the outcome of
each call, in order.

The file contains a list of calls in either JSON or YAML. Use "-" to read from
stdin.

Example file:
  - method: getblockcount
  - method: getblockhash
    params: [1000]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := readBatchFile(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			calls := make([]*rpcpost.BatchCall, len(entries))
			results := make([]json.RawMessage, len(entries))

			for i, e := range entries {
				calls[i] = &rpcpost.BatchCall{
					Method: e.Method,
					Params: e.Params,
					Result: &results[i],
				}
			}

			if err := a.client.Batch(cmd.Context(), calls...); err != nil {
				return err
			}

			outcomes := make([]batchOutcome, len(calls))
			failures := 0

			for i, c := range calls {
				outcomes[i].Method = c.Method

				if c.Err != nil {
					failures++
					outcomes[i].Error = describeCallError(c.Err)
					color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "call #%d (%s) failed: %s\n", i, c.Method, c.Err)
				} else {
					outcomes[i].Result = results[i]
				}
			}

			if err := render(cmd.OutOrStdout(), a.output, outcomes); err != nil {
				return err
			}

			if failures != 0 {
				return fmt.Errorf("%d of %d call(s) failed", failures, len(calls))
			}

			return nil
		},
	}
}

// batchEntry is a single call read from a batch file.
type batchEntry struct {
	Method string `yaml:"method"`
	Params any    `yaml:"params"`
}

// batchOutcome is the outcome of a single call, as rendered to the output.
type batchOutcome struct {
	Method string          `json:"method"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *callError      `json:"error,omitempty"`
}

// callError describes a failed call in the output.
type callError struct {
	Code    *int            `json:"code,omitempty"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func describeCallError(err error) *callError {
	var rpcErr *rpcpost.Error
	if errors.As(err, &rpcErr) {
		code := int(rpcErr.Code())
		return &callError{
			Code:    &code,
			Message: rpcErr.Message(),
			Data:    rpcErr.Data(),
		}
	}

	return &callError{
		Message: err.Error(),
	}
}

// readBatchFile reads the calls in the named file. If name is "-" the calls
// are read from stdin.
func readBatchFile(stdin io.Reader, name string) ([]batchEntry, error) {
	var (
		data []byte
		err  error
	)

	if name == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read batch file: %w", err)
	}

	var entries []batchEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unable to parse batch file: %w", err)
	}

	if len(entries) == 0 {
		return nil, errors.New("batch file does not contain any calls")
	}

	for i, e := range entries {
		if e.Method == "" {
			return nil, fmt.Errorf("call #%d in batch file does not specify a method", i)
		}

		switch e.Params.(type) {
		case nil, []any, map[string]any:
		default:
			return nil, fmt.Errorf("parameters of call #%d (%s) must be a list or a mapping", i, e.Method)
		}
	}

	return entries, nil
}
