package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"pension-forecast/internal/engine"
	"pension-forecast/internal/model"
)

const (
	formatJSON     = "json"
	formatText     = "text"
	formatMarkdown = "markdown"
)

// readRequest decodes a request from path, or stdin when path is "-".
func readRequest(path string, stdin io.Reader) (*model.SimulationRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	var req model.SimulationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode request %s: %w", path, err)
	}
	return &req, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// describe turns validation failures into a readable error.
func describe(err error) error {
	ve, ok := engine.IsValidation(err)
	if !ok {
		return err
	}
	var b strings.Builder
	b.WriteString("invalid request:")
	for _, m := range ve.Messages {
		fmt.Fprintf(&b, "\n  %s: %s", m.Code, m.Message)
		if len(m.Years) > 0 {
			fmt.Fprintf(&b, " %v", m.Years)
		}
	}
	return fmt.Errorf("%s", b.String())
}

// requestCommand wires the shared argument handling of the request-driven
// commands.
func requestCommand(use, short string, opts *rootOptions, run func(cmd *cobra.Command, a *app, req *model.SimulationRequest) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <request.json|->",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()
			return describe(run(cmd, a, req))
		},
	}
}

func simulateCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := requestCommand("simulate", "Project the monthly benefit for a request", opts,
		func(cmd *cobra.Command, a *app, req *model.SimulationRequest) error {
			res, err := a.engine.Simulate(req)
			if err != nil {
				return err
			}
			if format == formatText {
				return renderResult(cmd.OutOrStdout(), res)
			}
			return writeJSON(cmd.OutOrStdout(), res)
		})
	cmd.Flags().StringVar(&format, "format", formatJSON, "output format: json or text")
	return cmd
}

func explainCmd(opts *rootOptions) *cobra.Command {
	var format, style string
	cmd := requestCommand("explain", "Show every intermediate value of a projection", opts,
		func(cmd *cobra.Command, a *app, req *model.SimulationRequest) error {
			ex, err := a.engine.Explain(req)
			if err != nil {
				return err
			}
			if format == formatMarkdown {
				out, err := renderMarkdown(explainMarkdown(ex), style)
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), out)
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ex)
		})
	cmd.Flags().StringVar(&format, "format", formatJSON, "output format: json or markdown")
	cmd.Flags().StringVar(&style, "style", "auto", "markdown style (auto, dark, light, ascii, notty)")
	return cmd
}

func timelineCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := requestCommand("timeline", "Project the benefit for every retirement year", opts,
		func(cmd *cobra.Command, a *app, req *model.SimulationRequest) error {
			points, err := a.engine.Timeline(req)
			if err != nil {
				return err
			}
			if format == formatText {
				return renderTimeline(cmd.OutOrStdout(), points)
			}
			return writeJSON(cmd.OutOrStdout(), points)
		})
	cmd.Flags().StringVar(&format, "format", formatJSON, "output format: json or text")
	return cmd
}

func whatIfCmd(opts *rootOptions) *cobra.Command {
	var (
		delays string
		format string
	)
	cmd := requestCommand("what-if", "Compare retiring later by the given delays", opts,
		func(cmd *cobra.Command, a *app, req *model.SimulationRequest) error {
			parsed, err := parseDelays(delays)
			if err != nil {
				return err
			}
			res, err := a.engine.WhatIf(req, parsed)
			if err != nil {
				return err
			}
			if format == formatText {
				return renderWhatIf(cmd.OutOrStdout(), res)
			}
			return writeJSON(cmd.OutOrStdout(), res)
		})
	cmd.Flags().StringVar(&delays, "delays", "", "comma-separated delays in years (default from engine.default_delays)")
	cmd.Flags().StringVar(&format, "format", formatJSON, "output format: json or text")
	return cmd
}

func parseDelays(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid delay %q", part)
		}
		out = append(out, d)
	}
	return out, nil
}

func tablesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Load the configured tables and print the load report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()
			return writeJSON(cmd.OutOrStdout(), a.initial)
		},
	}
}
