// Command cli prints the most recent observations from a running monitor.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

type observation struct {
	ID           int64   `json:"id"`
	Timestamp    string  `json:"timestamp"`
	TargetName   string  `json:"target_name"`
	LatencyMS    float64 `json:"latency_ms"`
	StatusCode   int     `json:"status_code"`
	ErrorMessage *string `json:"error_message"`
	Status       string  `json:"status"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var api string
	cmd := &cobra.Command{
		Use:          "cli [limit]",
		Short:        "Show recent observations",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := 20
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("limit must be a positive integer, got %q", args[0])
				}
				limit = n
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			obs, err := fetch(ctx, api, limit)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), obs)
		},
	}
	def := os.Getenv("API_BASE")
	if def == "" {
		def = "http://localhost:8080"
	}
	cmd.Flags().StringVar(&api, "api", def, "monitor base URL (API_BASE)")
	return cmd
}

func fetch(ctx context.Context, base string, limit int) ([]observation, error) {
	u := strings.TrimRight(base, "/") + "/metrics?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contacting API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status: %s", resp.Status)
	}
	var out []observation
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

func render(w io.Writer, obs []observation) error {
	if len(obs) == 0 {
		_, err := fmt.Fprintln(w, "No observations yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tTARGET\tSTATUS\tCODE\tLATENCY_MS\tERROR")
	for _, o := range obs {
		msg := "-"
		if o.ErrorMessage != nil {
			msg = *o.ErrorMessage
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%.1f\t%s\n",
			o.ID, o.Timestamp, o.TargetName, o.Status, o.StatusCode, o.LatencyMS, msg)
	}
	return tw.Flush()
}
