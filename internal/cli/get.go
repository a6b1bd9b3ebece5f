package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/glorpus-work/fetchd/internal/logger"
	"github.com/glorpus-work/fetchd/pkg/download"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewGetCmd creates the get command.
func NewGetCmd() *cobra.Command {
	var (
		id    string
		token string
		quiet bool
	)

	cmd := &cobra.Command{
		Use:   "get URL [DESTINATION]",
		Short: "Download a single file",
		Long: `Download URL to DESTINATION. A relative destination is resolved against the
downloads directory; without one the last segment of the URL path is used.
Interrupting the command cancels the download and keeps the partial file.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := ""
			if len(args) > 1 {
				dest = args[1]
			}
			return runGet(cmd, args[0], dest, id, token, quiet)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "download id (default: random UUID)")
	cmd.Flags().StringVar(&token, "token", "", "auth token sent as X-Auth-Token")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print progress")

	return cmd
}

func runGet(cmd *cobra.Command, rawURL, dest, id, token string, quiet bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if id == "" {
		id = uuid.NewString()
	}
	if dest == "" {
		dest = defaultDestination(rawURL)
	}

	engine := download.NewEngine(cfg.EngineOptions(nil))

	var hooks download.Hooks
	if !quiet {
		hooks.Detail = func(d download.Detail) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "\r%s", formatDetail(d))
		}
	}

	// The signal context cancels through the engine like any other caller would.
	ctx := cmd.Context()
	results := engine.Start(context.WithoutCancel(ctx), download.Request{
		ID:          id,
		URL:         rawURL,
		Destination: dest,
		AuthToken:   token,
	}, hooks)

	var res download.Result
	select {
	case res = <-results:
	case <-ctx.Done():
		logger.Info("Interrupted, cancelling download", logger.Fields{"id": id})
		engine.Cancel(id)
		res = <-results
	}
	if !quiet {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
	}

	return reportResult(cmd.OutOrStdout(), res)
}

func reportResult(out io.Writer, res download.Result) error {
	switch res.State {
	case download.StateCompleted:
		_, _ = fmt.Fprintln(out, res.Path)
		return nil
	case download.StateCancelled:
		return fmt.Errorf("download %s cancelled after %s: %w", res.ID, humanize.Bytes(uint64(res.Downloaded)), res.Err)
	default:
		return fmt.Errorf("download %s failed: %w", res.ID, res.Err)
	}
}

// defaultDestination is the last path segment of rawURL, or DefaultFileName.
func defaultDestination(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return DefaultFileName
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" || strings.HasPrefix(base, "..") {
		return DefaultFileName
	}
	return base
}

// formatDetail renders a detailed sample as a single progress line.
func formatDetail(d download.Detail) string {
	var b strings.Builder
	if d.Total > 0 {
		fmt.Fprintf(&b, "%3d%% %s / %s", d.Percent, humanize.Bytes(uint64(d.Downloaded)), humanize.Bytes(uint64(d.Total)))
	} else {
		b.WriteString(humanize.Bytes(uint64(d.Downloaded)))
	}
	fmt.Fprintf(&b, "  %s/s", humanize.Bytes(uint64(d.BytesPerSecond)))
	if d.ETA != nil {
		fmt.Fprintf(&b, "  ETA %s", time.Duration(*d.ETA * float64(time.Second)).Round(time.Second))
	}
	return b.String()
}
