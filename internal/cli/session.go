package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raysh454/phishguard/internal/app"
	"github.com/raysh454/phishguard/internal/bridge"
	"github.com/raysh454/phishguard/internal/logging"
	"github.com/raysh454/phishguard/internal/page"
	"github.com/raysh454/phishguard/internal/webclient"
)

func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("render", false, "Load the page in headless Chrome (chromedp) instead of plain HTTP")
	cmd.Flags().Bool("all-pages", false, "Intercept links on any page, not only webmail")
	cmd.Flags().Bool("fail-closed", false, "Intercept links whose URL cannot be parsed")
}

func addBridgeFlags(cmd *cobra.Command) {
	cmd.Flags().String("bridge", "", "Bridge websocket URL of a running 'phishguard serve'")
	cmd.Flags().Bool("local", false, "Run the background service in-process instead of connecting to one")
	cmd.Flags().String("data-dir", "", "Directory for the activity database (with --local)")
}

func applyPageFlags(cmd *cobra.Command, cfg *app.Config) {
	if render, _ := cmd.Flags().GetBool("render"); render {
		cfg.WebClient.Client = webclient.ClientChromedp
	}
	if all, _ := cmd.Flags().GetBool("all-pages"); all {
		cfg.Page.MonitorAllPages = true
	}
	if fc, _ := cmd.Flags().GetBool("fail-closed"); fc {
		cfg.Page.Policy = page.FailClosed
	}
}

// loadPage fetches and parses pageURL with the configured backend.
func loadPage(ctx context.Context, cfg *app.Config, logger logging.Logger, pageURL string) (*page.Document, error) {
	wc, err := webclient.NewWebClient(cfg.WebClient, logger)
	if err != nil {
		return nil, err
	}
	defer wc.Close()
	return page.LoadDocument(ctx, wc, pageURL)
}

// openCaller connects to the background service, or builds one in-process
// with --local. The returned func releases it.
func openCaller(ctx context.Context, cmd *cobra.Command, cfg *app.Config, logger logging.Logger) (bridge.Caller, func(), error) {
	if local, _ := cmd.Flags().GetBool("local"); local {
		if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
			cfg.DataDir = dir
		}
		comps, err := app.NewComponents(cfg, logger, "")
		if err != nil {
			return nil, nil, err
		}
		return bridge.NewLocalCaller(comps.Dispatcher, cfg.Bridge.Timeout), func() { _ = comps.Close() }, nil
	}

	url := cfg.Bridge.URL
	if u, _ := cmd.Flags().GetString("bridge"); u != "" {
		url = u
	}
	c, err := bridge.Dial(ctx, url, cfg.Bridge.Timeout, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("%w (is 'phishguard serve' running? use --local to run without it)", err)
	}
	return c, func() { _ = c.Close() }, nil
}
