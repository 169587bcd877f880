package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/raysh454/phishguard/internal/page"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <page-url>",
		Short: "Open a page, click a link on it and walk through the verdict",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
	addPageFlags(cmd)
	addBridgeFlags(cmd)
	cmd.Flags().String("click", "", "Link to click: href, resolved URL or link text")
	cmd.Flags().String("action", "", "Answer the verdict without prompting: proceed, dismiss or report")
	cmd.Flags().String("reason", "", "Report reason used with --action report")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	in := bufio.NewReader(cmd.InOrStdin())

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyPageFlags(cmd, cfg)
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	doc, err := loadPage(ctx, cfg, logger, args[0])
	if err != nil {
		return err
	}

	caller, release, err := openCaller(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	renderer := newTermRenderer(out)
	nav := &termNavigator{out: out}
	ctrl := page.NewController(cfg.Page, caller, nav, renderer, logger)
	ctrl.SetTabID(uuid.NewString())
	defer ctrl.Close()

	icpt := page.NewInterceptor(cfg.Page, ctrl, logger)
	if !icpt.Install(doc.URL) {
		return fmt.Errorf("%s is not a monitored webmail page (use --all-pages)", doc.URL)
	}

	target, _ := cmd.Flags().GetString("click")
	if target == "" {
		target, err = pickLink(in, cmd, doc, icpt)
		if err != nil {
			return err
		}
	}
	link, ok := doc.FindLink(target)
	if !ok {
		return fmt.Errorf("no link matching %q on %s", target, doc.URL)
	}

	d := icpt.HandleClick(&page.ClickEvent{Target: link.Node})
	if d != page.DecisionIntercept {
		fmt.Fprintf(out, "%s link, following without a check\n", d)
		nav.SetLocation(link.Resolved)
		return nil
	}

	for {
		select {
		case v := <-renderer.views:
			if v.State == page.StateResult || v.State == page.StateError {
				return answer(cmd, in, ctrl, v)
			}
		case <-ctx.Done():
			return errors.New("interrupted before a verdict")
		}
	}
}

// pickLink lists the page's links and asks which one to click.
func pickLink(in *bufio.Reader, cmd *cobra.Command, doc *page.Document, icpt *page.Interceptor) (string, error) {
	links := doc.Links()
	if len(links) == 0 {
		return "", fmt.Errorf("no links on %s", doc.URL)
	}
	printLinks(cmd, doc, icpt, links)
	choice, err := prompt(in, cmd.OutOrStdout(), "link number: ")
	if err != nil {
		return "", err
	}
	var n int
	if _, err := fmt.Sscanf(choice, "%d", &n); err != nil || n < 1 || n > len(links) {
		return "", fmt.Errorf("invalid choice %q", choice)
	}
	return links[n-1].Resolved, nil
}

func answer(cmd *cobra.Command, in *bufio.Reader, ctrl *page.Controller, v page.View) error {
	out := cmd.OutOrStdout()
	action, _ := cmd.Flags().GetString("action")
	if action == "" {
		var choices []string
		for _, b := range v.Buttons {
			choices = append(choices, string(b.Kind))
		}
		var err error
		action, err = prompt(in, out, fmt.Sprintf("choose [%s]: ", strings.Join(choices, "/")))
		if err != nil {
			return err
		}
	}

	switch page.ButtonKind(strings.ToLower(action)) {
	case page.ButtonProceed:
		return ctrl.Proceed()
	case page.ButtonDismiss:
		if err := ctrl.Dismiss(); err != nil {
			return err
		}
		fmt.Fprintln(out, "stayed on the page")
		return nil
	case page.ButtonReport:
		if !v.HasButton(page.ButtonReport) {
			return fmt.Errorf("report is not offered for this verdict")
		}
		reason, _ := cmd.Flags().GetString("reason")
		if reason == "" {
			var err error
			reason, err = prompt(in, out, "Please describe why you think this is phishing: ")
			if err != nil {
				return err
			}
		}
		ack, err := ctrl.Report(cmd.Context(), reason)
		if err != nil {
			return err
		}
		switch {
		case strings.TrimSpace(reason) == "":
			fmt.Fprintln(out, "no reason given, report not sent")
		case ack.Error:
			fmt.Fprintln(out, ack.Message)
		default:
			fmt.Fprintln(out, "Thank you for your report!")
		}
		return nil
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

func newLinksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links <page-url>",
		Short: "List a page's links and whether each would be checked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyPageFlags(cmd, cfg)
			logger := newLogger(cmd.ErrOrStderr(), cfg)

			doc, err := loadPage(cmd.Context(), cfg, logger, args[0])
			if err != nil {
				return err
			}
			icpt := page.NewInterceptor(cfg.Page, nil, logger)
			if !icpt.Install(doc.URL) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not monitored; links would not be checked\n", doc.URL)
			}
			printLinks(cmd, doc, icpt, doc.Links())
			return nil
		},
	}
	addPageFlags(cmd)
	return cmd
}

func printLinks(cmd *cobra.Command, doc *page.Document, icpt *page.Interceptor, links []page.Link) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDECISION\tURL\tTEXT")
	for i, l := range links {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, icpt.Classify(l.Resolved, doc.URL), l.Resolved, l.Text)
	}
	_ = tw.Flush()
}
