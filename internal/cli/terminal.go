package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/raysh454/phishguard/internal/page"
)

// termRenderer prints overlay views and forwards them to a channel so the
// command can wait for a verdict.
type termRenderer struct {
	mu    sync.Mutex
	out   io.Writer
	views chan page.View
}

func newTermRenderer(out io.Writer) *termRenderer {
	return &termRenderer{out: out, views: make(chan page.View, 8)}
}

func (r *termRenderer) Mount(v page.View) {
	r.mu.Lock()
	printView(r.out, v)
	r.mu.Unlock()

	select {
	case r.views <- v:
	default:
	}
}

func (r *termRenderer) Unmount() {}

func printView(w io.Writer, v page.View) {
	switch v.State {
	case page.StateLoading:
		fmt.Fprintf(w, "… %s\n  %s\n", v.Title, v.URL)
	case page.StateResult, page.StateError:
		fmt.Fprintf(w, "\n%s %s\n", v.Icon, v.Title)
		if v.Subtitle != "" {
			fmt.Fprintf(w, "  %s\n", v.Subtitle)
		}
		fmt.Fprintf(w, "  %s\n", v.URL)
		if v.State == page.StateResult {
			fmt.Fprintf(w, "  confidence: %d%%\n", v.Confidence)
		}
		for _, rec := range v.Recommendations {
			fmt.Fprintf(w, "  • %s\n", rec)
		}
		fmt.Fprintln(w)
		for _, b := range v.Buttons {
			fmt.Fprintf(w, "  [%s] %s\n", b.Kind, b.Label)
		}
	}
}

// termNavigator records and prints the chosen navigation.
type termNavigator struct {
	out     io.Writer
	visited string
}

func (n *termNavigator) SetLocation(url string) {
	n.visited = url
	fmt.Fprintf(n.out, "→ navigating to %s\n", url)
}

// prompt reads one trimmed line after printing question.
func prompt(in *bufio.Reader, out io.Writer, question string) (string, error) {
	fmt.Fprint(out, question)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
