package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/comigor/jack-go/internal/chat"
	"github.com/comigor/jack-go/internal/health"
	"github.com/comigor/jack-go/internal/history"
	"github.com/comigor/jack-go/internal/pdf"
	"github.com/comigor/jack-go/internal/tui"
	"github.com/comigor/jack-go/pkg/gateway"
)

var flagEndpoint string

func init() {
	rootCmd.AddCommand(chatCmd)

	for _, c := range []*cobra.Command{rootCmd, chatCmd} {
		c.Annotations = map[string]string{annotationTUI: "true"}
		c.Flags().StringVarP(&flagEndpoint, "endpoint", "e", "", "question endpoint: ask, ask-nuclia or a /path (default from api.endpoint)")
	}
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat (the default command)",
	Long: `Start an interactive chat with the backend.

On a terminal this opens the full screen interface. When input or output is
redirected it falls back to a line based prompt that understands /new and
/quit.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func endpoint() (gateway.Endpoint, error) {
	raw := flagEndpoint
	if raw == "" {
		raw = cfg.API.Endpoint
	}
	return gateway.ParseEndpoint(raw)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ep, err := endpoint()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := chat.NewSession(client, history.New(), ep)

	if !interactive() {
		return repl(ctx, session, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	loader, err := pdf.NewLoader(client, cfg.Resources)
	if err != nil {
		return err
	}
	monitor := health.NewMonitor(client, cfg.Health)
	stopMonitor := monitor.Start(ctx)
	defer stopMonitor()

	return tui.Run(ctx, tui.Deps{
		Session:     session,
		Status:      monitor,
		Loader:      loader,
		ResourceURL: client.ResourceURL,
	})
}

// repl is the line based chat used when no terminal is attached.
func repl(ctx context.Context, session *chat.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	prompt := func() { fmt.Fprint(out, "> ") }

	prompt()
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "/quit", "/exit":
			return nil
		case "/new":
			session.NewChat()
			fmt.Fprintln(out, "Started a new chat.")
		default:
			reply, err := session.Ask(ctx, line)
			if ctx.Err() != nil {
				return nil
			}
			if err == nil || reply.Text != "" {
				printReply(out, reply)
			}
		}
		prompt()
	}
	return scanner.Err()
}

func printReply(w io.Writer, msg history.Message) {
	fmt.Fprintln(w, msg.Text)
	if len(msg.Sources) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSources:")
	for i, doc := range msg.Sources {
		fmt.Fprintf(w, "  [%d] %s (%s)\n", i+1, doc.Title, doc.Type)
		if doc.URL != "" {
			fmt.Fprintf(w, "      %s\n", doc.URL)
		}
		if doc.Previewable() {
			fmt.Fprintf(w, "      pdf: %s\n", client.ResourceURL(doc.ID))
		}
	}
}
