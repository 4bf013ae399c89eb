// cmd/titanic-chat/root.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"titanic-agent/internal/chatclient"
)

type options struct {
	apiURL   string
	imageDir string
	timeout  time.Duration
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "titanic-chat",
		Short: "Chat with the Titanic dataset agent",
		Long:  "titanic-chat sends natural language questions about the Titanic passengers to the agent API and prints the answers. Charts are saved as PNG files.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd.Context(), opts, in, out)
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "agent API base URL (default $BACKEND_URL or "+chatclient.DefaultBaseURL+")")
	root.PersistentFlags().StringVar(&opts.imageDir, "image-dir", "charts", "directory for saved charts")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", chatclient.DefaultTimeout, "request timeout")

	root.AddCommand(&cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := chatclient.NewClient(chatclient.ResolveBaseURL(opts.apiURL), opts.timeout)
			reply := client.Ask(cmd.Context(), strings.Join(args, " "))
			printReply(out, opts, reply)
			return nil
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "examples",
		Short: "List example questions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printExamples(out)
		},
	})
	return root
}

func runREPL(ctx context.Context, opts *options, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client := chatclient.NewClient(chatclient.ResolveBaseURL(opts.apiURL), opts.timeout)
	session := chatclient.NewSession()

	fmt.Fprintln(out, "🚢 Titanic Dataset Chat Agent")
	fmt.Fprintln(out, "Ask natural language questions about the Titanic dataset.")
	fmt.Fprintln(out, "Commands: /examples, /example N, /history, /clear, /quit")
	if err := client.Ping(ctx); err != nil {
		fmt.Fprintf(out, "Warning: backend at %s is not reachable (%v). Start the API server before asking.\n", client.BaseURL(), err)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "/quit", "/exit":
			return nil
		case "/examples":
			printExamples(out)
			continue
		case "/clear":
			session.Clear()
			fmt.Fprintln(out, "Chat cleared.")
			continue
		case "/history":
			printHistory(out, session.History())
			continue
		case "/example":
			n := 0
			if len(fields) == 2 {
				n, _ = strconv.Atoi(fields[1])
			}
			if n < 1 || n > len(chatclient.ExampleQuestions) {
				fmt.Fprintf(out, "Usage: /example N (1-%d)\n", len(chatclient.ExampleQuestions))
				continue
			}
			line = chatclient.ExampleQuestions[n-1]
			fmt.Fprintln(out, line)
		default:
			if strings.HasPrefix(line, "/") {
				fmt.Fprintf(out, "Unknown command %s\n", fields[0])
				continue
			}
		}

		fmt.Fprintln(out, "Thinking...")
		printReply(out, opts, session.Ask(ctx, client, line))
	}
}

func printReply(out io.Writer, opts *options, reply chatclient.Reply) {
	fmt.Fprintln(out, reply.Answer)
	if !reply.HasImage() {
		return
	}
	path, err := chatclient.SaveImage(opts.imageDir, reply.Image)
	if err != nil {
		fmt.Fprintf(out, "Could not save chart: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Chart saved to %s\n", path)
}

func printExamples(out io.Writer) {
	fmt.Fprintln(out, "Example questions:")
	for i, q := range chatclient.ExampleQuestions {
		fmt.Fprintf(out, "  %d. %s\n", i+1, q)
	}
}

func printHistory(out io.Writer, entries []chatclient.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No messages yet.")
		return
	}
	for _, e := range entries {
		who := "You"
		if e.Role == chatclient.RoleAssistant {
			who = "Agent"
		}
		fmt.Fprintf(out, "[%s] %s: %s", e.At.Format("15:04:05"), who, e.Content)
		if e.Image != "" {
			fmt.Fprint(out, " [chart]")
		}
		fmt.Fprintln(out)
	}
}
