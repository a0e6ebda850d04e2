package main

import (
	"fmt"
	"html"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"stream-chat/internal/chat"
	"stream-chat/internal/conversation"
	"stream-chat/internal/render"
)

const outputWidth = 100

var outputFormat string

// historyCmd prints the conversation the endpoint already holds
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the conversation history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		client := chat.NewClientFromConfig(cfg)
		return printSession(cmd.OutOrStdout(), client.Load(ctx), outputFormat, cfg.RenderStyle)
	},
}

// sendCmd submits one prompt and prints the conversation once the reply ends
var sendCmd = &cobra.Command{
	Use:   "send [prompt]",
	Short: "Send a prompt and print the streamed reply",
	Long: `Sends the prompt to the endpoint and waits for the reply to finish streaming.
Ctrl+C stops the reply; whatever arrived so far is still printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		client := chat.NewClientFromConfig(cfg)
		return printSession(cmd.OutOrStdout(), client.Submit(ctx, joinArgs(args)), outputFormat, cfg.RenderStyle)
	},
}

func init() {
	for _, c := range []*cobra.Command{historyCmd, sendCmd} {
		c.Flags().StringVarP(&outputFormat, "format", "f", render.FormatANSI, "output format: ansi, html or plain")
	}
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}

// printSession waits for s to settle and writes the resulting conversation
func printSession(w io.Writer, s *chat.Session, format, style string) error {
	r, err := render.New(format, style, outputWidth)
	if err != nil {
		s.Stop()
		<-s.Done()
		return err
	}

	last, err := s.Wait()
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	conv := conversation.New(r)
	conv.Apply(last)
	return writeConversation(w, conv, format)
}

func writeConversation(w io.Writer, conv *conversation.Conversation, format string) error {
	for _, node := range conv.Nodes() {
		var err error
		if strings.EqualFold(format, render.FormatHTML) {
			_, err = fmt.Fprintf(w, "<div id=\"%s\" class=\"%s\" title=\"%s\">\n%s</div>\n",
				html.EscapeString(node.ID), html.EscapeString(node.Role), html.EscapeString(node.Title), node.Rendered)
		} else {
			_, err = fmt.Fprintf(w, "── %s ──\n%s\n\n", node.Title, node.Rendered)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
