package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "askdata [question]",
	Short: "Ask questions about your data in natural language",
	Long: `askdata answers natural-language questions about your data: it sends
the question to the answering backend, summarizes the result and plans a
chart when the data supports one.

Examples:
  askdata chat                      Start an interactive session
  askdata "top customers by sales"  Ask a single question
  askdata conversations             List saved conversations`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return withApp(func(app *App) error {
			if err := app.SubmitTurn(cmd.Context(), args[0]); err != nil {
				return err
			}
			printLastAnswer(app)
			return nil
		})
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat [conversation-id]",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session. Pass a conversation id to resume
an earlier conversation. Type 'exit' or press Ctrl+D to end the session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *App) error {
			if len(args) > 0 {
				if err := app.LoadConversation(args[0]); err != nil {
					return err
				}
				printTranscript(app)
			}
			return runChatLoop(cmd.Context(), app)
		})
	},
}

var conversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "List saved conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *App) error {
			convs, err := app.Store().ListConversations()
			if err != nil {
				return err
			}
			if len(convs) == 0 {
				fmt.Println("No conversations yet.")
				return nil
			}
			for _, c := range convs {
				created := time.UnixMilli(c.CreatedAt).Format("2006-01-02 15:04")
				fmt.Printf("%s  %s  %s\n", c.ID, created, c.Title)
			}
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <conversation-id>",
	Short: "Delete a conversation and its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *App) error {
			if err := app.Store().DeleteConversation(args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted.")
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <conversation-id>",
	Short: "Show the SQL executed for a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *App) error {
			entries, err := app.Store().SQLHistory(args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No SQL recorded for this conversation.")
				return nil
			}
			for _, e := range entries {
				ts := time.UnixMilli(e.Timestamp).Format("2006-01-02 15:04:05")
				fmt.Printf("[%s] %s\n", ts, e.Query)
			}
			return nil
		})
	},
}

func withApp(fn func(*App) error) error {
	app := NewApp()
	ctx := context.Background()
	if err := app.Startup(ctx); err != nil {
		return err
	}
	defer app.Shutdown()
	return fn(app)
}

func runChatLoop(ctx context.Context, app *App) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if err := app.SubmitTurn(ctx, line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		printLastAnswer(app)
	}
	return scanner.Err()
}

func printLastAnswer(app *App) {
	messages := app.Messages()
	if len(messages) == 0 {
		return
	}
	last := messages[len(messages)-1]
	if last.Role != "assistant" {
		return
	}
	if last.IsError {
		fmt.Printf("\n[%s] %s\n", last.ErrorType, last.Content)
		return
	}
	fmt.Printf("\n%s\n", last.Content)
	if last.SQLQuery != "" {
		fmt.Printf("\nSQL: %s\n", last.SQLQuery)
	}
	if last.TableData != nil {
		fmt.Printf("(%d rows, %d columns)\n", last.TableData.RowCount, len(last.TableData.Columns))
	}
	switch {
	case len(last.Charts) > 0:
		fmt.Printf("(%d charts planned)\n", len(last.Charts))
	case last.ChartConfig != nil:
		fmt.Printf("(%s chart planned)\n", last.ChartConfig.Type)
	}
}

func printTranscript(app *App) {
	for _, m := range app.Messages() {
		fmt.Printf("[%s] %s\n", m.Role, m.Content)
	}
}

func main() {
	rootCmd.AddCommand(chatCmd, conversationsCmd, deleteCmd, historyCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
