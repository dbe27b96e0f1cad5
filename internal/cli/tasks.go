package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dwizi/commentctl/internal/form"
	"github.com/dwizi/commentctl/internal/journal"
	"github.com/dwizi/commentctl/internal/livesync"
	"github.com/dwizi/commentctl/internal/tasks"
)

const watchCheckInterval = time.Second

func newUploadCommand(logger *slog.Logger) *cobra.Command {
	var kindName string
	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a tokens or comments file and print its registry reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := tasks.ParseKind(kindName)
			if !ok {
				return fmt.Errorf("unknown kind %q (want tokens or comments)", kindName)
			}
			sess, err := openSession(logger, false)
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()
			resource, err := sess.Controller().UploadFile(ctx, kind, args[0])
			if err != nil {
				return err
			}
			cmd.Printf("%s file uploaded: %s\n", kind.Title(), resource.ServerRef)
			return nil
		},
	}
	cmd.Flags().StringVar(&kindName, "kind", string(tasks.KindTokens), "resource kind: tokens or comments")
	return cmd
}

type startOptions struct {
	tokensPath   string
	commentsPath string
	tokenRef     string
	commentRef   string
	postID       string
	delayMode    string
	minDelay     string
	maxDelay     string
	delayValues  string
	mentionID    string
	mentionName  string
}

func newStartCommand(logger *slog.Logger) *cobra.Command {
	var opts startOptions
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Validate a task configuration and start it on the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := tasks.ParseDelayMode(opts.delayMode)
			if !ok {
				return fmt.Errorf("unknown delay mode %q (want random or accurate)", opts.delayMode)
			}
			sess, err := openSession(logger, false)
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()
			controller := sess.Controller()
			for kind, path := range map[tasks.ResourceKind]string{
				tasks.KindTokens:   opts.tokensPath,
				tasks.KindComments: opts.commentsPath,
			} {
				if strings.TrimSpace(path) == "" {
					continue
				}
				if _, err := controller.UploadFile(ctx, kind, path); err != nil {
					return err
				}
			}

			sess.Form().Update(func(state *form.State) {
				state.PostID = opts.postID
				state.DelayMode = mode
				state.MinDelay = opts.minDelay
				state.MaxDelay = opts.maxDelay
				state.DelayValues = opts.delayValues
				state.MentionsEnabled = opts.mentionID != "" || opts.mentionName != ""
				state.MentionID = opts.mentionID
				state.MentionName = opts.mentionName
			})
			bindings := sess.Binder().Bindings()
			if ref := strings.TrimSpace(opts.tokenRef); ref != "" {
				bindings.TokenRef = ref
			}
			if ref := strings.TrimSpace(opts.commentRef); ref != "" {
				bindings.CommentRef = ref
			}
			taskCfg, err := form.Build(sess.Form().Snapshot(), bindings)
			if err != nil {
				return err
			}

			result, err := controller.Start(ctx, taskCfg)
			if err != nil {
				return err
			}
			cmd.Printf("Task started: %s\n", result.TaskID)
			cmd.Printf("Post: %s\n", result.Config.PostID)
			cmd.Printf("Delay: %s\n", result.Config.Delay.Describe())
			if result.Config.Mention != nil {
				cmd.Printf("Mention: %s (%s)\n", result.Config.Mention.Name, result.Config.Mention.ID)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.tokensPath, "tokens", "", "tokens file to upload before starting")
	flags.StringVar(&opts.commentsPath, "comments", "", "comments file to upload before starting")
	flags.StringVar(&opts.tokenRef, "token-ref", "", "reference of an already uploaded tokens file")
	flags.StringVar(&opts.commentRef, "comment-ref", "", "reference of an already uploaded comments file")
	flags.StringVar(&opts.postID, "post-id", "", "target post id")
	flags.StringVar(&opts.delayMode, "delay-mode", string(tasks.DelayRandom), "random or accurate")
	flags.StringVar(&opts.minDelay, "min-delay", fmt.Sprint(form.DefaultMinDelay), "random mode lower bound in seconds")
	flags.StringVar(&opts.maxDelay, "max-delay", fmt.Sprint(form.DefaultMaxDelay), "random mode upper bound in seconds")
	flags.StringVar(&opts.delayValues, "delays", "", "accurate mode delays, comma separated seconds")
	flags.StringVar(&opts.mentionID, "mention-id", "", "profile id to mention")
	flags.StringVar(&opts.mentionName, "mention-name", "", "display name to mention")
	return cmd
}

func newStopCommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <task-id>",
		Short: "Stop a running task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(logger, false)
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()
			message, err := sess.Controller().StopTask(ctx, args[0])
			if err != nil {
				return err
			}
			cmd.Println(message)
			return nil
		},
	}
}

func newTasksCommand(logger *slog.Logger) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List running tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(logger, false)
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()
			if err := sess.Synchronizer().Refresh(ctx); err != nil {
				return err
			}
			items := sess.Synchronizer().Tasks()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), items)
			}
			return writeTaskTable(cmd.OutOrStdout(), items, time.Now())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newStatusCommand(logger *slog.Logger) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show one task's status and statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(logger, false)
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()
			detail, err := sess.Synchronizer().Detail(ctx, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), detail)
			}
			writeDetail(cmd.OutOrStdout(), detail)
			if store, ok := sess.Journal(); ok {
				entry, err := store.Lookup(ctx, detail.TaskID)
				switch {
				case err == nil:
					writeJournalEntry(cmd.OutOrStdout(), entry)
				case !errors.Is(err, journal.ErrEntryNotFound):
					logger.Warn("journal lookup failed", "task_id", detail.TaskID, "error", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newWatchCommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll running tasks and print each new snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(logger, true)
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()
			group, groupCtx := errgroup.WithContext(ctx)
			group.Go(func() error {
				return sess.Run(groupCtx)
			})
			group.Go(func() error {
				return watchTasks(groupCtx, cmd.OutOrStdout(), sess.Synchronizer())
			})
			err = group.Wait()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

type taskSource interface {
	Tasks() []tasks.TaskSummary
	Status() livesync.Status
}

// watchTasks prints a frame whenever the poll count moves.
func watchTasks(ctx context.Context, out io.Writer, source taskSource) error {
	ticker := time.NewTicker(watchCheckInterval)
	defer ticker.Stop()
	lastPolls := -1
	for {
		status := source.Status()
		if status.Polls != lastPolls {
			lastPolls = status.Polls
			now := time.Now()
			fmt.Fprintf(out, "\n== %s  polls %d  failures %d\n", now.Format(time.TimeOnly), status.Polls, status.Failures)
			if status.LastError != nil {
				fmt.Fprintf(out, "last poll failed: %v (showing last good list)\n", status.LastError)
			}
			if err := writeTaskTable(out, source.Tasks(), now); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func newHistoryCommand(logger *slog.Logger) *cobra.Command {
	var (
		activeOnly bool
		limit      int
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List tasks started or stopped from this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(logger, false)
			if err != nil {
				return err
			}
			defer sess.Close()

			store, ok := sess.Journal()
			if !ok {
				return errors.New("task journal is disabled or unavailable")
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			entries, err := store.List(ctx, journal.ListInput{ActiveOnly: activeOnly, Limit: limit})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			return writeHistoryTable(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only tasks not yet stopped")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func writeJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func writeTaskTable(out io.Writer, items []tasks.TaskSummary, now time.Time) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(out, "No running tasks")
		return err
	}
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "TASK\tSENT\tERRORS\tSUCCESS\tRUNNING\tCURRENT")
	for _, item := range items {
		current := strings.TrimSpace(item.Stats.CurrentToken)
		if current == "" {
			current = "-"
		}
		fmt.Fprintf(writer, "%s\t%d\t%d\t%s\t%s\t%s\n",
			item.TaskID,
			item.Stats.CommentsSent,
			item.Stats.Errors,
			tasks.FormatSuccessRate(item.Stats.CommentsSent, item.Stats.Errors),
			tasks.FormatElapsed(item.Stats.StartedAt.Time, now),
			current,
		)
	}
	return writer.Flush()
}

func writeDetail(out io.Writer, detail livesync.Detail) {
	fmt.Fprintf(out, "Task ID:        %s\n", detail.TaskID)
	fmt.Fprintf(out, "Status:         %s\n", detail.Status.Title())
	fmt.Fprintf(out, "Started:        %s\n", formatTime(detail.StartedAt.Time))
	fmt.Fprintf(out, "Comments Sent:  %d\n", detail.CommentsSent)
	fmt.Fprintf(out, "Errors:         %d\n", detail.Errors)
	fmt.Fprintf(out, "Success Rate:   %s\n", detail.SuccessRateText())
	if strings.TrimSpace(detail.CurrentToken) != "" {
		comment := strings.TrimSpace(detail.CurrentComment)
		if comment == "" {
			comment = "N/A"
		}
		fmt.Fprintf(out, "Current Token:  %s\n", detail.CurrentToken)
		fmt.Fprintf(out, "Current Comment: %s\n", comment)
	}
}

func writeJournalEntry(out io.Writer, entry journal.Entry) {
	fmt.Fprintf(out, "Post ID:        %s\n", entry.PostID)
	fmt.Fprintf(out, "Delay:          %s\n", entry.Delay)
	fmt.Fprintf(out, "Launched Here:  %s\n", formatTime(entry.StartedAt))
	if !entry.Active() {
		fmt.Fprintf(out, "Stopped Here:   %s\n", formatTime(entry.StoppedAt))
	}
}

func writeHistoryTable(out io.Writer, entries []journal.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, "No journal entries")
		return err
	}
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "TASK\tPOST\tDELAY\tSTATE\tSTARTED\tSTOPPED")
	for _, entry := range entries {
		state := "running"
		if !entry.Active() {
			state = "stopped"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
			entry.TaskID,
			entry.PostID,
			entry.Delay,
			state,
			formatTime(entry.StartedAt),
			formatTime(entry.StoppedAt),
		)
	}
	return writer.Flush()
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format(time.DateTime)
}
