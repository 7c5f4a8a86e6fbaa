package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/finora-dev/finora/internal/config"
	"github.com/finora-dev/finora/internal/id"
	"github.com/finora-dev/finora/internal/notify"
)

func newNotificationsCommand(opts *globalOptions) *cobra.Command {
	notifCmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"inbox"},
		Short:   "Show the notification feed",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInbox(cmd, opts, false, func(in *notify.Inbox) error {
				items := in.List()
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No notifications.")
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				for _, n := range items {
					mark := " "
					if !n.Read {
						mark = "*"
					}
					fmt.Fprintf(tw, "%s %s\t%s\t%s\t%s: %s\n",
						mark, id.Short(n.ID), n.Time.Local().Format("2006-01-02 15:04"), n.Severity, n.Title, n.Message)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%d unread\n", in.Unread())
				return nil
			})
		},
	}

	notifCmd.AddCommand(
		newNotificationsReadCommand(opts),
		newNotificationsClearCommand(opts),
		newNotificationsToggleCommand(opts, "on", true),
		newNotificationsToggleCommand(opts, "off", false),
	)
	return notifCmd
}

func newNotificationsReadCommand(opts *globalOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "read [id]",
		Short: "Mark a notification, or all of them, as read",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("pass a notification id or --all")
			}
			return withInbox(cmd, opts, true, func(in *notify.Inbox) error {
				if all {
					in.MarkAllRead()
					return nil
				}
				var ids []string
				for _, n := range in.List() {
					ids = append(ids, n.ID)
				}
				nid, err := id.Resolve(args[0], ids)
				if err != nil {
					return err
				}
				in.MarkRead(nid)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "mark every notification as read")
	return cmd
}

func newNotificationsClearCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInbox(cmd, opts, true, func(in *notify.Inbox) error {
				in.Clear()
				return nil
			})
		},
	}
}

func newNotificationsToggleCommand(opts *globalOptions, name string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Turn mutation notifications %s", name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			cfg.Notifications.Enabled = enabled
			if err := config.Save(opts.configPath, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Notifications %s\n", name)
			return nil
		},
	}
}

// withInbox loads the notification feed, runs fn and saves the feed back
// when save is set.
func withInbox(cmd *cobra.Command, opts *globalOptions, save bool, fn func(*notify.Inbox) error) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Feed == nil {
		return fmt.Errorf("notifications.log_file is not configured")
	}
	in, err := a.Feed.LoadInbox()
	if err != nil {
		return err
	}
	if err := fn(in); err != nil {
		return err
	}
	if save {
		return a.Feed.SaveInbox(in)
	}
	return nil
}
