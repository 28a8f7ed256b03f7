package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/keshon/server-warden/pkg/util"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func (a *app) prisonersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prisoners",
		Short: "List confined members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			list, err := s.Prisoners(cmd.Context())
			if err != nil {
				return fmt.Errorf("list prisoners: %w", err)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No one is confined.")
				return nil
			}
			sort.Slice(list, func(i, j int) bool { return list[i].EnteredAt.Before(list[j].EnteredAt) })
			tw := table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "USER\tCHANNEL\tENTERED\tBALANCE AT ENTRY")
			for _, p := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.UserID, p.ChannelID, a.date(p.EnteredAt), p.EnteredBalance)
			}
			return tw.Flush()
		},
	}
}

func (a *app) offensesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "offenses",
		Short: "Show offense counters, highest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			counters, err := s.Offenses(cmd.Context())
			if err != nil {
				return fmt.Errorf("list offenses: %w", err)
			}
			sort.Slice(counters, func(i, j int) bool {
				if counters[i].Count != counters[j].Count {
					return counters[i].Count > counters[j].Count
				}
				return counters[i].UserID < counters[j].UserID
			})
			tw := table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "USER\tOFFENSES")
			for _, c := range counters {
				fmt.Fprintf(tw, "%s\t%d\n", c.UserID, c.Count)
			}
			return tw.Flush()
		},
	}
}

func (a *app) auditCmd() *cobra.Command {
	var (
		user     string
		orphaned bool
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List word violation audit rows",
		Long:  "List word violation audit rows, newest first. --orphaned keeps only escalations whose timeout was never applied.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			events, err := s.OffenseEvents(cmd.Context(), user, orphaned, limit)
			if err != nil {
				return fmt.Errorf("list audit rows: %w", err)
			}
			tw := table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "WHEN\tUSER\tKIND\tOFFENSE\tTIMEOUT\tAPPLIED\tWORDS")
			for _, ev := range events {
				fmt.Fprintf(tw, "%s\t%s\t%s\t#%d\t%s\t%t\t%s\n",
					a.date(ev.CreatedAt), ev.UserID, ev.Kind, ev.OffenseNumber,
					util.FormatSeconds(ev.TimeoutSeconds), ev.Applied, ev.Words)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "Only rows for this user id")
	cmd.Flags().BoolVar(&orphaned, "orphaned", false, "Only escalations whose timeout failed")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rows")
	return cmd
}

func (a *app) wordsCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "words",
		Short: "List enforced and banned words",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			rules, err := s.Words(cmd.Context())
			if err != nil {
				return fmt.Errorf("list words: %w", err)
			}
			tw := table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "USER\tKIND\tWORD\tINITIAL\tADDED")
			for _, r := range rules {
				if user != "" && r.UserID != user {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.UserID, r.Kind, r.Word,
					util.FormatSeconds(r.InitialTime), util.FormatSeconds(r.AddedTime))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "Only words for this user id")
	return cmd
}

func (a *app) historyCmd() *cobra.Command {
	var (
		guild string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent command invocations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			records, err := s.FetchCommandHistory(cmd.Context(), guild, limit)
			if err != nil {
				return fmt.Errorf("fetch history: %w", err)
			}
			tw := table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "WHEN\tGUILD\tCHANNEL\tUSER\tCOMMAND")
			for _, r := range records {
				line := r.Command
				if r.Args != "" {
					line += " " + r.Args
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.date(r.Datetime), r.GuildID, r.ChannelID, r.UserID, line)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&guild, "guild", "g", "", "Only this guild id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 25, "Maximum rows")
	return cmd
}
