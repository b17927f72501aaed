package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"task-board-api/internal/repository"
)

func rulesCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect automation rules",
	}
	cmd.AddCommand(rulesListCmd(flags))
	cmd.AddCommand(rulesSetActiveCmd(flags, "enable", true))
	cmd.AddCommand(rulesSetActiveCmd(flags, "disable", false))
	return cmd
}

func rulesListCmd(flags *globalFlags) *cobra.Command {
	var projectID string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the rules of a project in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(projectID)
			if err != nil {
				return fmt.Errorf("invalid --project: %w", err)
			}

			e, err := flags.open()
			if err != nil {
				return err
			}
			defer e.close()

			rules, err := repository.NewRuleRepository(e.db).FindByProjectID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, rules)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTRIGGER\tACTION\tACTIVE")
			for _, r := range rules {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", r.ID, r.Name, r.Trigger, r.Action, r.IsActive)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "project id")
	_ = cmd.MarkFlagRequired("project")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	return cmd
}

func rulesSetActiveCmd(flags *globalFlags, use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [rule-id]",
		Short: fmt.Sprintf("Set a rule's active flag to %t", active),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid rule id: %w", err)
			}

			e, err := flags.open()
			if err != nil {
				return err
			}
			defer e.close()

			if err := repository.NewRuleRepository(e.db).SetActive(cmd.Context(), id, active); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rule %s active=%t\n", id, active)
			return nil
		},
	}
}
