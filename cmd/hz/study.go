package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/hazstudy/internal/study"
	"github.com/zulandar/hazstudy/internal/workflow"
	"github.com/zulandar/hazstudy/internal/worksheet"
)

func newStudyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "study",
		Short: "Study workflow commands",
	}

	cmd.AddCommand(newStudyCreateCmd())
	cmd.AddCommand(newStudyListCmd())
	cmd.AddCommand(newStudyShowCmd())
	cmd.AddCommand(newStudyRecommendCmd())
	cmd.AddCommand(newStudyPrepareCmd())
	cmd.AddCommand(newStudyGenerateCmd())
	cmd.AddCommand(newStudyCurateCmd())
	cmd.AddCommand(newStudySuggestCmd())
	cmd.AddCommand(newStudyFinishCmd())
	cmd.AddCommand(newStudyApproveCmd())
	cmd.AddCommand(newStudyAssignCmd())
	cmd.AddCommand(newStudySendCmd())
	cmd.AddCommand(newStudyResetCmd())
	cmd.AddCommand(newStudyExportCmd())
	return cmd
}

func newStudyCreateCmd() *cobra.Command {
	var (
		configPath string
		opts       workflow.CreateOpts
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new study",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			s, err := a.ctrl.Create(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created study %s (%s)\n", s.ID, s.State)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&opts.Installation, "installation", "i", "", "installation under study")
	cmd.Flags().StringVarP(&opts.Title, "title", "t", "", "study title")
	cmd.Flags().StringVar(&opts.Leader, "leader", "", "study leader")
	cmd.Flags().StringVar(&opts.Client, "client", "", "client (defaults to the configured client)")
	return cmd
}

func newStudyListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List studies",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			all, err := a.ctrl.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(all) == 0 {
				fmt.Fprintln(out, "No studies found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATE\tINSTALLATION\tTITLE\tMETHODOLOGY\tROWS")
			for _, s := range all {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", s.ID, s.State, dash(s.Meta.Installation),
					dash(s.Meta.Title), dash(s.Recommendation.Methodology), len(s.Worksheet.Rows()))
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newStudyShowCmd() *cobra.Command {
	var (
		configPath string
		showLog    bool
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a study",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			s, err := a.ctrl.Get(args[0])
			if err != nil {
				return err
			}
			printStudy(cmd, s, showLog)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&showLog, "log", false, "include the activity log")
	return cmd
}

func printStudy(cmd *cobra.Command, s *study.Session, showLog bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Study:        %s\n", s.ID)
	fmt.Fprintf(out, "State:        %s\n", s.State)
	fmt.Fprintf(out, "Client:       %s\n", dash(s.Meta.Client))
	fmt.Fprintf(out, "Installation: %s\n", dash(s.Meta.Installation))
	fmt.Fprintf(out, "Title:        %s\n", dash(s.Meta.Title))
	fmt.Fprintf(out, "Leader:       %s\n", dash(s.Meta.Leader))
	fmt.Fprintf(out, "Methodology:  %s\n", dash(s.Recommendation.Methodology))

	if len(s.Nodes) > 0 {
		fmt.Fprintln(out, "\nNodes:")
		for _, n := range s.Nodes {
			fmt.Fprintf(out, "  %s  %s\n", n.ID, worksheet.NodeLabel(n))
		}
	}
	if len(s.Preparation.Files) > 0 || len(s.Preparation.Disciplines) > 0 {
		fmt.Fprintf(out, "\nFiles: %d  Disciplines: %v\n", len(s.Preparation.Files), s.Preparation.Disciplines)
	}
	if rows := s.Worksheet.Rows(); len(rows) > 0 {
		c := s.Worksheet.Counts()
		fmt.Fprintf(out, "\nWorksheet: %d rows, %d without recommendation\n", c.Total, c.Empty)
	}
	if s.Approval.Approver != "" {
		fmt.Fprintf(out, "Approval: %s on %s (approved: %t)\n", s.Approval.Approver, dash(s.Approval.Date), s.Approval.Approved)
	}
	if len(s.Assignments) > 0 {
		fmt.Fprintln(out)
		printAssignments(cmd, s)
	}
	if showLog {
		fmt.Fprintln(out, "\nLog:")
		for _, e := range s.Log {
			fmt.Fprintf(out, "  %s  %s\n", e.At.Format("2006-01-02 15:04"), e.Message)
		}
	}
}

func newStudyRecommendCmd() *cobra.Command {
	var (
		configPath  string
		flags       contextFlags
		methodology string
		proceed     bool
	)

	cmd := &cobra.Command{
		Use:   "recommend <id>",
		Short: "Run the recommendation for a study",
		Long: `Computes the methodology, related studies and nodes for the study.
Context flags replace the stored context; without them the stored context is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			id := args[0]

			if methodology != "" {
				cur, err := a.ctrl.Get(id)
				if err != nil {
					return err
				}
				s, o, err := a.ctrl.EditRecommendation(id, methodology, cur.Recommendation.Rationale)
				if err != nil {
					return err
				}
				printOutcome(out, s, o)
				return nil
			}

			ctx := flags.context()
			in := &ctx
			if !flags.changed(cmd) {
				in = nil
			}
			s, o, err := a.ctrl.Recommend(id, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, s.Recommendation.Rationale)
			fmt.Fprintln(out)
			printOutcome(out, s, o)

			if proceed {
				s, o, err = a.ctrl.ContinueToPreparation(id)
				if err != nil {
					return err
				}
				printOutcome(out, s, o)
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	addContextFlags(cmd, &flags)
	cmd.Flags().StringVar(&methodology, "methodology", "", "override the recommended methodology instead of recomputing")
	cmd.Flags().BoolVar(&proceed, "continue", false, "confirm the recommendation and continue to preparation")
	return cmd
}

func newStudyPrepareCmd() *cobra.Command {
	var (
		configPath   string
		files        []string
		disciplines  string
		participants string
		done         bool
	)

	cmd := &cobra.Command{
		Use:   "prepare <id>",
		Short: "Record preparation files and the team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			id := args[0]

			if len(files) > 0 {
				refs := make([]study.FileRef, 0, len(files))
				for _, path := range files {
					ref := study.FileRef{Name: filepath.Base(path)}
					if fi, err := os.Stat(path); err == nil {
						ref.Size = fi.Size()
					}
					refs = append(refs, ref)
				}
				s, o, err := a.ctrl.AddFiles(id, refs)
				if err != nil {
					return err
				}
				printOutcome(out, s, o)
			}
			if cmd.Flags().Changed("disciplines") || cmd.Flags().Changed("participants") {
				s, o, err := a.ctrl.SetTeam(id, splitList(disciplines), participants)
				if err != nil {
					return err
				}
				printOutcome(out, s, o)
			}
			if done {
				s, o, err := a.ctrl.CompletePreparation(id)
				if err != nil {
					return err
				}
				printOutcome(out, s, o)
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "preparation file (repeatable)")
	cmd.Flags().StringVar(&disciplines, "disciplines", "", "comma-separated disciplines")
	cmd.Flags().StringVar(&participants, "participants", "", "participants")
	cmd.Flags().BoolVar(&done, "done", false, "mark preparation complete")
	return cmd
}

func newStudyGenerateCmd() *cobra.Command {
	var (
		configPath string
		nodes      string
	)

	cmd := &cobra.Command{
		Use:   "generate <id>",
		Short: "Generate the worksheet prefab for the study nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			s, o, err := a.ctrl.Generate(args[0], splitList(nodes))
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), s, o)
			printWorksheet(cmd, s.Worksheet)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&nodes, "nodes", "", "comma-separated node ids to include (default all related nodes)")
	return cmd
}

func printWorksheet(cmd *cobra.Command, ws *worksheet.Worksheet) {
	rows := ws.Rows()
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Worksheet is empty.")
		return
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROW\tNODE\tDEVIATION\tCAUSE\tRECOMMENDATION")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.NodeID, dash(r.Deviation), dash(r.Cause), dash(r.Recommendation))
	}
	w.Flush()
}

// rowFlags are the editable worksheet columns.
type rowFlags struct {
	nodeLabel      string
	deviation      string
	cause          string
	consequence    string
	safeguard      string
	recommendation string
}

func (f *rowFlags) patch(cmd *cobra.Command) (worksheet.RowPatch, bool) {
	var p worksheet.RowPatch
	set := false
	for _, col := range []struct {
		flag string
		src  *string
		dst  **string
	}{
		{"node-label", &f.nodeLabel, &p.NodeLabel},
		{"deviation", &f.deviation, &p.Deviation},
		{"cause", &f.cause, &p.Cause},
		{"consequence", &f.consequence, &p.Consequence},
		{"safeguard", &f.safeguard, &p.Safeguard},
		{"recommendation", &f.recommendation, &p.Recommendation},
	} {
		if cmd.Flags().Changed(col.flag) {
			*col.dst = col.src
			set = true
		}
	}
	return p, set
}

func newStudyCurateCmd() *cobra.Command {
	var (
		configPath string
		row        string
		addRow     string
		removeRow  string
		node       string
		nodeRec    string
		flags      rowFlags
	)

	cmd := &cobra.Command{
		Use:   "curate <id>",
		Short: "Edit the worksheet",
		Long: `Edits worksheet rows and node recommendations. Without any edit flag the
worksheet is printed.

  hz study curate ST-2025-0001 --row N-001-R-001 --recommendation "Add high-pressure alarm"
  hz study curate ST-2025-0001 --add-row N-001
  hz study curate ST-2025-0001 --remove-row N-001-R-003
  hz study curate ST-2025-0001 --node N-001 --node-recommendation "Revalidate PSV sizing"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			id := args[0]

			var (
				s  *study.Session
				o  study.Outcome
				op bool
			)
			switch {
			case addRow != "":
				var r worksheet.Row
				r, s, o, err = a.ctrl.AddRow(id, addRow)
				if err == nil && r.ID != "" {
					fmt.Fprintf(out, "Added row %s\n", r.ID)
				}
				op = true
			case removeRow != "":
				s, o, err = a.ctrl.RemoveRow(id, removeRow)
				op = true
			case node != "" && cmd.Flags().Changed("node-recommendation"):
				s, o, err = a.ctrl.SetNodeRecommendation(id, node, nodeRec)
				op = true
			case row != "":
				p, set := flags.patch(cmd)
				if !set {
					return fmt.Errorf("--row needs at least one column flag")
				}
				s, o, err = a.ctrl.UpdateRow(id, row, p)
				op = true
			}
			if err != nil {
				return err
			}
			if op {
				printOutcome(out, s, o)
				return nil
			}

			s, err = a.ctrl.Get(id)
			if err != nil {
				return err
			}
			printWorksheet(cmd, s.Worksheet)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&row, "row", "", "row id to edit")
	cmd.Flags().StringVar(&addRow, "add-row", "", "append an empty row to this node")
	cmd.Flags().StringVar(&removeRow, "remove-row", "", "row id to remove")
	cmd.Flags().StringVar(&node, "node", "", "node id for --node-recommendation")
	cmd.Flags().StringVar(&nodeRec, "node-recommendation", "", "node-level recommendation")
	cmd.Flags().StringVar(&flags.nodeLabel, "node-label", "", "row node label")
	cmd.Flags().StringVar(&flags.deviation, "deviation", "", "row deviation")
	cmd.Flags().StringVar(&flags.cause, "cause", "", "row cause")
	cmd.Flags().StringVar(&flags.consequence, "consequence", "", "row consequence")
	cmd.Flags().StringVar(&flags.safeguard, "safeguard", "", "row safeguard")
	cmd.Flags().StringVar(&flags.recommendation, "recommendation", "", "row recommendation")
	return cmd
}

func newStudySuggestCmd() *cobra.Command {
	var (
		configPath string
		accept     bool
		edit       bool
		ignore     bool
	)

	cmd := &cobra.Command{
		Use:   "suggest <id> <row>",
		Short: "Show or act on the historical suggestion for a row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			id, rowID := args[0], args[1]

			var op func(id, rowID string) (*study.Session, study.Outcome, error)
			switch {
			case accept:
				op = a.ctrl.AcceptSuggestion
			case edit:
				op = a.ctrl.MarkSuggestionForEdit
			case ignore:
				op = a.ctrl.IgnoreSuggestion
			}
			if op != nil {
				s, o, err := op(id, rowID)
				if err != nil {
					return err
				}
				printOutcome(out, s, o)
				return nil
			}

			sug, o, err := a.ctrl.Suggest(id, rowID)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, sug.Text)
			fmt.Fprintln(out, sug.Standards)
			fmt.Fprintf(out, "\nProposed recommendation: %s\n", sug.Recommendation)
			for _, w := range o.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&accept, "accept", false, "accept the suggestion into the row")
	cmd.Flags().BoolVar(&edit, "edit", false, "mark the suggestion for manual editing")
	cmd.Flags().BoolVar(&ignore, "ignore", false, "ignore the suggestion")
	cmd.MarkFlagsMutuallyExclusive("accept", "edit", "ignore")
	return cmd
}

func newStudyFinishCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "finish <id>",
		Short: "Finish curation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			counts, s, o, err := a.ctrl.FinishCuration(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows, %d without recommendation\n", counts.Total, counts.Empty)
			printOutcome(cmd.OutOrStdout(), s, o)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newStudyApproveCmd() *cobra.Command {
	var (
		configPath string
		approval   study.Approval
	)

	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Record the approval of a study",
		Long: `Records approver and date. With --approved the study moves to the
assignment step; without it the approval is saved but not granted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			s, o, err := a.ctrl.Approve(args[0], approval)
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), s, o)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&approval.Approver, "approver", "", "approver name")
	cmd.Flags().StringVar(&approval.Date, "date", "", "approval date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&approval.Approved, "approved", false, "grant the approval")
	return cmd
}

func newStudyAssignCmd() *cobra.Command {
	var (
		configPath  string
		row         string
		responsible string
		due         string
		status      string
		save        bool
	)

	cmd := &cobra.Command{
		Use:   "assign <id>",
		Short: "Assign recommendations to responsibles",
		Long: `Edits one assignment with --row, or saves the table with --save. Without
flags the assignment table is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			id := args[0]

			if row != "" {
				var p study.AssignmentPatch
				if cmd.Flags().Changed("responsible") {
					p.Responsible = &responsible
				}
				if cmd.Flags().Changed("due") {
					p.DueDate = &due
				}
				if cmd.Flags().Changed("status") {
					p.Status = &status
				}
				s, o, err := a.ctrl.SetAssignment(id, row, p)
				if err != nil {
					return err
				}
				printOutcome(out, s, o)
			}
			if save {
				s, o, err := a.ctrl.SaveAssignments(id)
				if err != nil {
					return err
				}
				printOutcome(out, s, o)
			}
			if row != "" || save {
				return nil
			}

			s, err := a.ctrl.Get(id)
			if err != nil {
				return err
			}
			printAssignments(cmd, s)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&row, "row", "", "row id of the assignment to edit")
	cmd.Flags().StringVar(&responsible, "responsible", "", "responsible person")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&status, "status", "", "Pending, In progress or Done")
	cmd.Flags().BoolVar(&save, "save", false, "save the assignment table")
	return cmd
}

func printAssignments(cmd *cobra.Command, s *study.Session) {
	if len(s.Assignments) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No assignments.")
		return
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROW\tRESPONSIBLE\tDUE\tSTATUS\tRECOMMENDATION")
	for _, as := range s.Assignments {
		rec := ""
		if r, ok := s.Worksheet.Row(as.RowID); ok {
			rec = r.Recommendation
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", as.RowID, dash(as.Responsible), dash(as.DueDate), as.Status, dash(rec))
	}
	w.Flush()
}

func newStudySendCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "send <id>",
		Short: "Send assigned recommendations to their responsibles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			n, s, o, err := a.ctrl.Send(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %d recommendation(s)\n", n)
			printOutcome(cmd.OutOrStdout(), s, o)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newStudyResetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "reset <id>",
		Short: "Reset a study to the recommendation step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			s, o, err := a.ctrl.Reset(args[0])
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), s, o)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newStudyExportCmd() *cobra.Command {
	var (
		configPath string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export the worksheet as an XLSX workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			s, err := a.ctrl.Get(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = s.ID + ".xlsx"
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := worksheet.WriteXLSX(f, s.Worksheet, s.ID); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <id>.xlsx)")
	return cmd
}
