package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/hazstudy/internal/matching"
)

// contextFlags holds the problem-context flags shared by recommend commands.
type contextFlags struct {
	installation string
	unit         string
	equipment    string
	description  string
	situation    string
	phase        string
}

func addContextFlags(cmd *cobra.Command, f *contextFlags) {
	cmd.Flags().StringVarP(&f.installation, "installation", "i", "", "installation the problem occurs in")
	cmd.Flags().StringVar(&f.unit, "unit", "", "process unit")
	cmd.Flags().StringVar(&f.equipment, "equipment", "", "equipment tag (e.g. R-101)")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "free-text problem description")
	cmd.Flags().StringVar(&f.situation, "situation", "", "new project, moc, recurring, incident or other")
	cmd.Flags().StringVar(&f.phase, "phase", "", "conceptual, feed, detail, operation or decommissioning")
}

// changed reports whether any context flag was given.
func (f *contextFlags) changed(cmd *cobra.Command) bool {
	for _, name := range []string{"installation", "unit", "equipment", "description", "situation", "phase"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func (f *contextFlags) context() matching.Context {
	return matching.Context{
		Installation: f.installation,
		Unit:         f.unit,
		Equipment:    f.equipment,
		Description:  f.description,
		Situation:    matching.ParseSituation(f.situation),
		Phase:        matching.ParsePhase(f.phase),
	}
}

func newRecommendCmd() *cobra.Command {
	var (
		configPath string
		flags      contextFlags
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend a methodology for a problem without creating a study",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			res, err := a.ctrl.Engine().Recommend(flags.context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), matching.Summary(res))
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	addContextFlags(cmd, &flags)
	return cmd
}
