package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/hazstudy/internal/catalog"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse the historical study catalog",
	}

	cmd.AddCommand(newCatalogInstallationsCmd())
	cmd.AddCommand(newCatalogStudiesCmd())
	cmd.AddCommand(newCatalogNodesCmd())
	return cmd
}

func newCatalogInstallationsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "installations",
		Short: "List installations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			list, err := a.ctrl.Catalog().ListInstallations()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No installations. Run 'hz db init' to seed the catalog.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tRISK\tMATURITY")
			for _, in := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\n", in.ID, in.Name, dash(in.Risk), in.Maturity)
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newCatalogStudiesCmd() *cobra.Command {
	var (
		configPath   string
		installation string
	)

	cmd := &cobra.Command{
		Use:   "studies",
		Short: "List historical studies",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			list, err := a.ctrl.Catalog().Studies(installation)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No studies found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tYEAR\tINSTALLATION\tEQUIPMENT\tCOVERAGE\tSTATUS")
			for _, s := range list {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
					s.ID, s.Type, s.Year, s.Installation, dash(s.Equipment), dash(s.Coverage), dash(s.Status))
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&installation, "installation", "i", catalog.AllInstallations, "filter by installation")
	return cmd
}

func newCatalogNodesCmd() *cobra.Command {
	var (
		configPath   string
		installation string
	)

	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List process nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			list, err := a.ctrl.Catalog().Nodes(installation)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No nodes found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tINSTALLATION\tUNIT\tEQUIPMENT\tRISK\tRELATED")
			for _, n := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					n.ID, n.Installation, dash(n.Unit), dash(n.Equipment), dash(n.Risk), dash(catalog.FormatRefs(n.Refs)))
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&installation, "installation", "i", catalog.AllInstallations, "filter by installation")
	return cmd
}
