package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/feedclean/internal/source"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List sources configured in the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		initLogger()

		reg, err := source.FromViper(viper.GetViper())
		if err != nil {
			return err
		}
		if reg.Len() == 0 {
			logInfo("No sources configured (config: %q)", viper.ConfigFileUsed())
			return nil
		}
		return printSources(cmd.OutOrStdout(), reg)
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func printSources(w io.Writer, reg *source.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tURL\tRULES\tLIMIT\tDETAIL")
	for _, name := range reg.Names() {
		src, err := reg.Get(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			src.Name, src.URL, orDash(src.RuleFile), limitString(src.Limit), orDash(src.Detail.String()))
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func limitString(n int) string {
	if n <= 0 {
		return "all"
	}
	return fmt.Sprint(n)
}
