package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/plugin"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List input backend plugins",
	Long: `Plugins lists the plugins found in the plugin directory. A plugin
whose name is passed to --backend replaces the built-in input backend.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := plugin.NewManager(pluginDir, nil)
		if err := mgr.Discover(); err != nil {
			return fmt.Errorf("failed to discover plugins: %w", err)
		}

		out := cmd.OutOrStdout()
		list := mgr.List()
		if len(list) == 0 {
			fmt.Fprintf(out, "no plugins in %s\n", mgr.PluginDir())
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tVERSION\tACTIONS\tDESCRIPTION")
		for _, p := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				p.Manifest.Name, p.Manifest.Version,
				strings.Join(p.Manifest.Actions, ","), p.Manifest.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
}
