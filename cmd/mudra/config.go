package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/config"
)

var printFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect gesture settings",
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the effective settings",
	Long: `Print loads the settings file, falling back to defaults when it does
not exist, and writes the result with every gesture listed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.LoadFileOrDefault(configPath)
		if err != nil {
			return err
		}

		var f config.Format
		switch printFormat {
		case "json":
			f = config.FormatJSON
		case "yaml":
			f = config.FormatYAML
		default:
			return fmt.Errorf("unknown format %q (use json or yaml)", printFormat)
		}

		data, err := config.Marshal(s, f)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate a settings file",
	Long: `Check parses a settings file and lists fields that were ignored or
replaced by defaults. It exits non-zero when the file cannot be parsed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) == 1 {
			path = args[0]
		}

		s, err := config.LoadFile(path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, w := range s.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
		fmt.Fprintf(out, "%s: ok (%d warnings)\n", path, len(s.Warnings))
		return nil
	},
}

func init() {
	configPrintCmd.Flags().StringVar(&printFormat, "format", "json", "Output format: json or yaml")
	configCmd.AddCommand(configPrintCmd, configCheckCmd)
	rootCmd.AddCommand(configCmd)
}
