package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/stripeterrain/internal/params"
	"github.com/MeKo-Tech/stripeterrain/internal/render"
	"github.com/MeKo-Tech/stripeterrain/internal/scene"
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "List the panel parameters",
	Long:  "Build the scene from config and list every panel parameter in registration order with its range and current value.",
	RunE:  runParams,
}

func init() {
	rootCmd.AddCommand(paramsCmd)

	paramsCmd.Flags().Bool("json", false, "Print descriptors as JSON")
	if err := viper.BindPFlag("params.json", paramsCmd.Flags().Lookup("json")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
}

func runParams(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	opts, err := loadSceneOptions(viper.GetViper())
	if err != nil {
		return err
	}
	return listParams(cmd.OutOrStdout(), opts, viper.GetBool("params.json"))
}

func listParams(w io.Writer, opts scene.Options, asJSON bool) error {
	rec := render.NewRecorder()
	opts.Pipeline = rec
	opts.Camera = rec
	opts.Logger = logger
	c, err := scene.New(opts)
	if err != nil {
		return err
	}
	desc := c.Sync.Descriptors()

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(desc)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tGROUP\tKIND\tMIN\tMAX\tSTEP\tVALUE")
	for _, d := range desc {
		lo, hi, step := "-", "-", "-"
		if d.Kind == params.KindRange {
			lo, hi, step = formatFloat(d.Min), formatFloat(d.Max), formatFloat(d.Step)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%v\n", d.Name, d.Group, d.Kind, lo, hi, step, d.Value)
	}
	return tw.Flush()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
