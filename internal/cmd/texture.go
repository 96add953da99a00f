package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/stripeterrain/internal/stripe"
)

var textureCmd = &cobra.Command{
	Use:   "texture",
	Short: "Write the stripe texture as a PNG",
	Long:  "Paint the stripe texture from the scene config and write it to a PNG, optionally upscaled for inspection.",
	RunE:  runTexture,
}

func init() {
	rootCmd.AddCommand(textureCmd)

	def := stripe.DefaultSpec()
	textureCmd.Flags().StringP("output", "o", "stripes.png", "Output PNG path")
	textureCmd.Flags().Int("scale", 1, "Integer upscale factor (nearest neighbour)")
	textureCmd.Flags().Int("line-count", def.LineCount, "Number of lines including the big one")
	textureCmd.Flags().Float64("big-line-width", def.BigLineWidth, "Big line width as a fraction of the height")
	textureCmd.Flags().Float64("small-line-width", def.SmallLineWidth, "Small line width as a fraction of the height")
	textureCmd.Flags().Float64("small-line-alpha", def.SmallLineAlpha, "Small line opacity (0..1)")
	textureCmd.Flags().Int("width", def.Width, "Texture width in pixels")
	textureCmd.Flags().Int("height", def.Height, "Texture height in pixels")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"texture.output", "output"},
		{"texture.scale", "scale"},
		{keyLineCount, "line-count"},
		{keyBigLineWidth, "big-line-width"},
		{keySmallLineWidth, "small-line-width"},
		{keySmallLineAlpha, "small-line-alpha"},
		{keyTextureWidth, "width"},
		{keyTextureHeight, "height"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, textureCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runTexture(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	out := viper.GetString("texture.output")
	scale := viper.GetInt("texture.scale")
	if scale < 1 {
		return fmt.Errorf("scale must be at least 1")
	}

	opts, err := loadSceneOptions(viper.GetViper())
	if err != nil {
		return err
	}

	r, err := writeTexture(opts.Spec, out, scale)
	if err != nil {
		return err
	}

	for _, b := range stripe.Bands(opts.Spec) {
		logger.Debug("band", "start", b.Start, "height", b.Height, "alpha", b.Alpha)
	}
	logger.Info("Texture written",
		"path", out,
		"width", r.Width()*scale,
		"height", r.Height()*scale,
		"line_count", opts.Spec.LineCount,
	)
	return nil
}

func writeTexture(spec stripe.Spec, path string, scale int) (*stripe.Raster, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	r := stripe.NewRaster(spec.Width, spec.Height)
	stripe.Generate(spec, r)
	if err := stripe.WritePNGFile(path, stripe.Preview(r, scale)); err != nil {
		return nil, err
	}
	return r, nil
}
