package cmd

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/MeKo-Tech/stripeterrain/internal/params"
	"github.com/MeKo-Tech/stripeterrain/internal/scene"
)

// Scene keys read from config.yaml, env or flags. Unset keys keep the
// scene defaults.
const (
	keyLineCount        = "scene.line_count"
	keyBigLineWidth     = "scene.big_line_width"
	keySmallLineWidth   = "scene.small_line_width"
	keySmallLineAlpha   = "scene.small_line_alpha"
	keyTextureWidth     = "scene.texture_width"
	keyTextureHeight    = "scene.texture_height"
	keyElevation        = "scene.elevation"
	keyTextureFrequency = "scene.texture_frequency"
	keyDOFEnabled       = "scene.dof.enabled"
	keyDOFFocus         = "scene.dof.focus"
	keyDOFAperture      = "scene.dof.aperture"
	keyDOFMaxBlur       = "scene.dof.maxblur"
	keyClearColor       = "scene.clear_color"
)

// loadSceneOptions overlays every set scene key on scene.DefaultOptions.
func loadSceneOptions(v *viper.Viper) (scene.Options, error) {
	opts := scene.DefaultOptions()

	ints := []struct {
		key string
		dst *int
	}{
		{keyLineCount, &opts.Spec.LineCount},
		{keyTextureWidth, &opts.Spec.Width},
		{keyTextureHeight, &opts.Spec.Height},
	}
	for _, f := range ints {
		if v.IsSet(f.key) {
			*f.dst = v.GetInt(f.key)
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{keyBigLineWidth, &opts.Spec.BigLineWidth},
		{keySmallLineWidth, &opts.Spec.SmallLineWidth},
		{keySmallLineAlpha, &opts.Spec.SmallLineAlpha},
		{keyElevation, &opts.Uniforms.Elevation},
		{keyTextureFrequency, &opts.Uniforms.TextureFrequency},
		{keyDOFFocus, &opts.DepthOfField.Focus},
		{keyDOFAperture, &opts.DepthOfField.Aperture},
		{keyDOFMaxBlur, &opts.DepthOfField.MaxBlur},
	}
	for _, f := range floats {
		if v.IsSet(f.key) {
			*f.dst = v.GetFloat64(f.key)
		}
	}

	if v.IsSet(keyDOFEnabled) {
		opts.DepthOfField.Enabled = v.GetBool(keyDOFEnabled)
	}
	if v.IsSet(keyClearColor) {
		c, err := params.ParseHex(v.GetString(keyClearColor))
		if err != nil {
			return scene.Options{}, fmt.Errorf("%s: %w", keyClearColor, err)
		}
		opts.ClearColor = c
	}

	if err := opts.Validate(); err != nil {
		return scene.Options{}, fmt.Errorf("invalid scene config: %w", err)
	}
	return opts, nil
}
