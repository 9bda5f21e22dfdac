package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/thirdbrain/config"
	"github.com/jpalmerr/thirdbrain/imagegen"
	"github.com/jpalmerr/thirdbrain/internal/store"
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Generate or edit an image with Gemini",
	Long: `Generate an image from a prompt, or edit input images, with a Gemini image
model. The image is written to --output or nanobanana-<id>.png.

Examples:
  thirdbrain image --prompt "isometric cyberpunk office" --size 1024x1024
  thirdbrain image --prompt "make the sky orange" --input photo.jpg --resolution 2K`,
	Args: cobra.NoArgs,
	RunE: runImage,
}

func init() {
	rootCmd.AddCommand(imageCmd)

	imageCmd.Flags().String("prompt", "", "description of the desired image or edit (required)")
	imageCmd.Flags().StringArray("input", nil, "input image to edit (repeatable)")
	imageCmd.Flags().StringP("output", "o", "", "output PNG path (default: nanobanana-<id>.png)")
	imageCmd.Flags().String("model", "", "model: "+strings.Join(imagegen.Models(), ", ")+" (default: gemini.model)")
	imageCmd.Flags().String("size", imagegen.DefaultSize, "base resolution preset: "+strings.Join(imagegen.Sizes(), ", "))
	imageCmd.Flags().String("resolution", imagegen.DefaultResolution, "scale factor: "+strings.Join(imagegen.Resolutions(), ", "))
	_ = imageCmd.MarkFlagRequired("prompt")
}

func runImage(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	gen, err := imagegen.New(config.BuildImageSettings(a.cfg, a.logger))
	if err != nil {
		return err
	}
	defer gen.Close()

	f := cmd.Flags()
	prompt, _ := f.GetString("prompt")
	inputs, _ := f.GetStringArray("input")
	output, _ := f.GetString("output")
	model, _ := f.GetString("model")
	size, _ := f.GetString("size")
	resolution, _ := f.GetString("resolution")

	img, err := gen.Generate(cmd.Context(), imagegen.Request{
		Prompt:     prompt,
		Inputs:     inputs,
		Model:      model,
		Size:       size,
		Resolution: resolution,
	})
	if err != nil {
		return err
	}

	saved, err := imagegen.Save(imagegen.OutputPath(output), img)
	if err != nil {
		return err
	}

	if model == "" {
		model = a.cfg.Gemini.Model
	}
	a.record(cmd.Context(), store.JobRecord{
		Handle:     saved.Path,
		Provider:   "gemini",
		Kind:       "image",
		Query:      truncate(prompt, ledgerQueryLimit),
		Model:      model,
		Status:     "completed",
		OutputPath: saved.Path,
	})

	fmt.Printf("Saved: %s (%dx%d)\n", saved.Path, saved.Width, saved.Height)
	return nil
}
