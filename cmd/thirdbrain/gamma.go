package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/thirdbrain/config"
	"github.com/jpalmerr/thirdbrain/gamma"
	"github.com/jpalmerr/thirdbrain/internal/store"
)

var gammaCmd = &cobra.Command{
	Use:   "gamma",
	Short: "Generate Gamma presentations and fetch their exports",
}

var gammaGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a presentation, document, social post or webpage",
	Long: `Submit a Gamma generation and wait for it (up to gamma.max_duration, 10m by
default). Prints {"url", "generation_id", "error"} as JSON and exits 1 when
error is set.

Examples:
  thirdbrain gamma generate --input-text "Q3 roadmap" --num-cards 8
  thirdbrain gamma generate --input-file outline.md --format document --export-as pdf
  thirdbrain gamma generate --input-file notes.md --text-mode condense --text-amount brief \
    --sharing-external-access view --card-header-footer '{"topRight":{"type":"text","value":"ACME"}}'`,
	Args: cobra.NoArgs,
	RunE: runGammaGenerate,
}

var gammaAssetsCmd = &cobra.Command{
	Use:   "assets GENERATION_ID",
	Short: "List, and optionally download, the PDF and PPTX exports of a generation",
	Long: `Look up the export URLs of a finished Gamma generation and print them as JSON.

With --download both files are fetched concurrently to
<output-dir>/<generation_id>.pdf and .pptx. A failed download is reported as
pdf_error or pptx_error without failing the command.

Example:
  thirdbrain gamma assets gen_abc123 --download --output-dir exports`,
	Args: cobra.ExactArgs(1),
	RunE: runGammaAssets,
}

func init() {
	rootCmd.AddCommand(gammaCmd)
	gammaCmd.AddCommand(gammaGenerateCmd, gammaAssetsCmd)

	f := gammaGenerateCmd.Flags()
	f.String("input-text", "", "content to generate from")
	f.String("input-file", "", "read the input text from a file")
	f.String("text-mode", "generate", "generate, condense or preserve")
	f.String("format", "presentation", "presentation, document, social or webpage")
	f.Int("num-cards", 0, "number of cards")
	f.String("export-as", "", "also export as pdf or pptx")
	f.String("card-split", "", "auto or inputTextBreaks")
	f.String("theme-id", "", "theme ID")
	f.String("additional-instructions", "", "extra instructions for the generator")
	f.String("additional-instructions-file", "", "read additional instructions from a file")
	f.String("text-amount", "", "brief, medium, detailed or extensive")
	f.String("text-tone", "", "tone of the text")
	f.String("text-audience", "", "intended audience")
	f.String("text-language", "", "output language code")
	f.String("image-source", "", "image source, e.g. aiGenerated, unsplash, noImages")
	f.String("image-model", "", "image model")
	f.String("image-style", "", "image style")
	f.String("card-dimensions", "", "card dimensions, e.g. 16x9")
	f.String("card-header-footer", "", "card header/footer settings as JSON")
	f.StringSlice("folder-ids", nil, "folder IDs to save into")
	f.String("sharing-workspace-access", "", "noAccess, view, comment, edit or fullAccess")
	f.String("sharing-external-access", "", "noAccess, view, comment or edit")
	f.String("sharing-email-options", "", "email sharing options as JSON")

	gammaAssetsCmd.Flags().Bool("download", false, "download the PDF and PPTX files")
	gammaAssetsCmd.Flags().String("output-dir", "", "download directory (default: output_dir)")
}

func runGammaGenerate(cmd *cobra.Command, args []string) error {
	params, err := generateParams(cmd)
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	client, err := gamma.New(config.BuildGammaSettings(a.cfg, a.logger))
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := cmd.Context()
	var result gamma.Result
	id, err := client.Submit(ctx, params)
	if err != nil {
		msg := err.Error()
		result = gamma.Result{Error: &msg}
	} else {
		a.record(ctx, store.JobRecord{
			Handle:   id,
			Provider: "gamma",
			Kind:     "presentation",
			Query:    truncate(params.InputText, ledgerQueryLimit),
			Status:   "in_progress",
		})
		result = client.Wait(ctx, id)

		rec := store.JobRecord{Handle: id, Provider: "gamma", Kind: "presentation", Status: "completed"}
		if result.Failed() {
			rec.Status = "failed"
		} else {
			rec.OutputPath = *result.URL
		}
		if ctx.Err() == nil {
			a.finish(ctx, rec)
		}
	}

	if err := printJSON(result); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if result.Failed() {
		return errors.New(*result.Error)
	}
	return nil
}

// generateParams builds the request from flags and input files.
func generateParams(cmd *cobra.Command) (gamma.GenerateParams, error) {
	f := cmd.Flags()
	str := func(name string) string {
		v, _ := f.GetString(name)
		return v
	}

	input := str("input-text")
	if path := str("input-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return gamma.GenerateParams{}, fmt.Errorf("failed to read input file: %w", err)
		}
		input = string(data)
	}
	if strings.TrimSpace(input) == "" {
		return gamma.GenerateParams{}, errors.New("must provide --input-text or --input-file")
	}

	instructions := str("additional-instructions")
	if path := str("additional-instructions-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return gamma.GenerateParams{}, fmt.Errorf("failed to read additional instructions file: %w", err)
		}
		instructions = strings.TrimSpace(string(data))
	}

	headerFooter, err := jsonFlag(str("card-header-footer"), "--card-header-footer")
	if err != nil {
		return gamma.GenerateParams{}, err
	}
	emailOptions, err := jsonFlag(str("sharing-email-options"), "--sharing-email-options")
	if err != nil {
		return gamma.GenerateParams{}, err
	}

	numCards, _ := f.GetInt("num-cards")
	folders, _ := f.GetStringSlice("folder-ids")

	return gamma.GenerateParams{
		InputText:              input,
		TextMode:               str("text-mode"),
		Format:                 str("format"),
		NumCards:               numCards,
		ExportAs:               str("export-as"),
		CardSplit:              str("card-split"),
		ThemeID:                str("theme-id"),
		FolderIDs:              folders,
		AdditionalInstructions: instructions,
		TextOptions: &gamma.TextOptions{
			Amount:   str("text-amount"),
			Tone:     str("text-tone"),
			Audience: str("text-audience"),
			Language: str("text-language"),
		},
		ImageOptions: &gamma.ImageOptions{
			Source: str("image-source"),
			Model:  str("image-model"),
			Style:  str("image-style"),
		},
		CardOptions: &gamma.CardOptions{
			Dimensions:   str("card-dimensions"),
			HeaderFooter: headerFooter,
		},
		SharingOptions: &gamma.SharingOptions{
			WorkspaceAccess: str("sharing-workspace-access"),
			ExternalAccess:  str("sharing-external-access"),
			EmailOptions:    emailOptions,
		},
	}, nil
}

func jsonFlag(value, name string) (json.RawMessage, error) {
	if value == "" {
		return nil, nil
	}
	if !json.Valid([]byte(value)) {
		return nil, fmt.Errorf("%s must be valid JSON", name)
	}
	return json.RawMessage(value), nil
}

func runGammaAssets(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	client, err := gamma.New(config.BuildGammaSettings(a.cfg, a.logger))
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := cmd.Context()
	download, _ := cmd.Flags().GetBool("download")
	dir, _ := cmd.Flags().GetString("output-dir")
	if dir == "" {
		dir = a.cfg.OutputDir
	}

	assets, err := client.Assets(ctx, args[0])
	if err != nil {
		assets.Error = err.Error()
		if perr := printJSON(assets); perr != nil {
			return perr
		}
		return err
	}

	if download {
		if err := client.DownloadAssets(ctx, &assets, dir); err != nil {
			return err
		}
	}
	return printJSON(assets)
}
