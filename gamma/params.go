package gamma

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Allowed values for the enumerated request fields.
var (
	TextModes       = []string{"generate", "condense", "preserve"}
	Formats         = []string{"presentation", "document", "social", "webpage"}
	ExportFormats   = []string{"pdf", "pptx"}
	CardSplits      = []string{"auto", "inputTextBreaks"}
	TextAmounts     = []string{"brief", "medium", "detailed", "extensive"}
	ImageSources    = []string{"aiGenerated", "pictographic", "unsplash", "giphy", "webAllImages", "webFreeToUse", "webFreeToUseCommercially", "placeholder", "noImages"}
	WorkspaceAccess = []string{"noAccess", "view", "comment", "edit", "fullAccess"}
	ExternalAccess  = []string{"noAccess", "view", "comment", "edit"}
)

// GenerateParams is the body of a generation request. Zero-valued fields
// are left out of the request.
type GenerateParams struct {
	InputText              string          `json:"inputText"`
	TextMode               string          `json:"textMode,omitempty"`
	Format                 string          `json:"format,omitempty"`
	NumCards               int             `json:"numCards,omitempty"`
	ExportAs               string          `json:"exportAs,omitempty"`
	CardSplit              string          `json:"cardSplit,omitempty"`
	ThemeID                string          `json:"themeId,omitempty"`
	FolderIDs              []string        `json:"folderIds,omitempty"`
	AdditionalInstructions string          `json:"additionalInstructions,omitempty"`
	TextOptions            *TextOptions    `json:"textOptions,omitempty"`
	ImageOptions           *ImageOptions   `json:"imageOptions,omitempty"`
	CardOptions            *CardOptions    `json:"cardOptions,omitempty"`
	SharingOptions         *SharingOptions `json:"sharingOptions,omitempty"`
}

type TextOptions struct {
	Amount   string `json:"amount,omitempty"`
	Tone     string `json:"tone,omitempty"`
	Audience string `json:"audience,omitempty"`
	Language string `json:"language,omitempty"`
}

type ImageOptions struct {
	Source string `json:"source,omitempty"`
	Model  string `json:"model,omitempty"`
	Style  string `json:"style,omitempty"`
}

type CardOptions struct {
	Dimensions string `json:"dimensions,omitempty"`

	// HeaderFooter is passed through verbatim.
	HeaderFooter json.RawMessage `json:"headerFooter,omitempty"`
}

type SharingOptions struct {
	WorkspaceAccess string `json:"workspaceAccess,omitempty"`
	ExternalAccess  string `json:"externalAccess,omitempty"`

	// EmailOptions is passed through verbatim.
	EmailOptions json.RawMessage `json:"emailOptions,omitempty"`
}

// Body returns a copy of p ready to send: TextMode defaults to "generate"
// and empty option groups are dropped.
func (p GenerateParams) Body() GenerateParams {
	if p.TextMode == "" {
		p.TextMode = "generate"
	}
	if p.TextOptions != nil && *p.TextOptions == (TextOptions{}) {
		p.TextOptions = nil
	}
	if p.ImageOptions != nil && *p.ImageOptions == (ImageOptions{}) {
		p.ImageOptions = nil
	}
	if p.CardOptions != nil && p.CardOptions.Dimensions == "" && len(p.CardOptions.HeaderFooter) == 0 {
		p.CardOptions = nil
	}
	if p.SharingOptions != nil && p.SharingOptions.WorkspaceAccess == "" &&
		p.SharingOptions.ExternalAccess == "" && len(p.SharingOptions.EmailOptions) == 0 {
		p.SharingOptions = nil
	}
	return p
}

// Validate checks required fields and enumerated values.
func (p GenerateParams) Validate() error {
	if p.InputText == "" {
		return errors.New("input text is required")
	}
	if p.NumCards < 0 {
		return fmt.Errorf("num cards cannot be negative, got %d", p.NumCards)
	}

	checks := []struct {
		field   string
		value   string
		allowed []string
	}{
		{"text mode", p.TextMode, TextModes},
		{"format", p.Format, Formats},
		{"export as", p.ExportAs, ExportFormats},
		{"card split", p.CardSplit, CardSplits},
	}
	if p.TextOptions != nil {
		checks = append(checks, struct {
			field   string
			value   string
			allowed []string
		}{"text amount", p.TextOptions.Amount, TextAmounts})
	}
	if p.ImageOptions != nil {
		checks = append(checks, struct {
			field   string
			value   string
			allowed []string
		}{"image source", p.ImageOptions.Source, ImageSources})
	}
	if p.SharingOptions != nil {
		checks = append(checks,
			struct {
				field   string
				value   string
				allowed []string
			}{"workspace access", p.SharingOptions.WorkspaceAccess, WorkspaceAccess},
			struct {
				field   string
				value   string
				allowed []string
			}{"external access", p.SharingOptions.ExternalAccess, ExternalAccess},
		)
	}

	for _, c := range checks {
		if c.value != "" && !slices.Contains(c.allowed, c.value) {
			return fmt.Errorf("%s must be one of %v, got %q", c.field, c.allowed, c.value)
		}
	}

	for name, raw := range map[string]json.RawMessage{
		"card header footer":    cardHeaderFooter(p.CardOptions),
		"sharing email options": emailOptions(p.SharingOptions),
	} {
		if len(raw) > 0 && !json.Valid(raw) {
			return fmt.Errorf("%s is not valid JSON", name)
		}
	}
	return nil
}

func cardHeaderFooter(c *CardOptions) json.RawMessage {
	if c == nil {
		return nil
	}
	return c.HeaderFooter
}

func emailOptions(s *SharingOptions) json.RawMessage {
	if s == nil {
		return nil
	}
	return s.EmailOptions
}
