package gamma

import (
	"strings"

	"github.com/jpalmerr/thirdbrain"
)

var (
	generationID = thirdbrain.FirstField("generationId", "generation_id", "id")

	statusLabel = thirdbrain.FirstField("status", "state")

	exportURL = thirdbrain.FirstField(
		"gammaUrl", "gamma_url", "url",
		"exportUrl", "export_url",
		"outputUrl", "output_url",
		"outputs.0.url",
		"exports.0.url",
		"exports.0",
		"artifacts.0.url",
	)

	// the exports list is positional: PDF first, PPTX second
	pdfURL  = thirdbrain.FirstField("pdfUrl", "pdf_url", "exports.0.url")
	pptxURL = thirdbrain.FirstField("pptxUrl", "pptx_url", "exports.1.url")

	normalizeStatus = thirdbrain.NewStatusNormalizer(
		[]string{"completed", "succeeded"},
		[]string{"failed", "error"},
	)
)

// ExtractGenerationID returns the generation identifier of a submit response.
func ExtractGenerationID(data map[string]any) (string, bool) {
	return generationID(data)
}

// ExtractStatus returns the lower-cased status label and its outcome.
func ExtractStatus(data map[string]any) (string, thirdbrain.Outcome) {
	label, _ := statusLabel(data)
	label = strings.ToLower(label)
	return label, normalizeStatus(label)
}

// ExtractURL returns the first export or viewer URL found in data.
func ExtractURL(data map[string]any) (string, bool) {
	return exportURL(data)
}

// ExtractAssets returns the PDF and PPTX download URLs. Dedicated fields
// win; otherwise the PDF is exports[0].url and the PPTX exports[1].url.
func ExtractAssets(data map[string]any) (pdf, pptx string) {
	pdf, _ = pdfURL(data)
	pptx, _ = pptxURL(data)
	return pdf, pptx
}
