// Package gamma drives the Gamma generations API: submit a presentation,
// document or webpage generation, wait for it with the adaptive poller, and
// collect the exported PDF and PPTX files.
//
// Response shapes vary between API revisions, so identifiers, statuses and
// URLs are read with ordered field fallbacks rather than fixed structs.
package gamma
