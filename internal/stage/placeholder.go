package stage

import "fmt"

// Dry-run artifacts. Deterministic bodies so downstream stages and tests can
// run the full pipeline shape without spending a single API call.

func infoPlaceholder(req Request) []byte {
	return []byte(fmt.Sprintf(`# %s

## Overview
Placeholder background material for %q, produced by a dry run.

## Historical Context
No external services were contacted; this section stands in for retrieved
source material.

## Cultural Significance
Replace by running the stage without --dry-run.
`, req.Keyword, req.Keyword))
}

func scriptPlaceholder(req Request) []byte {
	return []byte(fmt.Sprintf(`# Audio Guide Script: %s

Welcome. This is a placeholder narration for %q, produced by a dry run.

No language model was contacted. Run the stage without --dry-run to generate
the real script from the retrieved material.
`, req.Keyword, req.Keyword))
}

// audioPlaceholder emits a token MP3 body: a single frame sync header, a
// short marker, and zero padding. Enough for players and tests to recognize
// the file without any synthesis call.
func audioPlaceholder(Request) []byte {
	body := []byte{0xFF, 0xFB, 0x90, 0x00, 0x00, 0x00, 0x00, 0x00}
	body = append(body, []byte("Info")...)
	return append(body, make([]byte, 100)...)
}
