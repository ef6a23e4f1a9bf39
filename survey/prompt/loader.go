package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/extractor.txt
var extractorRaw string

// ExtractorInstruction returns the fixed system instruction for the number
// extractor. The embed is compile-time; trimming is cheap.
func ExtractorInstruction() string {
	return strings.TrimSpace(extractorRaw)
}
