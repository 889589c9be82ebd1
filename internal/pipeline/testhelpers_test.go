package pipeline

import (
	"github.com/talentsignal/employer-cli/internal/config"
	"github.com/talentsignal/employer-cli/internal/model"
)

// testConfig returns pipeline settings with rate limiting and timeouts
// disabled so tests run instantly.
func testConfig() *config.Config {
	return &config.Config{
		Anthropic: config.AnthropicConfig{
			HaikuModel:  "claude-haiku-4-5-20251001",
			SonnetModel: "claude-sonnet-4-5-20250929",
		},
		Identify: config.IdentifyConfig{
			MaxResultsPerQuery:     5,
			DescriptionPrefixChars: 4000,
			SearchKeywordLimit:     8,
			VerifyTopN:             3,
			ManufacturingTriggers: []string{
				"manufactur", "fabricat", "production", "cnc", "machining",
				"sheet metal", "moulding", "molding", "injection", "casting", "press",
			},
			PhysicalTerms: []string{
				"factory", "shop floor", "fabrication", "cnc", "press brake",
				"laser cutting", "moulding", "assembly", "sheet metal", "welding", "plant",
			},
		},
	}
}

func cncPosting() model.PostingRecord {
	return model.PostingRecord{
		JobID:         "job-cnc-001",
		Title:         "CNC Setter/Operator",
		RecruiterName: "Precision People",
		LocationText:  "Leicester, LE4",
		Description:   "Family-run machine shop seeks a CNC Setter/Operator for a Mazak CNC Milling Machine. Aerospace work, full order book.",
	}
}
