package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/talentsignal/employer-cli/internal/config"
	"github.com/talentsignal/employer-cli/internal/model"
	"github.com/talentsignal/employer-cli/internal/resilience"
	"github.com/talentsignal/employer-cli/pkg/anthropic"
)

const clueSystemPrompt = `You are an expert clue extractor for UK recruiter job adverts.

Your job is to extract EVERY possible clue that could help identify the actual hiring company (not the recruiter).

Extract clues in these 13 categories:

1. Location clues: primary town, commutable secondary towns, region, postcode, nearby industrial clusters, multi-site hints, UK-wide travel mentions.
2. Sector and industry clues: explicit sector (FMCG, aerospace, automotive, food, LEV, toolmaking), implicit sector, manufacturing type, B2B vs consumer, regulated-industry hints (HSG258, ISO standards, WCM).
3. Product, machinery and technical clues: specific machines (CNC brands like Hurco, Fanuc, Mazak; press brakes like Amada, Bystronic; LEV equipment; boilers, HVAC), technical systems (braking and suspension, exhaust after-treatment, metal fabrication, telematics, PLC, SCADA).
4. Software clues: CAD (SolidWorks, AutoCAD, Inventor), CAM (Mastercam, Fusion 360), engineering software (Amtech, Relux), PLC and automation software.
5. Standards and qualification clues: ISO 9001, ISO 14001, WCM, BOHS P601, P602, HSG258, PRINCE2, NEBOSH, COMAH, food safety standards, DVSA, VOSA.
6. Salary and benefits clues: salary range, bonus structure, healthcare, pension type, shift pattern, overtime availability.
7. Role and seniority clues: job title, reports to, autonomy level, team size, hands-on vs office-based.
8. Organisational clues: "family-run", "household name", "award-winning", "fast-growing SME", "global group", "multi-site", "state-of-the-art facility".
9. Narrative and context clues: "complete turnaround", "growth trajectory", "full order book", "significant investment", "working with major OEMs".
10. Work environment and process clues: hazardous environment, fabrication shop, food production, HVAC, cleanroom, foundry, high-voltage, precision machining, heavy lifting.
11. Customer and market clues: transport, HGV, trailers, exhaust systems, extraction, LEV, CNC toolmaking, building services, FMCG food, aerospace precision.
12. Multi-site and travel clues: "covering multiple UK sites", specific site locations, "nationwide surveys", "installation work".
13. Unique differentiators: any clue that instantly exposes a specific company.

Return STRICT JSON with these exact fields:

{
  "location_clues": {
    "primary_town": string or null,
    "commute_towns": [string],
    "region": string or null,
    "postcode": string or null,
    "multi_site": boolean
  },
  "sector_clues": {
    "explicit_sectors": [string],
    "implicit_sectors": [string],
    "manufacturing_type": string or null,
    "b2b_or_consumer": string or null
  },
  "machinery_clues": [string],
  "software_clues": [string],
  "standards_clues": [string],
  "salary_benefits_clues": {
    "salary_min": int or null,
    "salary_max": int or null,
    "benefits": [string],
    "shift_pattern": string or null
  },
  "role_clues": {
    "job_title": string,
    "seniority": string or null,
    "reports_to": string or null,
    "team_size": string or null
  },
  "org_clues": [string],
  "narrative_clues": [string],
  "work_environment_clues": [string],
  "customer_market_clues": [string],
  "travel_clues": [string],
  "unique_differentiators": [string],
  "summary_narrative": string
}

Extract every clue you can find. Be thorough.`

const clueUserPrompt = `JOB TITLE: %s
LOCATION: %s

FULL JOB DESCRIPTION:
%s

Extract ALL clues from this job description that could help identify the actual hiring company.`

// ExtractClues turns raw posting text into a structured clue bundle via a
// single classification call. Failure is non-fatal: downstream stages receive
// an empty bundle carrying the error marker.
func ExtractClues(ctx context.Context, ai anthropic.Client, aiCfg config.AnthropicConfig, posting model.PostingRecord) (*model.ClueBundle, model.TokenUsage) {
	log := zap.L().With(zap.String("job_id", posting.JobID), zap.String("stage", "extract_clues"))

	resp, err := resilience.DoVal(ctx, retryCfg("anthropic", "extract_clues"), func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return ai.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     aiCfg.SonnetModel,
			MaxTokens: 4096,
			System:    anthropic.BuildCachedSystemBlocks(clueSystemPrompt),
			Messages: []anthropic.Message{
				{Role: "user", Content: fmt.Sprintf(clueUserPrompt, posting.Title, posting.LocationText, posting.Description)},
			},
		})
	})
	if err != nil {
		log.Warn("clue extraction failed, continuing with empty bundle", zap.Error(err))
		return &model.ClueBundle{ExtractionError: err.Error()}, model.TokenUsage{}
	}
	resp.Usage.LogCost(aiCfg.SonnetModel, "extract_clues")

	bundle := parseClueBundle(extractText(resp))
	if bundle.ExtractionError != "" {
		log.Warn("clue extraction returned malformed JSON, continuing with empty bundle")
	}
	return bundle, usageFrom(resp)
}

// parseClueBundle decodes the extraction response. Malformed JSON yields an
// empty bundle with an error marker rather than a failure.
func parseClueBundle(text string) *model.ClueBundle {
	var b model.ClueBundle
	if err := json.Unmarshal([]byte(cleanJSON(text)), &b); err != nil {
		return &model.ClueBundle{ExtractionError: "malformed extraction response"}
	}
	return &b
}

// retryCfg returns the standard provider retry budget with logging.
func retryCfg(service, operation string) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger(service, operation)
	return cfg
}

// extractText concatenates all text content blocks from a message response.
func extractText(resp *anthropic.MessageResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// usageFrom converts a response's token usage to the model type.
func usageFrom(resp *anthropic.MessageResponse) model.TokenUsage {
	if resp == nil {
		return model.TokenUsage{}
	}
	return model.TokenUsage{
		InputTokens:         int(resp.Usage.InputTokens),
		OutputTokens:        int(resp.Usage.OutputTokens),
		CacheCreationTokens: int(resp.Usage.CacheCreationInputTokens),
		CacheReadTokens:     int(resp.Usage.CacheReadInputTokens),
	}
}
