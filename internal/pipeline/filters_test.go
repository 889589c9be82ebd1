package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentsignal/employer-cli/internal/model"
	"github.com/talentsignal/employer-cli/internal/namecheck"
)

func TestFilterPersonNames(t *testing.T) {
	candidates := []model.CandidateOrganization{
		{CompanyName: "Sarah Jones"},
		{CompanyName: "Mr John Smith"},
		{CompanyName: "Jones Engineering Ltd"},
		{CompanyName: "Smith Brothers"},
	}
	out := filterPersonNames(candidates, namecheck.New())

	require.Len(t, out, 2)
	assert.Equal(t, "Jones Engineering Ltd", out[0].CompanyName)
	assert.Equal(t, "Smith Brothers", out[1].CompanyName)
}

func TestFilterOrganizationType_ActiveForManufacturingOnly(t *testing.T) {
	triggers := testConfig().Identify.ManufacturingTriggers
	candidates := []model.CandidateOrganization{
		{CompanyName: "Maker Ltd", IsManufacturer: true},
		{CompanyName: "Products Co", MakesPhysicalProducts: true},
		{CompanyName: "Consultants LLP"},
	}

	// Manufacturing-like primary: the consultancy is dropped.
	out := filterOrganizationType(candidates, "cnc machining", triggers)
	require.Len(t, out, 2)

	// Non-manufacturing primary: everything passes.
	candidates = []model.CandidateOrganization{
		{CompanyName: "Maker Ltd", IsManufacturer: true},
		{CompanyName: "Consultants LLP"},
	}
	out = filterOrganizationType(candidates, "management consultancy", triggers)
	assert.Len(t, out, 2)
}

func TestFilterGeography_OutwardCodeEquality(t *testing.T) {
	candidates := []model.CandidateOrganization{
		{CompanyName: "Match Ltd", CompanyPostcode: "LE4 5BY"},
		{CompanyName: "Near Miss Ltd", CompanyPostcode: "LE5 1AA"},
		{CompanyName: "Far Away Ltd", CompanyPostcode: "M1 2AB"},
	}
	out := filterGeography(candidates, "LE4 6PN", "Leicester")

	require.Len(t, out, 1)
	assert.Equal(t, "Match Ltd", out[0].CompanyName)
}

func TestFilterGeography_TownFallbackWithoutPostcode(t *testing.T) {
	candidates := []model.CandidateOrganization{
		{CompanyName: "Local Ltd", LocationVerified: "Leicester, UK"},
		{CompanyName: "Remote Ltd", LocationVerified: "Manchester"},
	}
	out := filterGeography(candidates, "", "Leicester")

	require.Len(t, out, 1)
	assert.Equal(t, "Local Ltd", out[0].CompanyName)
}

func TestFilterGeography_CandidateWithoutPostcodeUsesTown(t *testing.T) {
	candidates := []model.CandidateOrganization{
		{CompanyName: "No Postcode Ltd", LocationVerified: "Leicester"},
	}
	out := filterGeography(candidates, "LE4", "Leicester")
	assert.Len(t, out, 1)
}

func TestFilterGeography_NothingKnownPasses(t *testing.T) {
	candidates := []model.CandidateOrganization{{CompanyName: "Mystery Ltd"}}
	out := filterGeography(candidates, "", "")
	assert.Len(t, out, 1)
}

func TestApplyHardFilters_RecruiterNeverSurvives(t *testing.T) {
	cfg := testConfig()
	result := &model.IdentificationResult{
		Hypothesis: model.IndustryHypothesis{Primary: "business services"},
		Companies: []model.CandidateOrganization{
			{CompanyName: "Precision People", LocationVerified: "Leicester"},
			{CompanyName: "Kept Ltd", LocationVerified: "Leicester"},
		},
	}
	out := ApplyHardFilters(result, cncPosting(), &model.ClueBundle{}, "", namecheck.New(), cfg.Identify)

	require.Len(t, out.Companies, 1)
	assert.Equal(t, "Kept Ltd", out.Companies[0].CompanyName)
}

func TestApplyHardFilters_Idempotent(t *testing.T) {
	cfg := testConfig()
	result := &model.IdentificationResult{
		Hypothesis: model.IndustryHypothesis{Primary: "cnc machining"},
		Companies: []model.CandidateOrganization{
			{CompanyName: "Maker Ltd", CompanyPostcode: "LE4 5BY", IsManufacturer: true},
			{CompanyName: "Sarah Jones", CompanyPostcode: "LE4 1AA", IsManufacturer: true},
			{CompanyName: "Office Co", CompanyPostcode: "LE4 2BB"},
		},
	}
	posting := cncPosting()
	clues := &model.ClueBundle{LocationClues: model.LocationClues{PrimaryTown: "Leicester", Postcode: "LE4"}}

	once := ApplyHardFilters(result, posting, clues, "LE4", namecheck.New(), cfg.Identify)
	require.Len(t, once.Companies, 1)

	twice := ApplyHardFilters(once, posting, clues, "LE4", namecheck.New(), cfg.Identify)
	assert.Equal(t, once.Companies, twice.Companies)
}

func TestPrimaryTown(t *testing.T) {
	clues := &model.ClueBundle{LocationClues: model.LocationClues{PrimaryTown: "Loughborough"}}
	assert.Equal(t, "Loughborough", primaryTown(clues, "Leicester, LE4"))
	assert.Equal(t, "Leicester", primaryTown(&model.ClueBundle{}, "Leicester, LE4"))
	assert.Equal(t, "Derby", primaryTown(&model.ClueBundle{}, "Derby"))
}
