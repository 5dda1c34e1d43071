package filter

import (
	"testing"
	"time"

	"github.com/jonathan/screening-desk/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(t time.Time) *time.Time { return &t }

func ids(records []types.Applicant) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func sampleApplicants() []types.Applicant {
	jan := func(day, h, m, s, ms int) *time.Time {
		return ts(time.Date(2025, 1, day, h, m, s, ms*int(time.Millisecond), time.UTC))
	}
	return []types.Applicant{
		{ID: "A1", Category: types.CategoryWhite, ScreeningStatus: types.StatusAccepted, CreatedAt: jan(10, 9, 0, 0, 0)},
		{ID: "A2", Category: types.CategoryHold, ScreeningStatus: types.StatusOnHold, CreatedAt: jan(11, 9, 0, 0, 0)},
		{ID: "A3", Category: types.CategoryUnset, ScreeningStatus: types.StatusPendingScreening, CreatedAt: jan(12, 0, 0, 0, 0)},
		{ID: "A4", Category: types.CategoryBlack, ScreeningStatus: types.StatusNotEligible, CreatedAt: jan(12, 23, 59, 59, 999)},
		{ID: "A5", Category: types.CategoryWhite, ScreeningStatus: types.StatusShortlisted},
		{ID: "A6", Category: types.CategoryWhite, ScreeningStatus: types.StatusAccepted, CreatedAt: jan(13, 0, 0, 0, 0)},
	}
}

func TestApply_DefaultViewHidesHoldAndBlack(t *testing.T) {
	got := Apply(sampleApplicants(), types.FilterCriteria{}, PolicyHideByDefault)
	assert.Equal(t, []string{"A1", "A3", "A5", "A6"}, ids(got))
}

func TestApply_ShowAllIgnoresCategory(t *testing.T) {
	records := sampleApplicants()
	got := Apply(records, types.FilterCriteria{Category: types.CategoryBlack}, PolicyShowAll)
	assert.Equal(t, ids(records), ids(got))
}

func TestApply_ExplicitCategory(t *testing.T) {
	tests := []struct {
		category types.Category
		want     []string
	}{
		{types.CategoryWhite, []string{"A1", "A5", "A6"}},
		{types.CategoryHold, []string{"A2"}},
		{types.CategoryBlack, []string{"A4"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			got := Apply(sampleApplicants(), types.FilterCriteria{Category: tt.category}, PolicyHideByDefault)
			assert.Equal(t, tt.want, ids(got))
			for _, a := range got {
				assert.Equal(t, tt.category, a.Category)
			}
		})
	}
}

func TestApply_ExplicitCategoryWithOtherCriteriaStaysInCategory(t *testing.T) {
	c := types.FilterCriteria{
		Category: types.CategoryBlack,
		Status:   types.StatusNotEligible,
		FromDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, a := range Apply(sampleApplicants(), c, PolicyHideByDefault) {
		assert.Equal(t, types.CategoryBlack, a.Category)
	}
}

func TestApply_Status(t *testing.T) {
	got := Apply(sampleApplicants(), types.FilterCriteria{Status: types.StatusAccepted}, PolicyHideByDefault)
	assert.Equal(t, []string{"A1", "A6"}, ids(got))

	// Status matching only narrows records that already pass the category rule.
	got = Apply(sampleApplicants(), types.FilterCriteria{Status: types.StatusOnHold}, PolicyHideByDefault)
	assert.Empty(t, got)
}

func TestApply_DateBoundsAreInclusive(t *testing.T) {
	c := types.FilterCriteria{
		FromDate: time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC),
		ToDate:   time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC),
	}
	got := Apply(sampleApplicants(), c, PolicyShowAll)
	assert.Equal(t, []string{"A3", "A4"}, ids(got))
}

func TestApply_ToDateKeepsSubMillisecondEndOfDay(t *testing.T) {
	day := time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
	records := []types.Applicant{
		{ID: "last-micro", CreatedAt: ts(time.Date(2025, 1, 12, 23, 59, 59, 999_500_000, time.UTC))},
		{ID: "midnight", CreatedAt: ts(time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC))},
	}

	got := Apply(records, types.FilterCriteria{ToDate: day}, PolicyShowAll)
	assert.Equal(t, []string{"last-micro"}, ids(got))
}

func TestApply_DateBoundsExcludeMissingCreation(t *testing.T) {
	only := []types.Applicant{{ID: "A5", Category: types.CategoryWhite}}

	got := Apply(only, types.FilterCriteria{FromDate: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)}, PolicyHideByDefault)
	assert.Empty(t, got)

	got = Apply(only, types.FilterCriteria{ToDate: time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)}, PolicyHideByDefault)
	assert.Empty(t, got)

	got = Apply(only, types.FilterCriteria{}, PolicyHideByDefault)
	assert.Len(t, got, 1)
}

func TestApply_DateBoundsUseCriteriaLocation(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	// 20:00 UTC on the 11th is 01:30 on the 12th in IST.
	records := []types.Applicant{{ID: "late", CreatedAt: ts(time.Date(2025, 1, 11, 20, 0, 0, 0, time.UTC))}}

	got := Apply(records, types.FilterCriteria{FromDate: time.Date(2025, 1, 12, 0, 0, 0, 0, ist)}, PolicyShowAll)
	assert.Len(t, got, 1)

	got = Apply(records, types.FilterCriteria{ToDate: time.Date(2025, 1, 11, 0, 0, 0, 0, ist)}, PolicyShowAll)
	assert.Empty(t, got)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	records := sampleApplicants()
	before := ids(records)
	_ = Apply(records, types.FilterCriteria{Category: types.CategoryWhite}, PolicyHideByDefault)
	assert.Equal(t, before, ids(records))
}

func TestApply_EmptyInput(t *testing.T) {
	got := Apply(nil, types.FilterCriteria{}, PolicyHideByDefault)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyHideByDefault, p)

	p, err = ParsePolicy("show-all")
	require.NoError(t, err)
	assert.Equal(t, PolicyShowAll, p)
	assert.Equal(t, "show-all", p.String())

	_, err = ParsePolicy("everything")
	assert.Error(t, err)
}
