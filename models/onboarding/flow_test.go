package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func Test_Flow_StepOrdering(t *testing.T) {
	db := setupTestDB(t)
	flow := seedFlow(t, db, 3)

	steps, err := flow.Steps(db)
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, "Step 1", steps[0].Title)
	assert.Equal(t, "Step 3", steps[2].Title)

	first, err := flow.FirstStep(db)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, steps[0].ID, first.ID)

	next, err := flow.NextStep(db, steps[0].ID)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, steps[1].ID, next.ID)

	// The last step has no successor.
	next, err = flow.NextStep(db, steps[2].ID)
	require.NoError(t, err)
	assert.Nil(t, next)

	// An unknown step ID behaves like falling off the end.
	next, err = flow.NextStep(db, 9999)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func Test_Flow_FirstStepEmpty(t *testing.T) {
	db := setupTestDB(t)
	flow := seedFlow(t, db, 0)

	first, err := flow.FirstStep(db)
	require.NoError(t, err)
	assert.Nil(t, first)
}

func Test_Flow_MatchesRoles(t *testing.T) {
	all := &Flow{}
	assert.True(t, all.MatchesRoles([]uint{1, 2}))
	assert.True(t, all.MatchesRoles(nil))

	targeted := &Flow{TargetRoles: datatypes.NewJSONSlice([]uint{5, 7})}
	assert.True(t, targeted.MatchesRoles([]uint{7}))
	assert.True(t, targeted.MatchesRoles([]uint{2, 5}))
	assert.False(t, targeted.MatchesRoles([]uint{2, 3}))
	assert.False(t, targeted.MatchesRoles(nil))
}

func Test_ActiveFlowForUser_FirstMatchWins(t *testing.T) {
	db := setupTestDB(t)

	managers := &Flow{
		Name:        "Manager Onboarding",
		Enabled:     true,
		TargetRoles: datatypes.NewJSONSlice([]uint{3}),
		SortOrder:   1,
	}
	require.NoError(t, db.Create(managers).Error)

	everyone := &Flow{Name: "General Onboarding", Enabled: true, SortOrder: 2}
	require.NoError(t, db.Create(everyone).Error)

	disabled := &Flow{Name: "Old Onboarding", Enabled: false, SortOrder: 0}
	require.NoError(t, db.Create(disabled).Error)

	// A manager gets the targeted flow even though the general one also
	// matches, because it sorts earlier.
	flow, err := ActiveFlowForUser(db, []uint{3})
	require.NoError(t, err)
	require.NotNil(t, flow)
	assert.Equal(t, managers.ID, flow.ID)

	// Everyone else falls through to the untargeted flow. The disabled
	// flow sorts first but is never considered.
	flow, err = ActiveFlowForUser(db, []uint{8})
	require.NoError(t, err)
	require.NotNil(t, flow)
	assert.Equal(t, everyone.ID, flow.ID)
}

func Test_ActiveFlowForUser_NoMatch(t *testing.T) {
	db := setupTestDB(t)

	targeted := &Flow{
		Name:        "Staff Onboarding",
		Enabled:     true,
		TargetRoles: datatypes.NewJSONSlice([]uint{4}),
		SortOrder:   1,
	}
	require.NoError(t, db.Create(targeted).Error)

	flow, err := ActiveFlowForUser(db, []uint{1})
	require.NoError(t, err)
	assert.Nil(t, flow)
}

func Test_Flow_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	flow := seedFlow(t, db, 2)

	completion, err := GetOrCreateCompletion(db, 1, flow.ID)
	require.NoError(t, err)
	require.NoError(t, completion.Start(db))

	require.NoError(t, flow.Delete(db))

	_, err = FlowByID(db, flow.ID)
	assert.Error(t, err)

	steps, err := StepsForFlow(db, flow.ID)
	require.NoError(t, err)
	assert.Empty(t, steps)

	var count int64
	require.NoError(t, db.Unscoped().Model(&Completion{}).
		Where("flow_id = ?", flow.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func Test_NextFlowSortOrder(t *testing.T) {
	db := setupTestDB(t)

	assert.Equal(t, 1, NextFlowSortOrder(db))

	require.NoError(t, db.Create(&Flow{Name: "A", SortOrder: 4}).Error)
	assert.Equal(t, 5, NextFlowSortOrder(db))
}
