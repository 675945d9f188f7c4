package onboarding

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database for testing: %v", err)
	}
	if err := db.AutoMigrate(&Flow{}, &Step{}, &Completion{}); err != nil {
		t.Fatalf("failed to migrate database for testing: %v", err)
	}
	return db
}

func seedFlow(t *testing.T, db *gorm.DB, stepCount int) *Flow {
	flow := &Flow{Name: "Getting Started", Enabled: true, Mandatory: true, SortOrder: 1}
	require.NoError(t, db.Create(flow).Error)

	for i := 1; i <= stepCount; i++ {
		step := &Step{
			FlowID:    flow.ID,
			Title:     fmt.Sprintf("Step %d", i),
			StepType:  TypeContent,
			SortOrder: i,
		}
		require.NoError(t, db.Create(step).Error)
	}
	return flow
}

func Test_GetOrCreateCompletion(t *testing.T) {
	db := setupTestDB(t)
	flow := seedFlow(t, db, 3)

	completion, err := GetOrCreateCompletion(db, 1, flow.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, completion.Status)
	require.NotNil(t, completion.StepID)

	first, err := flow.FirstStep(db)
	require.NoError(t, err)
	assert.Equal(t, first.ID, *completion.StepID)

	// A second call returns the same record instead of creating another.
	again, err := GetOrCreateCompletion(db, 1, flow.ID)
	require.NoError(t, err)
	assert.Equal(t, completion.ID, again.ID)

	var count int64
	require.NoError(t, db.Model(&Completion{}).
		Where("user_id = ? AND flow_id = ?", 1, flow.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func Test_GetOrCreateCompletion_Concurrent(t *testing.T) {
	db := setupTestDB(t)
	flow := seedFlow(t, db, 2)

	const workers = 8
	results := make(chan *Completion, workers)
	errs := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			completion, err := GetOrCreateCompletion(db, 7, flow.ID)
			results <- completion
			errs <- err
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// Every caller sees the same row, whether it created it or lost the
	// insert race and refetched.
	var winnerID uint
	for completion := range results {
		require.NotNil(t, completion)
		if winnerID == 0 {
			winnerID = completion.ID
		}
		assert.Equal(t, winnerID, completion.ID)
	}

	var count int64
	require.NoError(t, db.Model(&Completion{}).
		Where("user_id = ? AND flow_id = ?", 7, flow.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func Test_Completion_DuplicateInsertRejected(t *testing.T) {
	db := setupTestDB(t)
	flow := seedFlow(t, db, 1)

	first, err := GetOrCreateCompletion(db, 7, flow.ID)
	require.NoError(t, err)

	// The composite unique index refuses a second row for the pair.
	dup := Completion{UserID: 7, FlowID: flow.ID, Status: StatusPending}
	assert.Error(t, db.Create(&dup).Error)

	// The get-or-create path absorbs that refusal by returning the
	// existing row.
	again, err := GetOrCreateCompletion(db, 7, flow.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func Test_GetOrCreateCompletion_EmptyFlow(t *testing.T) {
	db := setupTestDB(t)
	flow := seedFlow(t, db, 0)

	completion, err := GetOrCreateCompletion(db, 1, flow.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, completion.Status)
	assert.Nil(t, completion.StepID)
}

func Test_Completion_StartOnlyFromPending(t *testing.T) {
	db := setupTestDB(t)
	flow := seedFlow(t, db, 2)

	completion, err := GetOrCreateCompletion(db, 1, flow.ID)
	require.NoError(t, err)

	require.NoError(t, completion.Start(db))
	assert.Equal(t, StatusInProgress, completion.Status)
	require.NotNil(t, completion.TimeStarted)
	started := *completion.TimeStarted

	// A second start does not restamp the start time.
	require.NoError(t, completion.Start(db))
	assert.Equal(t, started, *completion.TimeStarted)

	require.NoError(t, completion.Complete(db))
	require.NoError(t, completion.Start(db))
	assert.Equal(t, StatusCompleted, completion.Status)
}

func Test_Completion_AdvanceChain(t *testing.T) {
	db := setupTestDB(t)
	flow := seedFlow(t, db, 3)
	steps, err := flow.Steps(db)
	require.NoError(t, err)

	completion, err := GetOrCreateCompletion(db, 1, flow.ID)
	require.NoError(t, err)
	require.NoError(t, completion.Start(db))
	require.NoError(t, completion.UpdateVideoTime(db, 42))

	more, err := completion.Advance(db)
	require.NoError(t, err)
	assert.True(t, more)
	require.NotNil(t, completion.StepID)
	assert.Equal(t, steps[1].ID, *completion.StepID)
	// Advancing resets the watch counter for the new step.
	assert.Equal(t, 0, completion.VideoTime)

	more, err = completion.Advance(db)
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, steps[2].ID, *completion.StepID)

	more, err = completion.Advance(db)
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, StatusCompleted, completion.Status)
	assert.Nil(t, completion.StepID)
	require.NotNil(t, completion.TimeCompleted)

	// The terminal state survives further advances.
	more, err = completion.Advance(db)
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, StatusCompleted, completion.Status)
}

func Test_Completion_StaleAdvanceDoesNotDoubleMove(t *testing.T) {
	db := setupTestDB(t)
	flow := seedFlow(t, db, 3)
	steps, err := flow.Steps(db)
	require.NoError(t, err)

	created, err := GetOrCreateCompletion(db, 1, flow.ID)
	require.NoError(t, err)
	require.NoError(t, created.Start(db))

	// Two handlers load the same row, both pointing at step 1.
	var first, second Completion
	require.NoError(t, db.First(&first, created.ID).Error)
	require.NoError(t, db.First(&second, created.ID).Error)

	more, err := first.Advance(db)
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, steps[1].ID, *first.StepID)

	// The second advance carries a stale pointer and must not skip a step.
	more, err = second.Advance(db)
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, steps[1].ID, *second.StepID)
}

func Test_Completion_UpdateVideoTimeHighWater(t *testing.T) {
	db := setupTestDB(t)
	flow := seedFlow(t, db, 1)

	completion, err := GetOrCreateCompletion(db, 1, flow.ID)
	require.NoError(t, err)

	for _, seconds := range []int{30, 10, 50, 40} {
		require.NoError(t, completion.UpdateVideoTime(db, seconds))
	}
	assert.Equal(t, 50, completion.VideoTime)

	var stored Completion
	require.NoError(t, db.First(&stored, completion.ID).Error)
	assert.Equal(t, 50, stored.VideoTime)
}

func Test_Completion_VideoRequirementMet(t *testing.T) {
	db := setupTestDB(t)
	flow := seedFlow(t, db, 0)

	required := &Step{
		FlowID:        flow.ID,
		Title:         "Watch This",
		StepType:      TypeVideo,
		VideoURL:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		VideoRequired: true,
		SortOrder:     1,
	}
	require.NoError(t, db.Create(required).Error)

	completion, err := GetOrCreateCompletion(db, 1, flow.ID)
	require.NoError(t, err)

	met, err := completion.VideoRequirementMet(db)
	require.NoError(t, err)
	assert.False(t, met)

	require.NoError(t, completion.UpdateVideoTime(db, 1))
	met, err = completion.VideoRequirementMet(db)
	require.NoError(t, err)
	assert.True(t, met)

	// Optional videos never gate.
	require.NoError(t, db.Model(required).Update("video_required", false).Error)
	completion.VideoTime = 0
	met, err = completion.VideoRequirementMet(db)
	require.NoError(t, err)
	assert.True(t, met)
}

func Test_Completion_ProgressPercent(t *testing.T) {
	db := setupTestDB(t)
	flow := seedFlow(t, db, 4)
	steps, err := flow.Steps(db)
	require.NoError(t, err)

	completion, err := GetOrCreateCompletion(db, 1, flow.ID)
	require.NoError(t, err)

	percent, err := completion.ProgressPercent(db)
	require.NoError(t, err)
	assert.Equal(t, 0.0, percent)

	stepID := steps[2].ID
	completion.StepID = &stepID
	percent, err = completion.ProgressPercent(db)
	require.NoError(t, err)
	assert.Equal(t, 50.0, percent)

	require.NoError(t, completion.Complete(db))
	percent, err = completion.ProgressPercent(db)
	require.NoError(t, err)
	assert.Equal(t, 100.0, percent)
}

func Test_Completion_ProgressPercent_EmptyFlow(t *testing.T) {
	db := setupTestDB(t)
	flow := seedFlow(t, db, 0)

	completion, err := GetOrCreateCompletion(db, 1, flow.ID)
	require.NoError(t, err)

	percent, err := completion.ProgressPercent(db)
	require.NoError(t, err)
	assert.Equal(t, 0.0, percent)
}

func Test_ResetCompletions(t *testing.T) {
	db := setupTestDB(t)
	flow := seedFlow(t, db, 2)

	completion, err := GetOrCreateCompletion(db, 1, flow.ID)
	require.NoError(t, err)
	require.NoError(t, completion.Complete(db))

	_, err = GetOrCreateCompletion(db, 2, flow.ID)
	require.NoError(t, err)

	deleted, err := ResetCompletions(db, 1, flow.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// The reset user starts over with a fresh pending record.
	fresh, err := GetOrCreateCompletion(db, 1, flow.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, fresh.Status)
	require.NotNil(t, fresh.StepID)

	// Zero flowID wipes everything for the remaining user.
	deleted, err = ResetCompletions(db, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func Test_Stats(t *testing.T) {
	db := setupTestDB(t)
	flow := seedFlow(t, db, 2)

	for userID := uint(1); userID <= 4; userID++ {
		completion, err := GetOrCreateCompletion(db, userID, flow.ID)
		require.NoError(t, err)
		switch userID {
		case 1:
			require.NoError(t, completion.Start(db))
			require.NoError(t, completion.Complete(db))
		case 2:
			require.NoError(t, completion.Start(db))
		}
	}

	stats, err := Stats(db, flow.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(1), stats.InProgress)
	assert.Equal(t, int64(2), stats.Pending)
	assert.Equal(t, 25.0, stats.CompletionRate)

	// Aggregation across all flows matches when only one flow exists.
	all, err := Stats(db, 0)
	require.NoError(t, err)
	assert.Equal(t, stats.Total, all.Total)
}

func Test_HasCompleted(t *testing.T) {
	db := setupTestDB(t)
	flow := seedFlow(t, db, 1)

	done, err := HasCompleted(db, 1, flow.ID)
	require.NoError(t, err)
	assert.False(t, done)

	completion, err := GetOrCreateCompletion(db, 1, flow.ID)
	require.NoError(t, err)
	require.NoError(t, completion.Complete(db))

	done, err = HasCompleted(db, 1, flow.ID)
	require.NoError(t, err)
	assert.True(t, done)
}
