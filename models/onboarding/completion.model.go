package onboarding

import (
	"errors"
	"math"
	"time"

	"gorm.io/gorm"
)

// Completion statuses. Transitions only ever move forward:
// pending -> inprogress -> completed.
const (
	StatusPending    = "pending"
	StatusInProgress = "inprogress"
	StatusCompleted  = "completed"
)

// Completion is the per-user, per-flow progress record: status, current
// step pointer and watch time for the current step. At most one row
// exists per (user, flow) pair, enforced by a composite unique index.
type Completion struct {
	gorm.Model
	UserID        uint       `gorm:"not null;uniqueIndex:idx_completion_user_flow" json:"user_id"`
	FlowID        uint       `gorm:"not null;uniqueIndex:idx_completion_user_flow" json:"flow_id"`
	StepID        *uint      `json:"step_id"` // nil when completed or the flow has no steps
	Status        string     `gorm:"default:'pending'" json:"status"`
	VideoTime     int        `gorm:"default:0" json:"video_time"` // seconds watched, current step only
	TimeStarted   *time.Time `json:"time_started"`
	TimeCompleted *time.Time `json:"time_completed"`
	ReturnURL     string     `json:"return_url"` // destination parked by the login gate
}

// FlowStats aggregates completion state for one flow.
type FlowStats struct {
	Total          int64   `json:"total"`
	Completed      int64   `json:"completed"`
	InProgress     int64   `json:"inprogress"`
	Pending        int64   `json:"pending"`
	CompletionRate float64 `json:"completion_rate"`
}

// GetOrCreateCompletion fetches the completion record for a (user, flow)
// pair, creating a pending one pointed at the flow's first step when none
// exists. A create that loses the unique-index race falls back to
// fetching the winner's row.
func GetOrCreateCompletion(db *gorm.DB, userID, flowID uint) (*Completion, error) {
	var existing Completion
	err := db.Where("user_id = ? AND flow_id = ?", userID, flowID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	flow, err := FlowByID(db, flowID)
	if err != nil {
		return nil, err
	}

	completion := Completion{
		UserID: userID,
		FlowID: flowID,
		Status: StatusPending,
	}

	first, err := flow.FirstStep(db)
	if err != nil {
		return nil, err
	}
	if first != nil {
		stepID := first.ID
		completion.StepID = &stepID
	}

	if err := db.Create(&completion).Error; err != nil {
		// Lost the create race; the other writer's row wins.
		if ferr := db.Where("user_id = ? AND flow_id = ?", userID, flowID).First(&existing).Error; ferr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &completion, nil
}

// HasCompleted reports whether a user has completed a flow.
func HasCompleted(db *gorm.DB, userID, flowID uint) (bool, error) {
	var count int64
	err := db.Model(&Completion{}).
		Where("user_id = ? AND flow_id = ? AND status = ?", userID, flowID, StatusCompleted).
		Count(&count).Error
	return count > 0, err
}

// ResetCompletions deletes completion records. A zero userID or flowID
// widens the criteria to all users / all flows. Returns the number of
// records removed.
func ResetCompletions(db *gorm.DB, userID, flowID uint) (int64, error) {
	q := db.Unscoped().Model(&Completion{})
	if userID > 0 {
		q = q.Where("user_id = ?", userID)
	}
	if flowID > 0 {
		q = q.Where("flow_id = ?", flowID)
	}
	res := q.Delete(&Completion{})
	return res.RowsAffected, res.Error
}

// Stats aggregates completion counts for a flow. A zero flowID aggregates
// across all flows.
func Stats(db *gorm.DB, flowID uint) (*FlowStats, error) {
	stats := FlowStats{}
	base := func() *gorm.DB {
		q := db.Model(&Completion{})
		if flowID > 0 {
			q = q.Where("flow_id = ?", flowID)
		}
		return q
	}

	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", StatusCompleted).Count(&stats.Completed).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", StatusInProgress).Count(&stats.InProgress).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", StatusPending).Count(&stats.Pending).Error; err != nil {
		return nil, err
	}

	if stats.Total > 0 {
		stats.CompletionRate = math.Round(float64(stats.Completed)/float64(stats.Total)*1000) / 10
	}
	return &stats, nil
}

// IsCompleted reports whether the record reached its terminal state.
func (c *Completion) IsCompleted() bool {
	return c.Status == StatusCompleted
}

// CurrentStep resolves the step pointer. A missing or stale pointer
// degrades to nil rather than an error.
func (c *Completion) CurrentStep(db *gorm.DB) (*Step, error) {
	if c.StepID == nil {
		return nil, nil
	}
	step, err := StepByID(db, *c.StepID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return step, nil
}

// Start transitions pending -> inprogress and stamps the start time.
// Calls on an already-started record are no-ops.
func (c *Completion) Start(db *gorm.DB) error {
	if c.Status != StatusPending {
		return nil
	}
	now := time.Now()
	c.Status = StatusInProgress
	c.TimeStarted = &now
	return db.Model(c).Updates(map[string]interface{}{
		"status":       StatusInProgress,
		"time_started": now,
	}).Error
}

// UpdateVideoTime records watched seconds for the current step as a
// monotonic high-water mark; lower or out-of-order reports never decrease
// the stored value.
func (c *Completion) UpdateVideoTime(db *gorm.DB, seconds int) error {
	if seconds > c.VideoTime {
		c.VideoTime = seconds
	}
	return db.Model(c).Update("video_time", c.VideoTime).Error
}

// Advance moves the step pointer to the next step of the flow, resetting
// the watch time, and reports whether more steps remain. Advancing past
// the last step (or with no pointer) completes the flow. The pointer move
// is guarded against concurrent advances: the UPDATE only matches the old
// pointer, and a loser re-reads the row instead of racing from stale
// state.
func (c *Completion) Advance(db *gorm.DB) (bool, error) {
	if c.StepID == nil {
		if err := c.Complete(db); err != nil {
			return false, err
		}
		return false, nil
	}

	flow, err := FlowByID(db, c.FlowID)
	if err != nil {
		return false, err
	}
	next, err := flow.NextStep(db, *c.StepID)
	if err != nil {
		return false, err
	}

	if next == nil {
		// No more steps - mark as complete.
		if err := c.Complete(db); err != nil {
			return false, err
		}
		return false, nil
	}

	res := db.Model(&Completion{}).
		Where("id = ? AND step_id = ?", c.ID, *c.StepID).
		Updates(map[string]interface{}{
			"step_id":    next.ID,
			"video_time": 0,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		// Another advance already moved the pointer.
		if err := db.First(c, c.ID).Error; err != nil {
			return false, err
		}
		return !c.IsCompleted(), nil
	}

	stepID := next.ID
	c.StepID = &stepID
	c.VideoTime = 0
	return true, nil
}

// Complete marks the flow as finished: terminal status, pointer cleared,
// completion time stamped. Repeat calls re-stamp the completion time.
func (c *Completion) Complete(db *gorm.DB) error {
	now := time.Now()
	c.Status = StatusCompleted
	c.StepID = nil
	c.TimeCompleted = &now
	return db.Model(c).Updates(map[string]interface{}{
		"status":         StatusCompleted,
		"step_id":        nil,
		"time_completed": now,
	}).Error
}

// VideoRequirementMet reports whether the current step's video gate is
// satisfied. Steps without a required video pass immediately. For
// required videos this only checks that some watch time was logged; the
// percentage gate lives in the client tracker, which knows the live
// duration (never persisted here).
func (c *Completion) VideoRequirementMet(db *gorm.DB) (bool, error) {
	step, err := c.CurrentStep(db)
	if err != nil {
		return false, err
	}
	if step == nil || !step.HasVideo() || !step.VideoRequired {
		return true, nil
	}
	return c.VideoTime > 0, nil
}

// ProgressPercent returns the flow progress as a percentage rounded to
// one decimal place: 100 when completed, otherwise the share of steps
// before the current one.
func (c *Completion) ProgressPercent(db *gorm.DB) (float64, error) {
	if c.IsCompleted() {
		return 100, nil
	}

	flow, err := FlowByID(db, c.FlowID)
	if err != nil {
		return 0, err
	}
	total, err := flow.CountSteps(db)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}

	step, err := c.CurrentStep(db)
	if err != nil {
		return 0, err
	}
	if step == nil {
		return 0, nil
	}

	number, err := step.StepNumber(db)
	if err != nil {
		return 0, err
	}
	return math.Round(float64(number-1)/float64(total)*1000) / 10, nil
}
