package onboarding

import (
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Flow is an ordered, administrator-defined sequence of steps a targeted
// set of users must complete.
type Flow struct {
	gorm.Model
	Name        string `json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Enabled     bool   `gorm:"default:false" json:"enabled"`
	Mandatory   bool   `gorm:"default:true" json:"mandatory"`
	// TargetRoles holds platform role IDs; empty means the flow applies
	// to all users.
	TargetRoles datatypes.JSONSlice[uint] `json:"target_roles"`
	RedirectURL string                    `json:"redirect_url"`
	SortOrder   int                       `gorm:"default:0" json:"sort_order"`
	IsDeleted   bool                      `gorm:"default:false"`
}

// FlowByID fetches a flow by ID.
func FlowByID(db *gorm.DB, flowID uint) (*Flow, error) {
	var flow Flow
	if err := db.Where("id = ? AND is_deleted = ?", flowID, false).First(&flow).Error; err != nil {
		return nil, err
	}
	return &flow, nil
}

// AllFlows returns flows ordered by sort order.
func AllFlows(db *gorm.DB, enabledOnly bool) ([]Flow, error) {
	var flows []Flow
	q := db.Where("is_deleted = ?", false)
	if enabledOnly {
		q = q.Where("enabled = ?", true)
	}
	if err := q.Order("sort_order asc").Find(&flows).Error; err != nil {
		return nil, err
	}
	return flows, nil
}

// Steps returns the flow's steps in sort order.
func (f *Flow) Steps(db *gorm.DB) ([]Step, error) {
	return StepsForFlow(db, f.ID)
}

// CountSteps returns the number of steps in the flow.
func (f *Flow) CountSteps(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Step{}).Where("flow_id = ? AND is_deleted = ?", f.ID, false).Count(&count).Error
	return count, err
}

// FirstStep returns the first step of the flow, or nil when the flow has
// no steps.
func (f *Flow) FirstStep(db *gorm.DB) (*Step, error) {
	var step Step
	err := db.Where("flow_id = ? AND is_deleted = ?", f.ID, false).Order("sort_order asc").First(&step).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &step, nil
}

// NextStep returns the step immediately following the given step in sort
// order, or nil when the given step is the last (or no longer part of the
// flow).
func (f *Flow) NextStep(db *gorm.DB, currentStepID uint) (*Step, error) {
	steps, err := f.Steps(db)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range steps {
		if found {
			return &steps[i], nil
		}
		if steps[i].ID == currentStepID {
			found = true
		}
	}
	return nil, nil
}

// MatchesRoles reports whether the flow targets a user holding the given
// role IDs. An empty target set matches everyone.
func (f *Flow) MatchesRoles(userRoles []uint) bool {
	if len(f.TargetRoles) == 0 {
		return true
	}
	for _, target := range f.TargetRoles {
		for _, held := range userRoles {
			if target == held {
				return true
			}
		}
	}
	return false
}

// ActiveFlowForUser picks the flow a user with the given roles must
// complete: enabled flows are scanned in ascending sort order and the
// first one whose target roles match wins. Returns nil when no flow
// applies.
func ActiveFlowForUser(db *gorm.DB, userRoles []uint) (*Flow, error) {
	flows, err := AllFlows(db, true)
	if err != nil {
		return nil, err
	}

	for i := range flows {
		if flows[i].MatchesRoles(userRoles) {
			return &flows[i], nil
		}
	}
	return nil, nil
}

// Delete removes the flow together with its steps and completion records.
func (f *Flow) Delete(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Step{}).Where("flow_id = ?", f.ID).Update("is_deleted", true).Error; err != nil {
			return err
		}
		// Completions are removed for real so a re-created flow starts clean.
		if err := tx.Unscoped().Where("flow_id = ?", f.ID).Delete(&Completion{}).Error; err != nil {
			return err
		}
		return tx.Model(f).Update("is_deleted", true).Error
	})
}

// NextFlowSortOrder returns max(sort_order)+1 across flows.
func NextFlowSortOrder(db *gorm.DB) int {
	var maxOrder int
	db.Model(&Flow{}).Where("is_deleted = ?", false).
		Select("COALESCE(MAX(sort_order), 0)").Scan(&maxOrder)
	return maxOrder + 1
}
