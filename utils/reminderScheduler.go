package utils

import (
	"fmt"
	"log"

	"onboard/config"
	"onboard/database"
	"onboard/models"
	"onboard/models/onboarding"

	"github.com/jinzhu/now"
	"github.com/robfig/cron/v3"
)

// InitializeOnboardingScheduler sets up the daily reminder and stats jobs
func InitializeOnboardingScheduler() {
	log.Println("[ONBOARDING-SCHEDULER] Initializing onboarding scheduler...")

	c := cron.New()

	// Run daily at 9 AM to nudge users with stale onboarding
	c.AddFunc("0 9 * * *", func() {
		log.Println("[ONBOARDING-SCHEDULER] Running daily onboarding check...")
		ProcessStaleCompletions()
		LogFlowStats()
	})

	c.Start()
	log.Println("[ONBOARDING-SCHEDULER] Onboarding scheduler started - runs daily at 9 AM")
}

// ProcessStaleCompletions sends reminder emails for onboarding left
// untouched for 3 or more days.
func ProcessStaleCompletions() {
	db := database.Database.Db
	cutoff := now.BeginningOfDay().AddDate(0, 0, -3)

	var staleCompletions []onboarding.Completion
	if err := db.
		Where("status IN ?", []string{onboarding.StatusPending, onboarding.StatusInProgress}).
		Where("updated_at < ?", cutoff).
		Find(&staleCompletions).Error; err != nil {
		log.Printf("[ONBOARDING-SCHEDULER] Error fetching stale completions: %v", err)
		return
	}

	log.Printf("[ONBOARDING-SCHEDULER] Found %d stale onboarding record(s)", len(staleCompletions))

	for _, completion := range staleCompletions {
		var user models.User
		if err := db.Where("id = ?", completion.UserID).First(&user).Error; err != nil {
			log.Printf("[ONBOARDING-SCHEDULER] Error fetching user %d: %v", completion.UserID, err)
			continue
		}

		flow, err := onboarding.FlowByID(db, completion.FlowID)
		if err != nil {
			log.Printf("[ONBOARDING-SCHEDULER] Error fetching flow %d: %v", completion.FlowID, err)
			continue
		}
		if !flow.Enabled {
			continue
		}

		entryURL := fmt.Sprintf("%s/onboarding/flow/%d", config.AppConfig.APIBaseURL, flow.ID)
		if err := SendOnboardingReminderEmail(user.Email, user.Name, flow.Name, entryURL); err != nil {
			log.Printf("[ONBOARDING-SCHEDULER] Error sending reminder to %s: %v", user.Email, err)
		}
	}
}

// LogFlowStats writes a daily completion snapshot per enabled flow.
func LogFlowStats() {
	db := database.Database.Db

	flows, err := onboarding.AllFlows(db, true)
	if err != nil {
		log.Printf("[ONBOARDING-SCHEDULER] Error fetching flows: %v", err)
		return
	}

	for _, flow := range flows {
		stats, err := onboarding.Stats(db, flow.ID)
		if err != nil {
			log.Printf("[ONBOARDING-SCHEDULER] Error computing stats for flow %d: %v", flow.ID, err)
			continue
		}
		log.Printf("[ONBOARDING-SCHEDULER] Flow %q: %d total, %d completed, %d in progress, %d pending (%.1f%% completion)",
			flow.Name, stats.Total, stats.Completed, stats.InProgress, stats.Pending, stats.CompletionRate)
	}
}
