package authController

import (
	"fmt"
	"testing"

	"onboard/config"
	"onboard/models"
	"onboard/models/onboarding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupGateTest(t *testing.T) *gorm.DB {
	config.AppConfig = &config.Config{
		OnboardingEnabled: true,
		ShowAdmins:        false,
		DashboardURL:      "/dashboard",
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database for testing: %v", err)
	}
	err = db.AutoMigrate(&models.User{}, &models.Permission{}, &models.RoleAssignment{},
		&onboarding.Flow{}, &onboarding.Step{}, &onboarding.Completion{})
	if err != nil {
		t.Fatalf("failed to migrate database for testing: %v", err)
	}
	return db
}

func seedGateFlow(t *testing.T, db *gorm.DB) *onboarding.Flow {
	flow := &onboarding.Flow{Name: "Welcome Tour", Enabled: true, SortOrder: 1}
	require.NoError(t, db.Create(flow).Error)
	step := &onboarding.Step{FlowID: flow.ID, Title: "Hello", StepType: onboarding.TypeContent, SortOrder: 1}
	require.NoError(t, db.Create(step).Error)
	return flow
}

func Test_onboardingGate_RequiresFlow(t *testing.T) {
	db := setupGateTest(t)
	flow := seedGateFlow(t, db)

	user := &models.User{Name: "Aki", Email: "aki@example.com", Role: "USER"}
	require.NoError(t, db.Create(user).Error)

	decision, err := onboardingGate(db, user, "/reports/weekly")
	require.NoError(t, err)
	assert.True(t, decision.Required)
	assert.Equal(t, flow.ID, decision.FlowID)
	assert.Equal(t, "Welcome Tour", decision.FlowName)
	assert.Equal(t, fmt.Sprintf("/onboarding/flow/%d", flow.ID), decision.EntryURL)

	// The intended destination is parked for the post-completion redirect.
	completion, err := onboarding.GetOrCreateCompletion(db, user.ID, flow.ID)
	require.NoError(t, err)
	assert.Equal(t, "/reports/weekly", completion.ReturnURL)
}

func Test_onboardingGate_DefaultsReturnURL(t *testing.T) {
	db := setupGateTest(t)
	flow := seedGateFlow(t, db)

	user := &models.User{Name: "Bo", Email: "bo@example.com", Role: "USER"}
	require.NoError(t, db.Create(user).Error)

	decision, err := onboardingGate(db, user, "")
	require.NoError(t, err)
	assert.True(t, decision.Required)

	completion, err := onboarding.GetOrCreateCompletion(db, user.ID, flow.ID)
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", completion.ReturnURL)
}

func Test_onboardingGate_Exemptions(t *testing.T) {
	db := setupGateTest(t)
	seedGateFlow(t, db)

	// Admins skip the gate unless configured otherwise.
	admin := &models.User{Name: "Root", Email: "root@example.com", Role: "ADMIN"}
	require.NoError(t, db.Create(admin).Error)

	decision, err := onboardingGate(db, admin, "")
	require.NoError(t, err)
	assert.False(t, decision.Required)

	config.AppConfig.ShowAdmins = true
	decision, err = onboardingGate(db, admin, "")
	require.NoError(t, err)
	assert.True(t, decision.Required)

	// The bypass capability exempts regular users.
	user := &models.User{Name: "Cam", Email: "cam@example.com", Role: "USER"}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&models.Permission{UserID: user.ID, Role: "USER", Permission: models.PermBypass}).Error)

	decision, err = onboardingGate(db, user, "")
	require.NoError(t, err)
	assert.False(t, decision.Required)

	// A global kill switch turns the gate off entirely.
	config.AppConfig.OnboardingEnabled = false
	other := &models.User{Name: "Dee", Email: "dee@example.com", Role: "USER"}
	require.NoError(t, db.Create(other).Error)

	decision, err = onboardingGate(db, other, "")
	require.NoError(t, err)
	assert.False(t, decision.Required)
}

func Test_onboardingGate_CompletedUsersPass(t *testing.T) {
	db := setupGateTest(t)
	flow := seedGateFlow(t, db)

	user := &models.User{Name: "Eve", Email: "eve@example.com", Role: "USER"}
	require.NoError(t, db.Create(user).Error)

	completion, err := onboarding.GetOrCreateCompletion(db, user.ID, flow.ID)
	require.NoError(t, err)
	require.NoError(t, completion.Complete(db))

	decision, err := onboardingGate(db, user, "")
	require.NoError(t, err)
	assert.False(t, decision.Required)
}

func Test_onboardingGate_NoApplicableFlow(t *testing.T) {
	db := setupGateTest(t)

	user := &models.User{Name: "Fin", Email: "fin@example.com", Role: "USER"}
	require.NoError(t, db.Create(user).Error)

	decision, err := onboardingGate(db, user, "")
	require.NoError(t, err)
	assert.False(t, decision.Required)
}
