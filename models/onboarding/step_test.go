package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Step_EmbedURL(t *testing.T) {
	tests := []struct {
		name     string
		videoURL string
		want     string
	}{
		{
			name:     "youtube watch link",
			videoURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			want:     "https://www.youtube.com/embed/dQw4w9WgXcQ?enablejsapi=1&rel=0",
		},
		{
			name:     "youtube short link",
			videoURL: "https://youtu.be/dQw4w9WgXcQ",
			want:     "https://www.youtube.com/embed/dQw4w9WgXcQ?enablejsapi=1&rel=0",
		},
		{
			name:     "vimeo link",
			videoURL: "https://vimeo.com/76979871",
			want:     "https://player.vimeo.com/video/76979871?api=1",
		},
		{
			name:     "already embeddable",
			videoURL: "https://example.com/player/clip.mp4",
			want:     "https://example.com/player/clip.mp4",
		},
		{
			name:     "empty",
			videoURL: "",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := &Step{VideoURL: tt.videoURL}
			assert.Equal(t, tt.want, step.EmbedURL())
		})
	}
}

func Test_Step_HasVideo(t *testing.T) {
	assert.True(t, (&Step{StepType: TypeVideo, VideoURL: "https://vimeo.com/1"}).HasVideo())
	assert.True(t, (&Step{StepType: TypeMixed, VideoURL: "https://vimeo.com/1"}).HasVideo())
	assert.False(t, (&Step{StepType: TypeContent, VideoURL: "https://vimeo.com/1"}).HasVideo())
	assert.False(t, (&Step{StepType: TypeVideo}).HasVideo())
}

func Test_Step_HasCTA(t *testing.T) {
	assert.True(t, (&Step{CTAButton: "Go", CTAURL: "/dashboard"}).HasCTA())
	assert.False(t, (&Step{CTAButton: "Go"}).HasCTA())
	assert.False(t, (&Step{CTAURL: "/dashboard"}).HasCTA())
}

func Test_ClampCompletion(t *testing.T) {
	assert.Equal(t, 0, ClampCompletion(-5))
	assert.Equal(t, 0, ClampCompletion(0))
	assert.Equal(t, 80, ClampCompletion(80))
	assert.Equal(t, 100, ClampCompletion(100))
	assert.Equal(t, 100, ClampCompletion(150))
}

func Test_Step_Position(t *testing.T) {
	db := setupTestDB(t)
	flow := seedFlow(t, db, 3)
	steps, err := flow.Steps(db)
	require.NoError(t, err)

	number, err := steps[1].StepNumber(db)
	require.NoError(t, err)
	assert.Equal(t, 2, number)

	first, err := steps[0].IsFirst(db)
	require.NoError(t, err)
	assert.True(t, first)

	first, err = steps[2].IsFirst(db)
	require.NoError(t, err)
	assert.False(t, first)

	last, err := steps[2].IsLast(db)
	require.NoError(t, err)
	assert.True(t, last)

	last, err = steps[0].IsLast(db)
	require.NoError(t, err)
	assert.False(t, last)
}

func Test_Step_View(t *testing.T) {
	db := setupTestDB(t)
	flow := seedFlow(t, db, 0)

	step := &Step{
		FlowID:          flow.ID,
		Title:           "Meet Your Dashboard",
		Content:         "<p>Welcome.</p>",
		StepType:        TypeMixed,
		VideoURL:        "https://vimeo.com/76979871",
		VideoRequired:   true,
		VideoCompletion: 90,
		CTAButton:       "Open Dashboard",
		CTAURL:          "/dashboard",
		SortOrder:       1,
	}
	require.NoError(t, db.Create(step).Error)

	view, err := step.View(db)
	require.NoError(t, err)
	assert.Equal(t, "Meet Your Dashboard", view.Title)
	assert.True(t, view.HasVideo)
	assert.Equal(t, "https://player.vimeo.com/video/76979871?api=1", view.VideoEmbedURL)
	assert.True(t, view.VideoRequired)
	assert.Equal(t, 90, view.VideoCompletion)
	assert.True(t, view.HasCTA)
	assert.False(t, view.HasImage)
	assert.Equal(t, 1, view.StepNumber)
	assert.True(t, view.IsFirst)
	assert.True(t, view.IsLast)
}

func Test_NextStepSortOrder(t *testing.T) {
	db := setupTestDB(t)
	flow := seedFlow(t, db, 2)

	assert.Equal(t, 3, NextStepSortOrder(db, flow.ID))
	assert.Equal(t, 1, NextStepSortOrder(db, 9999))
}
