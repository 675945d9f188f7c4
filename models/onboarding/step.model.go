package onboarding

import (
	"fmt"
	"net/url"
	"regexp"

	"onboard/config"

	"gorm.io/gorm"
)

// Step types.
const (
	TypeContent = "content"
	TypeVideo   = "video"
	TypeImage   = "image"
	TypeMixed   = "mixed"
)

var (
	youtubeRe = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([a-zA-Z0-9_-]+)`)
	vimeoRe   = regexp.MustCompile(`vimeo\.com/(\d+)`)
)

// Step is one screen within a flow; it may present text, an image, an
// embedded video and/or a call-to-action.
type Step struct {
	gorm.Model
	FlowID          uint   `gorm:"index;not null" json:"flow_id"`
	Title           string `json:"title"`
	Content         string `gorm:"type:text" json:"content"` // rich text (HTML)
	StepType        string `gorm:"default:'content'" json:"step_type"`
	VideoURL        string `json:"video_url"`
	VideoRequired   bool   `gorm:"default:false" json:"video_required"`
	VideoCompletion int    `gorm:"default:80" json:"video_completion"` // percentage 0-100
	ImageURL        string `json:"image_url"`
	CTAButton       string `json:"cta_button"`
	CTAURL          string `json:"cta_url"`
	CTANewTab       bool   `gorm:"default:false" json:"cta_new_tab"`
	SortOrder       int    `gorm:"default:0" json:"sort_order"`
	IsDeleted       bool   `gorm:"default:false"`
}

// StepView is the step representation exported to the UI and API.
type StepView struct {
	ID              uint   `json:"id"`
	FlowID          uint   `json:"flow_id"`
	Title           string `json:"title"`
	Content         string `json:"content"`
	StepType        string `json:"step_type"`
	HasVideo        bool   `json:"has_video"`
	VideoURL        string `json:"video_url,omitempty"`
	VideoEmbedURL   string `json:"video_embed_url,omitempty"`
	VideoRequired   bool   `json:"video_required"`
	VideoCompletion int    `json:"video_completion"`
	HasImage        bool   `json:"has_image"`
	ImageURL        string `json:"image_url,omitempty"`
	HasCTA          bool   `json:"has_cta"`
	CTAButton       string `json:"cta_button,omitempty"`
	CTAURL          string `json:"cta_url,omitempty"`
	CTANewTab       bool   `json:"cta_new_tab"`
	SortOrder       int    `json:"sort_order"`
	StepNumber      int    `json:"step_number"`
	IsFirst         bool   `json:"is_first"`
	IsLast          bool   `json:"is_last"`
}

// StepByID fetches a step by ID.
func StepByID(db *gorm.DB, stepID uint) (*Step, error) {
	var step Step
	if err := db.Where("id = ? AND is_deleted = ?", stepID, false).First(&step).Error; err != nil {
		return nil, err
	}
	return &step, nil
}

// StepsForFlow returns all steps of a flow in sort order.
func StepsForFlow(db *gorm.DB, flowID uint) ([]Step, error) {
	var steps []Step
	err := db.Where("flow_id = ? AND is_deleted = ?", flowID, false).Order("sort_order asc").Find(&steps).Error
	if err != nil {
		return nil, err
	}
	return steps, nil
}

// NextStepSortOrder returns max(sort_order)+1 within a flow.
func NextStepSortOrder(db *gorm.DB, flowID uint) int {
	var maxOrder int
	db.Model(&Step{}).Where("flow_id = ? AND is_deleted = ?", flowID, false).
		Select("COALESCE(MAX(sort_order), 0)").Scan(&maxOrder)
	return maxOrder + 1
}

// ClampCompletion keeps a completion threshold within 0-100.
func ClampCompletion(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// HasVideo reports whether the step presents a video.
func (s *Step) HasVideo() bool {
	return s.VideoURL != "" && (s.StepType == TypeVideo || s.StepType == TypeMixed)
}

// HasImage reports whether the step presents an image.
func (s *Step) HasImage() bool {
	return s.ImageURL != ""
}

// HasCTA reports whether the step carries a call-to-action button.
func (s *Step) HasCTA() bool {
	return s.CTAButton != "" && s.CTAURL != ""
}

// EmbedURL derives the embeddable player URL for the step's video.
// YouTube and Vimeo links are rewritten to their JS-API-enabled embed
// forms; anything else is assumed to already be embeddable.
func (s *Step) EmbedURL() string {
	if s.VideoURL == "" {
		return ""
	}

	if m := youtubeRe.FindStringSubmatch(s.VideoURL); m != nil {
		embed := "https://www.youtube.com/embed/" + m[1] + "?enablejsapi=1&rel=0"
		if config.AppConfig != nil && config.AppConfig.APIBaseURL != "" {
			embed += "&origin=" + url.QueryEscape(config.AppConfig.APIBaseURL)
		}
		return embed
	}

	if m := vimeoRe.FindStringSubmatch(s.VideoURL); m != nil {
		return fmt.Sprintf("https://player.vimeo.com/video/%s?api=1", m[1])
	}

	return s.VideoURL
}

// StepNumber returns the 1-based rank of the step within its flow.
func (s *Step) StepNumber(db *gorm.DB) (int, error) {
	steps, err := StepsForFlow(db, s.FlowID)
	if err != nil {
		return 0, err
	}
	number := 1
	for i := range steps {
		if steps[i].ID == s.ID {
			return number, nil
		}
		number++
	}
	return number, nil
}

// IsFirst reports whether the step is the first of its flow.
func (s *Step) IsFirst(db *gorm.DB) (bool, error) {
	steps, err := StepsForFlow(db, s.FlowID)
	if err != nil {
		return false, err
	}
	return len(steps) > 0 && steps[0].ID == s.ID, nil
}

// IsLast reports whether the step is the last of its flow.
func (s *Step) IsLast(db *gorm.DB) (bool, error) {
	steps, err := StepsForFlow(db, s.FlowID)
	if err != nil {
		return false, err
	}
	return len(steps) > 0 && steps[len(steps)-1].ID == s.ID, nil
}

// View exports the step for the UI/API.
func (s *Step) View(db *gorm.DB) (*StepView, error) {
	number, err := s.StepNumber(db)
	if err != nil {
		return nil, err
	}
	first, err := s.IsFirst(db)
	if err != nil {
		return nil, err
	}
	last, err := s.IsLast(db)
	if err != nil {
		return nil, err
	}

	return &StepView{
		ID:              s.ID,
		FlowID:          s.FlowID,
		Title:           s.Title,
		Content:         s.Content,
		StepType:        s.StepType,
		HasVideo:        s.HasVideo(),
		VideoURL:        s.VideoURL,
		VideoEmbedURL:   s.EmbedURL(),
		VideoRequired:   s.VideoRequired,
		VideoCompletion: s.VideoCompletion,
		HasImage:        s.HasImage(),
		ImageURL:        s.ImageURL,
		HasCTA:          s.HasCTA(),
		CTAButton:       s.CTAButton,
		CTAURL:          s.CTAURL,
		CTANewTab:       s.CTANewTab,
		SortOrder:       s.SortOrder,
		StepNumber:      number,
		IsFirst:         first,
		IsLast:          last,
	}, nil
}
