package entity

import "time"

// Tool types: browser tools open in a tab, downloadable ones ship a binary.
const (
	ToolTypeBrowser      = "browser"
	ToolTypeDownloadable = "downloadable"
)

const (
	MinKeywords = 5
	MaxKeywords = 10
)

// Tool is a catalog entry for a third-party AI product. Title is unique
// across the catalog. LikeCount and SaveCount are non-negative counters kept
// eventually consistent with the user collections that reference the tool.
type Tool struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	Title      string    `bson:"title" json:"title"`
	LogoURL    string    `bson:"logo_url" json:"logoUrl"`
	WebsiteURL string    `bson:"website_url" json:"websiteUrl"`
	Category   string    `bson:"category" json:"category"`
	About      string    `bson:"about" json:"about"`
	Keywords   []string  `bson:"keywords" json:"keywords"`
	ToolType   string    `bson:"tool_type" json:"toolType"`
	LikeCount  int64     `bson:"like_count" json:"likeCount"`
	SaveCount  int64     `bson:"save_count" json:"saveCount"`
	IsActive   bool      `bson:"is_active" json:"-"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

// Snapshot builds the denormalized entry stored in user documents.
func (t *Tool) Snapshot(now time.Time) SavedTool {
	return SavedTool{
		ToolID:      t.ID,
		Name:        t.Title,
		LogoURL:     t.LogoURL,
		WebsiteURL:  t.WebsiteURL,
		Description: t.About,
		Category:    t.Category,
		SavedAt:     now,
	}
}
