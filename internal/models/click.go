package models

import "time"

// SourceType is the coarse traffic source derived from the referrer host.
type SourceType string

const (
	SourceDirect   SourceType = "direct"
	SourceSearch   SourceType = "search"
	SourceSocial   SourceType = "social"
	SourceReferral SourceType = "referral"
	SourceUnknown  SourceType = "unknown"
)

// ClickEvent is an immutable record of one resolution of a Link.
// Rows are never updated and only disappear when their link is deleted.
type ClickEvent struct {
	// ID is a monotonically increasing surrogate key
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	// LinkID references links.id; the constraint cascades on delete.
	LinkID string `gorm:"column:link_id;type:text;not null;index" json:"link_id"`
	Link   *Link  `gorm:"foreignKey:LinkID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	ClickedAt time.Time `gorm:"column:clicked_at;index" json:"clicked_at"`

	// ReferrerHost is nil when the request carried no referrer or an unparseable one.
	ReferrerHost *string `gorm:"column:referrer_host;type:text" json:"referrer_host,omitempty"`
	SourceType   *string `gorm:"column:source_type;type:text" json:"source_type,omitempty"`

	// Captured for later use, not aggregated.
	CountryCode *string `gorm:"column:country_code;type:text" json:"country_code,omitempty"`
	UserAgent   *string `gorm:"column:user_agent;type:text" json:"user_agent,omitempty"`
}

// TableName pins the table name used by the SQL migrations.
func (ClickEvent) TableName() string {
	return "click_events"
}

// RequestMeta is the HTTP metadata handed to the resolver by the transport layer.
// Empty strings mean the header was absent.
type RequestMeta struct {
	Referrer    string
	UserAgent   string
	CountryCode string
}
