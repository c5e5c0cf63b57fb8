package models

import "time"

// Link maps a slug to a destination URL. The slug is the primary key, so the
// namespace is global across owners.
type Link struct {
	ID             string    `gorm:"primaryKey;type:text" json:"id"`
	DestinationURL string    `gorm:"column:destination_url;type:text;not null" json:"destination_url"`
	OwnerID        *string   `gorm:"column:owner_id;type:text;index" json:"owner_id,omitempty"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`

	// ClickCount is a read-optimized counter. It is bumped once per resolved
	// click but not in the same statement as the event insert, so it can drift
	// from the click_events log.
	ClickCount int64 `gorm:"column:click_count;not null;default:0" json:"click_count"`
}

// TableName pins the table name used by the SQL migrations.
func (Link) TableName() string {
	return "links"
}

// OwnedBy reports whether ownerID created the link.
func (l *Link) OwnedBy(ownerID string) bool {
	return ownerID != "" && l.OwnerID != nil && *l.OwnerID == ownerID
}
