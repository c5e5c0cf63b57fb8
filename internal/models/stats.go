package models

import "time"

// Stats is the account-level dashboard view.
type Stats struct {
	Totals          AccountTotals `json:"totals"`
	ClicksLast7Days []DailyClicks `json:"clicksLast7Days"`
	TopLinks        []LinkSummary `json:"topLinks"`
	RecentClicks    []RecentClick `json:"recentClicks"`
	TrafficSources  []SourceCount `json:"trafficSources"`
}

// AccountTotals summarises every link of one owner.
type AccountTotals struct {
	Links            int64   `json:"links"`
	TotalClicks      int64   `json:"totalClicks"`
	ActiveLinks      int64   `json:"activeLinks"`
	AvgClicksPerLink float64 `json:"avgClicksPerLink"`
	BestLinkID       *string `json:"bestLinkId"`
	BestLinkClicks   int64   `json:"bestLinkClicks"`
}

// DailyClicks is one UTC day bucket. Date is formatted as 2006-01-02.
type DailyClicks struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

// LinkSummary is a row of the top links table.
type LinkSummary struct {
	ID             string    `json:"id"`
	DestinationURL string    `json:"url"`
	Clicks         int64     `json:"clicks"`
	CreatedAt      time.Time `json:"created_at"`
}

// RecentClick is one entry of the recent activity feed.
type RecentClick struct {
	LinkID       string    `json:"redirect_id"`
	ClickedAt    time.Time `json:"clicked_at"`
	SourceType   string    `json:"source_type"`
	ReferrerHost *string   `json:"referrer_host"`
}

// SourceCount groups click events by traffic source.
type SourceCount struct {
	SourceType string `json:"source_type"`
	Clicks     int64  `json:"clicks"`
}

// ReferrerCount groups click events by referrer host.
type ReferrerCount struct {
	ReferrerHost string `json:"referrer_host"`
	Clicks       int64  `json:"clicks"`
}

// LinkStats is the per-link detail view.
type LinkStats struct {
	Link            Link            `json:"link"`
	Totals          LinkTotals      `json:"totals"`
	ClicksLast7Days []DailyClicks   `json:"clicksLast7Days"`
	TrafficSources  []SourceCount   `json:"trafficSources"`
	TopReferrers    []ReferrerCount `json:"topReferrers"`
}

// LinkTotals are computed from the event log, not from Link.ClickCount.
type LinkTotals struct {
	Clicks  int64 `json:"clicks"`
	Last24h int64 `json:"last24h"`
	Last7d  int64 `json:"last7d"`
}

// CounterTotals is the raw aggregate over the links table for one owner.
type CounterTotals struct {
	Links       int64
	TotalClicks int64
	ActiveLinks int64
}
