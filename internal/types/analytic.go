package types

// Click is one recorded resolution. Country and City stay nil until the
// geo enrichment task fills them in.
type Click struct {
	ID        string  `json:"id" db:"id"`
	LinkID    string  `json:"linkId" db:"link_id"`
	Timestamp int64   `json:"timestamp" db:"clicked_at"`
	IP        *string `json:"ip" db:"ip"`
	UserAgent *string `json:"userAgent" db:"user_agent"`
	Referrer  *string `json:"referrer" db:"referrer"`
	Country   *string `json:"country" db:"country"`
	City      *string `json:"city" db:"city"`
}

type ClickPage struct {
	Clicks     []Click    `json:"clicks"`
	Pagination Pagination `json:"pagination"`
}

type DayCount struct {
	Date  string `json:"date" db:"day"`
	Count int64  `json:"count" db:"count"`
}

type CountryCount struct {
	Country string `json:"country" db:"country"`
	Count   int64  `json:"count" db:"count"`
}

// RawReferrerCount is a referrer group as stored, before hostname reduction.
type RawReferrerCount struct {
	Referrer *string `db:"referrer"`
	Count    int64   `db:"count"`
}

type ReferrerCount struct {
	Referrer string `json:"referrer"`
	Count    int64  `json:"count"`
}

type RecentClick struct {
	Timestamp int64   `json:"timestamp" db:"clicked_at"`
	Country   *string `json:"country" db:"country"`
	City      *string `json:"city" db:"city"`
	Referrer  *string `json:"referrer" db:"referrer"`
}

type LinkStats struct {
	TotalClicks     int64           `json:"totalClicks"`
	ClicksByDay     []DayCount      `json:"clicksByDay"`
	ClicksByCountry []CountryCount  `json:"clicksByCountry"`
	TopReferrers    []ReferrerCount `json:"topReferrers"`
	RecentClicks    []RecentClick   `json:"recentClicks"`
}
