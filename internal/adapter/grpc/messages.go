package grpc

// Wire messages of portfolio.history.v1.HistoryService.
// Dates are "2006-01-02" strings, amounts are decimal strings.

// CalculateRangeRequest asks for every day in [StartDate, EndDate] to be recalculated
type CalculateRangeRequest struct {
	UserID    string `json:"user_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ResumeJobRequest asks for a cancelled or failed job to be continued
type ResumeJobRequest struct {
	JobID string `json:"job_id"`
}

// RangeEvent is one message of a CalculateRange or ResumeJob stream.
// Exactly one field is set; the last event of a successful stream carries Result.
type RangeEvent struct {
	Progress *Progress    `json:"progress,omitempty"`
	Result   *RangeResult `json:"result,omitempty"`
}

// Progress reports the day just processed
type Progress struct {
	Percent     float64 `json:"percent"`
	CurrentDate string  `json:"current_date"`
}

// RangeResult summarizes a finished range run
type RangeResult struct {
	JobID          string     `json:"job_id"`
	DaysCalculated int        `json:"days_calculated"`
	DaysFailed     int        `json:"days_failed"`
	Errors         []string   `json:"errors,omitempty"`
	Success        bool       `json:"success"`
	Cancelled      bool       `json:"cancelled"`
	ResumeFrom     string     `json:"resume_from,omitempty"`
	PriceStats     PriceStats `json:"price_stats"`
	Summary        string     `json:"summary"`
}

// PriceStats counts price resolutions per tier
type PriceStats struct {
	Exact         int `json:"exact"`
	ForwardFilled int `json:"forward_filled"`
	LiveFallback  int `json:"live_fallback"`
	Missing       int `json:"missing"`
}

// ValueOnRequest asks for one day to be valued and stored
type ValueOnRequest struct {
	UserID string `json:"user_id"`
	Date   string `json:"date"`
}

// ListDailyValuesRequest asks for the stored records within [StartDate, EndDate]
type ListDailyValuesRequest struct {
	UserID    string `json:"user_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ListDailyValuesResponse holds stored records ordered by date
type ListDailyValuesResponse struct {
	Values []*DailyValue `json:"values"`
}

// TickerValue is one symbol's line of the ticker breakdown
type TickerValue struct {
	Value    string `json:"value"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
}

// DailyValue is a stored daily valuation
type DailyValue struct {
	UserID              string                 `json:"user_id"`
	Date                string                 `json:"date"`
	TotalValue          string                 `json:"total_value"`
	TotalCostBasis      string                 `json:"total_cost_basis"`
	CashValue           string                 `json:"cash_value"`
	InvestedValue       string                 `json:"invested_value"`
	UnrealizedGain      string                 `json:"unrealized_gain"`
	RealizedGain        string                 `json:"realized_gain"`
	AssetClassBreakdown map[string]string      `json:"asset_class_breakdown"`
	TickerBreakdown     map[string]TickerValue `json:"ticker_breakdown"`
	AccountBreakdown    map[string]string      `json:"account_breakdown"`
	DataQuality         float64                `json:"data_quality"`
	PriceStats          PriceStats             `json:"price_stats"`
	CalculatedAt        string                 `json:"calculated_at"`
}

// GetJobRequest asks for a calculation job
type GetJobRequest struct {
	JobID string `json:"job_id"`
}

// Job is a calculation job
type Job struct {
	ID             string  `json:"id"`
	UserID         string  `json:"user_id"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	Status         string  `json:"status"`
	Progress       float64 `json:"progress"`
	DaysCalculated int     `json:"days_calculated"`
	DaysFailed     int     `json:"days_failed"`
	ErrorMessage   string  `json:"error_message,omitempty"`
	ResumeFrom     string  `json:"resume_from,omitempty"`
	StartedAt      string  `json:"started_at,omitempty"`
	CompletedAt    string  `json:"completed_at,omitempty"`
	CreatedAt      string  `json:"created_at"`
}
