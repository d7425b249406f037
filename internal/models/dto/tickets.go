package dto

// TicketItem is one row on the board, as both the HTML template and the JSON
// API consume it. Field names follow the board's existing client-side code.
type TicketItem struct {
	ID                     int64  `json:"id"`
	Subject                string `json:"subject"`
	Type                   string `json:"type"`
	StatusText             string `json:"status_text"`
	PriorityText           string `json:"priority_text"`
	AgentName              string `json:"agent_name"`
	RequesterName          string `json:"requester_name"`
	UpdatedFriendly        string `json:"updated_friendly"`
	CreatedDaysOld         string `json:"created_days_old"`
	AgentRespondedFriendly string `json:"agent_responded_friendly"`
	SLAText                string `json:"sla_text"`
	SLAClass               string `json:"sla_class"`
	GroupID                *int64 `json:"group_id"`
	ResponderID            *int64 `json:"responder_id"`
}

// BoardResponse is the full dashboard payload: the four sections in display
// order plus the headers the client renders above them.
type BoardResponse struct {
	S1Items []TicketItem `json:"s1_items"`
	S2Items []TicketItem `json:"s2_items"`
	S3Items []TicketItem `json:"s3_items"`
	S4Items []TicketItem `json:"s4_items"`

	TotalActiveItems  int    `json:"total_active_items"`
	GeneratedTimeISO  string `json:"dashboard_generated_time_iso"`
	View              string `json:"view"`
	Section1Name      string `json:"section1_name_js"`
	Section2Name      string `json:"section2_name_js"`
	Section3Name      string `json:"section3_name_js"`
	Section4Name      string `json:"section4_name_js"`
	CacheCorruptCount int    `json:"cache_corrupt_count,omitempty"`
}
