package domain

// ExtraField is one column outside the canonical schema, carried through the
// pipeline untouched.
type ExtraField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Record is one row of ad-delivery data for a single targeting segment and
// campaign combination. Age, gender, impressions, clicks and spend are
// immutable inputs; the conversion, revenue and ratio fields are overwritten
// by the pipeline.
type Record struct {
	AdID          string `json:"ad_id"`
	XYZCampaignID string `json:"xyz_campaign_id"`
	FBCampaignID  string `json:"fb_campaign_id"`
	AgeSegment    string `json:"age"`
	Gender        string `json:"gender"`
	Interest      string `json:"interest"`

	Impressions int     `json:"impressions"`
	Clicks      int     `json:"clicks"`
	Spent       float64 `json:"spent"`

	TotalConversion    int     `json:"total_conversion"`
	ApprovedConversion int     `json:"approved_conversion"`
	RevenueTotal       float64 `json:"revenue_total"`
	RevenueApproved    float64 `json:"revenue_approved"`

	CTR          float64 `json:"ctr"`
	CPC          float64 `json:"cpc"`
	CPM          float64 `json:"cpm"`
	AvgFrequency float64 `json:"avg_frequency"`

	CVRTotal     float64 `json:"cvr_total"`
	CVRApproved  float64 `json:"cvr_approved"`
	CPATotal     float64 `json:"cpa_total"`
	CPAApproved  float64 `json:"cpa_approved"`
	ROASTotal    float64 `json:"roas_total"`
	ROASApproved float64 `json:"roas_approved"`

	Extra []ExtraField `json:"extra,omitempty"`
}

// Clone returns an independent copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	c.Extra = append([]ExtraField(nil), r.Extra...)
	return &c
}

// ExtraValue returns the passthrough value of the named column, or the empty
// string when the record does not carry it.
func (r *Record) ExtraValue(name string) string {
	for _, f := range r.Extra {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}
