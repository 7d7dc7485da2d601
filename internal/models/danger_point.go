package models

import "time"

// DangerPoint is one reported unsafe observation.
type DangerPoint struct {
	ID         int64     `json:"id"`
	PublicID   string    `json:"uuuid"`
	OwnerID    string    `json:"uuid"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Category   Category  `json:"type"`
	ObservedAt time.Time `json:"time"`
	Alpha      float64   `json:"alpha"`
	CreatedAt  time.Time `json:"-"`
}

// Alpha is the trust weight of each report held by an identity with count
// active reports.
func Alpha(count int) float64 {
	if count <= 0 {
		return 0
	}
	return 1 / float64(count)
}

// DangerPointList is an owner's active reports, most recent first.
type DangerPointList struct {
	Count      int           `json:"count"`
	TotalAlpha float64       `json:"total_alpha"`
	Data       []DangerPoint `json:"data"`
}

// RemoveResult reports the owner's state after a deletion.
type RemoveResult struct {
	RemainingPoints int     `json:"remaining_points"`
	NewAlpha        float64 `json:"new_alpha"`
}

// SubmitReport is the input of a danger report submission.
type SubmitReport struct {
	OwnerID    string
	Lat        float64
	Lng        float64
	Category   Category
	ObservedAt time.Time
}
