package model

// UserStats summarizes the lifecycle distribution of one user's records
type UserStats struct {
	Total      int64 `json:"total"`
	Active     int64 `json:"active"`
	Compressed int64 `json:"compressed"`
	Archived   int64 `json:"archived"`
}
