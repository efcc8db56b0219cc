package models

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// FeedResponse is the data payload of the nearby feed.
type FeedResponse struct {
	Location      string     `json:"location"`
	DistrictState string     `json:"districtState"`
	Posts         []FeedPost `json:"posts"`
}

// LocationResponse is the data payload of a location update.
type LocationResponse struct {
	Location      string `json:"location"`
	DistrictState string `json:"districtState"`
	Updated       bool   `json:"updated"`
}
