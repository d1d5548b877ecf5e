package models

// TagCategory groups tags
type TagCategory struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Tags        []Tag  `json:"tags"`
}

// Tag is a story type label
type Tag struct {
	ID          int    `json:"id"`
	CategoryID  int    `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UsageCount  int    `json:"usage_count"`
}
