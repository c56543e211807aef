package user

type User struct {
	// Id is the stable subject id assigned by the identity provider.
	Id          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Settings    Settings
}

// Settings is the per-user sync configuration.
type Settings struct {
	// SourceId is either a calendar id or a feed URL (http/https).
	SourceId string `json:"sourceId"`
	// TargetId is the destination calendar id.
	TargetId string `json:"targetId"`
	// FilterPatterns are case-insensitive regular expressions; events whose
	// summary matches any of them are excluded from the sync.
	FilterPatterns []string `json:"filterPatterns"`
	// SourceTimezone is the timezone feed wall-clock times are reinterpreted
	// in. Empty means the application default.
	SourceTimezone string `json:"sourceTimezone"`
}
