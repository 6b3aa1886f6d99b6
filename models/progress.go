package models

// ProgressRecord is the persisted reading position for one document,
// keyed by a stable digest of its source URL.
type ProgressRecord struct {
	Key              string `json:"key" yaml:"key"`
	SourceURL        string `json:"source_url" yaml:"source_url"`
	Hostname         string `json:"hostname" yaml:"hostname"`
	Title            string `json:"title" yaml:"title"`
	FaviconURL       string `json:"favicon_url,omitempty" yaml:"favicon_url,omitempty"`
	ScrollTop        int    `json:"scroll_top" yaml:"scroll_top"`
	ProgressPercent  int    `json:"progress_percent" yaml:"progress_percent"`
	ReadingTimeLabel string `json:"reading_time_label,omitempty" yaml:"reading_time_label,omitempty"`
	TimestampMs      int64  `json:"timestamp_ms" yaml:"timestamp_ms"`
}
