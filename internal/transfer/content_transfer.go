package transfer

// ContentCreation is the direct-authoring payload for POST /content.
type ContentCreation struct {
	Type      string   `json:"type"`
	Title     string   `json:"title,omitempty"`
	Text      string   `json:"text,omitempty"`
	MediaURLs []string `json:"mediaUrls,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Folder    string   `json:"folder,omitempty"`
}

// GenerateRequest asks the content generator for a new artifact.
type GenerateRequest struct {
	Type    string          `json:"type"`
	Prompt  string          `json:"prompt"`
	Options GenerateOptions `json:"options,omitempty"`
}

// GenerateOptions tune a generation call.
type GenerateOptions struct {
	Model       string  `json:"model,omitempty"`
	Voice       string  `json:"voice,omitempty"`
	SceneCount  int     `json:"sceneCount,omitempty"`
	Duration    float64 `json:"duration,omitempty"`
	AspectRatio string  `json:"aspectRatio,omitempty"`
}

// GenerateResult reports what the generator produced. Video generation is
// asynchronous: scenes carry provider task ids and the content stays in
// draft until every scene completes.
type GenerateResult struct {
	ContentID int64  `json:"contentId"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Text      string `json:"text,omitempty"`
	URL       string `json:"url,omitempty"`
	TaskIDs   []string `json:"taskIds,omitempty"`
}

// VideoTaskStatus is the poll result for an asynchronous video task.
type VideoTaskStatus struct {
	TaskID   string `json:"taskId"`
	Status   string `json:"status"`
	VideoURL string `json:"videoUrl,omitempty"`
}
