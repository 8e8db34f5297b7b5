package model

// ================ Config ================

type LLMConfig struct {
	Model       string  `envconfig:"LLM_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"LLM_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"LLM_TEMPERATURE" default:"0.4"`
	// Vertex AI is required for gs:// video analysis; the plain Gemini API
	// backend works for text-only runs.
	Project  string `envconfig:"GOOGLE_CLOUD_PROJECT"`
	Location string `envconfig:"GOOGLE_CLOUD_LOCATION" default:"us-central1"`
	APIKey   string `envconfig:"GEMINI_API_KEY"`
	BaseURL  string `envconfig:"GEMINI_BASE_URL"`
}

type PathsConfig struct {
	CatalogPath   string `envconfig:"CATALOG_PATH" default:"config/videos.yaml"`
	TranscriptDir string `envconfig:"TRANSCRIPT_DIR" default:"data/transcripts"`
	ChildDir      string `envconfig:"CHILD_TRANSCRIPT_DIR" default:"data/child_transcripts"`
	SnipDir       string `envconfig:"SNIP_DIR" default:"data/snippedvideos"`
	TmpDir        string `envconfig:"SNIP_TMP_DIR" default:"data/.tmp_snip"`
}

type AnswerConfig struct {
	// Hard cap on composed answers, in whitespace-separated words.
	MaxWords int `envconfig:"ANSWER_MAX_WORDS" default:"140"`
	// Confidence gates for the transcript answerer.
	ChildThreshold float64 `envconfig:"TRANSCRIPT_CHILD_THRESHOLD" default:"0.5"`
	DayThreshold   float64 `envconfig:"TRANSCRIPT_DAY_THRESHOLD" default:"0.6"`
	// Video selection bounds.
	MaxVideos      int `envconfig:"PICKER_MAX_VIDEOS" default:"5"`
	FallbackVideos int `envconfig:"PICKER_FALLBACK_VIDEOS" default:"3"`
	// Minimum evidence clip length in seconds.
	PointWindowSeconds int `envconfig:"EVIDENCE_POINT_WINDOW_SECONDS" default:"10"`
	// Bound on follow-up re-entries through the graph loop.
	MaxFollowupLoops int    `envconfig:"MAX_FOLLOWUP_LOOPS" default:"5"`
	PromptVersion    string `envconfig:"TRANSCRIPT_PROMPT_VERSION" default:"v1"`
}

type RetryConfig struct {
	MaxAttempts      int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	BaseDelaySeconds int `envconfig:"RETRY_BASE_DELAY_SECONDS" default:"2"`
}

type DemoConfig struct {
	ChildInfo string `envconfig:"DEMO_CHILD_INFO" default:"Ayaan, wearing a green t-shirt"`
}
