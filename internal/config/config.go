package config

import "os"

type Config struct {
	Paths     PathsConfig     `yaml:"paths"`
	Logging   LoggingConfig   `yaml:"logging"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Download  DownloadConfig  `yaml:"download"`
	Whisper   WhisperConfig   `yaml:"whisper"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	LLM       LLMConfig       `yaml:"llm"`
	Review    ReviewConfig    `yaml:"review"`
}

type PathsConfig struct {
	Data       string `yaml:"data"`
	Audio      string `yaml:"audio"`
	Subtitles  string `yaml:"subtitles"`
	Discovery  string `yaml:"discovery"`
	Scoreboard string `yaml:"scoreboard"`
	Reviews    string `yaml:"reviews"`
	Backups    string `yaml:"backups"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DiscoveryConfig describes the external crawler that produces the
// discovery artifact. The command is optional; when empty the discovery
// stage is skipped and an existing artifact is used as-is.
type DiscoveryConfig struct {
	Command []string `yaml:"command"`
}

type DownloadConfig struct {
	Binary         string `yaml:"binary"`
	FFmpegLocation string `yaml:"ffmpeg_location"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PauseSeconds   int    `yaml:"pause_seconds"`
}

type WhisperConfig struct {
	BinaryPath     string `yaml:"binary_path"`
	ModelPath      string `yaml:"model_path"`
	Language       string `yaml:"language"`
	Threads        int    `yaml:"threads"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ScoringConfig carries the vocabulary sets, weights and decision-tree
// thresholds. All of them are swappable here without code changes; the
// scoring engine receives an immutable copy.
type ScoringConfig struct {
	VirtualWords   []string   `yaml:"virtual_words"`
	LogicWords     []string   `yaml:"logic_words"`
	ExcludePhrases []string   `yaml:"exclude_phrases"`
	FirstPerson    string     `yaml:"first_person"`
	QuestionMark   string     `yaml:"question_mark"`
	Weights        Weights    `yaml:"weights"`
	Thresholds     Thresholds `yaml:"thresholds"`
}

type Weights struct {
	ProperNoun  float64 `yaml:"propernoun_weight"`
	Richness    float64 `yaml:"richness_weight"`
	Question    float64 `yaml:"question_weight"`
	Logic       float64 `yaml:"logic_weight"`
	FirstPerson float64 `yaml:"firstperson_weight"`
}

type Thresholds struct {
	SRationalMin   float64 `yaml:"s_rational_min"`
	SInfoMin       float64 `yaml:"s_info_min"`
	SCharsMin      int     `yaml:"s_chars_min"`
	AExperienceMin float64 `yaml:"a_experience_min"`
	ARationalMin   float64 `yaml:"a_rational_min"`
	AInfoMin       float64 `yaml:"a_info_min"`
	BInfoHigh      float64 `yaml:"b_info_high"`
	BInfoLow       float64 `yaml:"b_info_low"`
	CInfoMin       float64 `yaml:"c_info_min"`
}

type LLMConfig struct {
	Provider       string   `yaml:"provider"`
	APIURL         string   `yaml:"api_url"`
	APIKey         string   `yaml:"api_key"`
	Model          string   `yaml:"model"`
	GeminiAPIKeys  []string `yaml:"gemini_api_keys"`
	GeminiModel    string   `yaml:"gemini_model"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Temperature    float64  `yaml:"temperature"`
	MaxTokens      int      `yaml:"max_tokens"`
}

type ReviewConfig struct {
	MaxAttempts    int `yaml:"max_attempts"`
	BackoffSeconds int `yaml:"backoff_seconds"`
	PauseSeconds   int `yaml:"pause_seconds"`
}

const (
	deepseekAPIKeyEnv = "DEEPSEEK_API_KEY"
	geminiAPIKeyEnv   = "GEMINI_API_KEY"
)

func (c *Config) Validate() error {
	if c.Paths.Data == "" {
		c.Paths.Data = "data"
	}
	if c.Paths.Audio == "" {
		c.Paths.Audio = "data/audios"
	}
	if c.Paths.Subtitles == "" {
		c.Paths.Subtitles = "data/subtitles"
	}
	if c.Paths.Discovery == "" {
		c.Paths.Discovery = "data/video_urls.json"
	}
	if c.Paths.Scoreboard == "" {
		c.Paths.Scoreboard = "data/video_scores.xlsx"
	}
	if c.Paths.Reviews == "" {
		c.Paths.Reviews = "data/word_reviews"
	}
	if c.Paths.Backups == "" {
		c.Paths.Backups = "data/excel_backups"
	}

	if c.Download.Binary == "" {
		c.Download.Binary = "yt-dlp"
	}
	if c.Download.TimeoutSeconds == 0 {
		c.Download.TimeoutSeconds = 600
	}
	if c.Download.PauseSeconds == 0 {
		c.Download.PauseSeconds = 3
	}

	// binary_path and model_path stay empty here: only extraction needs
	// whisper, and it checks them itself so scoring or review over an
	// existing transcript set can run without a recognizer installed.
	if c.Whisper.Language == "" {
		c.Whisper.Language = "zh"
	}
	if c.Whisper.Threads == 0 {
		c.Whisper.Threads = 8
	}
	if c.Whisper.TimeoutSeconds == 0 {
		c.Whisper.TimeoutSeconds = 1800
	}

	c.Scoring.applyDefaults()

	if c.LLM.Provider == "" {
		c.LLM.Provider = "deepseek"
	}
	if c.LLM.APIURL == "" {
		c.LLM.APIURL = "https://api.deepseek.com/v1/chat/completions"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "deepseek-chat"
	}
	if c.LLM.GeminiModel == "" {
		c.LLM.GeminiModel = "gemini-2.5-flash"
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 60
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 4000
	}

	if c.Review.MaxAttempts == 0 {
		c.Review.MaxAttempts = 2
	}
	if c.Review.BackoffSeconds == 0 {
		c.Review.BackoffSeconds = 2
	}
	if c.Review.PauseSeconds == 0 {
		c.Review.PauseSeconds = 1
	}

	return nil
}

func (s *ScoringConfig) applyDefaults() {
	if len(s.VirtualWords) == 0 {
		s.VirtualWords = []string{"本质", "彻底", "绝对", "一定", "真相", "底层逻辑", "降维打击"}
	}
	if len(s.LogicWords) == 0 {
		s.LogicWords = []string{"但是", "然而", "另一方面", "尽管如此", "不过"}
	}
	if len(s.ExcludePhrases) == 0 {
		s.ExcludePhrases = []string{"什么", "如何", "这个", "可以", "就是", "那个", "我们", "他们", "一个", "没有", "不是"}
	}
	if s.FirstPerson == "" {
		s.FirstPerson = "我"
	}
	if s.QuestionMark == "" {
		s.QuestionMark = "？"
	}

	w := &s.Weights
	if w.ProperNoun == 0 {
		w.ProperNoun = 0.8
	}
	if w.Richness == 0 {
		w.Richness = 100
	}
	if w.Question == 0 {
		w.Question = 2.0
	}
	if w.Logic == 0 {
		w.Logic = 0.5
	}
	if w.FirstPerson == 0 {
		w.FirstPerson = 10
	}

	t := &s.Thresholds
	if t.SRationalMin == 0 {
		t.SRationalMin = 5.0
	}
	if t.SInfoMin == 0 {
		t.SInfoMin = 50
	}
	if t.SCharsMin == 0 {
		t.SCharsMin = 12000
	}
	if t.AExperienceMin == 0 {
		t.AExperienceMin = 30
	}
	if t.ARationalMin == 0 {
		t.ARationalMin = 3.0
	}
	if t.AInfoMin == 0 {
		t.AInfoMin = 40
	}
	if t.BInfoHigh == 0 {
		t.BInfoHigh = 50
	}
	if t.BInfoLow == 0 {
		t.BInfoLow = 30
	}
	if t.CInfoMin == 0 {
		t.CInfoMin = 15
	}
}

// DefaultScoring returns the scoring configuration with every vocabulary
// set, weight and threshold at its default value.
func DefaultScoring() ScoringConfig {
	var s ScoringConfig
	s.applyDefaults()
	return s
}

// applyEnvOverrides pulls secrets from the environment so API keys never
// have to live in the YAML file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(deepseekAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.LLM.GeminiAPIKeys = append([]string{v}, c.LLM.GeminiAPIKeys...)
	}
}
