package config

// Config structure
type Config struct {
	// Answering backend that turns questions into text, SQL and data.
	AnswerServiceURL string `json:"answerServiceUrl"`

	// Chat model used for summaries and chart planning.
	LLMProvider string `json:"llmProvider"`
	APIKey      string `json:"apiKey"`
	BaseURL     string `json:"baseUrl"`
	ModelName   string `json:"modelName"`
	MaxTokens   int    `json:"maxTokens"`

	// Conversation storage. StorageEngine is "sqlite" or "mysql"; the DSN is
	// only used for mysql.
	StorageEngine string `json:"storageEngine"`
	MySQLDSN      string `json:"mysqlDsn,omitempty"`
	DataDir       string `json:"dataDir"`

	DetailedLog bool `json:"detailedLog"`
}

// Validate fills in defaults for fields that must not be empty.
func (c *Config) Validate() {
	if c.LLMProvider == "" {
		c.LLMProvider = "OpenAI"
	}
	if c.ModelName == "" {
		c.ModelName = "gpt-4o"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 8192
	}
	if c.StorageEngine == "" {
		c.StorageEngine = "sqlite"
	}
	if c.AnswerServiceURL == "" {
		c.AnswerServiceURL = "http://localhost:3000/api/ask"
	}
}
