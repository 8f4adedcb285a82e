package schema

// AgentSettings are the per-session knobs of the tool loop.
type AgentSettings struct {
	Model       string
	MaxIter     int
	Temperature float64
	MaxTokens   int
	AutoSave    bool
}

// DefaultMaxIter bounds the tool loop when no explicit cap is configured.
const DefaultMaxIter = 10

func NewAgentSettings(model string, maxIter int, temperature float64, maxTokens int, autoSave bool) AgentSettings {
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}
	return AgentSettings{
		Model:       model,
		MaxIter:     maxIter,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		AutoSave:    autoSave,
	}
}
