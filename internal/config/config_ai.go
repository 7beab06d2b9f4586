package config

import "fmt"

// Operation names an AI operation. The value doubles as its config key under ai.operations.
type Operation string

const (
	OpExtractKeywords Operation = "extractKeywords"
	OpAssessFit       Operation = "assessFit"
	OpCoverLetter     Operation = "coverLetter"
	OpSummary         Operation = "summary"
)

// Operations lists every AI operation in a stable order
var Operations = []Operation{OpExtractKeywords, OpAssessFit, OpCoverLetter, OpSummary}

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	// UseSystemPrompts: apply global default only if not explicitly set
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// operationConfig returns a pointer to the raw per-operation section
func (c *Config) operationConfig(op Operation) (*OperationAIConfig, error) {
	switch op {
	case OpExtractKeywords:
		return &c.AI.Operations.ExtractKeywords, nil
	case OpAssessFit:
		return &c.AI.Operations.AssessFit, nil
	case OpCoverLetter:
		return &c.AI.Operations.CoverLetter, nil
	case OpSummary:
		return &c.AI.Operations.Summary, nil
	default:
		return nil, fmt.Errorf("unknown AI operation: %s", op)
	}
}

// GetOperationConfig returns the AI configuration for op with fallback to the global config
func (c *Config) GetOperationConfig(op Operation) (OperationAIConfig, error) {
	raw, err := c.operationConfig(op)
	if err != nil {
		return OperationAIConfig{}, err
	}
	config := *raw
	c.applyOperationDefaults(&config)
	return config, nil
}
