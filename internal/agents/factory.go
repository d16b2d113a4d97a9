package agents

import (
	"fmt"
	"strings"
	"time"

	"github.com/devfork/arena/internal/common"
	"github.com/devfork/arena/internal/domain/model"
)

// ProviderConfig carries the credentials and endpoints for all supported
// providers. It is loaded once in main and shared by every created agent.
type ProviderConfig struct {
	AnthropicAPIKey  string
	AnthropicBaseURL string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	RequestTimeout   time.Duration
}

// FactoryFunc builds an agent instance from its stored record.
type FactoryFunc func(record *model.AgentRecord) (Agent, error)

// SupportedProviders lists the accepted values for AgentRecord.Provider,
// including the historical aliases.
var SupportedProviders = []string{"anthropic", "claude", "openai", "gpt"}

// NewFactory returns the closed provider dispatch: a fixed switch over known
// providers rather than any dynamic lookup. Unknown providers are a validation
// error surfaced at agent creation and load time, never retried.
func NewFactory(cfg ProviderConfig) FactoryFunc {
	return func(record *model.AgentRecord) (Agent, error) {
		switch strings.ToLower(record.Provider) {
		case "anthropic", "claude":
			return NewClaudeAgent(record, cfg), nil
		case "openai", "gpt":
			return NewOpenAIAgent(record, cfg), nil
		default:
			return nil, fmt.Errorf("unsupported provider %q (supported: %s): %w",
				record.Provider, strings.Join(SupportedProviders, ", "), common.ErrValidation)
		}
	}
}
