package llm

import (
	"fmt"
	"os"
	"sync"
)

const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderMistral    = "mistral"
	ProviderScaleway   = "scaleway"
)

// Preference represents a single provider/model preference.
type Preference struct {
	Provider string
	Model    string
}

// ClientKey uniquely identifies a resolved client configuration.
type ClientKey struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// ProviderConfig holds the credentials and endpoints needed to resolve
// clients. It is read-only after construction.
type ProviderConfig struct {
	AnthropicAPIKey string
	AnthropicModel  string

	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string

	MistralAPIKey  string
	MistralBaseURL string
	MistralModel   string

	ScalewayAPIKey  string
	ScalewayBaseURL string
	ScalewayModel   string
}

// ProviderRegistry manages provider selection and configuration resolution.
// Client construction and caching is left to the caller.
type ProviderRegistry struct {
	enabledProviders map[string]bool
	mu               sync.RWMutex
	config           *ProviderConfig
}

// NewProviderRegistry creates a registry with the given config and enabled
// providers.
func NewProviderRegistry(providerConfig *ProviderConfig, enabledProviders []string) *ProviderRegistry {
	enabledMap := make(map[string]bool)
	for _, p := range enabledProviders {
		enabledMap[p] = true
	}
	return &ProviderRegistry{
		enabledProviders: enabledMap,
		config:           providerConfig,
	}
}

// IsProviderEnabled checks if a provider is in the enabled providers list.
func (r *ProviderRegistry) IsProviderEnabled(provider string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabledProviders[provider]
}

// IsProviderConfigured checks if a provider has the credentials it needs,
// from config or environment.
func (r *ProviderRegistry) IsProviderConfigured(provider string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.apiKeyFor(provider) != ""
}

// Resolve returns a ClientKey for the first enabled, configured provider in
// the preference list.
func (r *ProviderRegistry) Resolve(prefs []Preference) (*ClientKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var attempted []string
	for _, pref := range prefs {
		attempted = append(attempted, pref.Provider)
		if !r.enabledProviders[pref.Provider] {
			continue
		}
		key, err := r.resolveProvider(pref.Provider, pref.Model)
		if err != nil {
			continue
		}
		return key, nil
	}
	return nil, fmt.Errorf("no available provider from preferences %v (enabled: %v)", attempted, r.enabledList())
}

// ResolveProvider returns a ClientKey for one specific provider.
func (r *ProviderRegistry) ResolveProvider(provider, model string) (*ClientKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.enabledProviders[provider] {
		return nil, fmt.Errorf("provider %s is not enabled", provider)
	}
	return r.resolveProvider(provider, model)
}

func (r *ProviderRegistry) resolveProvider(provider, modelOverride string) (*ClientKey, error) {
	apiKey := r.apiKeyFor(provider)
	if apiKey == "" {
		return nil, fmt.Errorf("%s API key not configured", provider)
	}

	key := &ClientKey{
		Provider: provider,
		Model:    modelOverride,
		APIKey:   apiKey,
	}

	switch provider {
	case ProviderAnthropic:
		if key.Model == "" {
			key.Model = r.config.AnthropicModel
		}
	case ProviderOpenRouter:
		key.BaseURL = r.config.OpenRouterBaseURL
		if key.Model == "" {
			key.Model = r.config.OpenRouterModel
		}
	case ProviderMistral:
		key.BaseURL = r.config.MistralBaseURL
		if key.Model == "" {
			key.Model = r.config.MistralModel
		}
	case ProviderScaleway:
		key.BaseURL = r.config.ScalewayBaseURL
		if key.Model == "" {
			key.Model = r.config.ScalewayModel
		}
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	if key.Model == "" {
		return nil, fmt.Errorf("%s model not specified and no default configured", provider)
	}
	return key, nil
}

// apiKeyFor returns the configured API key, falling back to the provider's
// conventional environment variable.
func (r *ProviderRegistry) apiKeyFor(provider string) string {
	var fromConfig, envVar string
	switch provider {
	case ProviderAnthropic:
		fromConfig, envVar = r.config.AnthropicAPIKey, "ANTHROPIC_API_KEY"
	case ProviderOpenRouter:
		fromConfig, envVar = r.config.OpenRouterAPIKey, "OPENROUTER_API_KEY"
	case ProviderMistral:
		fromConfig, envVar = r.config.MistralAPIKey, "MISTRAL_API_KEY"
	case ProviderScaleway:
		fromConfig, envVar = r.config.ScalewayAPIKey, "SCW_SECRET_KEY"
	default:
		return ""
	}
	if fromConfig != "" {
		return fromConfig
	}
	return os.Getenv(envVar)
}

func (r *ProviderRegistry) enabledList() []string {
	var providers []string
	for p := range r.enabledProviders {
		providers = append(providers, p)
	}
	return providers
}
