package llm

import "testing"

func testProviderConfig() *ProviderConfig {
	return &ProviderConfig{
		AnthropicAPIKey: "anthropic-key",
		AnthropicModel:  "default-anthropic-model",

		OpenRouterAPIKey: "openrouter-key",
		OpenRouterModel:  "default-openrouter-model",

		MistralBaseURL: "https://mistral.example.com/v1",
	}
}

func TestResolvePrefersFirstConfiguredProvider(t *testing.T) {
	registry := NewProviderRegistry(testProviderConfig(), []string{ProviderAnthropic, ProviderOpenRouter})

	key, err := registry.Resolve([]Preference{
		{Provider: ProviderOpenRouter},
		{Provider: ProviderAnthropic},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.Provider != ProviderOpenRouter {
		t.Errorf("Provider = %q, want openrouter", key.Provider)
	}
	if key.Model != "default-openrouter-model" {
		t.Errorf("Model = %q, want config default", key.Model)
	}
	if key.APIKey != "openrouter-key" {
		t.Errorf("APIKey = %q", key.APIKey)
	}
}

func TestResolveSkipsUnconfiguredProvider(t *testing.T) {
	t.Setenv("SCW_SECRET_KEY", "")
	registry := NewProviderRegistry(testProviderConfig(), []string{ProviderScaleway, ProviderAnthropic})

	key, err := registry.Resolve([]Preference{
		{Provider: ProviderScaleway}, // enabled but no API key anywhere
		{Provider: ProviderAnthropic, Model: "model-override"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.Provider != ProviderAnthropic {
		t.Errorf("Provider = %q, want anthropic", key.Provider)
	}
	if key.Model != "model-override" {
		t.Errorf("Model = %q, want preference override", key.Model)
	}
}

func TestResolveSkipsDisabledProvider(t *testing.T) {
	registry := NewProviderRegistry(testProviderConfig(), []string{ProviderAnthropic})

	key, err := registry.Resolve([]Preference{
		{Provider: ProviderOpenRouter}, // configured but not enabled
		{Provider: ProviderAnthropic},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.Provider != ProviderAnthropic {
		t.Errorf("Provider = %q, want anthropic", key.Provider)
	}
}

func TestResolveNoProviderAvailable(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	registry := NewProviderRegistry(&ProviderConfig{}, []string{ProviderAnthropic})

	if _, err := registry.Resolve([]Preference{{Provider: ProviderAnthropic}}); err == nil {
		t.Fatal("expected error when no provider has credentials")
	}
}

func TestResolveProviderEnvFallback(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "env-mistral-key")
	registry := NewProviderRegistry(testProviderConfig(), []string{ProviderMistral})

	key, err := registry.ResolveProvider(ProviderMistral, "mistral-large")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.APIKey != "env-mistral-key" {
		t.Errorf("APIKey = %q, want env fallback", key.APIKey)
	}
	if key.BaseURL != "https://mistral.example.com/v1" {
		t.Errorf("BaseURL = %q, want config value", key.BaseURL)
	}
}

func TestResolveProviderRequiresModel(t *testing.T) {
	t.Setenv("SCW_SECRET_KEY", "scw-key")
	registry := NewProviderRegistry(&ProviderConfig{}, []string{ProviderScaleway})

	if _, err := registry.ResolveProvider(ProviderScaleway, ""); err == nil {
		t.Fatal("expected error when no model is configured")
	}
	key, err := registry.ResolveProvider(ProviderScaleway, "some-model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.Model != "some-model" {
		t.Errorf("Model = %q", key.Model)
	}
}
