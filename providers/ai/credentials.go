package ai

import "os"

// KeyLookup resolves the API key of a backend. The client uses EnvKeyLookup
// unless another lookup is injected.
type KeyLookup func(Backend) string

// APIKeyEnvVar returns the environment variable holding the backend's key.
func APIKeyEnvVar(backend Backend) string {
	switch backend {
	case BackendAnthropic:
		return "ANTHROPIC_API_KEY"
	case BackendOpenAI:
		return "OPENAI_API_KEY"
	case BackendGoogle:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// BaseURLEnvVar returns the environment variable overriding the backend's
// endpoint.
func BaseURLEnvVar(backend Backend) string {
	switch backend {
	case BackendAnthropic:
		return "ANTHROPIC_API_BASE_URL"
	case BackendOpenAI:
		return "OPENAI_API_BASE_URL"
	case BackendGoogle:
		return "GEMINI_API_BASE_URL"
	default:
		return ""
	}
}

// EnvKeyLookup reads the key from the process environment.
func EnvKeyLookup(backend Backend) string {
	name := APIKeyEnvVar(backend)
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// ResolveBaseURL picks the endpoint for model: the model's own BaseURL, then
// the backend's environment override, then fallback.
func ResolveBaseURL(model Model, fallback string) string {
	if model.BaseURL != "" {
		return model.BaseURL
	}
	if name := BaseURLEnvVar(model.Backend); name != "" {
		if url := os.Getenv(name); url != "" {
			return url
		}
	}
	return fallback
}
