// Copyright 2025 mikodusami
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package secrets

import (
	"fmt"
	"os"
)

// providerEnvVars maps provider names to the environment variables that may
// carry their API key, in lookup order. GOOGLE_API_KEY is accepted as a
// legacy alias for GEMINI_API_KEY.
var providerEnvVars = map[string][]string{
	"anthropic": {"ANTHROPIC_API_KEY"},
	"openai":    {"OPENAI_API_KEY"},
	"google":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// Providers returns the provider names the resolver knows about.
func Providers() []string {
	return []string{"anthropic", "openai", "google"}
}

// Resolver looks up provider API keys: keychain first, then environment.
type Resolver struct {
	keychain *KeychainBackend
}

// NewResolver creates a resolver with keychain availability probed once.
func NewResolver() *Resolver {
	return &Resolver{keychain: NewKeychainBackend()}
}

// APIKey returns the API key for the named provider, or ErrSecretNotFound
// when no backend has one.
func (r *Resolver) APIKey(provider string) (string, error) {
	envVars, ok := providerEnvVars[provider]
	if !ok {
		return "", fmt.Errorf("unknown provider %q", provider)
	}

	if r.keychain.Available() {
		if value, err := r.keychain.Get(keychainKey(provider)); err == nil && value != "" {
			return value, nil
		}
	}

	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			return value, nil
		}
	}

	return "", fmt.Errorf("%w: no API key for provider %q (set %s or run 'promptbuilder provider set-key %s')",
		ErrSecretNotFound, provider, envVars[0], provider)
}

// SetAPIKey stores the API key for a provider in the keychain.
func (r *Resolver) SetAPIKey(provider, key string) error {
	if _, ok := providerEnvVars[provider]; !ok {
		return fmt.Errorf("unknown provider %q", provider)
	}
	return r.keychain.Set(keychainKey(provider), key)
}

// DeleteAPIKey removes a provider's API key from the keychain.
func (r *Resolver) DeleteAPIKey(provider string) error {
	if _, ok := providerEnvVars[provider]; !ok {
		return fmt.Errorf("unknown provider %q", provider)
	}
	return r.keychain.Delete(keychainKey(provider))
}

// Configured returns the providers for which an API key is resolvable.
func (r *Resolver) Configured() []string {
	var configured []string
	for _, provider := range Providers() {
		if _, err := r.APIKey(provider); err == nil {
			configured = append(configured, provider)
		}
	}
	return configured
}

// KeychainAvailable reports whether keys can be stored persistently.
func (r *Resolver) KeychainAvailable() bool {
	return r.keychain.Available()
}

func keychainKey(provider string) string {
	return provider + ".api_key"
}
