package domain

import "sync"

// RuntimeConfig tracks which collaborators are available at runtime.
// Capability flags are determined at startup and updated when an AI
// service is swapped. Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	CacheBackend string // "redis" or "memory"

	// Dynamic capability flags
	embeddingAvailable  bool
	recognizerAvailable bool
	safeChatAvailable   bool
	capChatAvailable    bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values.
func NewRuntimeConfig(cacheBackend string) *RuntimeConfig {
	return &RuntimeConfig{CacheBackend: cacheBackend}
}

// EmbeddingAvailable returns whether an embedding service is configured.
func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

// RecognizerAvailable returns whether an external entity recognizer is
// configured. Detection works without one; it is a best-effort enrichment.
func (c *RuntimeConfig) RecognizerAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.recognizerAvailable
}

// ChatAvailable returns whether the given provider has a chat service.
func (c *RuntimeConfig) ChatAvailable(provider ProviderID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if provider == ProviderSafe {
		return c.safeChatAvailable
	}
	return c.capChatAvailable
}

// SetEmbeddingAvailable updates the embedding availability flag.
func (c *RuntimeConfig) SetEmbeddingAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeddingAvailable = available
}

// SetRecognizerAvailable updates the recognizer availability flag.
func (c *RuntimeConfig) SetRecognizerAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recognizerAvailable = available
}

// SetChatAvailable updates a provider's chat availability flag.
func (c *RuntimeConfig) SetChatAvailable(provider ProviderID, available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if provider == ProviderSafe {
		c.safeChatAvailable = available
	} else {
		c.capChatAvailable = available
	}
}

// CanAnswer reports whether at least one chat provider is available.
func (c *RuntimeConfig) CanAnswer() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.safeChatAvailable || c.capChatAvailable
}
