package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cooldownCapacity bounds the registry so a watch over a huge churning
// tree cannot grow it without limit. Eviction of the oldest entries is
// safe: an evicted path simply becomes notifiable again.
const cooldownCapacity = 4096

// CooldownRegistry tracks when each file was last successfully notified
// on, and answers whether a path is still inside its cooldown window.
type CooldownRegistry struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries *lru.Cache[string, time.Time]
	now     func() time.Time
}

// NewCooldownRegistry creates a registry with the given cooldown window.
// A non-positive window disables cooldown entirely.
func NewCooldownRegistry(ttl time.Duration) *CooldownRegistry {
	cache, err := lru.New[string, time.Time](cooldownCapacity)
	if err != nil {
		// Only reachable with a non-positive capacity constant.
		panic(fmt.Sprintf("cooldown cache: %v", err))
	}
	return &CooldownRegistry{
		ttl:     ttl,
		entries: cache,
		now:     time.Now,
	}
}

// Active reports whether path is still inside its cooldown window.
// Expired entries are removed as a side effect.
func (r *CooldownRegistry) Active(path string) bool {
	if r.ttl <= 0 {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	marked, ok := r.entries.Get(path)
	if !ok {
		return false
	}
	if r.now().Sub(marked) >= r.ttl {
		r.entries.Remove(path)
		return false
	}
	return true
}

// Mark stamps path as just notified, starting its cooldown window.
func (r *CooldownRegistry) Mark(path string) {
	if r.ttl <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries.Add(path, r.now())
}

// Remaining returns how much cooldown is left for path, or zero.
func (r *CooldownRegistry) Remaining(path string) time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	marked, ok := r.entries.Get(path)
	if !ok {
		return 0
	}
	left := r.ttl - r.now().Sub(marked)
	if left < 0 {
		return 0
	}
	return left
}

// Len returns the number of tracked entries, expired ones included.
func (r *CooldownRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries.Len()
}

// cooldownSnapshot is the on-disk persistence format.
type cooldownSnapshot struct {
	SavedAt time.Time            `json:"saved_at"`
	Entries map[string]time.Time `json:"entries"`
}

// Save persists the still-active entries as JSON, written atomically
// via a temp file and rename.
func (r *CooldownRegistry) Save(path string) error {
	r.mu.Lock()
	snapshot := cooldownSnapshot{
		SavedAt: r.now(),
		Entries: make(map[string]time.Time),
	}
	for _, key := range r.entries.Keys() {
		if marked, ok := r.entries.Peek(key); ok {
			if r.now().Sub(marked) < r.ttl {
				snapshot.Entries[key] = marked
			}
		}
	}
	r.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cooldown snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	// Write to temp file then rename so a crash never leaves a torn file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cooldown snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize cooldown snapshot: %w", err)
	}
	return nil
}

// Load restores entries from a snapshot, dropping any whose window has
// already expired. A missing file is not an error.
func (r *CooldownRegistry) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cooldown snapshot: %w", err)
	}

	var snapshot cooldownSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("failed to parse cooldown snapshot: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for key, marked := range snapshot.Entries {
		if r.now().Sub(marked) < r.ttl {
			r.entries.Add(key, marked)
		}
	}
	return nil
}
