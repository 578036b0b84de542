package analysis

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ianlancetaylor/demangle"

	"dissect/internal/elfx"
)

// demangleCache memoizes demangled names. Listings of several files are
// built concurrently, so access is locked.
type demangleCache struct {
	mu    sync.Mutex
	names map[string]string
	hits  int
}

var cache = &demangleCache{names: make(map[string]string)}

// CachedDemangle demangles C++ and Rust names, returning other names
// unchanged.
func CachedDemangle(mangled string) string {
	cache.mu.Lock()
	if cached, ok := cache.names[mangled]; ok {
		cache.hits++
		cache.mu.Unlock()
		return cached
	}
	cache.mu.Unlock()

	demangled := demangle.Filter(mangled, demangle.NoClones)

	cache.mu.Lock()
	cache.names[mangled] = demangled
	cache.mu.Unlock()
	return demangled
}

// DemangleCacheStats returns the number of cached names and cache hits.
func DemangleCacheStats() (names, hits int) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	return len(cache.names), cache.hits
}

// Labels names addresses in a listing: symbols first, then synthetic
// sub_/loc_ labels for branch targets.
type Labels struct {
	names map[uint64]string
}

// NewLabels indexes the function symbols of an image by address. Names
// starting with "$" are mapping symbols and are skipped.
func NewLabels(syms []elfx.Symbol) *Labels {
	l := &Labels{names: make(map[uint64]string, len(syms))}
	for _, s := range syms {
		if strings.HasPrefix(s.Name, "$") {
			continue
		}
		if _, ok := l.names[s.Addr]; !ok {
			l.names[s.Addr] = CachedDemangle(s.Name)
		}
	}
	return l
}

// Name returns the label at addr.
func (l *Labels) Name(addr uint64) (string, bool) {
	if l == nil {
		return "", false
	}
	name, ok := l.names[addr]
	return name, ok
}

// synth labels addr unless it already has a name and returns the label.
func (l *Labels) synth(addr uint64, call bool) string {
	if name, ok := l.names[addr]; ok {
		return name
	}
	name := fmt.Sprintf("loc_%x", addr)
	if call {
		name = fmt.Sprintf("sub_%x", addr)
	}
	l.names[addr] = name
	return name
}
