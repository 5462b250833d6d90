package classifier

import (
	"fmt"

	"github.com/Onebillie/onebillconvo-sub004/internal/config"
	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

// ProviderFactory is a function that creates a DocumentClassifier from a provider config.
type ProviderFactory func(cfg *config.ClassifierProviderConfig) (port.DocumentClassifier, error)

// registry of classifier provider factories, populated by init() in each
// provider package or explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a classifier provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewProvider creates a DocumentClassifier from a provider config using the registered factory.
func NewProvider(cfg *config.ClassifierProviderConfig) (port.DocumentClassifier, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown classifier provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// NewFromConfig builds the configured fallback chain of providers.
func NewFromConfig(cfg *config.ClassifierConfig) (port.DocumentClassifier, error) {
	provCfgs := cfg.Chain()
	if len(provCfgs) == 0 {
		return nil, fmt.Errorf("no classifier providers configured")
	}

	var chain []port.DocumentClassifier
	var names []string
	for _, pc := range provCfgs {
		c, err := NewProvider(pc)
		if err != nil {
			return nil, err
		}
		chain = append(chain, c)
		names = append(names, pc.Provider)
	}

	if len(chain) == 1 {
		return chain[0], nil
	}
	return NewFallbackClassifier(chain, names), nil
}
