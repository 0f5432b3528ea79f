package google

import (
	"context"
	"errors"
	"strings"
)

var ErrNoKeys = errors.New("no Gemini API key configured")

// KeyPool hands out API keys one borrower at a time. With several keys,
// back-to-back requests rotate through them.
type KeyPool struct {
	keys chan string
}

func NewKeyPool(keys []string) (*KeyPool, error) {
	var clean []string
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			clean = append(clean, k)
		}
	}
	if len(clean) == 0 {
		return nil, ErrNoKeys
	}
	p := &KeyPool{keys: make(chan string, len(clean))}
	for _, k := range clean {
		p.keys <- k
	}
	return p, nil
}

func (p *KeyPool) Borrow(ctx context.Context) (string, error) {
	select {
	case k := <-p.keys:
		return k, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *KeyPool) Release(key string) {
	p.keys <- key
}

func (p *KeyPool) Size() int { return cap(p.keys) }
