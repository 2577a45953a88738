package openapi

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrUnknownEncoding is returned for an encoding the cache was not
	// configured with.
	ErrUnknownEncoding = errors.New("openapi: unknown document encoding")

	// ErrEncoderPanic wraps a panic raised by an encoder.
	ErrEncoderPanic = errors.New("openapi: document encoder panicked")

	// ErrInvalidStrategy is returned by ParseStrategy.
	ErrInvalidStrategy = errors.New("openapi: strategy must be eager or lazy")
)

// Encoding identifies a serialized form of the document.
type Encoding string

const (
	EncodingJSON Encoding = "json"
	EncodingYAML Encoding = "yaml"
)

// ContentType returns the media type the encoding is served with.
func (e Encoding) ContentType() string {
	switch e {
	case EncodingJSON:
		return "application/json"
	case EncodingYAML:
		return "application/x-yaml"
	default:
		return "application/octet-stream"
	}
}

// Strategy selects when the serialized forms are computed.
type Strategy string

const (
	// StrategyEager computes every encoding before the server listens.
	StrategyEager Strategy = "eager"

	// StrategyLazy computes each encoding on its first request.
	StrategyLazy Strategy = "lazy"
)

// ParseStrategy parses "eager" or "lazy" (case-insensitive).
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyEager:
		return StrategyEager, nil
	case StrategyLazy:
		return StrategyLazy, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, s)
}

// EncoderFunc serializes a document.
type EncoderFunc func(*Document) ([]byte, error)

// CacheOption configures a DocumentCache.
type CacheOption func(*DocumentCache)

// WithEncoder sets the serializer for an encoding, adding the encoding if
// the cache does not have it yet.
func WithEncoder(enc Encoding, fn EncoderFunc) CacheOption {
	return func(c *DocumentCache) {
		if _, ok := c.encoders[enc]; !ok {
			c.order = append(c.order, enc)
		}
		c.encoders[enc] = fn
	}
}

type serialized struct {
	data []byte
	etag string
}

// DocumentCache holds the serialized forms of an immutable document. Each
// encoding is computed at most once for the lifetime of the cache, either by
// Warm or by the first Get. Concurrent first callers wait for the single
// computation and all receive the same slice. A failed computation, panics
// included, is remembered and returned to every later caller.
//
// The returned byte slices are shared and must not be modified.
type DocumentCache struct {
	doc      *Document
	encoders map[Encoding]EncoderFunc
	order    []Encoding
	entries  map[Encoding]func() (*serialized, error)
}

// NewDocumentCache creates a cache for doc with JSON and YAML encodings.
// Nothing is serialized until Warm or Get is called.
func NewDocumentCache(doc *Document, opts ...CacheOption) *DocumentCache {
	c := &DocumentCache{
		doc: doc,
		encoders: map[Encoding]EncoderFunc{
			EncodingJSON: MarshalJSON,
			EncodingYAML: MarshalYAML,
		},
		order: []Encoding{EncodingJSON, EncodingYAML},
	}

	for _, opt := range opts {
		opt(c)
	}

	// The entries map is read-only from here on.
	c.entries = make(map[Encoding]func() (*serialized, error), len(c.encoders))
	for enc, fn := range c.encoders {
		c.entries[enc] = c.memoize(enc, fn)
	}

	return c
}

func (c *DocumentCache) memoize(enc Encoding, fn EncoderFunc) func() (*serialized, error) {
	return sync.OnceValues(func() (out *serialized, err error) {
		defer func() {
			if rv := recover(); rv != nil {
				out, err = nil, fmt.Errorf("%w: %s: %v", ErrEncoderPanic, enc, rv)
			}
		}()

		data, err := fn(c.doc)
		if err != nil {
			return nil, fmt.Errorf("openapi: encode %s: %w", enc, err)
		}

		sum := sha256.Sum256(data)
		return &serialized{
			data: data,
			etag: `"` + hex.EncodeToString(sum[:16]) + `"`,
		}, nil
	})
}

// Encodings returns the configured encodings in registration order.
func (c *DocumentCache) Encodings() []Encoding {
	return append([]Encoding(nil), c.order...)
}

// Warm computes every configured encoding and returns the first error.
// Calling it again is free.
func (c *DocumentCache) Warm() error {
	for _, enc := range c.order {
		if _, err := c.entries[enc](); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the serialized document for enc, computing it on first use.
func (c *DocumentCache) Get(enc Encoding) ([]byte, error) {
	s, err := c.load(enc)
	if err != nil {
		return nil, err
	}
	return s.data, nil
}

// ETag returns the strong entity tag of the serialized document for enc.
func (c *DocumentCache) ETag(enc Encoding) (string, error) {
	s, err := c.load(enc)
	if err != nil {
		return "", err
	}
	return s.etag, nil
}

func (c *DocumentCache) load(enc Encoding) (*serialized, error) {
	entry, ok := c.entries[enc]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
	}
	return entry()
}
