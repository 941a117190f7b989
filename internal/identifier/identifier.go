package identifier

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	pkgerrors "github.com/mnhs-dev/registrar-backend/pkg/errors"
)

const (
	requestIDPrefix      = "DOC"
	requestIDRandomLen   = 8
	requestIDMaxAttempts = 10

	apiKeyPrefix    = "sk-"
	apiKeyRandomLen = 32
)

var (
	requestIDCharset = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	apiKeyCharset    = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
)

// RequestIDChecker answers whether a candidate request ID is already taken.
type RequestIDChecker interface {
	RequestIDExists(ctx context.Context, requestID string) (bool, error)
}

// Generator produces the human-readable identifiers used across the intake
// workflow: request IDs are uniqueness-checked against the store, API keys
// are not (probabilistic uniqueness, enforced by the DB unique constraint).
type Generator struct {
	checker RequestIDChecker
	now     func() time.Time
}

// NewGenerator wires a generator against the request store. A nil clock
// defaults to time.Now.
func NewGenerator(checker RequestIDChecker, now func() time.Time) (*Generator, error) {
	if checker == nil {
		return nil, fmt.Errorf("request id checker required")
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{checker: checker, now: now}, nil
}

// GenerateRequestID returns a fresh DOC-YYYY-XXXXXXXX identifier that is not
// present in the store. A store failure aborts immediately rather than risk
// returning a possibly-duplicate ID.
func (g *Generator) GenerateRequestID(ctx context.Context) (string, error) {
	year := g.now().Year()

	for attempt := 0; attempt < requestIDMaxAttempts; attempt++ {
		suffix, err := randomString(requestIDCharset, requestIDRandomLen)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate request id")
		}
		candidate := fmt.Sprintf("%s-%d-%s", requestIDPrefix, year, suffix)

		exists, err := g.checker.RequestIDExists(ctx, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check request id uniqueness")
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", pkgerrors.New(pkgerrors.CodeDependency, "could not allocate a unique request id")
}

// GenerateAPIKey returns an sk- prefixed opaque token. There is deliberately
// no store check here; collisions surface as a unique-constraint insert error.
func GenerateAPIKey() (string, error) {
	suffix, err := randomString(apiKeyCharset, apiKeyRandomLen)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate api key")
	}
	return apiKeyPrefix + suffix, nil
}

func randomString(charset []rune, length int) (string, error) {
	result := make([]rune, length)
	for i := 0; i < length; i++ {
		idx, err := randInt(len(charset))
		if err != nil {
			return "", err
		}
		result[i] = charset[idx]
	}
	return string(result), nil
}

func randInt(max int) (int, error) {
	if max <= 0 {
		return 0, fmt.Errorf("invalid max %d", max)
	}
	var buff = make([]byte, 1)
	if _, err := rand.Read(buff); err != nil {
		return 0, err
	}
	return int(buff[0]) % max, nil
}
