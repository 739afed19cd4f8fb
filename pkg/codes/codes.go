// Package codes generates the public identifiers handed out by the service:
// campaign slugs, participant share tokens and ticket redemption codes. All
// of them carry random entropy and rely on a database unique constraint as
// the final arbiter, with a short retry budget for the unlucky collision.
package codes

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/sethvargo/go-retry"

	apperrors "github.com/troupekit/troupe-backend/pkg/errors"
)

// suffixBytes gives 3 bytes = 24 bits of entropy per generated suffix.
const suffixBytes = 3

// maxRetries is the number of re-draws after the first collision. Three
// attempts total: at >=20 bits of suffix entropy a third collision means
// something other than luck is wrong.
const maxRetries = 2

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Suffix returns a fresh lowercase random suffix.
func Suffix() (string, error) {
	buf := make([]byte, suffixBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random suffix: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(buf)), nil
}

// Generate slugifies seed and appends a random suffix, e.g.
// "spring-gala-2026-x7k2q". The suffix keeps human-readable codes from
// colliding across tenants without any central registry.
func Generate(seed string) (string, error) {
	suffix, err := Suffix()
	if err != nil {
		return "", err
	}
	base := slug.Make(seed)
	if base == "" {
		return suffix, nil
	}
	return base + "-" + suffix, nil
}

// SlugWithYear slugifies seed with the year appended before the random
// suffix, the shape used for campaign slugs.
func SlugWithYear(seed string, year int) (string, error) {
	return Generate(fmt.Sprintf("%s %d", seed, year))
}

// InsertUnique runs insert with a freshly generated code until it lands or
// the retry budget is spent. insert must return a uniqueness error for
// collisions; any other error aborts immediately. Exhausting the budget
// yields a conflict error.
func InsertUnique(ctx context.Context, seed string, insert func(ctx context.Context, code string) error) (string, error) {
	var code string

	backoff := retry.WithMaxRetries(maxRetries, retry.NewConstant(10*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		generated, genErr := Generate(seed)
		if genErr != nil {
			return genErr
		}
		if insErr := insert(ctx, generated); insErr != nil {
			if apperrors.IsCode(insErr, apperrors.CodeConflict) {
				return retry.RetryableError(insErr)
			}
			return insErr
		}
		code = generated
		return nil
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeConflict) {
			return "", apperrors.Wrap(apperrors.CodeConflict, err, "exhausted unique code attempts")
		}
		return "", err
	}

	return code, nil
}
