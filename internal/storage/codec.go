package storage

import (
	"fmt"
	"math"
	"time"

	"github.com/gagliardetto/solana-go"
)

// SQL backends store amounts as signed 64 bit integers

func toStorable(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d", ErrAmountOutOfRange, v)
	}
	return int64(v), nil
}

func fromStorable(v int64) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("%w: %d", ErrAmountOutOfRange, v)
	}
	return uint64(v), nil
}

func parseKey(s string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid stored key %q: %w", s, err)
	}
	return key, nil
}

func parseKeys(values []string) ([]solana.PublicKey, error) {
	keys := make([]solana.PublicKey, 0, len(values))
	for _, v := range values {
		key, err := parseKey(v)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func keyStrings(keys []solana.PublicKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

func unixNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnixNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
