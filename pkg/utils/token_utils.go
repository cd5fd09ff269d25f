package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const base36Upper = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateTrackingNumber returns "TRK" + the last 6 digits of the epoch
// milliseconds + 6 random uppercase base-36 characters.
func GenerateTrackingNumber(now time.Time) (string, error) {
	ms := fmt.Sprintf("%06d", now.UnixMilli()%1_000_000)
	suffix, err := randomString(base36Upper, 6)
	if err != nil {
		return "", fmt.Errorf("GenerateTrackingNumber: %w", err)
	}
	return "TRK" + ms + suffix, nil
}

// GenerateOrderNumber returns the local date and time as YYYYMMDDhhmmss followed
// by three millisecond digits.
func GenerateOrderNumber(now time.Time) string {
	return now.Format("20060102150405") + fmt.Sprintf("%03d", now.Nanosecond()/int(time.Millisecond))
}

// GenerateFileName returns "<prefix>-<epochMillis>-<9 random digits><ext>".
func GenerateFileName(prefix, ext string, now time.Time) (string, error) {
	digits, err := randomString("0123456789", 9)
	if err != nil {
		return "", fmt.Errorf("GenerateFileName: %w", err)
	}
	return fmt.Sprintf("%s-%d-%s%s", prefix, now.UnixMilli(), digits, strings.ToLower(ext)), nil
}

func randomString(alphabet string, n int) (string, error) {
	size := big.NewInt(int64(len(alphabet)))
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[idx.Int64()])
	}
	return sb.String(), nil
}
