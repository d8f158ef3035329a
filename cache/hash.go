package cache

import (
	"strconv"
	"strings"

	"github.com/minio/highwayhash"
)

var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// Key derives a stable cache key from text. Whitespace is normalized so
// reflows of the same content hash identically. Not cryptographic; only
// collision resistance within a run matters.
func Key(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	return strconv.FormatUint(highwayhash.Sum64([]byte(normalized), hashKey), 16)
}
