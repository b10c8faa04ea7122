package storage

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// ObjectKey builds the storage key for a car photo:
// <userID>/cars/<carID>/<unix-nanos>-<filename>. The timestamp keeps keys
// unique under concurrent uploads by the same identity; the same key is used
// in both the photo and thumbnail buckets.
func ObjectKey(userID, carID, filename string, now time.Time) string {
	base := path.Base(filename)
	base = strings.ReplaceAll(base, " ", "_")
	return fmt.Sprintf("%s/cars/%s/%d-%s", userID, carID, now.UnixNano(), base)
}
