package upload

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewKey builds a collision-resistant storage key of the form
// "images/<unix-millis>-<uuid>-<filename>". Uniqueness comes from the random
// UUID, not the timestamp, so concurrent calls need no coordination.
func NewKey(filename string) string {
	return fmt.Sprintf("images/%d-%s-%s", time.Now().UnixMilli(), uuid.NewString(), keyName(filename))
}

// keyName strips any path component from a client-supplied filename; the key
// namespace is flat and must not be steered by the caller.
func keyName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return name
}
