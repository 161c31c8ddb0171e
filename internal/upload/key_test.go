package upload

import (
	"regexp"
	"strings"
	"sync"
	"testing"
)

var keyPattern = regexp.MustCompile(`^images/\d+-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}-photo\.jpg$`)

func TestNewKeyFormat(t *testing.T) {
	key := NewKey("photo.jpg")
	if !keyPattern.MatchString(key) {
		t.Fatalf("key %q does not match images/<millis>-<uuid>-<filename>", key)
	}
}

func TestNewKeyStripsPath(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{name: "plain", filename: "a.png", want: "a.png"},
		{name: "unix path", filename: "../../etc/passwd", want: "passwd"},
		{name: "windows path", filename: `C:\tmp\a.png`, want: "a.png"},
		{name: "empty", filename: "", want: "file"},
		{name: "trailing slash", filename: "dir/", want: "dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewKey(tt.filename)
			if !strings.HasSuffix(key, "-"+tt.want) {
				t.Fatalf("NewKey(%q) = %q, want suffix %q", tt.filename, key, "-"+tt.want)
			}
		})
	}
}

func TestNewKeyConcurrentUniqueness(t *testing.T) {
	const workers, perWorker = 20, 500

	keys := make(chan string, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				keys <- NewKey("img.png")
			}
		}()
	}
	wg.Wait()
	close(keys)

	seen := make(map[string]struct{}, workers*perWorker)
	for k := range keys {
		if _, dup := seen[k]; dup {
			t.Fatalf("duplicate key %q", k)
		}
		seen[k] = struct{}{}
	}
	if len(seen) != workers*perWorker {
		t.Fatalf("got %d distinct keys, want %d", len(seen), workers*perWorker)
	}
}
