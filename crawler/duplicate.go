package crawler

import (
	"crypto/md5"
	"encoding/hex"
	"sync"
)

// DuplicateDetector remembers content hashes so batch runs can skip pages
// whose body was already processed under another URL.
type DuplicateDetector struct {
	seenHashes map[string]string
	mutex      sync.Mutex
}

func NewDuplicateDetector() *DuplicateDetector {
	return &DuplicateDetector{
		seenHashes: make(map[string]string),
	}
}

func Hash(body []byte) string {
	sum := md5.Sum(body)
	return hex.EncodeToString(sum[:])
}

// Seen records body under url. It returns the URL that first produced the
// same body and true when body is a duplicate.
func (dd *DuplicateDetector) Seen(url string, body []byte) (string, bool) {
	hash := Hash(body)

	dd.mutex.Lock()
	defer dd.mutex.Unlock()

	if first, ok := dd.seenHashes[hash]; ok {
		return first, true
	}
	dd.seenHashes[hash] = url
	return "", false
}

func (dd *DuplicateDetector) Len() int {
	dd.mutex.Lock()
	defer dd.mutex.Unlock()
	return len(dd.seenHashes)
}
