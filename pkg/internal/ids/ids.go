// Package ids 生成临时文件名等随机且有序的标识.
package ids

import (
	crand "crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid"
)

var (
	// 单调熵源不是并发安全的，需要加锁.
	entropy   = ulid.Monotonic(crand.Reader, 0)
	entropyMu sync.Mutex
)

// NewULID 返回新的 ULID 字符串，例如 01HZX3J4Q8R6Y2T9M5K7N1B0CD.
func NewULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), entropy).String()
}
