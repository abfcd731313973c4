package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("QUILLPRESS_TEST_MODE") == "" {
			_ = os.Setenv("QUILLPRESS_TEST_MODE", "1")
		}
	})
}
