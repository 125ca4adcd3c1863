// Package clipboard copies pipeline output to the system clipboard.
package clipboard

import (
	"fmt"
	"sync"

	xclipboard "golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
	mu       sync.Mutex
)

// Init must succeed before Write is called. Safe to call more than once.
func Init() error {
	initOnce.Do(func() {
		initErr = xclipboard.Init()
	})
	if initErr != nil {
		return fmt.Errorf("init clipboard: %w", initErr)
	}
	return nil
}

// Write replaces the clipboard text. Serialized because the underlying
// clipboard is a single shared resource.
func Write(text string) error {
	if err := Init(); err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	xclipboard.Write(xclipboard.FmtText, []byte(text))
	return nil
}
