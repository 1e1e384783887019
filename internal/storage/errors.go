package storage

import (
	"errors"
	"fmt"
)

var (
	ErrStorageCorrupt = errors.New("storage corrupt")
	ErrFlush          = errors.New("flush failed")
)

// CorruptError reports a cache file that exists but fails validation
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("cache file %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

func (e *CorruptError) Is(target error) bool { return target == ErrStorageCorrupt }

// FlushError reports a failure to write the cache file. The in-memory state already
// reflects the mutation that triggered the flush.
type FlushError struct {
	Path string
	Err  error
}

func (e *FlushError) Error() string {
	return fmt.Sprintf("writing cache file %s: %v", e.Path, e.Err)
}

func (e *FlushError) Unwrap() error { return e.Err }

func (e *FlushError) Is(target error) bool { return target == ErrFlush }
