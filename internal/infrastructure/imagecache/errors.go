package imagecache

import "fmt"

// TooSmallError reports a download below the minimum accepted size
type TooSmallError struct {
	Size int
	Min  int
}

func (e *TooSmallError) Error() string {
	return fmt.Sprintf("image too small: %d bytes (minimum %d)", e.Size, e.Min)
}
