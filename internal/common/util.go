// Package common contains small helpers shared across client layers.
package common

// WipeByteArray zeroes the given buffer in place. Use it to scrub passwords
// and other secrets once they are no longer needed. Safe to call with nil.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
