//go:build !unix

package index

import "os"

// Advisory locking is unix-only; other platforms rely on the atomic
// rename alone.
func lockFile(*os.File) error   { return nil }
func unlockFile(*os.File) error { return nil }
