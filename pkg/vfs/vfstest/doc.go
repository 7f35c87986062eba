// Package vfstest provides a conformance test suite for vfs.Filesystem
// implementations.
//
// Every writable tree backend (memfs, badgerfs) should pass these tests.
// The suite pins the behavioral contract the syscall layer depends on, most
// importantly the open classification errors (ErrIsDirectory from OpenFile,
// ErrNotDirectory from OpenDirectory) that drive the stat probe.
//
// Usage:
//
//	func TestConformance(t *testing.T) {
//	    vfstest.RunConformanceSuite(t, func(t *testing.T) vfs.Filesystem {
//	        return memfs.New()
//	    })
//	}
//
// The factory function receives *testing.T so it can call t.TempDir() for
// backends that need filesystem paths and t.Cleanup for teardown.
package vfstest
