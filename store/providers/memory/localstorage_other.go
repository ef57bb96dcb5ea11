//go:build !(js && wasm)

package memory

// DefaultLocalStorage returns nil; local storage only exists in browser builds
func DefaultLocalStorage() LocalStorage {
	return nil
}
