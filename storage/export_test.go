package storage

// SetRename replaces the commit step of Save and returns a restore func.
func SetRename(fn func(oldpath, newpath string) error) func() {
	prev := rename
	rename = fn
	return func() { rename = prev }
}
