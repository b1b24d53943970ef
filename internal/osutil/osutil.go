// Package osutil provides abstractions for OS-level operations to enable testing.
package osutil

import (
	"os"
	"path/filepath"
)

// AppName is the directory created under the user config dir.
const AppName = "tpsheet"

// PathProvider abstracts the OS calls used to locate the config, log and journal files.
type PathProvider interface {
	UserConfigDir() (string, error)
	MkdirAll(path string, perm os.FileMode) error
}

// DefaultPathProvider uses real OS functions.
type DefaultPathProvider struct{}

// UserConfigDir returns the default root directory for user-specific configuration data.
func (DefaultPathProvider) UserConfigDir() (string, error) {
	return os.UserConfigDir()
}

// MkdirAll creates a directory named path, along with any necessary parents.
func (DefaultPathProvider) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Provider is the package-level path provider instance.
// In production, this is DefaultPathProvider. Tests can replace it.
var Provider PathProvider = DefaultPathProvider{}

// SetProvider sets a custom provider (for testing).
func SetProvider(p PathProvider) {
	Provider = p
}

// ResetProvider resets to the default provider.
func ResetProvider() {
	Provider = DefaultPathProvider{}
}

// AppPath returns <user config dir>/tpsheet/<elem...>, creating the parent
// directory of the returned path.
func AppPath(elem ...string) (string, error) {
	configDir, err := Provider.UserConfigDir()
	if err != nil {
		return "", err
	}

	path := filepath.Join(append([]string{configDir, AppName}, elem...)...)
	if err := Provider.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	return path, nil
}

// DirProvider roots the user config dir at Dir, e.g. from TPSHEET_HOME.
type DirProvider struct {
	Dir string
}

// UserConfigDir returns Dir.
func (p DirProvider) UserConfigDir() (string, error) {
	return p.Dir, nil
}

// MkdirAll creates a directory named path, along with any necessary parents.
func (DirProvider) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}
