package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

const (
	keychainService = "activity-dashboard-credentials"
	keychainAccount = "activity-dashboard"
)

// runSecurity executes the macOS `security` tool. Replaced in tests.
var runSecurity = func(args ...string) ([]byte, error) {
	return exec.Command("security", args...).Output()
}

// KeychainStore keeps credentials as a JSON generic password in the macOS
// login keychain. Every Get reads the keychain; nothing is cached.
type KeychainStore struct {
	mu sync.Mutex
}

func NewKeychainStore() *KeychainStore {
	return &KeychainStore{}
}

func (k *KeychainStore) Get() (Credentials, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.read()
}

func (k *KeychainStore) Set(c Credentials) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.write(c)
}

func (k *KeychainStore) Update(fn func(c *Credentials)) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	c, err := k.read()
	if err != nil {
		return err
	}
	fn(&c)
	return k.write(c)
}

func (k *KeychainStore) Clear() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, err := runSecurity("delete-generic-password", "-s", keychainService); err != nil && !isItemNotFound(err) {
		return fmt.Errorf("failed to delete keychain item: %w", err)
	}
	return nil
}

func (k *KeychainStore) read() (Credentials, error) {
	output, err := runSecurity("find-generic-password", "-s", keychainService, "-w")
	if err != nil {
		if isItemNotFound(err) {
			return Credentials{}, nil
		}
		return Credentials{}, fmt.Errorf("failed to retrieve password from Keychain: %w", err)
	}

	var c Credentials
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(output))), &c); err != nil {
		return Credentials{}, fmt.Errorf("failed to parse JSON from keychain: %w", err)
	}
	return c, nil
}

func (k *KeychainStore) write(c Credentials) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if _, err := runSecurity("add-generic-password", "-s", keychainService, "-a", keychainAccount, "-w", string(data), "-U"); err != nil {
		return fmt.Errorf("failed to update keychain: %w", err)
	}
	return nil
}

// isItemNotFound matches the exit status security uses for a missing item.
func isItemNotFound(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == 44
}
