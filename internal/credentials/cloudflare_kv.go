//go:build js && wasm

package credentials

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/syumai/workers/cloudflare/kv"
)

const (
	kvNamespaceBinding = "activity_dashboard_kv"
	kvCredentialsKey   = "admin_credentials"
)

// CloudflareKVStore keeps credentials in a Workers KV namespace.
type CloudflareKVStore struct {
	kvStore *kv.Namespace
	mu      sync.Mutex
}

// NewCloudflareKVStore binds the namespace configured in wrangler.toml.
func NewCloudflareKVStore() (*CloudflareKVStore, error) {
	kvStore, err := kv.NewNamespace(kvNamespaceBinding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize KV namespace: %w", err)
	}
	return &CloudflareKVStore{kvStore: kvStore}, nil
}

func (c *CloudflareKVStore) Get() (Credentials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read()
}

func (c *CloudflareKVStore) Set(creds Credentials) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(creds)
}

func (c *CloudflareKVStore) Update(fn func(creds *Credentials)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	creds, err := c.read()
	if err != nil {
		return err
	}
	fn(&creds)
	return c.write(creds)
}

func (c *CloudflareKVStore) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kvStore.Delete(kvCredentialsKey); err != nil {
		return fmt.Errorf("failed to delete credentials from KV: %w", err)
	}
	return nil
}

func (c *CloudflareKVStore) read() (Credentials, error) {
	credsJSON, err := c.kvStore.GetString(kvCredentialsKey, nil)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to get credentials from KV: %w", err)
	}
	if credsJSON == "" {
		return Credentials{}, nil
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(credsJSON), &creds); err != nil {
		return Credentials{}, fmt.Errorf("failed to parse credentials JSON: %w", err)
	}
	return creds, nil
}

func (c *CloudflareKVStore) write(creds Credentials) error {
	credsJSON, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := c.kvStore.PutString(kvCredentialsKey, string(credsJSON), nil); err != nil {
		return fmt.Errorf("failed to store credentials in KV: %w", err)
	}
	return nil
}
