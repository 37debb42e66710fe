// Package credential owns the persisted bearer credential tied to a
// wallet address. The store is the only writer of the session file;
// every other component reads the token through it.
package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"ramp-watch/pkg/client"
	"ramp-watch/pkg/types"
)

const DefaultSessionFileName = ".ramp-watch-session.json"

// Exchanger trades a wallet address for a bearer token. Satisfied by
// *client.RampClient.
type Exchanger interface {
	ExchangeCredential(ctx context.Context, walletAddress string) (string, error)
}

// Credential is the resolved bearer credential.
type Credential struct {
	Token         string
	WalletAddress string
	// Reused is true when the token came from the session file rather
	// than a fresh exchange.
	Reused bool
}

// sessionFile is the JSON structure persisted on disk.
type sessionFile struct {
	AuthToken      string `json:"authToken,omitempty"`
	WalletAddress  string `json:"walletAddress,omitempty"`
	CurrentOrderID string `json:"currentOrderId,omitempty"`
	OrderStatus    string `json:"orderStatus,omitempty"`
}

// Store persists the session key-value state in a local JSON file.
type Store struct {
	filePath  string
	exchanger Exchanger
	mu        sync.RWMutex
	session   sessionFile
}

// NewStore creates a store backed by filePath, defaulting to a file in
// the user's home directory. An existing session file is loaded; a
// missing one is created on first save.
func NewStore(filePath string, exchanger Exchanger) (*Store, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultSessionFileName)
	}

	s := &Store{
		filePath:  filePath,
		exchanger: exchanger,
	}

	if err := s.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
	}

	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var session sessionFile
	if err := json.Unmarshal(data, &session); err != nil {
		return fmt.Errorf("failed to unmarshal session: %w", err)
	}

	s.session = session
	return nil
}

// save writes the session to disk. Must be called with at least a read
// lock held.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to a temporary file first, then rename for atomic write.
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// GetOrCreate resolves a credential. A persisted token wins
// unconditionally; a stale-but-present token is trusted until a call
// using it is rejected. With no cached token, a wallet address is
// exchanged for a new one and the result persisted.
func (s *Store) GetOrCreate(ctx context.Context, walletAddress string) (Credential, error) {
	s.mu.RLock()
	cached := s.session.AuthToken
	cachedWallet := s.session.WalletAddress
	s.mu.RUnlock()

	if cached != "" {
		return Credential{Token: cached, WalletAddress: cachedWallet, Reused: true}, nil
	}

	if walletAddress == "" {
		return Credential{}, &client.AuthError{Reason: "no cached credential and no wallet address supplied"}
	}
	if !common.IsHexAddress(walletAddress) {
		return Credential{}, &client.AuthError{Reason: fmt.Sprintf("'%s' is not a valid wallet address", walletAddress)}
	}

	token, err := s.exchanger.ExchangeCredential(ctx, walletAddress)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to create credential: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.AuthToken = token
	s.session.WalletAddress = walletAddress
	if err := s.save(); err != nil {
		return Credential{}, err
	}

	return Credential{Token: token, WalletAddress: walletAddress}, nil
}

// Clear drops the persisted token, forcing the next GetOrCreate to
// exchange again. The wallet address is kept so re-authentication does
// not need it re-supplied.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.AuthToken = ""
	return s.save()
}

// WalletAddress returns the persisted wallet address, if any.
func (s *Store) WalletAddress() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.WalletAddress
}

// SetCurrentOrder records the order the swap-initiation flow just
// opened so a later status invocation can pick it up without flags.
func (s *Store) SetCurrentOrder(orderID string, status types.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.CurrentOrderID = orderID
	s.session.OrderStatus = string(status)
	return s.save()
}

// CurrentOrder returns the last recorded order identifier and status.
func (s *Store) CurrentOrder() (string, types.Status) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session.CurrentOrderID == "" {
		return "", types.StatusPending
	}
	return s.session.CurrentOrderID, types.ParseStatus(s.session.OrderStatus)
}

// FilePath returns the backing file path.
func (s *Store) FilePath() string {
	return s.filePath
}
