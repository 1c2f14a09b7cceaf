package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// PassphraseEnv overrides the generated passphrase of the encrypted store
const PassphraseEnv = "TWEETRELAY_PASSPHRASE"

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000
)

// EncryptedFileStore implements CredentialStore using an AES-GCM encrypted
// file whose key is derived from a passphrase with PBKDF2.
type EncryptedFileStore struct {
	filepath   string
	passphrase string
	mu         sync.RWMutex
}

// fileEnvelope is the on-disk layout; Encrypted holds the sealed set map
type fileEnvelope struct {
	Salt      string    `json:"salt"`
	Encrypted string    `json:"encrypted"`
	Version   int       `json:"version"`
	Modified  time.Time `json:"modified"`
}

type vault struct {
	salt []byte
	sets map[string]CookieSet
}

// NewEncryptedFileStore creates a store at filePath. The passphrase comes from
// TWEETRELAY_PASSPHRASE, or from a .passphrase file beside the store which is
// generated on first use.
func NewEncryptedFileStore(filePath string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(filePath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	passphrase, err := loadPassphrase(filepath.Join(dir, ".passphrase"))
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}

	return &EncryptedFileStore{filepath: filePath, passphrase: passphrase}, nil
}

// Store saves a cookie set to the encrypted file
func (e *EncryptedFileStore) Store(set *CookieSet) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if set == nil || set.Name == "" {
		return ErrInvalidCredentials
	}

	v, err := e.load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load existing data: %w", err)
	}
	if v == nil {
		v = &vault{sets: make(map[string]CookieSet)}
	}

	stored := *set
	stored.Cookies = append([]string(nil), set.Cookies...)
	v.sets[set.Name] = stored

	return e.save(v)
}

// Retrieve gets a cookie set from the encrypted file
func (e *EncryptedFileStore) Retrieve(name string) (*CookieSet, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if name == "" {
		return nil, ErrInvalidCredentials
	}

	v, err := e.load()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	set, ok := v.sets[name]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &set, nil
}

// List returns all stored cookie sets sorted by name
func (e *EncryptedFileStore) List() ([]*CookieSet, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	v, err := e.load()
	if err != nil {
		if os.IsNotExist(err) {
			return []*CookieSet{}, nil
		}
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	sets := make([]*CookieSet, 0, len(v.sets))
	for _, set := range v.sets {
		s := set
		sets = append(sets, &s)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].Name < sets[j].Name })
	return sets, nil
}

// Delete removes a cookie set, and the file once it is empty
func (e *EncryptedFileStore) Delete(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if name == "" {
		return ErrInvalidCredentials
	}

	v, err := e.load()
	if err != nil {
		if os.IsNotExist(err) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to load data: %w", err)
	}

	if _, ok := v.sets[name]; !ok {
		return ErrCredentialsNotFound
	}
	delete(v.sets, name)

	if len(v.sets) == 0 {
		return os.Remove(e.filepath)
	}
	return e.save(v)
}

// Exists checks if a cookie set is stored under name
func (e *EncryptedFileStore) Exists(name string) bool {
	set, err := e.Retrieve(name)
	return err == nil && set != nil
}

func (e *EncryptedFileStore) load() (*vault, error) {
	content, err := os.ReadFile(e.filepath)
	if err != nil {
		return nil, err
	}

	var env fileEnvelope
	if err := json.Unmarshal(content, &env); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(env.Encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encrypted data: %w", err)
	}

	plaintext, err := decrypt(sealed, deriveKey(e.passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt data: %w", err)
	}

	sets := make(map[string]CookieSet)
	if err := json.Unmarshal(plaintext, &sets); err != nil {
		return nil, fmt.Errorf("failed to parse cookie sets: %w", err)
	}

	return &vault{salt: salt, sets: sets}, nil
}

func (e *EncryptedFileStore) save(v *vault) error {
	if len(v.salt) == 0 {
		v.salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, v.salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
	}

	plaintext, err := json.Marshal(v.sets)
	if err != nil {
		return fmt.Errorf("failed to marshal cookie sets: %w", err)
	}

	sealed, err := encrypt(plaintext, deriveKey(e.passphrase, v.salt))
	if err != nil {
		return fmt.Errorf("failed to encrypt data: %w", err)
	}

	content, err := json.MarshalIndent(fileEnvelope{
		Salt:      base64.StdEncoding.EncodeToString(v.salt),
		Encrypted: base64.StdEncoding.EncodeToString(sealed),
		Version:   1,
		Modified:  time.Now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal file data: %w", err)
	}

	tempFile := e.filepath + ".tmp"
	if err := os.WriteFile(tempFile, content, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return os.Rename(tempFile, e.filepath)
}

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, iterations, keySize, sha256.New)
}

func loadPassphrase(path string) (string, error) {
	if pass := os.Getenv(PassphraseEnv); pass != "" {
		return pass, nil
	}

	if content, err := os.ReadFile(path); err == nil && len(content) > 0 {
		return string(content), nil
	}

	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := base64.URLEncoding.EncodeToString(b)

	if err := os.WriteFile(path, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return passphrase, nil
}

// encrypt seals plaintext with AES-GCM, prefixing the nonce
func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
