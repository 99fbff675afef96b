package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/quantarax/sigtool/internal/textenc"
)

const (
	// PublicKeyFile and SecretKeyFile are the default key file names
	PublicKeyFile = "key.pub"
	SecretKeyFile = "key.sec"

	publicKeyPerm = 0o644
	secretKeyPerm = 0o600
)

// KeyPaths names the two files that hold a keypair.
type KeyPaths struct {
	Public string
	Secret string
}

// DefaultKeyPaths returns key.pub / key.sec inside dir.
func DefaultKeyPaths(dir string) KeyPaths {
	return KeyPaths{
		Public: filepath.Join(dir, PublicKeyFile),
		Secret: filepath.Join(dir, SecretKeyFile),
	}
}

// GenerateResult describes a freshly written keypair. It never carries the
// secret key.
type GenerateResult struct {
	PublicKey   ed25519.PublicKey
	Fingerprint string
	Paths       KeyPaths
	Forced      bool
}

// Manager generates, persists and loads the signing keypair.
type Manager struct {
	paths KeyPaths
	enc   textenc.Encoding
	rng   io.Reader
}

// NewManager creates a Manager writing keys to paths in encoding enc.
func NewManager(paths KeyPaths, enc textenc.Encoding) *Manager {
	return &Manager{paths: paths, enc: enc, rng: rand.Reader}
}

// Paths returns the managed key file locations.
func (m *Manager) Paths() KeyPaths { return m.paths }

// Encoding returns the textual encoding used for key files.
func (m *Manager) Encoding() textenc.Encoding { return m.enc }

// Existing returns the key files that are already present.
func (m *Manager) Existing() ([]string, error) {
	var found []string
	for _, p := range []string{m.paths.Public, m.paths.Secret} {
		_, err := os.Stat(p)
		switch {
		case err == nil:
			found = append(found, p)
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to check key file %s: %w", p, err)
		}
	}
	return found, nil
}

// Generate creates a new keypair and writes both key files.
//
// Unless force is set, Generate first checks both targets and returns
// ErrPreconditionFailed if either exists. The check happens before any key
// material is generated, and nothing is written in that case. Non-forced
// writes also use exclusive creation so a file created concurrently is
// never clobbered.
//
// The public key is written first, then the secret key. A failure is
// returned immediately; a public key already written is not rolled back.
// The secret key and its encoded form are zeroed before Generate returns.
//
// Parameters:
//   - force: overwrite existing key files
//
// Returns:
//   - GenerateResult with the public key, its fingerprint and the paths
//   - error wrapping ErrPreconditionFailed, or an I/O error
func (m *Manager) Generate(force bool) (*GenerateResult, error) {
	if !force {
		existing, err := m.Existing()
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrPreconditionFailed, existing[0])
		}
	}

	kp, err := generateEd25519(m.rng)
	if err != nil {
		return nil, err
	}
	defer kp.Destroy()

	pubLine := m.enc.EncodeLine(kp.PublicKey)
	if err := writeKeyFile(m.paths.Public, pubLine, publicKeyPerm, force); err != nil {
		return nil, fmt.Errorf("failed to write public key: %w", err)
	}

	secLine := m.enc.EncodeLine(kp.PrivateKey)
	defer Zero(secLine)
	if err := writeKeyFile(m.paths.Secret, secLine, secretKeyPerm, force); err != nil {
		return nil, fmt.Errorf("failed to write secret key: %w", err)
	}

	return &GenerateResult{
		PublicKey:   kp.PublicKey,
		Fingerprint: ComputeFingerprint(kp.PublicKey),
		Paths:       m.paths,
		Forced:      force,
	}, nil
}

// LoadPublicKey reads the managed public key.
func (m *Manager) LoadPublicKey() (ed25519.PublicKey, error) {
	return LoadPublicKey(m.paths.Public, m.enc)
}

// LoadKeyPair reads both key files and confirms they form a pair. The
// caller owns the result and should Destroy it when done.
func (m *Manager) LoadKeyPair() (*Ed25519KeyPair, error) {
	pub, err := LoadPublicKey(m.paths.Public, m.enc)
	if err != nil {
		return nil, err
	}
	priv, err := LoadSecretKey(m.paths.Secret, m.enc)
	if err != nil {
		return nil, err
	}

	kp := &Ed25519KeyPair{PublicKey: pub, PrivateKey: priv}
	if err := kp.SelfCheck(); err != nil {
		kp.Destroy()
		return nil, err
	}
	return kp, nil
}

// LoadPublicKey reads and decodes a public key file.
func LoadPublicKey(path string, enc textenc.Encoding) (ed25519.PublicKey, error) {
	b, err := readKeyFile(path, enc, ed25519.PublicKeySize)
	if err != nil {
		return nil, err
	}
	return ed25519.PublicKey(b), nil
}

// LoadSecretKey reads and decodes a secret key file.
func LoadSecretKey(path string, enc textenc.Encoding) (ed25519.PrivateKey, error) {
	b, err := readKeyFile(path, enc, ed25519.PrivateKeySize)
	if err != nil {
		return nil, err
	}
	return ed25519.PrivateKey(b), nil
}

func readKeyFile(path string, enc textenc.Encoding, size int) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // caller-supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	defer Zero(data)

	b, err := enc.DecodeLine(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrKeyFormat, path, err)
	}
	if len(b) != size {
		Zero(b)
		return nil, fmt.Errorf("%w: %s: expected %d bytes, got %d", ErrKeyFormat, path, size, len(b))
	}
	return b, nil
}

// writeKeyFile writes data to path. Without overwrite the file must not
// exist yet. With overwrite the data goes to a temporary file in the same
// directory which then replaces path, so readers never see a half-written
// key.
func writeKeyFile(path string, data []byte, perm os.FileMode, overwrite bool) (retErr error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	if !overwrite {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm) //nolint:gosec // caller-supplied path
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrPreconditionFailed, path)
		}
		if err != nil {
			return err
		}
		return writeAndClose(f, data)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if retErr != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := writeAndClose(tmp, data); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func writeAndClose(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
