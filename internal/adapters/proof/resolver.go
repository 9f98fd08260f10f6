package proof

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/crypto/blake2b"

	domain "achievements/internal/domain/achievement"
)

// DefaultMaxBytes is the largest accepted proof file (10 MB).
const DefaultMaxBytes int64 = 10 * 1000 * 1000

// AllowedExtensions lists the accepted proof file types.
var AllowedExtensions = []string{".pdf", ".jpg", ".jpeg", ".png", ".doc", ".docx"}

// ErrInvalidName is returned by Path for names this resolver never issues.
var ErrInvalidName = errors.New("invalid proof file name")

// storedName matches issued names: 32 hex digits plus an allowed extension.
var storedName = regexp.MustCompile(`^[0-9a-f]{32}\.(pdf|jpg|jpeg|png|doc|docx)$`)

// LocalResolver stores proof files under a directory and names them by content hash.
// Identical uploads resolve to the same URL.
type LocalResolver struct {
	dir       string
	urlPrefix string
	maxBytes  int64
}

// NewLocalResolver creates a resolver writing into dir and issuing URLs under urlPrefix.
// PRE: dir is writable; urlPrefix has no trailing slash (e.g. "/uploads")
// POST: dir exists
func NewLocalResolver(dir, urlPrefix string, maxBytes int64) (*LocalResolver, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalResolver{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/"), maxBytes: maxBytes}, nil
}

// MaxBytes returns the size limit.
func (r *LocalResolver) MaxBytes() int64 {
	return r.maxBytes
}

// Resolve stores content and returns its URL. created is false when identical
// content was already stored under the same name.
// PRE: filename is the client-supplied name; size is the declared size or -1 if unknown
// POST: Returns *domain.ValidationError (field proof) for a disallowed type or an
// oversized file; nothing is left on disk on any error
func (r *LocalResolver) Resolve(ctx context.Context, filename string, size int64, content io.Reader) (url string, created bool, err error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtension(ext) {
		return "", false, rejection(fmt.Sprintf("Proof must be one of: %s.", strings.Join(AllowedExtensions, ", ")))
	}
	if size > r.maxBytes {
		return "", false, r.tooLarge()
	}

	tmp, err := os.CreateTemp(r.dir, "upload-*")
	if err != nil {
		return "", false, fmt.Errorf("create temp proof: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	hash, err := blake2b.New256(nil)
	if err != nil {
		tmp.Close()
		return "", false, err
	}
	written, err := io.Copy(io.MultiWriter(tmp, hash), io.LimitReader(content, r.maxBytes+1))
	closeErr := tmp.Close()
	if err != nil {
		return "", false, fmt.Errorf("write proof: %w", err)
	}
	if closeErr != nil {
		return "", false, fmt.Errorf("close proof: %w", closeErr)
	}
	if written > r.maxBytes {
		return "", false, r.tooLarge()
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	name := hex.EncodeToString(hash.Sum(nil))[:32] + ext
	target := filepath.Join(r.dir, name)
	if _, err := os.Stat(target); err == nil {
		slog.Info("proof_event", "event", "proof_reused", "name", name)
		return r.urlPrefix + "/" + name, false, nil
	}
	if err := os.Rename(tmpName, target); err != nil {
		return "", false, fmt.Errorf("store proof: %w", err)
	}

	slog.Info("proof_event", "event", "proof_stored", "name", name, "size", humanize.Bytes(uint64(written)))
	return r.urlPrefix + "/" + name, true, nil
}

// Path maps an issued name back to its file.
// PRE: none
// POST: Returns ErrInvalidName for anything not issued by Resolve
func (r *LocalResolver) Path(name string) (string, error) {
	if !storedName.MatchString(name) {
		return "", ErrInvalidName
	}
	return filepath.Join(r.dir, name), nil
}

// Discard removes a file Resolve created for a record that was never stored.
// PRE: url was returned by Resolve with created true
// POST: Returns ErrInvalidName for a URL this resolver never issues; an
// already missing file is not an error
func (r *LocalResolver) Discard(url string) error {
	name, ok := strings.CutPrefix(url, r.urlPrefix+"/")
	if !ok {
		return ErrInvalidName
	}
	path, err := r.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("discard proof: %w", err)
	}
	slog.Info("proof_event", "event", "proof_discarded", "name", name)
	return nil
}

func (r *LocalResolver) tooLarge() error {
	return rejection(fmt.Sprintf("Proof must be %s or smaller.", humanize.Bytes(uint64(r.maxBytes))))
}

func rejection(detail string) error {
	return &domain.ValidationError{
		Kind:   domain.KindInvalidField,
		Fields: []string{domain.FieldProof},
		Detail: detail,
	}
}

func allowedExtension(ext string) bool {
	for _, a := range AllowedExtensions {
		if a == ext {
			return true
		}
	}
	return false
}
