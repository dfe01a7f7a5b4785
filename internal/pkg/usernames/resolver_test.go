package usernames

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigComplete(t *testing.T) {
	full := Config{Host: "db", User: "u", Password: "p", Database: "receipts"}
	if !full.Complete() {
		t.Fatal("expected full config to be complete")
	}

	partials := []Config{
		{},
		{Host: "db"},
		{Host: "db", User: "u", Password: "p"},
		{User: "u", Password: "p", Database: "receipts"},
	}
	for _, cfg := range partials {
		if cfg.Complete() {
			t.Fatalf("expected %+v to be incomplete", cfg)
		}
	}
}

func TestLookupNotConfigured(t *testing.T) {
	r := NewResolver(Config{Host: "db"})

	_, err := r.Lookup(context.Background(), "user123")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Lookup error = %v, want ErrNotConfigured", err)
	}
}

func TestNewResolverDSN(t *testing.T) {
	r := NewResolver(Config{Host: "db.internal", User: "svc", Password: "pw", Database: "receipts"})

	for _, want := range []string{
		"svc:pw@tcp(db.internal:3306)/receipts",
		"timeout=10s",
		"parseTime=True",
	} {
		if !strings.Contains(r.dsn, want) {
			t.Errorf("dsn %q missing %q", r.dsn, want)
		}
	}
	if strings.Contains(r.dsn, "tls=") {
		t.Errorf("dsn %q must not request TLS without a CA file", r.dsn)
	}
}

func TestNewResolverMissingCADisablesLookups(t *testing.T) {
	cfg := Config{
		Host: "db", User: "u", Password: "p", Database: "receipts",
		CACertPath: filepath.Join(t.TempDir(), "does-not-exist.pem"),
	}

	r := NewResolver(cfg)
	if _, err := r.Lookup(context.Background(), "user123"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Lookup error = %v, want ErrNotConfigured when the CA file is missing", err)
	}
}

func TestNewResolverJunkCADisablesLookups(t *testing.T) {
	caPath := filepath.Join(t.TempDir(), "junk.pem")
	if err := os.WriteFile(caPath, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := Config{Host: "db", User: "u", Password: "p", Database: "receipts", CACertPath: caPath}
	r := NewResolver(cfg)
	if r.dsn != "" {
		t.Fatalf("resolver stayed enabled with an unusable CA file, dsn=%q", r.dsn)
	}
}

func TestNewResolverWithCA(t *testing.T) {
	caPath := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(caPath, selfSignedCAPEM(t), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := Config{Host: "db", User: "u", Password: "p", Database: "receipts", CACertPath: caPath}
	r := NewResolver(cfg)
	if !strings.Contains(r.dsn, "&tls="+tlsProfile) {
		t.Fatalf("dsn %q does not request the registered TLS profile", r.dsn)
	}
}

func selfSignedCAPEM(t *testing.T) []byte {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	tmpl := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test-ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}
