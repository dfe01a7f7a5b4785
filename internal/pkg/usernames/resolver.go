// Package usernames resolves the display name of a storage owner from
// the relational user store.
package usernames

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	sqlmysql "github.com/go-sql-driver/mysql"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	connectTimeout = 10 * time.Second
	tlsProfile     = "reciboscan-ca"
)

var (
	// ErrNotConfigured marks a resolver running without relational
	// settings. Lookups degrade to no username.
	ErrNotConfigured = errors.New("username store not configured")

	// ErrNotFound is returned when the owner has no user row or the row
	// carries a NULL username.
	ErrNotFound = errors.New("username not found")
)

// Config carries the optional relational store settings. An incomplete
// group disables lookups instead of failing startup.
type Config struct {
	Host     string
	User     string
	Password string
	Database string
	// CACertPath enables TLS pinned to this CA when set.
	CACertPath string
}

// Complete reports whether every connection setting is present.
func (c Config) Complete() bool {
	return c.Host != "" && c.User != "" && c.Password != "" && c.Database != ""
}

// Resolver looks up usernames over short-lived connections: one open,
// one query, one close per lookup. Events arrive too rarely to keep a
// pool warm.
type Resolver struct {
	dsn string
}

// NewResolver prepares the DSN once at startup. A missing or unusable CA
// file disables the resolver entirely rather than silently dropping to
// an unencrypted connection.
func NewResolver(cfg Config) *Resolver {
	if !cfg.Complete() {
		log.Warn("[Usernames] Relational store not configured, documents will carry no username")
		return &Resolver{}
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:3306)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Database, connectTimeout)

	if cfg.CACertPath != "" {
		if err := registerCA(cfg.CACertPath); err != nil {
			log.Errorf("[Usernames] %v, username lookups disabled", err)
			return &Resolver{}
		}
		dsn += "&tls=" + tlsProfile
	}

	return &Resolver{dsn: dsn}
}

func registerCA(path string) error {
	pemData, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read CA certificate %s: %w", path, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemData) {
		return fmt.Errorf("CA certificate %s contains no usable PEM data", path)
	}
	return sqlmysql.RegisterTLSConfig(tlsProfile, &tls.Config{RootCAs: pool})
}

// Lookup fetches the username for ownerID. The connection lives only for
// the duration of this call.
func (r *Resolver) Lookup(ctx context.Context, ownerID string) (string, error) {
	if r.dsn == "" {
		return "", ErrNotConfigured
	}

	db, err := gorm.Open(mysql.Open(r.dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return "", fmt.Errorf("connect to username store: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return "", fmt.Errorf("access connection pool: %w", err)
	}
	defer sqlDB.Close()

	var username sql.NullString
	row := db.WithContext(ctx).Table("users").Select("username").Where("id = ?", ownerID).Row()
	if err := row.Scan(&username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w for owner %s", ErrNotFound, ownerID)
		}
		return "", fmt.Errorf("query username for owner %s: %w", ownerID, err)
	}
	if !username.Valid {
		return "", fmt.Errorf("%w for owner %s", ErrNotFound, ownerID)
	}
	return username.String, nil
}
