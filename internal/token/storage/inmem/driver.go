package inmem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
	"github.com/skybi/kv-server/internal/token"
)

const secretLength = 48

var secretCharset = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ01234567890.-#+*~")

// record is the representation of a token inside memdb.
// memdb indexes work on string and integer fields, so the UUID is stored in its string form.
type record struct {
	Hash         string
	ID           string
	Capabilities uint
	Expires      int64
}

func (rec *record) toToken() *token.Token {
	return &token.Token{
		ID:           uuid.MustParse(rec.ID),
		Hash:         rec.Hash,
		Capabilities: token.Capabilities(rec.Capabilities),
		Expires:      rec.Expires,
	}
}

var dbSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		"tokens": {
			Name: "tokens",
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:         "id",
					Unique:       true,
					AllowMissing: false,
					Indexer:      &memdb.StringFieldIndex{Field: "Hash"},
				},
				"tokenID": {
					Name:         "tokenID",
					Unique:       true,
					AllowMissing: false,
					Indexer:      &memdb.StringFieldIndex{Field: "ID"},
				},
				"expires": {
					Name:         "expires",
					Unique:       false,
					AllowMissing: false,
					Indexer:      &memdb.IntFieldIndex{Field: "Expires"},
				},
			},
		},
	},
}

// Driver represents the in-memory access token storage driver built using hashicorp/go-memdb
type Driver struct {
	db *memdb.MemDB
}

var _ token.Storage = (*Driver)(nil)

// New creates a new empty in-memory token storage driver
func New() (*Driver, error) {
	db, err := memdb.NewMemDB(dbSchema)
	if err != nil {
		return nil, err
	}
	return &Driver{db}, nil
}

// GetByRawToken retrieves a token by its raw (prior hashing) secret
func (driver *Driver) GetByRawToken(_ context.Context, rawToken string) (*token.Token, error) {
	hash := hashSecret(rawToken)

	txn := driver.db.Txn(false)
	obj, err := txn.First("tokens", "id", hash)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}

	return obj.(*record).toToken(), nil
}

// GetByID retrieves a token by its ID
func (driver *Driver) GetByID(_ context.Context, id uuid.UUID) (*token.Token, error) {
	txn := driver.db.Txn(false)
	obj, err := txn.First("tokens", "tokenID", id.String())
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}

	return obj.(*record).toToken(), nil
}

// Create creates a new token and returns it together with its raw secret.
// An expiry of 0 creates a token that never expires.
func (driver *Driver) Create(ctx context.Context, capabilities token.Capabilities, expires int64) (*token.Token, string, error) {
	rawToken := randomSecret(secretLength)
	obj, err := driver.CreateStatic(ctx, rawToken, capabilities, expires)
	if err != nil {
		return nil, "", err
	}
	return obj, rawToken, nil
}

// CreateStatic creates a new token whose raw secret is provided by the caller
func (driver *Driver) CreateStatic(_ context.Context, rawToken string, capabilities token.Capabilities, expires int64) (*token.Token, error) {
	rec := &record{
		Hash:         hashSecret(rawToken),
		ID:           uuid.NewString(),
		Capabilities: uint(capabilities),
		Expires:      expires,
	}

	txn := driver.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert("tokens", rec); err != nil {
		return nil, err
	}
	txn.Commit()

	return rec.toToken(), nil
}

// DeleteByID deletes a token by its ID
func (driver *Driver) DeleteByID(_ context.Context, id uuid.UUID) error {
	txn := driver.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll("tokens", "tokenID", id.String()); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// DeleteExpired deletes all tokens that are expired and returns their amount.
// Tokens with a zero expiry never expire and are skipped.
func (driver *Driver) DeleteExpired(_ context.Context) (int, error) {
	txn := driver.db.Txn(true)
	defer txn.Abort()

	it, err := txn.LowerBound("tokens", "expires", 0)
	if err != nil {
		return 0, err
	}

	now := time.Now().Unix()
	deleted := 0
	for obj := it.Next(); obj != nil; obj = it.Next() {
		rec := obj.(*record)
		if rec.Expires == 0 {
			continue
		}
		if rec.Expires > now {
			break
		}
		if err := txn.Delete("tokens", rec); err != nil {
			return 0, err
		}
		deleted++
	}

	txn.Commit()
	return deleted, nil
}

func randomSecret(length int) string {
	buf := make([]rune, length)
	for i := range buf {
		buf[i] = secretCharset[rand.Intn(len(secretCharset))]
	}
	return string(buf)
}

func hashSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
