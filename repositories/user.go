//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"whisperline/domain"
	"whisperline/errors"
)

type IUserRepository interface {
	CreateUser(email, fullName, hashedPassword string) (User, error)
	GetUserByEmail(email string) (User, error)
	GetUserByID(id string) (User, error)
	ListUsersExcept(id string) ([]User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// User is the repository-level representation of an account, including
// the password hash the domain layer never sees.
type User struct {
	ID           string
	Email        string
	FullName     string
	Avatar       string
	PasswordHash string
	CreatedAt    time.Time
}

type diskUser struct {
	ID           string `cbor:"id"`
	Email        string `cbor:"email"`
	FullName     string `cbor:"full_name"`
	Avatar       string `cbor:"avatar,omitempty"`
	PasswordHash string `cbor:"password_hash"`
	CreatedAt    int64  `cbor:"created_at"`
}

func userKey(id string) []byte     { return []byte("user:" + id) }
func emailKey(email string) []byte { return []byte("useremail:" + email) }

// CreateUser persists a new account. The email index doubles as the
// uniqueness check: an existing index entry means the address is taken.
func (u *UserRepository) CreateUser(email, fullName, hashedPassword string) (User, error) {
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}

	data, err := cbor.Marshal(fromUser(user))
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey(email)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(userKey(user.ID), data); err != nil {
			return err
		}
		return txn.Set(emailKey(email), []byte(user.ID))
	})
	if err != nil {
		if stderrors.Is(err, errors.ErrUserAlreadyExists) {
			return User{}, err
		}
		return User{}, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	return user, nil
}

func (u *UserRepository) GetUserByEmail(email string) (User, error) {
	var id string
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			id = string(value)
			return nil
		})
	})
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return User{}, errors.ErrNotFound
		}
		return User{}, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	return u.GetUserByID(id)
}

func (u *UserRepository) GetUserByID(id string) (User, error) {
	var disk diskUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return cbor.Unmarshal(value, &disk)
		})
	})
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return User{}, errors.ErrNotFound
		}
		return User{}, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	return toUser(disk), nil
}

// ListUsersExcept returns every known account except the given one.
// Backs the contact sidebar, which always excludes the viewer.
func (u *UserRepository) ListUsersExcept(id string) ([]User, error) {
	prefix := []byte("user:")

	var users []User
	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var disk diskUser
				if err := cbor.Unmarshal(value, &disk); err != nil {
					return err
				}
				if disk.ID != id {
					users = append(users, toUser(disk))
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	return users, nil
}

// Domain exposes the public view of the account, without credentials.
func (u User) Domain() domain.User {
	return domain.User{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

func fromUser(user User) diskUser {
	return diskUser{
		ID:           user.ID,
		Email:        user.Email,
		FullName:     user.FullName,
		Avatar:       user.Avatar,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt.UnixNano(),
	}
}

func toUser(disk diskUser) User {
	return User{
		ID:           disk.ID,
		Email:        disk.Email,
		FullName:     disk.FullName,
		Avatar:       disk.Avatar,
		PasswordHash: disk.PasswordHash,
		CreatedAt:    time.Unix(0, disk.CreatedAt).UTC(),
	}
}
