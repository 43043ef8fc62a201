package users

import "context"

// UserRepo persists identities. Create fails with errors.ErrAlreadyExists when
// the email is taken; lookups fail with errors.ErrNotFound.
type UserRepo interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, offset, limit int) ([]*User, error)
}
