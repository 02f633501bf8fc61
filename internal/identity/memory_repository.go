package identity

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryRepository builds an in-memory user store keyed by email, used in
// development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]User)}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Email]; exists {
		return errStoreDuplicate
	}
	r.users[user.Email] = user
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.ID == id {
			return normalized(user), nil
		}
	}
	return User{}, errStoreNotFound
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[email]
	if !ok {
		return User{}, errStoreNotFound
	}
	return normalized(user), nil
}

func (r *memoryRepository) List(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, normalized(user))
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (r *memoryRepository) Update(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, key, ok := r.byID(user.ID)
	if !ok {
		return errStoreNotFound
	}
	if user.Email != key {
		if _, taken := r.users[user.Email]; taken {
			return errStoreDuplicate
		}
		delete(r.users, key)
	}
	current.PersonalID = user.PersonalID
	current.Name = user.Name
	current.Email = user.Email
	current.Address = user.Address
	current.PhoneNumber = user.PhoneNumber
	current.Role = user.Role
	current.PasswordHash = user.PasswordHash
	current.UpdatedAt = user.UpdatedAt
	r.users[current.Email] = current
	return nil
}

func (r *memoryRepository) SetOTP(_ context.Context, id, code string, expiresAt time.Time) error {
	return r.mutate(id, func(u *User) {
		u.OTP = code
		u.OTPExpiresAt = expiresAt
	})
}

func (r *memoryRepository) MarkVerified(_ context.Context, id string) error {
	return r.mutate(id, func(u *User) {
		u.IsVerified = true
		u.OTP = ""
		u.OTPExpiresAt = time.Time{}
	})
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, key, ok := r.byID(id)
	if !ok {
		return errStoreNotFound
	}
	delete(r.users, key)
	return nil
}

func (r *memoryRepository) mutate(id string, fn func(*User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, key, ok := r.byID(id)
	if !ok {
		return errStoreNotFound
	}
	fn(&user)
	user.UpdatedAt = time.Now().UTC()
	r.users[key] = user
	return nil
}

// byID must be called with r.mu held.
func (r *memoryRepository) byID(id string) (User, string, bool) {
	for email, user := range r.users {
		if user.ID == id {
			return user, email, true
		}
	}
	return User{}, "", false
}

func normalized(user User) User {
	user.Role = NormalizeRole(string(user.Role))
	return user
}
