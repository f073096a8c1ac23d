package user

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Roger-dornelles/pizzeria-project/internal/apperror"
	"github.com/Roger-dornelles/pizzeria-project/internal/upload"
)

// fakeStore is an in-memory Store with a unique email index.
type fakeStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*User
	// raceEmail makes EmailExists miss a duplicate so Create hits the unique index.
	raceEmail bool
	// productFiles stands in for the images of each user's products.
	productFiles map[int64][]upload.UploadedFile
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[int64]*User), productFiles: make(map[int64][]upload.UploadedFile)}
}

func (f *fakeStore) emailTaken(email string, except int64) bool {
	for _, u := range f.users {
		if u.Email == email && u.ID != except {
			return true
		}
	}
	return false
}

func (f *fakeStore) Create(_ context.Context, name, email, hash string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.emailTaken(email, 0) {
		return nil, ErrAlreadyExists
	}
	f.nextID++
	u := &User{ID: f.nextID, Name: name, Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	f.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) EmailExists(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.raceEmail {
		return false, nil
	}
	return f.emailTaken(email, 0), nil
}

func (f *fakeStore) Update(_ context.Context, u *User) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.users[u.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if f.emailTaken(u.Email, u.ID) {
		return nil, ErrAlreadyExists
	}
	cp := *u
	cp.CreatedAt = existing.CreatedAt
	f.users[u.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) ([]upload.UploadedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return nil, ErrNotFound
	}
	delete(f.users, id)
	files := f.productFiles[id]
	delete(f.productFiles, id)
	return files, nil
}

// fakeImages records what the service asks to discard.
type fakeImages struct {
	mu        sync.Mutex
	discarded []upload.UploadedFile
}

func (f *fakeImages) Discard(_ context.Context, files []upload.UploadedFile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discarded = append(f.discarded, files...)
}

func newTestService() (*Service, *fakeStore) {
	svc, store, _ := newTestServiceWithImages()
	return svc, store
}

func newTestServiceWithImages() (*Service, *fakeStore, *fakeImages) {
	store := newFakeStore()
	images := &fakeImages{}
	svc := NewService(store, images)
	svc.cost = bcrypt.MinCost
	return svc, store, images
}

func strPtr(s string) *string { return &s }

func messageOf(t *testing.T, err error) string {
	t.Helper()
	e, ok := apperror.As(err)
	require.True(t, ok, "expected apperror, got %v", err)
	return e.Message
}

func TestCreate_HashesPassword(t *testing.T) {
	svc, _ := newTestService()

	u, err := svc.Create(context.Background(), CreateUserInput{Name: " Ana ", Email: "ana@mail.com", Password: "secret123"})
	require.NoError(t, err)

	assert.Equal(t, "Ana", u.Name)
	assert.NotEqual(t, "secret123", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")))
}

func TestCreate_HashNeverSerialized(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.Create(context.Background(), CreateUserInput{Name: "Ana", Email: "ana@mail.com", Password: "secret123"})
	require.NoError(t, err)

	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(b), u.PasswordHash)
	assert.NotContains(t, string(b), "password")
}

func TestCreate_DuplicateEmail(t *testing.T) {
	svc, store := newTestService()
	in := CreateUserInput{Name: "Ana", Email: "ana@mail.com", Password: "secret123"}
	_, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), in)
	require.ErrorIs(t, err, apperror.Conflict)
	assert.Equal(t, "Email já cadastrado.", messageOf(t, err))

	// the store's unique index catches what the pre-check misses
	store.raceEmail = true
	_, err = svc.Create(context.Background(), in)
	require.ErrorIs(t, err, apperror.Conflict)
}

func TestCreate_InvalidInput(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateUserInput{Name: "Ana", Email: "not-an-email", Password: "secret123"})
	assert.ErrorIs(t, err, apperror.InvalidInput)

	_, err = svc.Create(context.Background(), CreateUserInput{Email: "ana@mail.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperror.InvalidInput)
}

func TestGetByID_NotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetByID(context.Background(), 99)
	require.ErrorIs(t, err, apperror.NotFound)
	assert.Equal(t, "Usuario não cadastrado.", messageOf(t, err))
}

func TestUpdate_MergesProvidedFields(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.Create(context.Background(), CreateUserInput{Name: "Ana", Email: "ana@mail.com", Password: "secret123"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), u.ID, UpdateUserInput{Name: strPtr("Ana Souza")})
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", updated.Name)
	assert.Equal(t, "ana@mail.com", updated.Email)
	assert.Equal(t, u.PasswordHash, updated.PasswordHash)
	assert.Equal(t, u.CreatedAt, updated.CreatedAt)

	updated, err = svc.Update(context.Background(), u.ID, UpdateUserInput{Password: strPtr("another1")})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("another1")))
	assert.Equal(t, "Ana Souza", updated.Name)
}

func TestUpdate_Errors(t *testing.T) {
	svc, _ := newTestService()
	ana, err := svc.Create(context.Background(), CreateUserInput{Name: "Ana", Email: "ana@mail.com", Password: "secret123"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateUserInput{Name: "Bob", Email: "bob@mail.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), 99, UpdateUserInput{Name: strPtr("X")})
	assert.ErrorIs(t, err, apperror.NotFound)

	_, err = svc.Update(context.Background(), ana.ID, UpdateUserInput{Email: strPtr("bob@mail.com")})
	assert.ErrorIs(t, err, apperror.Conflict)

	_, err = svc.Update(context.Background(), ana.ID, UpdateUserInput{Name: strPtr("")})
	assert.ErrorIs(t, err, apperror.InvalidInput)

	_, err = svc.Update(context.Background(), ana.ID, UpdateUserInput{Name: strPtr("   ")})
	assert.ErrorIs(t, err, apperror.InvalidInput)

	_, err = svc.Update(context.Background(), ana.ID, UpdateUserInput{Email: strPtr(" bob@mail.com ")})
	assert.ErrorIs(t, err, apperror.Conflict)

	u, err := svc.Update(context.Background(), ana.ID, UpdateUserInput{Email: strPtr("  ana.s@mail.com ")})
	require.NoError(t, err)
	assert.Equal(t, "ana.s@mail.com", u.Email)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.Create(context.Background(), CreateUserInput{Name: "Ana", Email: "ana@mail.com", Password: "secret123"})
	require.NoError(t, err)

	msg, err := svc.Delete(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Usuario excluido com sucesso.", msg)

	_, err = svc.Delete(context.Background(), u.ID)
	assert.ErrorIs(t, err, apperror.NotFound)
}

func TestDelete_DiscardsProductImages(t *testing.T) {
	svc, store, images := newTestServiceWithImages()
	u, err := svc.Create(context.Background(), CreateUserInput{Name: "Ana", Email: "ana@mail.com", Password: "secret123"})
	require.NoError(t, err)

	owned := []upload.UploadedFile{
		{Name: "a.png", Path: "products/a.png"},
		{Name: "b.png", Path: "products/b.png"},
	}
	store.productFiles[u.ID] = owned

	_, err = svc.Delete(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, owned, images.discarded)

	_, err = svc.Delete(context.Background(), u.ID)
	require.ErrorIs(t, err, apperror.NotFound)
	assert.Len(t, images.discarded, 2)
}
