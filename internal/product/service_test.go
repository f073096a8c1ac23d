package product

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roger-dornelles/pizzeria-project/internal/apperror"
	"github.com/Roger-dornelles/pizzeria-project/internal/upload"
)

// memStorage is an in-memory storage.Storage.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	failAll bool
}

func (m *memStorage) Upload(_ context.Context, _, path string, body []byte, _ string) error {
	if m.failAll {
		return errors.New("bucket unreachable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = body
	return nil
}

func (m *memStorage) PublicURL(bucket, path string) string {
	return "http://cdn.test/" + bucket + "/" + path
}

func (m *memStorage) Remove(_ context.Context, _ string, paths []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range paths {
		delete(m.objects, p)
	}
	return nil
}

func (m *memStorage) paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for p := range m.objects {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// fakeStore is an in-memory Store with a unique name index.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	products  map[int64]*Product
	createErr error
	// skipNameCheck makes ExistsByName miss duplicates so the unique index has to catch them.
	skipNameCheck bool
	getCalls      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{products: make(map[int64]*Product)}
}

func (f *fakeStore) nameTaken(name string, except int64) bool {
	for _, p := range f.products {
		if p.Name == name && p.ID != except {
			return true
		}
	}
	return false
}

func (f *fakeStore) ExistsByName(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.skipNameCheck {
		return false, nil
	}
	return f.nameTaken(name, 0), nil
}

func (f *fakeStore) Create(_ context.Context, p *Product) (*Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.nameTaken(p.Name, 0) {
		return nil, ErrAlreadyExists
	}
	f.nextID++
	cp := *p
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	f.products[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	p, ok := f.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) Update(_ context.Context, p *Product) (*Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[p.ID]; !ok {
		return nil, ErrNotFound
	}
	if f.nameTaken(p.Name, p.ID) {
		return nil, ErrAlreadyExists
	}
	cp := *p
	f.products[p.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID int64) ([]Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Product{}
	for _, p := range f.products {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) Delete(_ context.Context, id, userID int64) (*Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || p.UserID != userID {
		return nil, ErrNotFound
	}
	delete(f.products, id)
	return p, nil
}

type fixture struct {
	svc     *Service
	store   *fakeStore
	storage *memStorage
}

func newFixture() *fixture {
	store := newFakeStore()
	storage := &memStorage{objects: make(map[string][]byte)}
	svc := NewService(store, upload.NewService(storage, "uploads"))
	return &fixture{svc: svc, store: store, storage: storage}
}

func validInput(userID, name string) CreateProductInput {
	return CreateProductInput{UserID: userID, Name: name, Description: "Molho de tomate e mussarela", Value: "30"}
}

func images(names ...string) []upload.File {
	files := make([]upload.File, 0, len(names))
	for _, n := range names {
		files = append(files, upload.File{Name: n, ContentType: "image/png", Data: []byte(n)})
	}
	return files
}

func messageOf(t *testing.T, err error) string {
	t.Helper()
	e, ok := apperror.As(err)
	require.True(t, ok, "expected apperror, got %v", err)
	return e.Message
}

func TestCreate_FormatsValueAndStoresFiles(t *testing.T) {
	fx := newFixture()

	p, err := fx.svc.Create(context.Background(), validInput("7", "Margherita"), images("a.png", "b.png"))
	require.NoError(t, err)

	assert.Equal(t, int64(7), p.UserID)
	assert.Equal(t, "R$\u00a030,00", p.Value)
	require.Len(t, p.Files, 2)
	for _, f := range p.Files {
		assert.True(t, strings.HasPrefix(f.Path, Folder+"/"), f.Path)
		assert.Equal(t, "http://cdn.test/uploads/"+f.Path, f.URL)
	}
	assert.Len(t, fx.storage.paths(), 2)
}

func TestCreate_NoFilesYieldsEmptyList(t *testing.T) {
	fx := newFixture()

	p, err := fx.svc.Create(context.Background(), validInput("7", "Margherita"), nil)
	require.NoError(t, err)
	assert.NotNil(t, p.Files)
	assert.Empty(t, p.Files)
}

func TestCreate_RequiresUser(t *testing.T) {
	fx := newFixture()

	for _, id := range []string{"", "0", "abc"} {
		_, err := fx.svc.Create(context.Background(), validInput(id, "Margherita"), nil)
		require.ErrorIs(t, err, apperror.Unauthorized)
		assert.Equal(t, "Usuario sem permissão para adicionar um produto", messageOf(t, err))
	}
}

func TestCreate_DuplicateName(t *testing.T) {
	fx := newFixture()
	_, err := fx.svc.Create(context.Background(), validInput("7", "Margherita"), nil)
	require.NoError(t, err)

	other := CreateProductInput{UserID: "8", Name: "Margherita", Description: "Outra", Value: "99"}
	_, err = fx.svc.Create(context.Background(), other, images("a.png"))
	require.ErrorIs(t, err, apperror.Conflict)
	assert.Equal(t, "Produto já cadastrado com este nome", messageOf(t, err))
	assert.Empty(t, fx.storage.paths(), "pre-check must fail before uploading")
}

func TestCreate_UniqueIndexRaceRemovesUploads(t *testing.T) {
	fx := newFixture()
	_, err := fx.svc.Create(context.Background(), validInput("7", "Margherita"), nil)
	require.NoError(t, err)

	fx.store.skipNameCheck = true
	_, err = fx.svc.Create(context.Background(), validInput("8", "Margherita"), images("a.png"))
	require.ErrorIs(t, err, apperror.Conflict)
	assert.Empty(t, fx.storage.paths())
}

func TestCreate_StoreFailureRemovesUploads(t *testing.T) {
	fx := newFixture()
	fx.store.createErr = errors.New("connection reset")

	_, err := fx.svc.Create(context.Background(), validInput("7", "Margherita"), images("a.png", "b.png"))
	require.Error(t, err)
	assert.Empty(t, fx.storage.paths())
}

func TestCreate_UploadFailure(t *testing.T) {
	fx := newFixture()
	fx.storage.failAll = true

	_, err := fx.svc.Create(context.Background(), validInput("7", "Margherita"), images("a.png"))
	require.ErrorIs(t, err, apperror.DataError)

	products, err := fx.svc.ListForUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestCreate_InvalidFields(t *testing.T) {
	fx := newFixture()

	cases := []struct {
		name string
		in   CreateProductInput
		kind apperror.Kind
		msg  string
	}{
		{"no name", CreateProductInput{UserID: "7", Description: "d", Value: "1"}, apperror.InvalidInput, "Nome do produto é Obrigatorio."},
		{"no description", CreateProductInput{UserID: "7", Name: "n", Value: "1"}, apperror.InvalidInput, "Produto deve conter uma Descrição."},
		{"no value", CreateProductInput{UserID: "7", Name: "n", Description: "d"}, apperror.InvalidInput, "Valor obrigatorio"},
		{"bad value", CreateProductInput{UserID: "7", Name: "n", Description: "d", Value: "trinta"}, apperror.DataError, "Ocorreu um erro no valor do produto"},
		{"value too large", CreateProductInput{UserID: "7", Name: "n", Description: "d", Value: "10000000"}, apperror.DataError, "Ocorreu um erro no valor do produto"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.svc.Create(context.Background(), tc.in, nil)
			require.ErrorIs(t, err, tc.kind)
			assert.Equal(t, tc.msg, messageOf(t, err))
		})
	}

	long := validInput("7", strings.Repeat("x", 101))
	_, err := fx.svc.Create(context.Background(), long, nil)
	assert.ErrorIs(t, err, apperror.InvalidInput)
}

func TestListForUser_RoundTrip(t *testing.T) {
	fx := newFixture()
	created, err := fx.svc.Create(context.Background(), validInput("7", "Margherita"), nil)
	require.NoError(t, err)
	_, err = fx.svc.Create(context.Background(), validInput("8", "Calabresa"), nil)
	require.NoError(t, err)

	products, err := fx.svc.ListForUser(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(7), products[0].UserID)
	assert.Equal(t, created.Value, products[0].Value)

	none, err := fx.svc.ListForUser(context.Background(), 99)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func strPtr(s string) *string { return &s }

func TestUpdate_MergesAndRenormalizes(t *testing.T) {
	fx := newFixture()
	p, err := fx.svc.Create(context.Background(), validInput("7", "Margherita"), nil)
	require.NoError(t, err)

	updated, err := fx.svc.Update(context.Background(), p.ID, UpdateProductInput{Description: strPtr("Nova receita")}, 7)
	require.NoError(t, err)
	assert.Equal(t, "Margherita", updated.Name)
	assert.Equal(t, "Nova receita", updated.Description)
	assert.Equal(t, p.Value, updated.Value, "re-formatting an already formatted value is stable")

	updated, err = fx.svc.Update(context.Background(), p.ID, UpdateProductInput{Value: strPtr("1234.5")}, 7)
	require.NoError(t, err)
	assert.Equal(t, "R$\u00a01.234,50", updated.Value)
}

func TestUpdate_Errors(t *testing.T) {
	fx := newFixture()
	p, err := fx.svc.Create(context.Background(), validInput("7", "Margherita"), nil)
	require.NoError(t, err)
	_, err = fx.svc.Create(context.Background(), validInput("7", "Calabresa"), nil)
	require.NoError(t, err)

	_, err = fx.svc.Update(context.Background(), p.ID, UpdateProductInput{}, 0)
	require.ErrorIs(t, err, apperror.Unauthorized)
	assert.Equal(t, "Usuario sem permissão.", messageOf(t, err))
	assert.Zero(t, fx.store.getCalls, "caller is checked before any lookup")

	_, err = fx.svc.Update(context.Background(), 0, UpdateProductInput{}, 7)
	require.ErrorIs(t, err, apperror.NotFound)
	assert.Equal(t, "Produto não encontrado", messageOf(t, err))

	_, err = fx.svc.Update(context.Background(), 999, UpdateProductInput{}, 7)
	require.ErrorIs(t, err, apperror.NotFound)
	assert.Equal(t, "Produto não encontrado.", messageOf(t, err))

	_, err = fx.svc.Update(context.Background(), p.ID, UpdateProductInput{Name: strPtr("Hijacked")}, 8)
	require.ErrorIs(t, err, apperror.Unauthorized)
	assert.Equal(t, "Usuario sem permissão para alterar este produto", messageOf(t, err))

	_, err = fx.svc.Update(context.Background(), p.ID, UpdateProductInput{Name: strPtr("Calabresa")}, 7)
	assert.ErrorIs(t, err, apperror.Conflict)

	_, err = fx.svc.Update(context.Background(), p.ID, UpdateProductInput{Value: strPtr("abc")}, 7)
	assert.ErrorIs(t, err, apperror.DataError)

	_, err = fx.svc.Update(context.Background(), p.ID, UpdateProductInput{Name: strPtr("   ")}, 7)
	assert.ErrorIs(t, err, apperror.InvalidInput)

	_, err = fx.svc.Update(context.Background(), p.ID, UpdateProductInput{Description: strPtr("  ")}, 7)
	assert.ErrorIs(t, err, apperror.InvalidInput)

	unchanged, err := fx.svc.Update(context.Background(), p.ID, UpdateProductInput{Name: strPtr(" Margherita ")}, 7)
	require.NoError(t, err)
	assert.Equal(t, "Margherita", unchanged.Name)
}

func TestDelete(t *testing.T) {
	fx := newFixture()
	p, err := fx.svc.Create(context.Background(), validInput("7", "Margherita"), images("a.png"))
	require.NoError(t, err)
	require.Len(t, fx.storage.paths(), 1)

	_, err = fx.svc.Delete(context.Background(), 0, 7)
	require.ErrorIs(t, err, apperror.NotFound)
	assert.Equal(t, "Produto não encontrado", messageOf(t, err))

	_, err = fx.svc.Delete(context.Background(), p.ID, 8)
	require.ErrorIs(t, err, apperror.NotFound)
	assert.Equal(t, "Produto não cadastrado", messageOf(t, err))

	msg, err := fx.svc.Delete(context.Background(), p.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, "Produto excluido com sucesso.", msg)
	assert.Empty(t, fx.storage.paths())

	_, err = fx.svc.Delete(context.Background(), p.ID, 7)
	assert.ErrorIs(t, err, apperror.NotFound)
}
