package backend_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/internal/models"
	"github.com/anonto42/snapgram/backend/internal/repositories"
	"github.com/anonto42/snapgram/backend/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDatabase remembers the queries passed to ListDocuments
type recordingDatabase struct {
	*repositories.MemoryDatabase
	mu      sync.Mutex
	queries [][]backend.Query
	failAll error
}

func (d *recordingDatabase) ListDocuments(ctx context.Context, collectionID string, queries ...backend.Query) ([]backend.Document, error) {
	d.mu.Lock()
	d.queries = append(d.queries, queries)
	d.mu.Unlock()
	if d.failAll != nil {
		return nil, d.failAll
	}
	return d.MemoryDatabase.ListDocuments(ctx, collectionID, queries...)
}

type fixture struct {
	backend  *backend.Backend
	db       *recordingDatabase
	storage  *repositories.MemoryStorage
	accounts *repositories.MemoryAccounts
	sessions *session.Manager
}

func newFixture(t *testing.T, opts ...backend.Option) *fixture {
	t.Helper()
	f := &fixture{
		db:       &recordingDatabase{MemoryDatabase: repositories.NewMemoryDatabase()},
		storage:  repositories.NewMemoryStorage(),
		accounts: repositories.NewMemoryAccounts(),
		sessions: session.NewManager("test-secret", time.Hour, repositories.NewMemoryRevocations()),
	}
	f.backend = backend.New(backend.Config{
		UsersCollectionID: "users",
		PostsCollectionID: "posts",
		SavesCollectionID: "saves",
		BucketID:          "media",
		PublicURL:         "http://api.test",
		SessionTTL:        time.Hour,
	}, f.accounts, f.db, f.storage, f.sessions, repositories.NewMemoryUserCache(), nil, opts...)
	return f
}

func signUp(t *testing.T, f *fixture, email string) *models.Session {
	t.Helper()
	ctx := context.Background()
	_, err := f.backend.CreateUserAccount(ctx, models.NewUser{
		Name:     "Ada Lovelace",
		Username: "ada",
		Email:    email,
		Password: "correct horse",
	})
	require.NoError(t, err)
	s, err := f.backend.SignInAccount(ctx, email, "correct horse")
	require.NoError(t, err)
	return s
}

func TestCreateUserAccount_SavesProfileWithAvatar(t *testing.T) {
	f := newFixture(t)
	s := signUp(t, f, "ada@example.com")

	user, err := f.backend.GetCurrentUser(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, s.AccountID, user.AccountID)
	assert.Equal(t, "ada", user.Username)
	assert.Equal(t, "http://api.test/api/v1/avatars/initials?name=Ada+Lovelace", user.ImageURL)
}

func TestCreateUserAccount_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	signUp(t, f, "ada@example.com")

	_, err := f.backend.CreateUserAccount(context.Background(), models.NewUser{
		Name: "Other", Username: "other", Email: "ada@example.com", Password: "12345678",
	})
	var failure *backend.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "createUserAccount", failure.Op)
	assert.Equal(t, backend.ReasonConflict, failure.Reason)
}

func TestSignInAccount_WrongPassword(t *testing.T) {
	f := newFixture(t)
	signUp(t, f, "ada@example.com")

	_, err := f.backend.SignInAccount(context.Background(), "ada@example.com", "nope")
	assert.Equal(t, backend.ReasonUnauthorized, backend.ReasonOf(err))
}

func TestGetCurrentUser_FiltersByAccountAndCaches(t *testing.T) {
	f := newFixture(t)
	signUp(t, f, "other@example.com")
	s := signUp(t, f, "ada@example.com")
	ctx := context.Background()

	f.db.queries = nil
	user, err := f.backend.GetCurrentUser(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)

	require.Len(t, f.db.queries, 1)
	assert.Equal(t, []backend.Query{backend.Equal("accountId", s.AccountID)}, f.db.queries[0])

	again, err := f.backend.GetCurrentUser(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, user, again)
	assert.Len(t, f.db.queries, 1, "second lookup is served from the cache")
}

func TestGetCurrentUser_NoProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.accounts.Create(ctx, "acc-1", "ghost@example.com", "12345678", "Ghost")
	require.NoError(t, err)
	s, err := f.backend.SignInAccount(ctx, "ghost@example.com", "12345678")
	require.NoError(t, err)

	_, err = f.backend.GetCurrentUser(ctx, s)
	assert.Equal(t, backend.ReasonNotFound, backend.ReasonOf(err))
}

func TestSignOutAccount_RevokesSession(t *testing.T) {
	f := newFixture(t)
	s := signUp(t, f, "ada@example.com")
	ctx := context.Background()

	require.NoError(t, f.backend.SignOutAccount(ctx, s))

	_, err := f.sessions.Parse(ctx, s.Token)
	assert.ErrorIs(t, err, session.ErrRevoked)
}

func TestGetRecentPosts_NewestTwenty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := f.backend.CreatePostDocument(ctx, models.NewPost{
			Creator: "user-1",
			Caption: fmt.Sprintf("post %02d", i),
			Tags:    []string{},
		})
		require.NoError(t, err)
	}

	f.db.queries = nil
	posts, err := f.backend.GetRecentPosts(ctx)
	require.NoError(t, err)

	require.Len(t, f.db.queries, 1)
	assert.Equal(t, []backend.Query{backend.OrderDesc("$createdAt"), backend.Limit(20)}, f.db.queries[0])
	require.Len(t, posts, 20)
	assert.Equal(t, "post 24", posts[0].Caption)
	assert.Equal(t, "post 05", posts[19].Caption)
}

func TestGetRecentPosts_FailureCarriesReason(t *testing.T) {
	f := newFixture(t)
	f.db.failAll = fmt.Errorf("list: %w", backend.ErrUnavailable)

	posts, err := f.backend.GetRecentPosts(context.Background())
	assert.Nil(t, posts)

	var failure *backend.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "getRecentPosts", failure.Op)
	assert.Equal(t, backend.ReasonUnavailable, failure.Reason)
	assert.True(t, errors.Is(err, backend.ErrUnavailable))
}

func TestPostDocuments_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	file, err := f.backend.UploadFile(ctx, models.NewUploadFromBytes("a.png", "image/png", []byte("png")))
	require.NoError(t, err)

	created, err := f.backend.CreatePostDocument(ctx, models.NewPost{
		Creator:  "user-1",
		Caption:  "hello world",
		ImageURL: "http://img",
		ImageID:  file.ID,
		Location: "Lisbon",
		Tags:     []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{}, created.Likes)
	assert.Equal(t, []string{"a", "b"}, created.Tags)

	updated, err := f.backend.UpdatePostDocument(ctx, models.UpdatePost{
		PostID:   created.ID,
		Caption:  "edited",
		ImageURL: created.ImageURL,
		ImageID:  created.ImageID,
		Tags:     []string{},
	})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Caption)
	assert.Equal(t, "user-1", updated.Creator)

	liked, err := f.backend.LikePost(ctx, created.ID, []string{"user-2"})
	require.NoError(t, err)
	assert.True(t, liked.LikedBy("user-2"))

	require.NoError(t, f.backend.DeletePost(ctx, created.ID, created.ImageID))

	_, err = f.backend.GetPostByID(ctx, created.ID)
	assert.Equal(t, backend.ReasonNotFound, backend.ReasonOf(err))
	_, err = f.storage.GetFile(ctx, "media", file.ID)
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestUpdatePostDocument_Missing(t *testing.T) {
	f := newFixture(t)

	_, err := f.backend.UpdatePostDocument(context.Background(), models.UpdatePost{PostID: "missing"})
	assert.Equal(t, backend.ReasonNotFound, backend.ReasonOf(err))
}

func TestSaves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	save, err := f.backend.SavePost(ctx, "user-1", "post-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", save.User)
	assert.Equal(t, "post-1", save.Post)

	got, err := f.backend.GetSave(ctx, save.ID)
	require.NoError(t, err)
	assert.Equal(t, save.ID, got.ID)

	require.NoError(t, f.backend.DeleteSavedPost(ctx, save.ID))
	err = f.backend.DeleteSavedPost(ctx, save.ID)
	assert.Equal(t, backend.ReasonNotFound, backend.ReasonOf(err))
}

func TestFiles(t *testing.T) {
	f := newFixture(t, backend.WithIDGenerator(func() string { return "fixed-id" }))
	ctx := context.Background()

	file, err := f.backend.UploadFile(ctx, models.NewUploadFromBytes("a.png", "image/png", []byte("png")))
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", file.ID)
	assert.Equal(t, "media", file.BucketID)

	url, err := f.backend.GetFilePreview(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://api.test/api/v1/storage/buckets/media/files/fixed-id/preview?gravity=center&height=2000&quality=100&width=2000", url)

	_, err = f.backend.UploadFile(ctx, models.NewUploadFromBytes("b.png", "image/png", []byte("png")))
	assert.Equal(t, backend.ReasonConflict, backend.ReasonOf(err))

	require.NoError(t, f.backend.DeleteFile(ctx, file.ID))
	_, err = f.backend.GetFilePreview(ctx, file.ID)
	assert.Equal(t, backend.ReasonNotFound, backend.ReasonOf(err))
}

type fakeIndex struct {
	ids     []string
	indexed []string
	removed []string
}

func (i *fakeIndex) Index(_ context.Context, post *models.Post) error {
	i.indexed = append(i.indexed, post.ID)
	return nil
}

func (i *fakeIndex) Remove(_ context.Context, postID string) error {
	i.removed = append(i.removed, postID)
	return nil
}

func (i *fakeIndex) Search(_ context.Context, _ string, _ int) ([]string, error) {
	return i.ids, nil
}

func TestSearchPosts(t *testing.T) {
	ctx := context.Background()

	_, err := newFixture(t).backend.SearchPosts(ctx, "sea")
	assert.Equal(t, backend.ReasonUnavailable, backend.ReasonOf(err))

	index := &fakeIndex{}
	f := newFixture(t, backend.WithPostIndex(index))
	post, err := f.backend.CreatePostDocument(ctx, models.NewPost{Creator: "u", Caption: "by the sea"})
	require.NoError(t, err)
	assert.Equal(t, []string{post.ID}, index.indexed)

	index.ids = []string{post.ID, "stale-id"}
	posts, err := f.backend.SearchPosts(ctx, "sea")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "by the sea", posts[0].Caption)

	require.NoError(t, f.backend.DeletePost(ctx, post.ID, ""))
	assert.Equal(t, []string{post.ID}, index.removed)
}

func TestReasonOf(t *testing.T) {
	assert.Equal(t, backend.ReasonUnknown, backend.ReasonOf(errors.New("boom")))
	assert.Equal(t, backend.ReasonUnavailable, backend.ReasonOf(context.DeadlineExceeded))
	assert.Equal(t, backend.ReasonConflict, backend.ReasonOf(fmt.Errorf("x: %w", backend.ErrConflict)))
}
