package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/candemir/movie-catalog-service/internal/token"
	"github.com/candemir/movie-catalog-service/internal/user"
)

const testRefreshTTL = 7 * 24 * time.Hour

// fakeRecordRepo emulates the store, including the conditional-update guard.
type fakeRecordRepo struct {
	mu         sync.Mutex
	nextID     uint
	records    map[uint]*RefreshTokenRecord
	failCreate bool
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{records: map[uint]*RefreshTokenRecord{}}
}

func (f *fakeRecordRepo) Create(ctx context.Context, record *RefreshTokenRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return ErrUnresponsiveDatabase
	}
	for _, r := range f.records {
		if r.Value == record.Value {
			return ErrValueAlreadyExists
		}
	}
	f.nextID++
	record.ID = f.nextID
	cp := *record
	f.records[record.ID] = &cp
	return nil
}

func (f *fakeRecordRepo) ReadByValue(ctx context.Context, value string) (*RefreshTokenRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.Value == value {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrRecordNotFoundByGivenValue
}

func (f *fakeRecordRepo) RevokeIfActive(ctx context.Context, id uint, revokedAt time.Time, replacedByValue *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok || r.RevokedAt != nil {
		return false, nil
	}
	r.RevokedAt = &revokedAt
	r.ReplacedByValue = replacedByValue
	return true, nil
}

func (f *fakeRecordRepo) RevokeAllForUser(ctx context.Context, userID uint, revokedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.UserID == userID && r.RevokedAt == nil {
			r.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (f *fakeRecordRepo) get(id uint) *RefreshTokenRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.records[id]
	return &cp
}

func (f *fakeRecordRepo) byValue(value string) *RefreshTokenRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.Value == value {
			cp := *r
			return &cp
		}
	}
	return nil
}

func (f *fakeRecordRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func (f *fakeRecordRepo) insert(record *RefreshTokenRecord) *RefreshTokenRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	record.ID = f.nextID
	cp := *record
	f.records[record.ID] = &cp
	return record
}

// fakeUserDirectory verifies against plaintext passwords; hashing is the user
// service's business, not the lifecycle's.
type fakeUserDirectory struct {
	users map[string]*user.User
	pass  map[string]string
}

func newFakeUserDirectory() *fakeUserDirectory {
	u := &user.User{Email: "alice@example.com", Role: user.Member}
	u.ID = 42
	return &fakeUserDirectory{
		users: map[string]*user.User{"alice@example.com": u},
		pass:  map[string]string{"alice@example.com": "correct-horse-1!"},
	}
}

func (f *fakeUserDirectory) VerifyCredentials(ctx context.Context, email, password string) (*user.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	if f.pass[email] != password {
		return nil, user.ErrPasswordMismatch
	}
	return u, nil
}

func (f *fakeUserDirectory) ReadUserByID(ctx context.Context, id uint) (*user.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func newTestService(repo *fakeRecordRepo, revokeChain bool) (AuthenticationService, *token.Issuer) {
	issuer := token.NewIssuer(
		"0123456789abcdef0123456789abcdef",
		"movie-catalog-service",
		"movie-catalog-api",
		15*time.Minute,
	)
	svc := NewAuthenticationService(
		newFakeUserDirectory(),
		repo,
		issuer,
		zap.NewNop(),
		testRefreshTTL,
		revokeChain,
	)
	return svc, issuer
}

func TestLoginIssuesMatchingTokenPair(t *testing.T) {
	repo := newFakeRecordRepo()
	svc, issuer := newTestService(repo, false)
	ctx := context.Background()

	access, refresh, err := svc.Login(ctx, "alice@example.com", "correct-horse-1!")
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	claims, err := issuer.Parse(access)
	require.NoError(t, err)
	claimedID, err := claims.UserID()
	require.NoError(t, err)

	rec := repo.byValue(refresh)
	require.NotNil(t, rec)
	assert.Equal(t, rec.UserID, claimedID)
	assert.Nil(t, rec.RevokedAt)
	assert.Nil(t, rec.ReplacedByValue)
	assert.True(t, rec.ExpiresAt.After(time.Now()))
}

func TestLoginCollapsesUnknownUserAndWrongPassword(t *testing.T) {
	svc, _ := newTestService(newFakeRecordRepo(), false)
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "nobody@example.com", "whatever-1!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "alice@example.com", "wrong-password-1!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesExactlyOnce(t *testing.T) {
	repo := newFakeRecordRepo()
	svc, issuer := newTestService(repo, false)
	ctx := context.Background()

	_, t0, err := svc.Login(ctx, "alice@example.com", "correct-horse-1!")
	require.NoError(t, err)

	access, t1, err := svc.Refresh(ctx, t0)
	require.NoError(t, err)
	require.NotEqual(t, t0, t1)

	claims, err := issuer.Parse(access)
	require.NoError(t, err)
	claimedID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), claimedID)

	old := repo.byValue(t0)
	require.NotNil(t, old)
	assert.NotNil(t, old.RevokedAt)
	require.NotNil(t, old.ReplacedByValue)
	assert.Equal(t, t1, *old.ReplacedByValue)

	// presenting the consumed value again is replay, never a fresh success
	_, _, err = svc.Refresh(ctx, t0)
	assert.ErrorIs(t, err, ErrRefreshTokenReused)
}

func TestRefreshUnknownValueIsInvalid(t *testing.T) {
	svc, _ := newTestService(newFakeRecordRepo(), false)

	_, _, err := svc.Refresh(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrRefreshTokenInvalid)
}

func TestRefreshExpiredValueIsExpiredNotReused(t *testing.T) {
	repo := newFakeRecordRepo()
	svc, _ := newTestService(repo, false)

	rec := repo.insert(&RefreshTokenRecord{
		UserID:    42,
		Value:     "expired-token-value",
		IssuedAt:  time.Now().UTC().Add(-8 * 24 * time.Hour),
		ExpiresAt: time.Now().UTC().Add(-24 * time.Hour),
	})

	_, _, err := svc.Refresh(context.Background(), rec.Value)
	assert.ErrorIs(t, err, ErrRefreshTokenExpired)
	// natural timeout is not a revocation
	assert.Nil(t, repo.get(rec.ID).RevokedAt)
}

func TestConcurrentRotationExactlyOneWins(t *testing.T) {
	repo := newFakeRecordRepo()
	svc, _ := newTestService(repo, false)
	ctx := context.Background()

	_, t0, err := svc.Login(ctx, "alice@example.com", "correct-horse-1!")
	require.NoError(t, err)
	require.Equal(t, 1, repo.count())

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.Refresh(ctx, t0)
		}(i)
	}
	wg.Wait()

	successes, reused := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrRefreshTokenReused):
			reused++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, reused)
	// original plus exactly one successor; the race must not fork the chain
	assert.Equal(t, 2, repo.count())
}

func TestLogoutRevokesWithoutSuccessor(t *testing.T) {
	repo := newFakeRecordRepo()
	svc, _ := newTestService(repo, false)
	ctx := context.Background()

	_, refresh, err := svc.Login(ctx, "alice@example.com", "correct-horse-1!")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, refresh))

	rec := repo.byValue(refresh)
	assert.NotNil(t, rec.RevokedAt)
	assert.Nil(t, rec.ReplacedByValue)

	// idempotent, and unknown values are silently ignored
	assert.NoError(t, svc.Logout(ctx, refresh))
	assert.NoError(t, svc.Logout(ctx, "never-issued"))
}

func TestRotationChainScenario(t *testing.T) {
	repo := newFakeRecordRepo()
	svc, _ := newTestService(repo, false)
	ctx := context.Background()

	_, t0, err := svc.Login(ctx, "alice@example.com", "correct-horse-1!")
	require.NoError(t, err)

	_, t1, err := svc.Refresh(ctx, t0)
	require.NoError(t, err)

	r0 := repo.byValue(t0)
	require.NotNil(t, r0.RevokedAt)
	require.NotNil(t, r0.ReplacedByValue)
	assert.Equal(t, t1, *r0.ReplacedByValue)

	_, _, err = svc.Refresh(ctx, t0)
	assert.ErrorIs(t, err, ErrRefreshTokenReused)

	_, t2, err := svc.Refresh(ctx, t1)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, t2))

	r1 := repo.byValue(t1)
	r2 := repo.byValue(t2)
	assert.Equal(t, t2, *r1.ReplacedByValue)
	assert.NotNil(t, r2.RevokedAt)
	assert.Nil(t, r2.ReplacedByValue)

	// chain never cycles and never forks: each record has at most one
	// successor, and successors are distinct
	assert.NotEqual(t, *r0.ReplacedByValue, *r1.ReplacedByValue)
	assert.Equal(t, 3, repo.count())
}

func TestReuseWithContainmentRevokesWholeChain(t *testing.T) {
	repo := newFakeRecordRepo()
	svc, _ := newTestService(repo, true)
	ctx := context.Background()

	_, t0, err := svc.Login(ctx, "alice@example.com", "correct-horse-1!")
	require.NoError(t, err)
	_, t1, err := svc.Refresh(ctx, t0)
	require.NoError(t, err)

	// replay of the consumed token nukes the live head as well
	_, _, err = svc.Refresh(ctx, t0)
	require.ErrorIs(t, err, ErrRefreshTokenReused)

	r1 := repo.byValue(t1)
	assert.NotNil(t, r1.RevokedAt)

	_, _, err = svc.Refresh(ctx, t1)
	assert.ErrorIs(t, err, ErrRefreshTokenReused)
}

func TestReuseWithoutContainmentKeepsLiveHead(t *testing.T) {
	repo := newFakeRecordRepo()
	svc, _ := newTestService(repo, false)
	ctx := context.Background()

	_, t0, err := svc.Login(ctx, "alice@example.com", "correct-horse-1!")
	require.NoError(t, err)
	_, t1, err := svc.Refresh(ctx, t0)
	require.NoError(t, err)

	_, _, err = svc.Refresh(ctx, t0)
	require.ErrorIs(t, err, ErrRefreshTokenReused)

	// the live head still works
	_, _, err = svc.Refresh(ctx, t1)
	assert.NoError(t, err)
}

func TestRotationFailsClosedWhenSuccessorCannotPersist(t *testing.T) {
	repo := newFakeRecordRepo()
	svc, _ := newTestService(repo, false)
	ctx := context.Background()

	_, t0, err := svc.Login(ctx, "alice@example.com", "correct-horse-1!")
	require.NoError(t, err)

	repo.failCreate = true
	_, _, err = svc.Refresh(ctx, t0)
	require.ErrorIs(t, err, ErrRefreshFailed)

	// the presented token is consumed; no partial credential, no open door
	repo.failCreate = false
	_, _, err = svc.Refresh(ctx, t0)
	assert.ErrorIs(t, err, ErrRefreshTokenReused)
}
