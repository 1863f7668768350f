package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenreRepo struct {
	genres map[uint]*Genre
	nextID uint
}

func (f *fakeGenreRepo) Create(ctx context.Context, g *Genre) error {
	for _, existing := range f.genres {
		if existing.Name == g.Name {
			return ErrGenreAlreadyExists
		}
	}
	f.nextID++
	g.ID = f.nextID
	f.genres[g.ID] = g
	return nil
}

func (f *fakeGenreRepo) ReadByID(ctx context.Context, id uint) (*Genre, error) {
	g, ok := f.genres[id]
	if !ok {
		return nil, ErrGenreNotFound
	}
	return g, nil
}

func (f *fakeGenreRepo) ReadByIDs(ctx context.Context, ids []uint) ([]Genre, error) {
	var out []Genre
	seen := map[uint]bool{}
	for _, id := range ids {
		if g, ok := f.genres[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGenreRepo) List(ctx context.Context) ([]Genre, error) {
	var out []Genre
	for _, g := range f.genres {
		out = append(out, *g)
	}
	return out, nil
}

func (f *fakeGenreRepo) Update(ctx context.Context, g *Genre) error {
	f.genres[g.ID] = g
	return nil
}

func (f *fakeGenreRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := f.genres[id]; !ok {
		return ErrGenreNotFound
	}
	delete(f.genres, id)
	return nil
}

type fakeActorRepo struct {
	actors map[uint]*Actor
	nextID uint
}

func (f *fakeActorRepo) Create(ctx context.Context, a *Actor) error {
	f.nextID++
	a.ID = f.nextID
	f.actors[a.ID] = a
	return nil
}

func (f *fakeActorRepo) ReadByID(ctx context.Context, id uint) (*Actor, error) {
	a, ok := f.actors[id]
	if !ok {
		return nil, ErrActorNotFound
	}
	return a, nil
}

func (f *fakeActorRepo) ReadByIDs(ctx context.Context, ids []uint) ([]Actor, error) {
	var out []Actor
	seen := map[uint]bool{}
	for _, id := range ids {
		if a, ok := f.actors[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeActorRepo) List(ctx context.Context, nameFilter string) ([]Actor, error) {
	var out []Actor
	for _, a := range f.actors {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeActorRepo) Update(ctx context.Context, a *Actor) error {
	f.actors[a.ID] = a
	return nil
}

func (f *fakeActorRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := f.actors[id]; !ok {
		return ErrActorNotFound
	}
	delete(f.actors, id)
	return nil
}

type fakeMovieRepo struct {
	movies map[uint]*Movie
	nextID uint
}

func (f *fakeMovieRepo) Create(ctx context.Context, m *Movie) error {
	f.nextID++
	m.ID = f.nextID
	f.movies[m.ID] = m
	return nil
}

func (f *fakeMovieRepo) ReadByID(ctx context.Context, id uint) (*Movie, error) {
	m, ok := f.movies[id]
	if !ok {
		return nil, ErrMovieNotFound
	}
	return m, nil
}

func (f *fakeMovieRepo) List(ctx context.Context, filter MovieFilter) ([]Movie, error) {
	var out []Movie
	for _, m := range f.movies {
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeMovieRepo) Update(ctx context.Context, m *Movie) error {
	f.movies[m.ID] = m
	return nil
}

func (f *fakeMovieRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := f.movies[id]; !ok {
		return ErrMovieNotFound
	}
	delete(f.movies, id)
	return nil
}

type fakeReviewRepo struct {
	reviews map[uint]*Review
	nextID  uint
}

func (f *fakeReviewRepo) Create(ctx context.Context, r *Review) error {
	for _, existing := range f.reviews {
		if existing.MovieID == r.MovieID && existing.UserID == r.UserID {
			return ErrReviewAlreadyExists
		}
	}
	f.nextID++
	r.ID = f.nextID
	f.reviews[r.ID] = r
	return nil
}

func (f *fakeReviewRepo) ReadByMovieAndUser(ctx context.Context, movieID, userID uint) (*Review, error) {
	for _, r := range f.reviews {
		if r.MovieID == movieID && r.UserID == userID {
			return r, nil
		}
	}
	return nil, ErrReviewNotFound
}

func (f *fakeReviewRepo) ListByMovie(ctx context.Context, movieID uint) ([]Review, error) {
	var out []Review
	for _, r := range f.reviews {
		if r.MovieID == movieID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) Update(ctx context.Context, r *Review) error {
	f.reviews[r.ID] = r
	return nil
}

func (f *fakeReviewRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := f.reviews[id]; !ok {
		return ErrReviewNotFound
	}
	delete(f.reviews, id)
	return nil
}

func (f *fakeReviewRepo) AverageRating(ctx context.Context, movieID uint) (float64, error) {
	sum, n := 0, 0
	for _, r := range f.reviews {
		if r.MovieID == movieID {
			sum += r.Rating
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

func newTestCatalog() (CatalogService, *fakeGenreRepo, *fakeActorRepo, *fakeMovieRepo, *fakeReviewRepo) {
	genres := &fakeGenreRepo{genres: map[uint]*Genre{}}
	actors := &fakeActorRepo{actors: map[uint]*Actor{}}
	movies := &fakeMovieRepo{movies: map[uint]*Movie{}}
	reviews := &fakeReviewRepo{reviews: map[uint]*Review{}}
	svc := NewCatalogService(genres, actors, movies, reviews, zap.NewNop())
	return svc, genres, actors, movies, reviews
}

func TestCreateMovieValidatesForeignKeys(t *testing.T) {
	svc, _, _, _, _ := newTestCatalog()
	ctx := context.Background()

	drama, err := svc.CreateGenre(ctx, "Drama")
	require.NoError(t, err)
	lead, err := svc.CreateActor(ctx, "Toni Servillo", 1959)
	require.NoError(t, err)

	movie, err := svc.CreateMovie(ctx, MovieInput{
		Title:       "The Great Beauty",
		ReleaseYear: 2013,
		GenreIDs:    []uint{drama.ID},
		ActorIDs:    []uint{lead.ID},
	})
	require.NoError(t, err)
	assert.Len(t, movie.Genres, 1)
	assert.Len(t, movie.Actors, 1)

	_, err = svc.CreateMovie(ctx, MovieInput{
		Title:       "Phantom Genre",
		ReleaseYear: 2020,
		GenreIDs:    []uint{999},
	})
	assert.ErrorIs(t, err, ErrGenreNotFound)

	_, err = svc.CreateMovie(ctx, MovieInput{
		Title:       "Phantom Actor",
		ReleaseYear: 2020,
		ActorIDs:    []uint{999},
	})
	assert.ErrorIs(t, err, ErrActorNotFound)
}

func TestCreateMovieValidatesFields(t *testing.T) {
	svc, _, _, _, _ := newTestCatalog()
	ctx := context.Background()

	_, err := svc.CreateMovie(ctx, MovieInput{Title: "   ", ReleaseYear: 2020})
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = svc.CreateMovie(ctx, MovieInput{Title: "Too Early", ReleaseYear: 1500})
	assert.ErrorIs(t, err, ErrInvalidReleaseYear)
}

func TestUpsertReviewCreatesThenReplaces(t *testing.T) {
	svc, _, _, _, reviews := newTestCatalog()
	ctx := context.Background()

	movie, err := svc.CreateMovie(ctx, MovieInput{Title: "Stalker", ReleaseYear: 1979})
	require.NoError(t, err)

	first, err := svc.UpsertReview(ctx, movie.ID, 7, 5, "masterpiece")
	require.NoError(t, err)

	second, err := svc.UpsertReview(ctx, movie.ID, 7, 3, "rewatch was slower than I remembered")
	require.NoError(t, err)

	// same logical review, replaced in place
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, reviews.reviews, 1)
	assert.Equal(t, 3, reviews.reviews[first.ID].Rating)

	// another user gets their own row
	_, err = svc.UpsertReview(ctx, movie.ID, 8, 4, "")
	require.NoError(t, err)
	assert.Len(t, reviews.reviews, 2)
}

func TestUpsertReviewValidation(t *testing.T) {
	svc, _, _, _, _ := newTestCatalog()
	ctx := context.Background()

	movie, err := svc.CreateMovie(ctx, MovieInput{Title: "Solaris", ReleaseYear: 1972})
	require.NoError(t, err)

	_, err = svc.UpsertReview(ctx, movie.ID, 7, 0, "")
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = svc.UpsertReview(ctx, movie.ID, 7, 6, "")
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = svc.UpsertReview(ctx, 999, 7, 4, "")
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestAverageRatingFlowsThroughMovieRead(t *testing.T) {
	svc, _, _, _, _ := newTestCatalog()
	ctx := context.Background()

	movie, err := svc.CreateMovie(ctx, MovieInput{Title: "Mirror", ReleaseYear: 1975})
	require.NoError(t, err)

	_, err = svc.UpsertReview(ctx, movie.ID, 1, 5, "")
	require.NoError(t, err)
	_, err = svc.UpsertReview(ctx, movie.ID, 2, 3, "")
	require.NoError(t, err)

	_, avg, err := svc.ReadMovieByID(ctx, movie.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, avg, 0.001)
}

func TestDeleteOwnReview(t *testing.T) {
	svc, _, _, _, reviews := newTestCatalog()
	ctx := context.Background()

	movie, err := svc.CreateMovie(ctx, MovieInput{Title: "Ran", ReleaseYear: 1985})
	require.NoError(t, err)

	_, err = svc.UpsertReview(ctx, movie.ID, 7, 4, "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOwnReview(ctx, movie.ID, 7))
	assert.Empty(t, reviews.reviews)

	err = svc.DeleteOwnReview(ctx, movie.ID, 7)
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestGenreNameRules(t *testing.T) {
	svc, _, _, _, _ := newTestCatalog()
	ctx := context.Background()

	_, err := svc.CreateGenre(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = svc.CreateGenre(ctx, "Noir")
	require.NoError(t, err)

	_, err = svc.CreateGenre(ctx, "Noir")
	assert.ErrorIs(t, err, ErrGenreAlreadyExists)
}
