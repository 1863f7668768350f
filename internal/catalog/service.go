package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrEmptyName          = errors.New("name must not be empty")
	ErrEmptyTitle         = errors.New("title must not be empty")
	ErrInvalidReleaseYear = errors.New("release year is implausible")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrNotReviewOwner     = errors.New("review belongs to another user")
)

// firstFilmYear bounds plausible release years from below.
const firstFilmYear = 1888

type CatalogService interface {
	CreateGenre(ctx context.Context, name string) (*Genre, error)
	ReadGenreByID(ctx context.Context, id uint) (*Genre, error)
	ListGenres(ctx context.Context) ([]Genre, error)
	RenameGenre(ctx context.Context, id uint, name string) error
	DeleteGenre(ctx context.Context, id uint) error

	CreateActor(ctx context.Context, name string, birthYear int) (*Actor, error)
	ReadActorByID(ctx context.Context, id uint) (*Actor, error)
	ListActors(ctx context.Context, nameFilter string) ([]Actor, error)
	UpdateActor(ctx context.Context, id uint, name string, birthYear int) error
	DeleteActor(ctx context.Context, id uint) error

	CreateMovie(ctx context.Context, input MovieInput) (*Movie, error)
	ReadMovieByID(ctx context.Context, id uint) (*Movie, float64, error)
	ListMovies(ctx context.Context, filter MovieFilter) ([]Movie, error)
	UpdateMovie(ctx context.Context, id uint, input MovieInput) error
	DeleteMovie(ctx context.Context, id uint) error

	UpsertReview(ctx context.Context, movieID, userID uint, rating int, comment string) (*Review, error)
	ListReviewsByMovie(ctx context.Context, movieID uint) ([]Review, error)
	DeleteOwnReview(ctx context.Context, movieID, userID uint) error
}

// MovieInput carries the writable movie fields plus foreign keys, which are
// validated against the store before anything is persisted.
type MovieInput struct {
	Title       string
	ReleaseYear int
	Synopsis    string
	GenreIDs    []uint
	ActorIDs    []uint
}

type catalogService struct {
	genres  GenreRepository
	actors  ActorRepository
	movies  MovieRepository
	reviews ReviewRepository
	logger  *zap.Logger
}

func NewCatalogService(
	genres GenreRepository,
	actors ActorRepository,
	movies MovieRepository,
	reviews ReviewRepository,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		genres:  genres,
		actors:  actors,
		movies:  movies,
		reviews: reviews,
		logger:  logger,
	}
}

/** genres */

func (s *catalogService) CreateGenre(ctx context.Context, name string) (*Genre, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	genre := &Genre{Name: name}
	if err := s.genres.Create(ctx, genre); err != nil {
		s.logger.Error("failed to create genre", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	return genre, nil
}

func (s *catalogService) ReadGenreByID(ctx context.Context, id uint) (*Genre, error) {
	return s.genres.ReadByID(ctx, id)
}

func (s *catalogService) ListGenres(ctx context.Context) ([]Genre, error) {
	return s.genres.List(ctx)
}

func (s *catalogService) RenameGenre(ctx context.Context, id uint, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	genre, err := s.genres.ReadByID(ctx, id)
	if err != nil {
		return err
	}
	genre.Name = name
	if err := s.genres.Update(ctx, genre); err != nil {
		s.logger.Error("failed to rename genre", zap.Uint("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *catalogService) DeleteGenre(ctx context.Context, id uint) error {
	return s.genres.Delete(ctx, id)
}

/** actors */

func (s *catalogService) CreateActor(ctx context.Context, name string, birthYear int) (*Actor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	actor := &Actor{Name: name, BirthYear: birthYear}
	if err := s.actors.Create(ctx, actor); err != nil {
		s.logger.Error("failed to create actor", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	return actor, nil
}

func (s *catalogService) ReadActorByID(ctx context.Context, id uint) (*Actor, error) {
	return s.actors.ReadByID(ctx, id)
}

func (s *catalogService) ListActors(ctx context.Context, nameFilter string) ([]Actor, error) {
	return s.actors.List(ctx, nameFilter)
}

func (s *catalogService) UpdateActor(ctx context.Context, id uint, name string, birthYear int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	actor, err := s.actors.ReadByID(ctx, id)
	if err != nil {
		return err
	}
	actor.Name = name
	actor.BirthYear = birthYear
	if err := s.actors.Update(ctx, actor); err != nil {
		s.logger.Error("failed to update actor", zap.Uint("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *catalogService) DeleteActor(ctx context.Context, id uint) error {
	return s.actors.Delete(ctx, id)
}

/** movies */

func (s *catalogService) CreateMovie(ctx context.Context, input MovieInput) (*Movie, error) {
	if err := s.validateMovieInput(&input); err != nil {
		return nil, err
	}
	genres, actors, err := s.resolveAssociations(ctx, input)
	if err != nil {
		return nil, err
	}

	movie := &Movie{
		Title:       input.Title,
		ReleaseYear: input.ReleaseYear,
		Synopsis:    input.Synopsis,
		Genres:      genres,
		Actors:      actors,
	}
	if err := s.movies.Create(ctx, movie); err != nil {
		s.logger.Error("failed to create movie", zap.String("title", input.Title), zap.Error(err))
		return nil, err
	}
	return movie, nil
}

func (s *catalogService) ReadMovieByID(ctx context.Context, id uint) (*Movie, float64, error) {
	movie, err := s.movies.ReadByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	avg, err := s.reviews.AverageRating(ctx, id)
	if err != nil {
		s.logger.Error("failed to compute average rating", zap.Uint("movieID", id), zap.Error(err))
		return nil, 0, err
	}
	return movie, avg, nil
}

func (s *catalogService) ListMovies(ctx context.Context, filter MovieFilter) ([]Movie, error) {
	return s.movies.List(ctx, filter)
}

func (s *catalogService) UpdateMovie(ctx context.Context, id uint, input MovieInput) error {
	if err := s.validateMovieInput(&input); err != nil {
		return err
	}
	movie, err := s.movies.ReadByID(ctx, id)
	if err != nil {
		return err
	}
	genres, actors, err := s.resolveAssociations(ctx, input)
	if err != nil {
		return err
	}

	movie.Title = input.Title
	movie.ReleaseYear = input.ReleaseYear
	movie.Synopsis = input.Synopsis
	movie.Genres = genres
	movie.Actors = actors
	if err := s.movies.Update(ctx, movie); err != nil {
		s.logger.Error("failed to update movie", zap.Uint("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *catalogService) DeleteMovie(ctx context.Context, id uint) error {
	return s.movies.Delete(ctx, id)
}

func (s *catalogService) validateMovieInput(input *MovieInput) error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return ErrEmptyTitle
	}
	if input.ReleaseYear < firstFilmYear || input.ReleaseYear > time.Now().Year()+5 {
		return ErrInvalidReleaseYear
	}
	return nil
}

// resolveAssociations loads the referenced genres and actors; any unknown ID
// fails the whole request before the movie is touched.
func (s *catalogService) resolveAssociations(ctx context.Context, input MovieInput) ([]Genre, []Actor, error) {
	var genres []Genre
	if len(input.GenreIDs) > 0 {
		found, err := s.genres.ReadByIDs(ctx, input.GenreIDs)
		if err != nil {
			return nil, nil, err
		}
		if len(found) != len(dedupe(input.GenreIDs)) {
			return nil, nil, ErrGenreNotFound
		}
		genres = found
	}

	var actors []Actor
	if len(input.ActorIDs) > 0 {
		found, err := s.actors.ReadByIDs(ctx, input.ActorIDs)
		if err != nil {
			return nil, nil, err
		}
		if len(found) != len(dedupe(input.ActorIDs)) {
			return nil, nil, ErrActorNotFound
		}
		actors = found
	}

	return genres, actors, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

/** reviews */

// UpsertReview creates or replaces the caller's review of a movie. One review
// per user per movie; a lost creation race falls back to an update.
func (s *catalogService) UpsertReview(ctx context.Context, movieID, userID uint, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if _, err := s.movies.ReadByID(ctx, movieID); err != nil {
		return nil, err
	}

	existing, err := s.reviews.ReadByMovieAndUser(ctx, movieID, userID)
	switch {
	case err == nil:
		existing.Rating = rating
		existing.Comment = comment
		if err := s.reviews.Update(ctx, existing); err != nil {
			s.logger.Error("failed to update review", zap.Uint("id", existing.ID), zap.Error(err))
			return nil, err
		}
		return existing, nil
	case errors.Is(err, ErrReviewNotFound):
		review := &Review{MovieID: movieID, UserID: userID, Rating: rating, Comment: comment}
		err := s.reviews.Create(ctx, review)
		if errors.Is(err, ErrReviewAlreadyExists) {
			// concurrent first review by the same user; take the update path
			return s.UpsertReview(ctx, movieID, userID, rating, comment)
		}
		if err != nil {
			s.logger.Error("failed to create review", zap.Uint("movieID", movieID), zap.Error(err))
			return nil, err
		}
		return review, nil
	default:
		return nil, err
	}
}

func (s *catalogService) ListReviewsByMovie(ctx context.Context, movieID uint) ([]Review, error) {
	if _, err := s.movies.ReadByID(ctx, movieID); err != nil {
		return nil, err
	}
	return s.reviews.ListByMovie(ctx, movieID)
}

func (s *catalogService) DeleteOwnReview(ctx context.Context, movieID, userID uint) error {
	review, err := s.reviews.ReadByMovieAndUser(ctx, movieID, userID)
	if err != nil {
		return err
	}
	if review.UserID != userID {
		return ErrNotReviewOwner
	}
	return s.reviews.Delete(ctx, review.ID)
}
