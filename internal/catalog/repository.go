package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"
)

var (
	ErrGenreNotFound        = errors.New("genre not found")
	ErrGenreAlreadyExists   = errors.New("genre already exists")
	ErrActorNotFound        = errors.New("actor not found")
	ErrMovieNotFound        = errors.New("movie not found")
	ErrReviewNotFound       = errors.New("review not found")
	ErrReviewAlreadyExists  = errors.New("review already exists")
	ErrUnresponsiveDatabase = errors.New("error occurred during writing to catalog tables")
)

// movie list sort columns, whitelisted before they reach SQL
var movieSortColumns = map[string]string{
	"title":        "title",
	"release_year": "release_year",
	"created_at":   "created_at",
}

type GenreRepository interface {
	Create(ctx context.Context, genre *Genre) error
	ReadByID(ctx context.Context, id uint) (*Genre, error)
	ReadByIDs(ctx context.Context, ids []uint) ([]Genre, error)
	List(ctx context.Context) ([]Genre, error)
	Update(ctx context.Context, genre *Genre) error
	Delete(ctx context.Context, id uint) error
}

type ActorRepository interface {
	Create(ctx context.Context, actor *Actor) error
	ReadByID(ctx context.Context, id uint) (*Actor, error)
	ReadByIDs(ctx context.Context, ids []uint) ([]Actor, error)
	List(ctx context.Context, nameFilter string) ([]Actor, error)
	Update(ctx context.Context, actor *Actor) error
	Delete(ctx context.Context, id uint) error
}

type MovieRepository interface {
	Create(ctx context.Context, movie *Movie) error
	ReadByID(ctx context.Context, id uint) (*Movie, error)
	List(ctx context.Context, filter MovieFilter) ([]Movie, error)
	Update(ctx context.Context, movie *Movie) error
	Delete(ctx context.Context, id uint) error
}

type ReviewRepository interface {
	Create(ctx context.Context, review *Review) error
	ReadByMovieAndUser(ctx context.Context, movieID, userID uint) (*Review, error)
	ListByMovie(ctx context.Context, movieID uint) ([]Review, error)
	Update(ctx context.Context, review *Review) error
	Delete(ctx context.Context, id uint) error
	AverageRating(ctx context.Context, movieID uint) (float64, error)
}

type genreRepository struct{ db *gorm.DB }
type actorRepository struct{ db *gorm.DB }
type movieRepository struct{ db *gorm.DB }
type reviewRepository struct{ db *gorm.DB }

func NewGenreRepository(db *gorm.DB) GenreRepository   { return &genreRepository{db: db} }
func NewActorRepository(db *gorm.DB) ActorRepository   { return &actorRepository{db: db} }
func NewMovieRepository(db *gorm.DB) MovieRepository   { return &movieRepository{db: db} }
func NewReviewRepository(db *gorm.DB) ReviewRepository { return &reviewRepository{db: db} }

/** genres */

func (r *genreRepository) Create(ctx context.Context, genre *Genre) error {
	err := r.db.WithContext(ctx).Create(genre).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" &&
			strings.Contains(pgErr.ConstraintName, "name") {
			return ErrGenreAlreadyExists
		}
		return ErrUnresponsiveDatabase
	}
	return nil
}

func (r *genreRepository) ReadByID(ctx context.Context, id uint) (*Genre, error) {
	var genre Genre
	err := r.db.WithContext(ctx).First(&genre, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGenreNotFound
	}
	if err != nil {
		return nil, ErrUnresponsiveDatabase
	}
	return &genre, nil
}

func (r *genreRepository) ReadByIDs(ctx context.Context, ids []uint) ([]Genre, error) {
	var genres []Genre
	if err := r.db.WithContext(ctx).Find(&genres, ids).Error; err != nil {
		return nil, ErrUnresponsiveDatabase
	}
	return genres, nil
}

func (r *genreRepository) List(ctx context.Context) ([]Genre, error) {
	var genres []Genre
	if err := r.db.WithContext(ctx).Order("name asc").Find(&genres).Error; err != nil {
		return nil, ErrUnresponsiveDatabase
	}
	return genres, nil
}

func (r *genreRepository) Update(ctx context.Context, genre *Genre) error {
	err := r.db.WithContext(ctx).Save(genre).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" &&
			strings.Contains(pgErr.ConstraintName, "name") {
			return ErrGenreAlreadyExists
		}
		return ErrUnresponsiveDatabase
	}
	return nil
}

func (r *genreRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Genre{}, id)
	if res.Error != nil {
		return ErrUnresponsiveDatabase
	}
	if res.RowsAffected == 0 {
		return ErrGenreNotFound
	}
	return nil
}

/** actors */

func (r *actorRepository) Create(ctx context.Context, actor *Actor) error {
	if err := r.db.WithContext(ctx).Create(actor).Error; err != nil {
		return ErrUnresponsiveDatabase
	}
	return nil
}

func (r *actorRepository) ReadByID(ctx context.Context, id uint) (*Actor, error) {
	var actor Actor
	err := r.db.WithContext(ctx).First(&actor, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrActorNotFound
	}
	if err != nil {
		return nil, ErrUnresponsiveDatabase
	}
	return &actor, nil
}

func (r *actorRepository) ReadByIDs(ctx context.Context, ids []uint) ([]Actor, error) {
	var actors []Actor
	if err := r.db.WithContext(ctx).Find(&actors, ids).Error; err != nil {
		return nil, ErrUnresponsiveDatabase
	}
	return actors, nil
}

func (r *actorRepository) List(ctx context.Context, nameFilter string) ([]Actor, error) {
	q := r.db.WithContext(ctx).Order("name asc")
	if nameFilter != "" {
		q = q.Where("name ILIKE ?", "%"+nameFilter+"%")
	}
	var actors []Actor
	if err := q.Find(&actors).Error; err != nil {
		return nil, ErrUnresponsiveDatabase
	}
	return actors, nil
}

func (r *actorRepository) Update(ctx context.Context, actor *Actor) error {
	if err := r.db.WithContext(ctx).Save(actor).Error; err != nil {
		return ErrUnresponsiveDatabase
	}
	return nil
}

func (r *actorRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Actor{}, id)
	if res.Error != nil {
		return ErrUnresponsiveDatabase
	}
	if res.RowsAffected == 0 {
		return ErrActorNotFound
	}
	return nil
}

/** movies */

func (r *movieRepository) Create(ctx context.Context, movie *Movie) error {
	if err := r.db.WithContext(ctx).Create(movie).Error; err != nil {
		return ErrUnresponsiveDatabase
	}
	return nil
}

func (r *movieRepository) ReadByID(ctx context.Context, id uint) (*Movie, error) {
	var movie Movie
	err := r.db.WithContext(ctx).
		Preload("Genres").
		Preload("Actors").
		First(&movie, id).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, ErrUnresponsiveDatabase
	}
	return &movie, nil
}

func (r *movieRepository) List(ctx context.Context, filter MovieFilter) ([]Movie, error) {
	q := r.db.WithContext(ctx).Model(&Movie{}).
		Preload("Genres").
		Preload("Actors")

	if filter.GenreID != 0 {
		q = q.Joins("JOIN movie_genres mg ON mg.movie_id = movies.id").
			Where("mg.genre_id = ?", filter.GenreID)
	}
	if filter.ReleaseYear != 0 {
		q = q.Where("release_year = ?", filter.ReleaseYear)
	}
	if filter.Title != "" {
		q = q.Where("title ILIKE ?", "%"+filter.Title+"%")
	}

	column, ok := movieSortColumns[filter.SortBy]
	if !ok {
		column = "title"
	}
	direction := "asc"
	if filter.SortDesc {
		direction = "desc"
	}
	q = q.Order(column + " " + direction)

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var movies []Movie
	if err := q.Find(&movies).Error; err != nil {
		return nil, ErrUnresponsiveDatabase
	}
	return movies, nil
}

func (r *movieRepository) Update(ctx context.Context, movie *Movie) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(movie).Association("Genres").Replace(movie.Genres); err != nil {
			return ErrUnresponsiveDatabase
		}
		if err := tx.Model(movie).Association("Actors").Replace(movie.Actors); err != nil {
			return ErrUnresponsiveDatabase
		}
		if err := tx.Save(movie).Error; err != nil {
			return ErrUnresponsiveDatabase
		}
		return nil
	})
}

func (r *movieRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Movie{}, id)
	if res.Error != nil {
		return ErrUnresponsiveDatabase
	}
	if res.RowsAffected == 0 {
		return ErrMovieNotFound
	}
	return nil
}

/** reviews */

func (r *reviewRepository) Create(ctx context.Context, review *Review) error {
	err := r.db.WithContext(ctx).Create(review).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrReviewAlreadyExists
		}
		return ErrUnresponsiveDatabase
	}
	return nil
}

func (r *reviewRepository) ReadByMovieAndUser(ctx context.Context, movieID, userID uint) (*Review, error) {
	var review Review
	err := r.db.WithContext(ctx).
		Where("movie_id = ?", movieID).
		Where("user_id = ?", userID).
		First(&review).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, ErrUnresponsiveDatabase
	}
	return &review, nil
}

func (r *reviewRepository) ListByMovie(ctx context.Context, movieID uint) ([]Review, error) {
	var reviews []Review
	err := r.db.WithContext(ctx).
		Where("movie_id = ?", movieID).
		Order("created_at desc").
		Find(&reviews).
		Error
	if err != nil {
		return nil, ErrUnresponsiveDatabase
	}
	return reviews, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *Review) error {
	if err := r.db.WithContext(ctx).Save(review).Error; err != nil {
		return ErrUnresponsiveDatabase
	}
	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Review{}, id)
	if res.Error != nil {
		return ErrUnresponsiveDatabase
	}
	if res.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (r *reviewRepository) AverageRating(ctx context.Context, movieID uint) (float64, error) {
	var avg *float64
	err := r.db.WithContext(ctx).
		Model(&Review{}).
		Where("movie_id = ?", movieID).
		Where("deleted_at IS NULL").
		Select("AVG(rating)").
		Scan(&avg).
		Error
	if err != nil {
		return 0, ErrUnresponsiveDatabase
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}
