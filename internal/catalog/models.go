package catalog

import (
	"gorm.io/gorm"
)

// Genre is a movie category with a unique name.
type Genre struct {
	gorm.Model
	Name string `json:"name" gorm:"uniqueIndex;not null"`
}

// Actor is a performer credited on movies.
type Actor struct {
	gorm.Model
	Name      string `json:"name" gorm:"index;not null"`
	BirthYear int    `json:"birth_year"`
}

// Movie is the central catalog entity.
type Movie struct {
	gorm.Model
	Title       string   `json:"title" gorm:"index;not null"`
	ReleaseYear int      `json:"release_year" gorm:"index;not null"`
	Synopsis    string   `json:"synopsis"`
	Genres      []Genre  `json:"genres" gorm:"many2many:movie_genres"`
	Actors      []Actor  `json:"actors" gorm:"many2many:movie_actors"`
	Reviews     []Review `json:"-"`
}

// Review is one user's rating of one movie. The composite unique index backs
// the one-review-per-user-per-movie rule.
type Review struct {
	gorm.Model
	MovieID uint   `json:"movie_id" gorm:"uniqueIndex:idx_reviews_movie_user;not null"`
	UserID  uint   `json:"user_id" gorm:"uniqueIndex:idx_reviews_movie_user;not null"`
	Rating  int    `json:"rating" gorm:"not null"`
	Comment string `json:"comment"`
}

// MovieFilter narrows and orders movie listings. Zero values mean "no
// constraint".
type MovieFilter struct {
	GenreID     uint
	ReleaseYear int
	Title       string
	SortBy      string
	SortDesc    bool
	Limit       int
	Offset      int
}
