package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/candemir/movie-catalog-service/internal/middleware"
)

// CreateGenreRequest is the payload to create or rename a genre.
type CreateGenreRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateActorRequest is the payload to create or update an actor.
type CreateActorRequest struct {
	Name      string `json:"name" binding:"required"`
	BirthYear int    `json:"birth_year"`
}

// CreateMovieRequest is the payload to create or update a movie.
type CreateMovieRequest struct {
	Title       string `json:"title" binding:"required"`
	ReleaseYear int    `json:"release_year" binding:"required"`
	Synopsis    string `json:"synopsis"`
	GenreIDs    []uint `json:"genre_ids"`
	ActorIDs    []uint `json:"actor_ids"`
}

// UpsertReviewRequest is the payload to create or replace the caller's review.
type UpsertReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// MovieResponse is a movie together with its aggregated rating.
type MovieResponse struct {
	Movie         *Movie  `json:"movie"`
	AverageRating float64 `json:"average_rating"`
}

// IDRequest represents a URI ID parameter.
type IDRequest struct {
	ID uint `uri:"id" binding:"required,min=1"`
}

// IDResponse returns a newly created resource ID.
type IDResponse struct {
	ID uint `json:"id"`
}

// CatalogHandler handles HTTP requests for catalog resources.
type CatalogHandler struct {
	service CatalogService
	logger  *zap.Logger
}

// NewCatalogHandler registers catalog endpoints: reads on the public group,
// review writes behind the bearer middleware, entity writes behind the admin
// group.
func NewCatalogHandler(public, authed, admin *gin.RouterGroup, service CatalogService, logger *zap.Logger) *CatalogHandler {
	h := &CatalogHandler{service: service, logger: logger}

	public.GET("/genres", h.ListGenres)
	public.GET("/genres/:id", h.ReadGenre)
	public.GET("/actors", h.ListActors)
	public.GET("/actors/:id", h.ReadActor)
	public.GET("/movies", h.ListMovies)
	public.GET("/movies/:id", h.ReadMovie)
	public.GET("/movies/:id/reviews", h.ListReviews)

	authed.PUT("/movies/:id/reviews", h.UpsertReview)
	authed.DELETE("/movies/:id/reviews", h.DeleteOwnReview)

	admin.POST("/genres", h.CreateGenre)
	admin.PUT("/genres/:id", h.RenameGenre)
	admin.DELETE("/genres/:id", h.DeleteGenre)
	admin.POST("/actors", h.CreateActor)
	admin.PUT("/actors/:id", h.UpdateActor)
	admin.DELETE("/actors/:id", h.DeleteActor)
	admin.POST("/movies", h.CreateMovie)
	admin.PUT("/movies/:id", h.UpdateMovie)
	admin.DELETE("/movies/:id", h.DeleteMovie)

	return h
}

func (h *CatalogHandler) bindID(c *gin.Context) (uint, bool) {
	var uri IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing id"})
		return 0, false
	}
	return uri.ID, true
}

/** genres */

// CreateGenre godoc
// @Summary      Create Genre
// @Tags         genres
// @Accept       json
// @Produce      json
// @Param        payload  body      CreateGenreRequest  true  "Genre payload"
// @Success      201      {object}  IDResponse
// @Failure      400      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Router       /genres [post]
func (h *CatalogHandler) CreateGenre(c *gin.Context) {
	var req CreateGenreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "genre name required"})
		return
	}
	genre, err := h.service.CreateGenre(c.Request.Context(), req.Name)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, IDResponse{ID: genre.ID})
	case errors.Is(err, ErrEmptyName):
		c.JSON(http.StatusBadRequest, gin.H{"error": "genre name required"})
	case errors.Is(err, ErrGenreAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "genre already exists"})
	default:
		h.logger.Error("service.CreateGenre failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create genre"})
	}
}

// ListGenres godoc
// @Summary      List Genres
// @Tags         genres
// @Produce      json
// @Success      200  {array}  Genre
// @Router       /genres [get]
func (h *CatalogHandler) ListGenres(c *gin.Context) {
	genres, err := h.service.ListGenres(c.Request.Context())
	if err != nil {
		h.logger.Error("service.ListGenres failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list genres"})
		return
	}
	c.JSON(http.StatusOK, genres)
}

// ReadGenre godoc
// @Summary      Get Genre by ID
// @Tags         genres
// @Produce      json
// @Param        id   path      int  true  "Genre ID"
// @Success      200  {object}  Genre
// @Failure      404  {object}  map[string]string
// @Router       /genres/{id} [get]
func (h *CatalogHandler) ReadGenre(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	genre, err := h.service.ReadGenreByID(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, genre)
	case errors.Is(err, ErrGenreNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "genre not found"})
	default:
		h.logger.Error("service.ReadGenreByID failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch genre"})
	}
}

// RenameGenre godoc
// @Summary      Rename Genre
// @Tags         genres
// @Accept       json
// @Param        id       path  int                 true  "Genre ID"
// @Param        payload  body  CreateGenreRequest  true  "New name"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /genres/{id} [put]
func (h *CatalogHandler) RenameGenre(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var req CreateGenreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "genre name required"})
		return
	}
	err := h.service.RenameGenre(c.Request.Context(), id, req.Name)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, ErrEmptyName):
		c.JSON(http.StatusBadRequest, gin.H{"error": "genre name required"})
	case errors.Is(err, ErrGenreNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "genre not found"})
	case errors.Is(err, ErrGenreAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "genre already exists"})
	default:
		h.logger.Error("service.RenameGenre failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not rename genre"})
	}
}

// DeleteGenre godoc
// @Summary      Delete Genre
// @Tags         genres
// @Param        id  path  int  true  "Genre ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /genres/{id} [delete]
func (h *CatalogHandler) DeleteGenre(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	err := h.service.DeleteGenre(c.Request.Context(), id)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, ErrGenreNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "genre not found"})
	default:
		h.logger.Error("service.DeleteGenre failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete genre"})
	}
}

/** actors */

// CreateActor godoc
// @Summary      Create Actor
// @Tags         actors
// @Accept       json
// @Produce      json
// @Param        payload  body      CreateActorRequest  true  "Actor payload"
// @Success      201      {object}  IDResponse
// @Failure      400      {object}  map[string]string
// @Router       /actors [post]
func (h *CatalogHandler) CreateActor(c *gin.Context) {
	var req CreateActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "actor name required"})
		return
	}
	actor, err := h.service.CreateActor(c.Request.Context(), req.Name, req.BirthYear)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, IDResponse{ID: actor.ID})
	case errors.Is(err, ErrEmptyName):
		c.JSON(http.StatusBadRequest, gin.H{"error": "actor name required"})
	default:
		h.logger.Error("service.CreateActor failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create actor"})
	}
}

// ListActors godoc
// @Summary      List Actors
// @Tags         actors
// @Produce      json
// @Param        name  query    string  false  "Name filter (substring)"
// @Success      200   {array}  Actor
// @Router       /actors [get]
func (h *CatalogHandler) ListActors(c *gin.Context) {
	actors, err := h.service.ListActors(c.Request.Context(), c.Query("name"))
	if err != nil {
		h.logger.Error("service.ListActors failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list actors"})
		return
	}
	c.JSON(http.StatusOK, actors)
}

// ReadActor godoc
// @Summary      Get Actor by ID
// @Tags         actors
// @Produce      json
// @Param        id   path      int  true  "Actor ID"
// @Success      200  {object}  Actor
// @Failure      404  {object}  map[string]string
// @Router       /actors/{id} [get]
func (h *CatalogHandler) ReadActor(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	actor, err := h.service.ReadActorByID(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, actor)
	case errors.Is(err, ErrActorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "actor not found"})
	default:
		h.logger.Error("service.ReadActorByID failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch actor"})
	}
}

// UpdateActor godoc
// @Summary      Update Actor
// @Tags         actors
// @Accept       json
// @Param        id       path  int                 true  "Actor ID"
// @Param        payload  body  CreateActorRequest  true  "Actor payload"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /actors/{id} [put]
func (h *CatalogHandler) UpdateActor(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var req CreateActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "actor name required"})
		return
	}
	err := h.service.UpdateActor(c.Request.Context(), id, req.Name, req.BirthYear)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, ErrEmptyName):
		c.JSON(http.StatusBadRequest, gin.H{"error": "actor name required"})
	case errors.Is(err, ErrActorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "actor not found"})
	default:
		h.logger.Error("service.UpdateActor failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update actor"})
	}
}

// DeleteActor godoc
// @Summary      Delete Actor
// @Tags         actors
// @Param        id  path  int  true  "Actor ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /actors/{id} [delete]
func (h *CatalogHandler) DeleteActor(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	err := h.service.DeleteActor(c.Request.Context(), id)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, ErrActorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "actor not found"})
	default:
		h.logger.Error("service.DeleteActor failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete actor"})
	}
}

/** movies */

// CreateMovie godoc
// @Summary      Create Movie
// @Description  Create a movie; referenced genre and actor IDs must exist
// @Tags         movies
// @Accept       json
// @Produce      json
// @Param        payload  body      CreateMovieRequest  true  "Movie payload"
// @Success      201      {object}  IDResponse
// @Failure      400      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /movies [post]
func (h *CatalogHandler) CreateMovie(c *gin.Context) {
	var req CreateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid movie payload"})
		return
	}
	movie, err := h.service.CreateMovie(c.Request.Context(), MovieInput{
		Title:       req.Title,
		ReleaseYear: req.ReleaseYear,
		Synopsis:    req.Synopsis,
		GenreIDs:    req.GenreIDs,
		ActorIDs:    req.ActorIDs,
	})
	h.respondMovieWrite(c, movie, err)
}

func (h *CatalogHandler) respondMovieWrite(c *gin.Context, movie *Movie, err error) {
	switch {
	case err == nil && movie != nil:
		c.JSON(http.StatusCreated, IDResponse{ID: movie.ID})
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, ErrEmptyTitle), errors.Is(err, ErrInvalidReleaseYear):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrGenreNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "referenced genre not found"})
	case errors.Is(err, ErrActorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "referenced actor not found"})
	case errors.Is(err, ErrMovieNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "movie not found"})
	default:
		h.logger.Error("movie write failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save movie"})
	}
}

// ListMovies godoc
// @Summary      List Movies
// @Description  List movies with optional genre/year/title filters and sorting
// @Tags         movies
// @Produce      json
// @Param        genre_id  query    int     false  "Genre ID filter"
// @Param        year      query    int     false  "Release year filter"
// @Param        title     query    string  false  "Title filter (substring)"
// @Param        sort      query    string  false  "Sort column: title, release_year, created_at"
// @Param        order     query    string  false  "asc or desc"
// @Param        limit     query    int     false  "Page size (max 100)"
// @Param        offset    query    int     false  "Page offset"
// @Success      200       {array}  Movie
// @Router       /movies [get]
func (h *CatalogHandler) ListMovies(c *gin.Context) {
	filter := MovieFilter{
		GenreID:     queryUint(c, "genre_id"),
		ReleaseYear: queryInt(c, "year"),
		Title:       c.Query("title"),
		SortBy:      c.DefaultQuery("sort", "title"),
		SortDesc:    c.Query("order") == "desc",
		Limit:       queryInt(c, "limit"),
		Offset:      queryInt(c, "offset"),
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	movies, err := h.service.ListMovies(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("service.ListMovies failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list movies"})
		return
	}
	c.JSON(http.StatusOK, movies)
}

// ReadMovie godoc
// @Summary      Get Movie by ID
// @Tags         movies
// @Produce      json
// @Param        id   path      int  true  "Movie ID"
// @Success      200  {object}  MovieResponse
// @Failure      404  {object}  map[string]string
// @Router       /movies/{id} [get]
func (h *CatalogHandler) ReadMovie(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	movie, avg, err := h.service.ReadMovieByID(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, MovieResponse{Movie: movie, AverageRating: avg})
	case errors.Is(err, ErrMovieNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "movie not found"})
	default:
		h.logger.Error("service.ReadMovieByID failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch movie"})
	}
}

// UpdateMovie godoc
// @Summary      Update Movie
// @Tags         movies
// @Accept       json
// @Param        id       path  int                 true  "Movie ID"
// @Param        payload  body  CreateMovieRequest  true  "Movie payload"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /movies/{id} [put]
func (h *CatalogHandler) UpdateMovie(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var req CreateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid movie payload"})
		return
	}
	err := h.service.UpdateMovie(c.Request.Context(), id, MovieInput{
		Title:       req.Title,
		ReleaseYear: req.ReleaseYear,
		Synopsis:    req.Synopsis,
		GenreIDs:    req.GenreIDs,
		ActorIDs:    req.ActorIDs,
	})
	h.respondMovieWrite(c, nil, err)
}

// DeleteMovie godoc
// @Summary      Delete Movie
// @Tags         movies
// @Param        id  path  int  true  "Movie ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /movies/{id} [delete]
func (h *CatalogHandler) DeleteMovie(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	err := h.service.DeleteMovie(c.Request.Context(), id)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, ErrMovieNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "movie not found"})
	default:
		h.logger.Error("service.DeleteMovie failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete movie"})
	}
}

/** reviews */

// UpsertReview godoc
// @Summary      Upsert Review
// @Description  Create or replace the caller's review of a movie
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Param        id       path      int                  true  "Movie ID"
// @Param        payload  body      UpsertReviewRequest  true  "Review payload"
// @Success      200      {object}  Review
// @Failure      400      {object}  map[string]string
// @Failure      401      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /movies/{id}/reviews [put]
func (h *CatalogHandler) UpsertReview(c *gin.Context) {
	movieID, ok := h.bindID(c)
	if !ok {
		return
	}
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req UpsertReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating between 1 and 5 required"})
		return
	}
	review, err := h.service.UpsertReview(c.Request.Context(), movieID, userID, req.Rating, req.Comment)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, review)
	case errors.Is(err, ErrInvalidRating):
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating between 1 and 5 required"})
	case errors.Is(err, ErrMovieNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "movie not found"})
	default:
		h.logger.Error("service.UpsertReview failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save review"})
	}
}

// ListReviews godoc
// @Summary      List Reviews
// @Tags         reviews
// @Produce      json
// @Param        id   path     int  true  "Movie ID"
// @Success      200  {array}  Review
// @Failure      404  {object} map[string]string
// @Router       /movies/{id}/reviews [get]
func (h *CatalogHandler) ListReviews(c *gin.Context) {
	movieID, ok := h.bindID(c)
	if !ok {
		return
	}
	reviews, err := h.service.ListReviewsByMovie(c.Request.Context(), movieID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, reviews)
	case errors.Is(err, ErrMovieNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "movie not found"})
	default:
		h.logger.Error("service.ListReviewsByMovie failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list reviews"})
	}
}

// DeleteOwnReview godoc
// @Summary      Delete Own Review
// @Tags         reviews
// @Param        id  path  int  true  "Movie ID"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /movies/{id}/reviews [delete]
func (h *CatalogHandler) DeleteOwnReview(c *gin.Context) {
	movieID, ok := h.bindID(c)
	if !ok {
		return
	}
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	err := h.service.DeleteOwnReview(c.Request.Context(), movieID, userID)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, ErrReviewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "review not found"})
	default:
		h.logger.Error("service.DeleteOwnReview failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete review"})
	}
}

func queryInt(c *gin.Context, key string) int {
	v := c.Query(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func queryUint(c *gin.Context, key string) uint {
	n := queryInt(c, key)
	if n < 0 {
		return 0
	}
	return uint(n)
}
