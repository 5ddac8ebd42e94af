package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"topmovies/internal/ingestion/tmdb"
	"topmovies/internal/microservices/http-api/dto"
	"topmovies/internal/microservices/http-api/form"
	"topmovies/internal/microservices/http-api/repository"
	"topmovies/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultRequestTimeout = 15 * time.Second

type MovieHandler struct {
	svc     service.MovieService
	tokens  *form.TokenSigner
	timeout time.Duration
	logger  *zap.Logger
}

// NewMovieHandler builds the web workflow. tokens may be nil, in which case
// posted forms are not checked for a csrf_token.
func NewMovieHandler(svc service.MovieService, tokens *form.TokenSigner, timeout time.Duration, logger *zap.Logger) *MovieHandler {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MovieHandler{svc: svc, tokens: tokens, timeout: timeout, logger: logger}
}

func (h *MovieHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/", h.Index)

	r.GET("/add", h.AddForm)
	r.POST("/add", h.Search)
	r.GET("/add_database", h.AddToDatabase)
	r.POST("/add_database", h.AddToDatabase)

	r.GET("/edit", h.EditForm)
	r.POST("/edit", h.Edit)

	r.GET("/delete", h.Delete)
	r.POST("/delete", h.Delete)

	api := r.Group("/api/movies")
	{
		api.GET("", h.ListJSON)
		api.GET("/:id", h.GetJSON)
	}
}

// Index renders every movie in rank order, re-ranking first.
// GET /
func (h *MovieHandler) Index(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	movies, err := h.svc.ListRanked(ctx)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{"Title": "My Top Movies", "Movies": movies})
}

// AddForm renders the empty title search form.
// GET /add
func (h *MovieHandler) AddForm(c *gin.Context) {
	f := form.AddMovieForm()
	h.renderForm(c, http.StatusOK, "add.html", f, f.Empty(), gin.H{"Title": "Add Movie"})
}

// Search validates the title and lists the movie database's candidates.
// POST /add
func (h *MovieHandler) Search(c *gin.Context) {
	f := form.AddMovieForm()
	sub, err := f.ValidateWithToken(h.postedValues(c), h.tokens)
	if err != nil {
		h.renderForm(c, http.StatusUnprocessableEntity, "add.html", f, sub, gin.H{"Title": "Add Movie"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	title := sub.Text("movieTitle")
	results, err := h.svc.SearchCandidates(ctx, title)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, "select.html", gin.H{"Title": "Select Movie", "Query": title, "Results": results})
}

// AddToDatabase stores the chosen candidate and sends the user on to rate it.
// GET|POST /add_database?id={providerID}
func (h *MovieHandler) AddToDatabase(c *gin.Context) {
	providerID, ok := h.queryID(c)
	if !ok {
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	movie, err := h.svc.AddFromProvider(ctx, providerID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/edit?id="+strconv.FormatInt(movie.ID, 10))
}

// EditForm renders the rating form for one movie.
// GET /edit?id={id}
func (h *MovieHandler) EditForm(c *gin.Context) {
	id, ok := h.queryID(c)
	if !ok {
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	movie, err := h.svc.GetByID(ctx, id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	f := form.EditMovieForm()
	h.renderForm(c, http.StatusOK, "edit.html", f, f.Empty(), gin.H{"Title": movie.Title, "Movie": movie})
}

// Edit saves the rating and review.
// POST /edit?id={id}
func (h *MovieHandler) Edit(c *gin.Context) {
	id, ok := h.queryID(c)
	if !ok {
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	movie, err := h.svc.GetByID(ctx, id)
	if err != nil {
		h.renderError(c, err)
		return
	}

	f := form.EditMovieForm()
	values := h.postedValues(c)
	sub, err := f.ValidateWithToken(values, h.tokens)
	if err != nil {
		h.renderForm(c, http.StatusUnprocessableEntity, "edit.html", f, sub, gin.H{"Title": movie.Title, "Movie": movie})
		return
	}

	// a missing version saves unconditionally
	version, _ := strconv.Atoi(values.Get("version"))
	if _, err := h.svc.UpdateRatingAndReview(ctx, id, version, sub.Decimal("rating"), sub.Text("review")); err != nil {
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// Delete removes a movie from the list.
// GET|POST /delete?id={id}
func (h *MovieHandler) Delete(c *gin.Context) {
	id, ok := h.queryID(c)
	if !ok {
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, id); err != nil {
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// ListJSON returns the ranked list.
// GET /api/movies
func (h *MovieHandler) ListJSON(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	movies, err := h.svc.ListRanked(ctx)
	if err != nil {
		status, msg := h.classify(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, dto.FromModelsToListResponse(movies))
}

// GetJSON returns one movie.
// GET /api/movies/:id
func (h *MovieHandler) GetJSON(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid movie ID"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	movie, err := h.svc.GetByID(ctx, id)
	if err != nil {
		status, msg := h.classify(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dto.FromModelToResponse(*movie)})
}

func (h *MovieHandler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

// queryID reads the ?id= parameter and answers 400 itself when it is not
// a positive integer.
func (h *MovieHandler) queryID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil || id <= 0 {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title":   "Bad request",
			"Status":  http.StatusBadRequest,
			"Message": "Invalid movie ID",
		})
		return 0, false
	}
	return id, true
}

func (h *MovieHandler) postedValues(c *gin.Context) url.Values {
	if err := c.Request.ParseForm(); err != nil {
		return url.Values{}
	}
	return c.Request.PostForm
}

func (h *MovieHandler) renderForm(c *gin.Context, status int, page string, f form.Form, sub *form.Submission, data gin.H) {
	token := ""
	if h.tokens != nil {
		var err error
		token, err = h.tokens.Issue(f.Name)
		if err != nil {
			h.renderError(c, err)
			return
		}
	}
	data["Form"] = f
	data["Sub"] = sub
	data["Token"] = token
	c.HTML(status, page, data)
}

func (h *MovieHandler) renderError(c *gin.Context, err error) {
	status, msg := h.classify(err)
	c.HTML(status, "error.html", gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": msg,
	})
}

// classify maps workflow errors onto a status and a message fit for users.
func (h *MovieHandler) classify(err error) (int, string) {
	var lookupErr *tmdb.LookupError
	var validationErr *form.ValidationError

	switch {
	case errors.Is(err, repository.ErrRecordNotFound):
		return http.StatusNotFound, "Movie not found"
	case errors.Is(err, repository.ErrEditConflict):
		return http.StatusConflict, "This movie was changed while you were editing it. Reload the page and try again."
	case errors.Is(err, service.ErrIncompleteDetails):
		return http.StatusUnprocessableEntity, "The movie database has no release date or poster for this movie."
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity, validationErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Error("request timed out", zap.Error(err))
		return http.StatusGatewayTimeout, "The request took too long."
	case errors.As(err, &lookupErr):
		h.logger.Warn("movie database unavailable", zap.Error(err))
		return http.StatusBadGateway, "The movie database is unavailable, please try again later."
	default:
		h.logger.Error("request failed", zap.Error(err))
		return http.StatusInternalServerError, "Something went wrong."
	}
}
