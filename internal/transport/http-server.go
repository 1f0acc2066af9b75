package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/quillmark/quillmark-back/internal/config"
	"github.com/quillmark/quillmark-back/internal/db"
	"github.com/quillmark/quillmark-back/internal/service"
)

type (
	AuthReq struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	TokenResp struct {
		AccessToken string `json:"access_token"`
	}

	EditUserReq struct {
		Email     *string `json:"email" validate:"omitempty,email"`
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
	}

	UserResp struct {
		ID        uint64    `json:"id"`
		Email     string    `json:"email"`
		FirstName *string   `json:"firstName,omitempty"`
		LastName  *string   `json:"lastName,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	CreateBookmarkReq struct {
		Title       string  `json:"title" validate:"required"`
		Link        string  `json:"link" validate:"required,url"`
		Description *string `json:"description"`
	}

	EditBookmarkReq struct {
		Title       *string `json:"title"`
		Link        *string `json:"link" validate:"omitempty,url"`
		Description *string `json:"description"`
	}

	BookmarkResp struct {
		ID          uint64    `json:"id"`
		Title       string    `json:"title"`
		Link        string    `json:"link"`
		Description *string   `json:"description,omitempty"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	CustomValidator struct {
		validator *validator.Validate
	}

	HTTPServer struct {
		db        *gorm.DB
		auth      *service.Auth
		users     *service.User
		bookmarks *service.Bookmark
		logger    *zap.SugaredLogger
	}
)

func NewHTTPServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	gdb *gorm.DB,
	auth *service.Auth,
	users *service.User,
	bookmarks *service.Bookmark,
	logger *zap.SugaredLogger,
) *HTTPServer {
	instance, e := newServer(gdb, auth, users, bookmarks, logger)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				listen := cfg.Host + ":" + cfg.Port
				if err := e.Start(listen); err != nil && err != http.ErrServerClosed {
					e.Logger.Fatal("shutting down the server")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server.")
			return e.Shutdown(ctx)
		},
	})

	return instance
}

func newServer(
	gdb *gorm.DB,
	auth *service.Auth,
	users *service.User,
	bookmarks *service.Bookmark,
	logger *zap.SugaredLogger,
) (*HTTPServer, *echo.Echo) {
	instance := HTTPServer{
		db:        gdb,
		auth:      auth,
		users:     users,
		bookmarks: bookmarks,
		logger:    logger,
	}

	e := echo.New()

	e.POST("/auth/signUp", instance.SignUp)
	e.POST("/auth/signIn", instance.SignIn)

	userG := e.Group("/users")
	userG.GET("/me", instance.GetMe)
	userG.PATCH("", instance.EditUser)

	bookmarkG := e.Group("/bookmarks")
	bookmarkG.POST("", instance.BookmarkCreate)
	bookmarkG.GET("", instance.BookmarkList)
	bookmarkG.GET("/:id", instance.BookmarkGet)
	bookmarkG.PATCH("/:id", instance.BookmarkUpdate)
	bookmarkG.DELETE("/:id", instance.BookmarkDelete)

	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyDumpWithConfig(middleware.BodyDumpConfig{
		Handler: func(c echo.Context, reqBody, resBody []byte) {
			if len(reqBody) == 0 {
				return
			}
			logger.Debugw("request",
				"method", c.Request().Method,
				"path", c.Path(),
				"body", string(censorBody(reqBody)),
			)
		},
	}))

	e.Use(instance.AuthMiddleware)

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = instance.ErrorHandler

	echo.NotFoundHandler = func(c echo.Context) error {
		return c.NoContent(http.StatusNotFound)
	}

	return &instance, e
}

func (s *HTTPServer) SignUp(c echo.Context) error {
	req := AuthReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := s.auth.SignUp(req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, userToResp(user))
}

func (s *HTTPServer) SignIn(c echo.Context) error {
	req := AuthReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := s.auth.SignIn(req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, TokenResp{AccessToken: token})
}

func (s *HTTPServer) GetMe(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userToResp(user))
}

func (s *HTTPServer) EditUser(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := EditUserReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := s.users.EditUser(user.ID, service.EditUserParams{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, userToResp(updated))
}

func (s *HTTPServer) BookmarkCreate(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := CreateBookmarkReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	model, err := s.bookmarks.Create(user.ID, req.Title, req.Link, req.Description)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, bookmarkToResp(model))
}

func (s *HTTPServer) BookmarkList(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	bookmarks, err := s.bookmarks.List(user.ID)
	if err != nil {
		return err
	}

	resp := make([]BookmarkResp, len(bookmarks))
	for i := range bookmarks {
		resp[i] = *bookmarkToResp(&bookmarks[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) BookmarkGet(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	model, err := s.bookmarks.GetByID(user.ID, id)
	if err != nil {
		return err
	}
	if model == nil {
		// absent and foreign-owned look the same to the caller
		return c.JSON(http.StatusOK, nil)
	}

	return c.JSON(http.StatusOK, bookmarkToResp(model))
}

func (s *HTTPServer) BookmarkUpdate(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := EditBookmarkReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	model, err := s.bookmarks.Edit(user.ID, id, service.EditBookmarkParams{
		Title:       req.Title,
		Link:        req.Link,
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, bookmarkToResp(model))
}

func (s *HTTPServer) BookmarkDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	if err := s.bookmarks.Delete(user.ID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Path() == "/auth/signUp" || c.Path() == "/auth/signIn" || c.Path() == "/ping" {
			return next(c)
		}

		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return c.NoContent(http.StatusUnauthorized)
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			return c.NoContent(http.StatusUnauthorized)
		}

		claims, err := s.auth.ParseToken(tokenString)
		if err != nil {
			return c.NoContent(http.StatusUnauthorized)
		}

		userID, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil {
			return c.NoContent(http.StatusUnauthorized)
		}

		user := db.User{}
		res := s.db.First(&user, userID)
		if res.Error != nil {
			s.logger.Errorw("find token user in db", "error", res.Error)
			return c.NoContent(http.StatusUnauthorized)
		}

		c.Set("user", &user)
		return next(c)
	}
}

func (s *HTTPServer) ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if jsonErr := c.JSON(httpErr.Code, echo.Map{"message": httpErr.Message}); jsonErr != nil {
			s.logger.Errorw("write error response", "error", jsonErr)
		}
		return
	}

	code := http.StatusInternalServerError
	message := "internal server error"
	switch {
	case errors.Is(err, service.ErrCredentialsTaken):
		code, message = http.StatusForbidden, "credentials taken"
	case errors.Is(err, service.ErrLoginUserNotFound):
		code, message = http.StatusForbidden, "user not found"
	case errors.Is(err, service.ErrIncorrectCredentials):
		code, message = http.StatusForbidden, "incorrect credentials"
	case errors.Is(err, service.ErrAccessDenied):
		code, message = http.StatusForbidden, "access denied"
	case errors.Is(err, service.ErrBookmarkNotFound):
		code, message = http.StatusNotFound, "bookmark not found"
	default:
		s.logger.Errorw("request failed", "error", err)
	}

	if jsonErr := c.JSON(code, echo.Map{"message": message}); jsonErr != nil {
		s.logger.Errorw("write error response", "error", jsonErr)
	}
}

////////

func userToResp(u *db.User) *UserResp {
	return &UserResp{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func bookmarkToResp(b *db.Bookmark) *BookmarkResp {
	return &BookmarkResp{
		ID:          b.ID,
		Title:       b.Title,
		Link:        b.Link,
		Description: b.Description,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// censorBody masks the password field of a JSON body before it reaches the
// request log.
func censorBody(b []byte) []byte {
	body := map[string]interface{}{}
	if err := json.Unmarshal(b, &body); err != nil {
		return b
	}
	if _, ok := body["password"]; ok {
		body["password"] = "$censored"
	}
	censored, err := json.Marshal(body)
	if err != nil {
		return b
	}
	return censored
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func BindAndValidate(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) != 0 {
			// report the first failing field only
			return echo.NewHTTPError(http.StatusBadRequest, verrs[0].Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func GetUserFromContext(c echo.Context) (*db.User, error) {
	user, ok := c.Get("user").(*db.User)
	if !ok || user == nil {
		return nil, errors.New("no user found in context")
	}
	return user, nil
}

func GetParam(c echo.Context, name string) (string, error) {
	value := c.Param(name)
	if value == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid path param '"+name+"'")
	}
	return value, nil
}

func GetAndParseParam(c echo.Context, name string) (uint64, error) {
	v, e := GetParam(c, name)
	if e != nil {
		return 0, e
	}
	vv, e := strconv.ParseUint(v, 10, 64)
	if e != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid path param '"+name+"'")
	}
	return vv, nil
}
