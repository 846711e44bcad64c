package router // package router assembles the Echo server and registers its routes

import (
	"net/http" // status codes for the CSRF failure response

	"github.com/gorilla/csrf"                       // CSRF tokens for every form post
	"github.com/labstack/echo/v4"                   // the Echo web framework handles routing
	echomw "github.com/labstack/echo/v4/middleware" // stock Echo middleware
	"github.com/redis/go-redis/v9"                  // Redis backs rate limiting and caching

	"github.com/iliyamo/groovemind/internal/config"     // application configuration
	"github.com/iliyamo/groovemind/internal/handler"    // the handlers that implement each route
	"github.com/iliyamo/groovemind/internal/middleware" // session, role gate, rate limit and cache middleware
	"github.com/iliyamo/groovemind/internal/view"       // template renderer
)

// Options carries the optional infrastructure for NewServer.  Every field
// may be left at its zero value: without Redis, rate limiting and caching
// are off, and without Sessions any correctly signed token is accepted.
type Options struct {
	Redis     *redis.Client
	Sessions  middleware.SessionValidator
	RateLimit config.RateLimitConfig
	Cache     *middleware.ResponseCache
	// Quiet drops the access log, for tests.
	Quiet bool
}

// NewServer builds the Echo instance with the full middleware stack and
// route table.  cmd/server and the handler tests share it.
func NewServer(cfg config.Config, h *handler.Handler, opts Options) (*echo.Echo, error) {
	renderer, err := view.New()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	// HTML forms tunnel PUT and DELETE through a _method field.  Pre runs
	// before routing so the overridden method selects the route.
	e.Pre(echomw.MethodOverrideWithConfig(echomw.MethodOverrideConfig{
		Getter: echomw.MethodFromForm("_method"),
	}))

	e.Use(echomw.Recover())
	if !opts.Quiet {
		e.Use(echomw.Logger())
	}
	e.Use(echomw.Secure())
	e.Use(echomw.BodyLimit("1M"))
	if cfg.CSRFEnabled {
		if !cfg.SecureCookies {
			// gorilla/csrf assumes TLS unless told otherwise.
			e.Use(plaintextRequests)
		}
		e.Use(echo.WrapMiddleware(csrf.Protect(cfg.CSRFKey,
			csrf.Secure(cfg.SecureCookies),
			csrf.Path("/"),
			csrf.SameSite(csrf.SameSiteLaxMode),
			csrf.ErrorHandler(http.HandlerFunc(csrfFailed)),
		)))
	}
	e.Use(middleware.Identify(cfg.JWTSecret, opts.Sessions))

	RegisterRoutes(e)
	RegisterPublic(e, h, middleware.NewTokenBucket(opts.RateLimit, opts.Redis))
	RegisterOrganiser(e, h, organiserGate(cfg), opts.Cache.Middleware())

	e.Static("/", cfg.StaticDir)
	return e, nil
}

func plaintextRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.SetRequest(csrf.PlaintextHTTPRequest(c.Request()))
		return next(c)
	}
}

func csrfFailed(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Forbidden - invalid or missing form token. Reload the page and try again.", http.StatusForbidden)
}

// organiserGate is the role check applied to organiser routes.  With
// AUTH_ENFORCE_ROLES=false the routes are open to everyone.
func organiserGate(cfg config.Config) echo.MiddlewareFunc {
	if !cfg.EnforceRoles {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return middleware.RequireRole("organiser")
}

// RegisterRoutes registers infrastructure routes.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the pages and form posts open to every visitor.
// limit throttles the form posts that create accounts, sessions or bookings.
func RegisterPublic(e *echo.Echo, h *handler.Handler, limit echo.MiddlewareFunc) {
	e.GET("/", h.Home)
	e.GET("/about", h.About)
	e.GET("/contact", h.Contact)

	// Course list; organisers see the same list with a dashboard link.
	e.GET("/courses", h.ListCourses)

	// Booking
	e.GET("/courses/:id/book", h.BookForm)
	e.POST("/courses/:id/book", h.BookCourse, limit)
	e.GET("/booking-success", h.BookingSuccess)

	// Accounts and sessions
	e.GET("/register", h.RegisterForm)
	e.POST("/register", h.Register, limit)
	e.GET("/login", h.LoginForm)
	e.POST("/login", h.Login, limit)
	e.GET("/logout", h.Logout)
}
