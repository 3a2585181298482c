package routes

import (
	"net/http"
	"time"

	"inkwell/app/auth"
	"inkwell/app/controllers"
	"inkwell/app/middleware"
	"inkwell/app/services"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
)

// Dependencies is everything the router needs to serve the API.
type Dependencies struct {
	Blogs    *services.BlogService
	Users    *services.UserService
	Verifier *auth.Verifier

	// Store is pinged by the health check and reported as StoreDriver.
	Store       controllers.Pinger
	StoreDriver string

	AllowedOrigins []string
	RequestTimeout time.Duration
}

// SetupRoutes defines the application's routes and returns the full handler
// chain. Logger sits outside Recoverer so recovered panics are logged as 500s.
func SetupRoutes(deps Dependencies) http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.RequestTimeout(deps.RequestTimeout))

	blogController := controllers.NewBlogController(deps.Blogs)
	userController := controllers.NewUserController(deps.Users)
	healthController := controllers.NewHealthController(deps.Store, deps.StoreDriver)

	protect := middleware.Authenticate(deps.Verifier)
	authed := func(h http.HandlerFunc) http.Handler {
		return protect(h)
	}

	router.HandleFunc("/", healthController.Root).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", healthController.Health).Methods("GET")

	// Blogs API endpoints. my-blogs is registered before {id}.
	blogs := api.PathPrefix("/blogs").Subrouter()
	blogs.HandleFunc("", blogController.Index).Methods("GET")
	blogs.Handle("", authed(blogController.Create)).Methods("POST")
	blogs.Handle("/user/my-blogs", authed(blogController.Mine)).Methods("GET")
	blogs.HandleFunc("/{id}", blogController.Show).Methods("GET")
	blogs.Handle("/{id}", authed(blogController.Update)).Methods("PUT")
	blogs.Handle("/{id}", authed(blogController.Delete)).Methods("DELETE")
	blogs.Handle("/{id}/like", authed(blogController.Like)).Methods("PUT")
	blogs.Handle("/{id}/comment", authed(blogController.AddComment)).Methods("POST")
	blogs.Handle("/{id}/comment/{commentId}", authed(blogController.DeleteComment)).Methods("DELETE")

	// Users API endpoints. profile is registered before {id}.
	users := api.PathPrefix("/users").Subrouter()
	users.Handle("/profile", authed(userController.UpdateProfile)).Methods("PUT")
	users.HandleFunc("/{id}", userController.Show).Methods("GET")
	users.Handle("/{id}/follow", authed(userController.Follow)).Methods("PUT")

	// Subrouters do not inherit these from their parent.
	for _, r := range []*mux.Router{router, api, blogs, users} {
		jsonFallbacks(r, healthController)
	}

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return middleware.Logger(middleware.Recoverer(corsHandler(router)))
}

func jsonFallbacks(r *mux.Router, hc *controllers.HealthController) {
	r.NotFoundHandler = http.HandlerFunc(hc.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(hc.MethodNotAllowed)
}
