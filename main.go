package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"templateKitManager/internal/handlers"
	"templateKitManager/internal/logger"
	"templateKitManager/internal/services"
	"templateKitManager/internal/store"
	"templateKitManager/internal/utils"
)

type App struct {
	Config       *Config
	Store        *store.Store
	SessionStore *sessions.CookieStore
	OAuthConfig  *oauth2.Config
	Log          *logger.Logger

	Auth        *services.AuthService
	Permissions *utils.PermissionCache
	Archives    *services.ArchiveStore
	Previews    *services.PreviewResolver
	Catalog     *services.Catalog
	Importer    *services.ImportPipeline
	Templates   *TemplateCache
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewApp opens the database and wires the kit services. It does not need OAuth settings.
func NewApp(config *Config, log *logger.Logger) (*App, error) {
	db, err := store.Open(config.DatabasePath)
	if err != nil {
		return nil, err
	}

	permissions := utils.NewPermissionCache(5 * time.Minute)
	archives := services.NewArchiveStore(config.UploadsRoot, config.UploadsURL, config.MaxUploadSize, log)
	previews := services.NewPreviewResolver(archives, log)

	app := &App{
		Config:      config,
		Store:       db,
		Log:         log,
		Auth:        services.NewAuthService(db, permissions),
		Permissions: permissions,
		Archives:    archives,
		Previews:    previews,
		Catalog:     services.NewCatalog(archives, previews, config.DateFormat),
		Importer:    services.NewImportPipeline(archives, db, config.ScratchDir, log),
		Templates:   NewTemplateCache(),
	}

	if _, err := archives.EnsureDirectory(); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.SeedAdmins(context.Background(), config.AdminEmails); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// Close releases the database and background workers
func (app *App) Close() {
	app.Permissions.Close()
	if err := app.Store.Close(); err != nil {
		app.Log.WithError(err).Warn("Failed to close database")
	}
}

// EnableWebLogin configures the cookie session store and Google OAuth client.
func (app *App) EnableWebLogin() {
	config := app.Config
	sessionStore := sessions.NewCookieStore(config.SessionSecret)
	sessionStore.MaxAge(config.SessionMaxAge)
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   config.SessionMaxAge,
		HttpOnly: true,
		Secure:   config.Environment == "production",
		SameSite: http.SameSiteLaxMode, // Lax so the OAuth redirect carries the cookie
	}
	app.SessionStore = sessionStore

	app.OAuthConfig = &oauth2.Config{
		ClientID:     config.GoogleClientID,
		ClientSecret: config.GoogleClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
		},
		Endpoint: google.Endpoint,
	}
}

// Router builds the HTTP routes
func (app *App) Router() http.Handler {
	authorizer := &sessionAuthorizer{app: app}

	kits := handlers.NewKitHandlers(handlers.KitDeps{
		Auth:     authorizer,
		Store:    app.Archives,
		Catalog:  app.Catalog,
		Previews: app.Previews,
		Importer: app.Importer,
		Media:    app.Store,
		Log:      app.Log,
	})

	var handoff handlers.DeepLinkHandoff
	if app.Config.ToolsHandoff {
		handoff = handlers.ArchiveHandoff{Store: app.Archives}
	}
	tools := handlers.NewToolsHandler(authorizer, app.Archives, handoff, app.Templates, "/admin-ajax", app.Log)

	limiter := NewRateLimiter(app.Config.RateLimitPerMinute, app.Config.RateLimitPerMinute*2)
	limiter.StartCleanupRoutine()

	r := mux.NewRouter()

	r.Use(app.RecoveryMiddleware)
	r.Use(app.LoggingMiddleware)
	r.Use(app.RateLimitMiddleware(limiter))

	r.HandleFunc("/", app.handleHome).Methods("GET")
	r.HandleFunc("/login", app.handleLogin).Methods("GET")
	r.HandleFunc("/logout", app.handleLogout).Methods("GET")
	r.HandleFunc("/auth/callback", app.handleAuthCallback).Methods("GET")
	r.HandleFunc("/admin", app.AuthMiddleware(app.handleAdmin)).Methods("GET")
	r.HandleFunc("/admin/tools", app.AuthMiddleware(tools.HandleTools)).Methods("GET")

	r.HandleFunc("/admin-ajax", kits.HandleAction).Methods("POST")
	api := r.PathPrefix("/api/kits").Subrouter()
	api.HandleFunc("/upload", kits.HandleUpload).Methods("POST")
	api.HandleFunc("/list", kits.HandleList).Methods("POST")
	api.HandleFunc("/import", kits.HandleImport).Methods("POST")
	api.HandleFunc("/delete", kits.HandleDelete).Methods("POST")
	api.HandleFunc("/image", kits.HandleImage).Methods("POST")

	r.PathPrefix(app.Config.UploadsURL + "/").Handler(
		http.StripPrefix(app.Config.UploadsURL+"/", http.FileServer(http.Dir(app.Config.UploadsRoot))))

	return r
}

// Serve runs the HTTP server until ctx is cancelled.
func (app *App) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + app.Config.Port,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.Log.WithField("port", app.Config.Port).Info("Server starting")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		app.Log.Info("Server shutting down")
		return server.Shutdown(shutdownCtx)
	}
}
