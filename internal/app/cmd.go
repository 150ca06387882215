package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coindxter/class-music/internal/config"
	"github.com/coindxter/class-music/internal/discovery"
	"github.com/coindxter/class-music/internal/downloader"
	"github.com/coindxter/class-music/internal/events"
	"github.com/coindxter/class-music/internal/provider"
	"github.com/coindxter/class-music/internal/provider/registry"
	"github.com/coindxter/class-music/internal/store"
	"github.com/coindxter/class-music/internal/worker"

	// register search backends
	_ "github.com/coindxter/class-music/internal/provider/lastfm"
	_ "github.com/coindxter/class-music/internal/provider/ytdlp"
)

// App definition
type App struct {
	config       *config.Config
	Store        store.Store
	hub          *events.Hub
	runner       *discovery.Runner
	orchestrator *worker.Orchestrator
	logger       *slog.Logger
	version      string
}

// Setup initializes the app with the given version
func Setup(version string) App {
	return App{
		config:  config.Load(),
		version: version,
		hub:     events.NewHub(),
	}
}

// Init wires store, providers and services and returns the router.
// The Store can be injected before calling Init, tests do that.
func (a *App) Init() (*gin.Engine, error) {
	a.logger = a.createLogger()

	if a.Store == nil {
		db, err := store.NewSqliteDb(a.config.DbPath)
		if err != nil {
			return nil, err
		}
		a.Store = db
	}

	primary, err := a.searchProvider("ytdlp")
	if err != nil {
		return nil, err
	}
	var fallback provider.SearchProvider
	if a.config.FallbackSearch {
		fallback, err = a.searchProvider("lastfm")
		if err != nil {
			return nil, err
		}
	}

	a.runner = discovery.NewRunner(
		a.Store,
		primary,
		fallback,
		a.config.SearchResults,
		a.config.SearchTimeout,
		a.logger,
	)
	a.orchestrator = worker.NewOrchestrator(
		a.Store,
		downloader.New(a.config, a.logger),
		a.hub,
		a.config.Workers,
		a.config.SearchTimeout*10,
		a.logger,
	)

	r := gin.Default()

	r.GET("/", a.rootHandler)
	r.GET("/version", func(c *gin.Context) {
		c.Data(http.StatusOK, gin.MIMEJSON, []byte(`{"version": "`+a.version+`" }`))
	})

	r.POST("/classes", a.createClassHandler)
	r.GET("/classes", a.listClassesHandler)
	r.DELETE("/classes/:id", a.deleteClassHandler)
	r.GET("/classes/:id/students", a.listStudentsHandler)

	r.POST("/students", a.createStudentHandler)
	r.DELETE("/students/:id", a.deleteStudentHandler)
	r.GET("/students/:id/artists", a.listArtistsHandler)
	r.GET("/students/:id/downloads", a.downloadsHandler)

	r.POST("/artists", a.createArtistHandler)
	r.DELETE("/artists/:id", a.deleteArtistHandler)
	r.GET("/artists/:id/songs", a.listSongsHandler)
	r.POST("/artists/:id/songs/auto", a.autoSongHandler)

	r.POST("/songs", a.createSongHandler)
	r.DELETE("/songs/:id", a.deleteSongHandler)

	r.GET("/full", a.fullTreeHandler)
	r.GET("/discovery/run", a.discoveryRunHandler)
	r.GET("/downloads/:filename", a.downloadFileHandler)

	// SSE Endpoint
	r.GET("/events", a.eventsHandler)

	return r, nil
}

// Run main app
func (a *App) Run() (err error) {
	r, err := a.Init()
	if err != nil {
		return err
	}
	defer func() {
		cerr := a.Store.Close()
		if err == nil {
			err = cerr
		}
	}()
	return r.Run(fmt.Sprintf(":%s", a.config.ListenPort))
}

func (a *App) searchProvider(name string) (provider.SearchProvider, error) {
	newFn := registry.Get(name)
	if newFn == nil {
		return nil, fmt.Errorf("unknown search provider: %s", name)
	}
	return newFn(a.config, a.logger), nil
}
