package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mytolk/mytolk-server/internal/api/http/handler"
	"github.com/mytolk/mytolk-server/internal/api/http/middleware"
	"github.com/mytolk/mytolk-server/internal/feed"
	"github.com/mytolk/mytolk-server/internal/logger"
	"github.com/mytolk/mytolk-server/internal/model"
	"github.com/mytolk/mytolk-server/internal/notify"
	"github.com/mytolk/mytolk-server/internal/service"
)

// Router wires the HTTP API: handler construction, middleware ordering
// and route registration.
type Router struct {
	authService      *service.Auth
	messageService   *service.Message
	directoryService *service.Directory
	profileService   *service.Profile
	bus              feed.Bus
	notifier         *notify.RedisNotifier
	contextManager   model.ContextManager
	logger           *logger.Logger
}

// New creates a new Router instance.
func New(
	authService *service.Auth,
	messageService *service.Message,
	directoryService *service.Directory,
	profileService *service.Profile,
	bus feed.Bus,
	notifier *notify.RedisNotifier,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:      authService,
		messageService:   messageService,
		directoryService: directoryService,
		profileService:   profileService,
		bus:              bus,
		notifier:         notifier,
		contextManager:   contextManager,
		logger:           logger,
	}
}

// Register builds the route tree. Authentication applies to everything
// except the sign-up, sign-in, refresh and password reset endpoints.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.authService.Tokens(), r.contextManager, r.logger)

	authHandler := handler.NewAuth(r.authService, r.authService.Tokens(), r.contextManager, r.logger)
	directoryHandler := handler.NewDirectory(r.directoryService, r.logger)
	messageHandler := handler.NewMessage(r.messageService, r.contextManager, r.logger)
	profileHandler := handler.NewProfile(r.profileService, r.contextManager, r.logger)
	wsHandler := handler.NewWS(r.messageService, r.profileService, r.bus, r.notifier, r.contextManager, r.logger)

	root := mux.NewRouter()
	root.Use(logging.Handler)

	api := root.PathPrefix("/api").Subrouter()

	public := api.PathPrefix("/auth").Subrouter()
	public.HandleFunc("/signup", authHandler.SignUp).Methods(http.MethodPost)
	public.HandleFunc("/signin", authHandler.SignIn).Methods(http.MethodPost)
	public.HandleFunc("/refresh", authHandler.Refresh).Methods(http.MethodPost)
	public.HandleFunc("/reset-password", authHandler.ResetPassword).Methods(http.MethodPost)
	public.HandleFunc("/reset-password/complete", authHandler.CompletePasswordReset).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(authenticate.Handler)

	authed.HandleFunc("/auth/signout", authHandler.SignOut).Methods(http.MethodPost)
	authed.HandleFunc("/auth/password", authHandler.UpdatePassword).Methods(http.MethodPut)
	authed.HandleFunc("/auth/email", authHandler.UpdateEmail).Methods(http.MethodPut)
	authed.HandleFunc("/auth/account", authHandler.DeleteAccount).Methods(http.MethodDelete)
	authed.HandleFunc("/auth/account/reset", authHandler.ResetAccount).Methods(http.MethodPost)

	authed.HandleFunc("/users/search", directoryHandler.Search).Methods(http.MethodGet)
	authed.HandleFunc("/users/me", profileHandler.Get).Methods(http.MethodGet)
	authed.HandleFunc("/users/me", profileHandler.Update).Methods(http.MethodPut)
	authed.HandleFunc("/users/me/picture", profileHandler.UploadPicture).Methods(http.MethodPost)

	authed.HandleFunc("/messages", messageHandler.Send).Methods(http.MethodPost)
	authed.HandleFunc("/messages/{id}", messageHandler.Edit).Methods(http.MethodPut)
	authed.HandleFunc("/messages/{id}", messageHandler.Delete).Methods(http.MethodDelete)
	authed.HandleFunc("/conversations/{partner_id}", messageHandler.Conversation).Methods(http.MethodGet)
	authed.HandleFunc("/chats/recent", messageHandler.RecentChats).Methods(http.MethodGet)

	authed.HandleFunc("/ws", wsHandler.Connect).Methods(http.MethodGet)

	return root
}
