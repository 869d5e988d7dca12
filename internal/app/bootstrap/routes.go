// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	authgooglefeature "github.com/msalazarj/primebug/internal/app/features/authgoogle"
	documentsfeature "github.com/msalazarj/primebug/internal/app/features/documents"
	healthfeature "github.com/msalazarj/primebug/internal/app/features/health"
	issuesfeature "github.com/msalazarj/primebug/internal/app/features/issues"
	loginfeature "github.com/msalazarj/primebug/internal/app/features/login"
	logoutfeature "github.com/msalazarj/primebug/internal/app/features/logout"
	profilefeature "github.com/msalazarj/primebug/internal/app/features/profile"
	signupfeature "github.com/msalazarj/primebug/internal/app/features/signup"
	teamsfeature "github.com/msalazarj/primebug/internal/app/features/teams"
	"github.com/msalazarj/primebug/internal/app/issuewatch"
	"github.com/msalazarj/primebug/internal/app/provider/authp"
	documentstore "github.com/msalazarj/primebug/internal/app/store/documents"
	issuestore "github.com/msalazarj/primebug/internal/app/store/issues"
	loginstore "github.com/msalazarj/primebug/internal/app/store/logins"
	"github.com/msalazarj/primebug/internal/app/store/oauthstate"
	profilestore "github.com/msalazarj/primebug/internal/app/store/profiles"
	"github.com/msalazarj/primebug/internal/app/store/resettokens"
	teamstore "github.com/msalazarj/primebug/internal/app/store/teams"
	"github.com/msalazarj/primebug/internal/app/system/auth"
	"github.com/msalazarj/primebug/internal/app/system/mailer"
	"github.com/msalazarj/primebug/internal/app/system/ratelimit"
	"github.com/msalazarj/primebug/internal/app/system/teamctx"
	"github.com/msalazarj/primebug/internal/app/system/uploadjobs"
	"github.com/msalazarj/primebug/internal/app/upload"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler. WAFFLE calls this after
// configuration, DB connections, schema setup, and Startup have completed.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(
		appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain,
		appCfg.SessionTTL, secure, logger,
	)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	profiles := profilestore.New(db)
	teams := teamstore.New(db)
	documents := documentstore.New(db)
	issues := issuestore.New(db)
	states := oauthstate.New(db)
	resets := resettokens.New(db)
	logins := loginstore.New(db)

	mail := mailer.New(
		appCfg.MailSMTPHost, appCfg.MailSMTPPort,
		appCfg.MailSMTPUser, appCfg.MailSMTPPass,
		appCfg.MailFrom, appCfg.MailFromName,
	)
	provider := authp.NewMongoProvider(db, resets, mail, logger)

	registry := teamctx.NewRegistry(profiles, teams, logger)
	limiter := ratelimit.New(appCfg.LoginRateLimit, appCfg.LoginRateWindow)

	pipeline := upload.NewPipeline(deps.Blobs, documents, logger)
	jobs := uploadjobs.NewRegistry(logger)

	source := issuewatch.NewMongoChangeSource(issues, logger)
	watcher := issuewatch.NewWatcher(issues, profiles, source, logger)

	r := chi.NewRouter()

	// Session user first, then the per-user team session on top of it.
	r.Use(sessionMgr.LoadSessionUser)
	r.Use(teamctx.Middleware(registry))

	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Blobs, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	loginHandler := loginfeature.NewHandler(provider, sessionMgr, profiles, logins, limiter, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, registry, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	signupHandler := signupfeature.NewHandler(provider, sessionMgr, profiles, limiter, logger)
	r.Mount("/signup", signupfeature.Routes(signupHandler))

	googleHandler := authgooglefeature.NewHandler(
		profiles, sessionMgr, states, logins,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL,
		logger,
	)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	profileHandler := profilefeature.NewHandler(profiles, provider, sessionMgr, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))

	teamsHandler := teamsfeature.NewHandler(teams, profiles, logger)
	r.Mount("/teams", teamsfeature.Routes(teamsHandler, sessionMgr))

	documentsHandler := documentsfeature.NewHandler(documents, pipeline, jobs, logger)
	r.Mount("/documents", documentsfeature.Routes(documentsHandler, sessionMgr))

	issuesHandler := issuesfeature.NewHandler(issues, profiles, watcher, logger)
	r.Mount("/issues", issuesfeature.Routes(issuesHandler, sessionMgr))

	return r, nil
}
