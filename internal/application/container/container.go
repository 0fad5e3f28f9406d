// Package container provides dependency injection for all singleton services
package container

import (
	"errors"

	"github.com/kirtipatel215/IMS-sub000/internal/application/services"
	"github.com/kirtipatel215/IMS-sub000/internal/domain/portal"
	"github.com/kirtipatel215/IMS-sub000/internal/domain/user"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/caching"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/email"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/fallback"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/messaging"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/persistence/database"
	persistportal "github.com/kirtipatel215/IMS-sub000/internal/infrastructure/persistence/portal"
	persistuser "github.com/kirtipatel215/IMS-sub000/internal/infrastructure/persistence/user"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/storage"
	"github.com/kirtipatel215/IMS-sub000/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies.
// Degraded is set when no backing store could be reached at startup; every
// service then runs on fallback datasets and simulated writes.
type Container struct {
	SessionService     *services.SessionService
	DashboardService   *services.DashboardService
	RequestService     *services.RequestService
	CertificateService *services.CertificateService
	OpportunityService *services.OpportunityService
	UploadService      *services.UploadService

	Logger      *logging.ChanneledLogger
	Broadcaster *messaging.InvalidationBroadcaster
	DB          *database.Database
	Degraded    bool
}

// NewContainer connects infrastructure and wires every service singleton.
// A missing backing store is not an error; the container comes up degraded.
func NewContainer(logger *logging.ChanneledLogger) (*Container, error) {
	db, err := database.Connect(&database.Config{
		TursoDatabaseURL: config.TursoDatabaseURL,
		TursoAuthToken:   config.TursoAuthToken,
		SQLitePath:       config.SQLitePath,
		MaxOpenConns:     config.DBMaxOpenConns,
		MaxIdleConns:     config.DBMaxIdleConns,
		ConnMaxLifetime:  config.DBConnMaxLifetime,
	})
	degraded := false
	if err != nil {
		if !errors.Is(err, portal.ErrBackendAbsent) {
			return nil, err
		}
		degraded = true
		logger.Startup().Warn("No backing store configured, running on fallback datasets")
	}

	// Repositories stay nil interfaces in degraded mode. Services treat a nil
	// repository as the degraded signal and never probe the store again.
	var (
		userRepo  user.Repository
		reqRepo   portal.RequestRepository
		certRepo  portal.CertificateRepository
		oppRepo   portal.OpportunityRepository
		statsRepo portal.StatsRepository
	)
	if !degraded {
		userRepo = persistuser.NewSQLRepository(db, logger)
		reqRepo = persistportal.NewSQLRequestRepository(db, logger)
		certRepo = persistportal.NewSQLCertificateRepository(db, logger)
		oppRepo = persistportal.NewSQLOpportunityRepository(db, logger)
		statsRepo = persistportal.NewSQLStatsRepository(db, logger)
	}

	sessions := caching.NewCache(logger)
	dataCache := caching.NewCache(logger)
	provider := fallback.NewProvider()
	broadcaster := messaging.NewInvalidationBroadcaster(logger)

	var mailer email.Service
	if config.ResendAPIKey != "" {
		mailer = email.NewResendClient(config.ResendAPIKey, config.WelcomeEmailFrom, logger)
	} else {
		mailer = email.NewNoopClient(logger)
	}

	policy := user.NewPolicy(config.StudentEmailDomain, config.StaffEmailDomain, config.AdminEmails)
	store := storage.NewDiskStore(config.MediaRoot, config.MediaBaseURL, logger)

	c := &Container{
		Logger:      logger,
		Broadcaster: broadcaster,
		DB:          db,
		Degraded:    degraded,
	}

	c.SessionService = services.NewSessionService(userRepo, policy, sessions, dataCache,
		mailer, logger, services.SessionConfig{
			JWTSecret:         config.JWTSecret,
			SessionTTL:        config.SessionTTL,
			QueryTimeout:      config.DBQueryTimeout,
			AdminEmail:        firstAdminEmail(),
			AdminPasswordHash: config.AdminPasswordHash,
		})

	c.DashboardService = services.NewDashboardService(statsRepo, dataCache, provider,
		logger, config.DashboardTTL, config.DBQueryTimeout)
	c.RequestService = services.NewRequestService(reqRepo, dataCache, provider,
		broadcaster, logger, config.RequestsTTL, config.DBQueryTimeout)
	c.CertificateService = services.NewCertificateService(certRepo, dataCache, provider,
		broadcaster, logger, config.CertificatesTTL, config.DBQueryTimeout)
	c.OpportunityService = services.NewOpportunityService(oppRepo, dataCache, provider,
		broadcaster, logger, config.OpportunitiesTTL, config.DBQueryTimeout)

	c.UploadService = services.NewUploadService(store, logger, services.UploadConfig{
		MinSizeBytes: config.UploadMinSizeBytes,
		MaxSizeBytes: config.UploadMaxSizeBytes,
		AllowedTypes: config.AllowedContentTypes,
		Timeout:      config.UploadTimeout,
		RetryTimeout: config.UploadRetryTimeout,
	})

	return c, nil
}

// Close releases everything the container owns.
func (c *Container) Close() {
	c.Broadcaster.Stop()
	if c.DB != nil {
		c.DB.Close()
	}
}

func firstAdminEmail() string {
	if len(config.AdminEmails) > 0 {
		return config.AdminEmails[0]
	}
	return "admin@" + config.StaffEmailDomain
}
