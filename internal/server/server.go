package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"anoa.com/blogapp/internal/config"
	"anoa.com/blogapp/internal/entity"
	"anoa.com/blogapp/internal/middleware"
	"anoa.com/blogapp/internal/scheduler"
	"anoa.com/blogapp/pkg/database"
	"anoa.com/blogapp/pkg/logger"
	"anoa.com/blogapp/pkg/metrics"
	"anoa.com/blogapp/pkg/password"
	"anoa.com/blogapp/pkg/storage"
	"anoa.com/blogapp/pkg/validator"

	adminHttp "anoa.com/blogapp/internal/modules/admin/delivery/http"
	adminService "anoa.com/blogapp/internal/modules/admin/service"

	authHttp "anoa.com/blogapp/internal/modules/auth/delivery/http"
	authService "anoa.com/blogapp/internal/modules/auth/service"
	"anoa.com/blogapp/internal/modules/auth/session"

	categoryHttp "anoa.com/blogapp/internal/modules/category/delivery/http"
	categoryRepo "anoa.com/blogapp/internal/modules/category/repository"
	categoryService "anoa.com/blogapp/internal/modules/category/service"

	commentHttp "anoa.com/blogapp/internal/modules/comment/delivery/http"
	commentRepo "anoa.com/blogapp/internal/modules/comment/repository"
	commentService "anoa.com/blogapp/internal/modules/comment/service"

	migrationHttp "anoa.com/blogapp/internal/modules/migration/delivery/http"
	migrationRepo "anoa.com/blogapp/internal/modules/migration/repository"
	migrationService "anoa.com/blogapp/internal/modules/migration/service"

	notiHttp "anoa.com/blogapp/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/blogapp/internal/modules/notification/repository"
	notifService "anoa.com/blogapp/internal/modules/notification/service"

	postHttp "anoa.com/blogapp/internal/modules/post/delivery/http"
	postRepo "anoa.com/blogapp/internal/modules/post/repository"
	postService "anoa.com/blogapp/internal/modules/post/service"

	searchService "anoa.com/blogapp/internal/modules/search/service"

	userHttp "anoa.com/blogapp/internal/modules/user/delivery/http"
	userRepo "anoa.com/blogapp/internal/modules/user/repository"
	userService "anoa.com/blogapp/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	jobs        *scheduler.Scheduler
}

// NewServer wires every module. redisClient may be nil; Meilisearch and
// Cloudinary are enabled only when configured.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if err := validator.Register(); err != nil {
		return nil, err
	}

	var imageStorage storage.ImageStorage
	if cfg.CloudinaryURL != "" {
		s, err := storage.NewCloudinaryStorage(cfg.CloudinaryURL)
		if err != nil {
			return nil, err
		}
		imageStorage = s
	} else {
		logger.Log.Warn("CLOUDINARY_URL not set, profile picture uploads are disabled")
	}

	var meiliSvc searchService.MeiliSearchService
	if cfg.MeiliSearchHost != "" {
		meiliHost := cfg.MeiliSearchHost
		if !strings.HasPrefix(meiliHost, "http") {
			meiliHost = "http://" + meiliHost + ":7700"
		}
		meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		meiliSvc = searchService.NewMeiliSearchService(meiliClient)
	} else {
		logger.Log.Warn("MEILISEARCH_HOST not set, post search is disabled")
	}

	hasher := password.NewHasher(cfg.BcryptCost)
	sessions := session.NewManager(session.Options{
		Secret:      cfg.JWTSecret,
		TTL:         cfg.SessionTTL,
		RememberTTL: cfg.SessionRememberTTL,
		ResetTTL:    cfg.PasswordResetTTL,
	}, redisClient)

	userRepo := userRepo.NewUserRepository(db)
	categoryRepo := categoryRepo.NewCategoryRepository(db)
	postRepo := postRepo.NewPostRepository(db)
	commentRepo := commentRepo.NewCommentRepository(db)

	authSvc := authService.NewAuthService(userRepo, sessions, hasher, imageStorage, authService.Options{
		LockoutMaxAttempts: cfg.LockoutMaxAttempts,
		LockoutDuration:    cfg.LockoutDuration,
		UploadFolder:       cfg.CloudinaryUploadFolder,
	})
	authHandler := authHttp.NewAuthHandler(authSvc, authHttp.CookieOptions{
		Name:             cfg.SessionCookieName,
		Secure:           !cfg.IsDevelopment(),
		ExposeResetToken: cfg.IsDevelopment(),
	})

	adminSvc := adminService.NewAdminService(userRepo)
	adminHandler := adminHttp.NewAdminHandler(adminSvc)

	accountSvc := userService.NewUserService(userRepo, hasher, userService.Options{
		Lockout: entity.LockoutPolicy{MaxAttempts: cfg.LockoutMaxAttempts, Duration: cfg.LockoutDuration},
	})
	accountHandler := userHttp.NewAccountHandler(accountSvc)

	categorySvc := categoryService.NewCategoryService(categoryRepo)
	categoryHandler := categoryHttp.NewCategoryHandler(categorySvc)

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient, cfg.AllowedOrigins)

	postSvc := postService.NewPostService(postRepo, categoryRepo, userRepo, meiliSvc, redisClient, postService.Options{
		PostCooldown: cfg.RateLimitPost,
	})
	postHandler := postHttp.NewPostHandler(postSvc)

	commentSvc := commentService.NewCommentService(commentRepo, postRepo, notificationSvc, redisClient, commentService.Options{
		CommentCooldown: cfg.RateLimitComment,
	})
	commentHandler := commentHttp.NewCommentHandler(commentSvc)

	migrationSvc := migrationService.NewMigrationService(
		migrationRepo.NewMigrationRepository(db),
		userRepo,
		hasher,
		sessions,
		redisClient,
		migrationService.Options{
			LegacyTable: cfg.LegacyUsersTable,
			BackupTable: cfg.LegacyUsersBackupTable,
		},
	)
	migrationHandler := migrationHttp.NewMigrationHandler(migrationSvc)

	jobs := scheduler.New(cfg.JobTimeout)
	if err := jobs.Register(scheduler.Func{
		JobName: "notification-cleanup",
		Spec:    cfg.NotificationCleanupSchedule,
		Fn: func(ctx context.Context) error {
			_, err := notificationSvc.PurgeRead(ctx, cfg.NotificationRetention)
			return err
		},
	}); err != nil {
		return nil, err
	}
	if meiliSvc != nil {
		if err := jobs.Register(scheduler.Func{
			JobName: "search-reindex",
			Spec:    cfg.SearchReindexSchedule,
			Fn: func(ctx context.Context) error {
				all, err := postRepo.FindAll(ctx, 0, 0)
				if err != nil {
					return err
				}
				return meiliSvc.ReindexPosts(all)
			},
		}); err != nil {
			return nil, err
		}
	}

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger("/health"))
	router.Use(middleware.Metrics("/health", "/metrics"))

	authMiddleware := middleware.NewAuthMiddleware(sessions, userRepo, cfg.SessionCookieName)
	requireAuth := authMiddleware.RequireAuth()
	requireAdmin := authMiddleware.RequireAdmin()

	s := &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		jobs:        jobs,
	}
	router.GET("/health", s.health)
	if cfg.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)

		auth.POST("/logout", requireAuth, authHandler.Logout)
		auth.POST("/change-password", requireAuth, authHandler.ChangePassword)
		auth.GET("/profile", requireAuth, authHandler.GetProfile)
		auth.PUT("/profile", requireAuth, authHandler.UpdateProfile)
		auth.POST("/profile/picture", requireAuth, authHandler.UploadProfilePicture)
		auth.GET("/user", requireAuth, authHandler.CurrentUser)

		adminGroup := auth.Group("/admin", requireAuth, requireAdmin)
		{
			adminGroup.GET("/users", adminHandler.GetAllUsers)
			adminGroup.PUT("/users/:id/roles", adminHandler.UpdateUserRoles)
			adminGroup.PUT("/users/:id/status", adminHandler.SetUserStatus)
		}
	}

	account := api.Group("/account")
	{
		account.POST("/AddUser", accountHandler.AddUser)
		account.POST("/LoginUser", accountHandler.LoginUser)
		account.GET("/GetUserProfile", accountHandler.GetUserProfile)
		account.POST("/UpdateUserProfile", requireAuth, accountHandler.UpdateUserProfile)
	}

	posts := api.Group("/post")
	{
		posts.GET("/GetPosts", postHandler.GetPosts)
		posts.GET("/GetPost/:postId", postHandler.GetPostByID)
		posts.GET("/GetUserPosts", postHandler.GetUserPosts)
		posts.GET("/CategoryFilter", postHandler.CategoryFilter)
		posts.GET("/Search", postHandler.Search)
		posts.POST("/AddPost", requireAuth, postHandler.CreatePost)
		posts.PUT("/UpdatePost/:postId", requireAuth, postHandler.UpdatePost)
		posts.DELETE("/deletePost/:postId", requireAuth, postHandler.DeletePost)
	}

	comments := api.Group("/comment")
	{
		comments.GET("/getComments/:postId", commentHandler.GetComments)
		comments.GET("/my-comments", requireAuth, commentHandler.GetMyComments)
		comments.GET("/:commentId", commentHandler.GetComment)
		comments.POST("/addComment", requireAuth, commentHandler.AddComment)
		comments.PUT("/:commentId", requireAuth, commentHandler.UpdateComment)
		comments.DELETE("/:commentId", requireAuth, commentHandler.DeleteComment)
	}

	categories := api.Group("/category")
	{
		categories.GET("/GetCategories", categoryHandler.GetAllCategories)
		categories.POST("/AddCategory", requireAuth, requireAdmin, categoryHandler.CreateCategory)
		categories.DELETE("/:categoryId", requireAuth, requireAdmin, categoryHandler.DeleteCategory)
	}

	notifications := api.Group("/notification", requireAuth)
	{
		notifications.GET("", notificationHandler.GetNotifications)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.PUT("/:id/read", notificationHandler.MarkAsRead)
		notifications.PUT("/read-all", notificationHandler.MarkAllAsRead)
		notifications.GET("/ws", notificationHandler.HandleWebSocket)
	}

	migration := api.Group("/migration", requireAuth, requireAdmin)
	{
		migration.POST("/migrate-users", migrationHandler.MigrateUsers)
		migration.GET("/migration-status", migrationHandler.MigrationStatus)
		migration.POST("/rollback-migration", migrationHandler.RollbackMigration)
	}

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Jobs returns the background job scheduler. The caller starts and stops it.
func (s *Server) Jobs() *scheduler.Scheduler {
	return s.jobs
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// health reports database and redis reachability.
func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{"status": "ok", "database": "up", "redis": "disabled"}

	if err := database.Ping(ctx, s.db); err != nil {
		logger.Log.WithError(err).Warn("health check: database unreachable")
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = "down"
	}
	if s.redisClient != nil {
		body["redis"] = "up"
		if err := s.redisClient.Ping(ctx).Err(); err != nil {
			logger.Log.WithError(err).Warn("health check: redis unreachable")
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["redis"] = "down"
		}
	}

	c.JSON(status, body)
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Location", "Retry-After", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
