package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tiku_backend/internal/config"
	"tiku_backend/internal/controller"
	"tiku_backend/internal/repository"
	"tiku_backend/internal/service"
	"tiku_backend/pkg/database"
	"tiku_backend/pkg/logger"
	"tiku_backend/pkg/monitoring"
	"tiku_backend/pkg/security"
	"tiku_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services

	sweepStop chan struct{}
}

type repositories struct {
	user     *repository.UserRepository
	subject  *repository.SubjectRepository
	chapter  *repository.ChapterRepository
	question *repository.QuestionRepository
	session  *repository.SessionRepository
	answer   *repository.AnswerRecordRepository
	aiRecord *repository.AiGradingRecordRepository
	wrong    *repository.WrongQuestionRepository
	favorite *repository.FavoriteRepository
}

type services struct {
	selector      *service.QuestionSelector
	grading       *service.GradingService
	practice      *service.PracticeService
	review        *service.ReviewService
	wrongQuestion *service.WrongQuestionService
	favorite      *service.FavoriteService
	statistics    *service.StatisticsService
	ranking       *service.RankingService
}

type controllers struct {
	practice      *controller.PracticeController
	grading       *controller.GradingController
	review        *controller.ReviewController
	wrongQuestion *controller.WrongQuestionController
	favorite      *controller.FavoriteController
	statistics    *controller.StatisticsController
	ranking       *controller.RankingController
	content       *controller.ContentController
	health        *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		subject:  repository.NewSubjectRepository(db),
		chapter:  repository.NewChapterRepository(db),
		question: repository.NewQuestionRepository(db),
		session:  repository.NewSessionRepository(db),
		answer:   repository.NewAnswerRecordRepository(db),
		aiRecord: repository.NewAiGradingRecordRepository(db),
		wrong:    repository.NewWrongQuestionRepository(db),
		favorite: repository.NewFavoriteRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	aiClient := service.NewOpenAICompatClient(cfg.AI)

	s.selector = service.NewQuestionSelector(repos.question, repos.answer, repos.wrong, repos.favorite, repos.chapter)
	s.grading = service.NewGradingService(cfg, db, repos.question, repos.answer, repos.aiRecord, repos.wrong, repos.user, aiClient)
	s.practice = service.NewPracticeService(repos.session, repos.question, repos.answer, s.selector, s.grading)
	s.review = service.NewReviewService(db, repos.aiRecord, repos.answer, s.grading)
	s.wrongQuestion = service.NewWrongQuestionService(db, repos.wrong, repos.question)
	s.favorite = service.NewFavoriteService(repos.favorite, repos.question)
	s.statistics = service.NewStatisticsService(cfg, repos.user, repos.answer, repos.wrong, repos.favorite, repos.subject, repos.chapter)
	s.ranking = service.NewRankingService(cfg, rdb, repos.user, repos.answer)

	// 定稿即清榜单缓存
	s.grading.Boards = s.ranking

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		practice:      controller.NewPracticeController(s.practice),
		grading:       controller.NewGradingController(s.grading),
		review:        controller.NewReviewController(s.review),
		wrongQuestion: controller.NewWrongQuestionController(s.wrongQuestion),
		favorite:      controller.NewFavoriteController(s.favorite),
		statistics:    controller.NewStatisticsController(s.statistics),
		ranking:       controller.NewRankingController(s.ranking),
		content:       controller.NewContentController(repos.subject, repos.chapter, repos.question),
		health:        controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 10000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 周期标记超时会话
func (a *App) startBackgroundTasks(s *services) {
	a.sweepStop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.practice.SweepExpired(context.Background())
			case <-a.sweepStop:
				return
			}
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// 榜单缓存是唯一依赖Redis的功能，连不上时降级运行
		logger.Log.Warn("Redis unavailable, ranking cache disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, repos, db, rdb)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("tiku-engine", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.sweepStop != nil {
		close(a.sweepStop)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
