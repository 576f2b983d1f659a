// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"testops-assistant-go/internal/config"
	"testops-assistant-go/internal/handler"
	"testops-assistant-go/internal/middleware"
	"testops-assistant-go/internal/model"
	"testops-assistant-go/internal/repository"
	"testops-assistant-go/internal/service"
	"testops-assistant-go/pkg/backend"
	"testops-assistant-go/pkg/database"
	"testops-assistant-go/pkg/es"
	"testops-assistant-go/pkg/kafka"
	"testops-assistant-go/pkg/log"
	"testops-assistant-go/pkg/storage"
	"testops-assistant-go/pkg/token"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库和 Redis
	database.InitMySQL(cfg.Database.MySQL.DSN, &model.User{}, &model.ChatSession{}, &model.Message{})
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if cfg.MinIO.Enabled {
		storage.InitMinIO(cfg.MinIO)
	}
	if cfg.Elasticsearch.Enabled {
		if err := es.InitES(cfg.Elasticsearch); err != nil {
			log.Errorf("es 初始化失败 %s", err)
			return
		}
	}
	if cfg.Kafka.Enabled {
		kafka.InitProducer(cfg.Kafka)
		defer kafka.Close()
	}

	// 4. 初始化 Repository
	userRepository := repository.NewUserRepository(database.DB)
	sessionRepository := repository.NewSessionRepository(database.DB)
	artifactRepository := repository.NewArtifactRepository(database.RDB, time.Duration(cfg.Artifact.CacheTTLHours)*time.Hour)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	backendClient := backend.NewClient(cfg.Backend)
	userService := service.NewUserService(userRepository, jwtManager)
	sessionService := service.NewSessionService(sessionRepository)
	turnService := service.NewTurnService(sessionRepository, artifactRepository, backendClient)
	searchService := service.NewSearchService()

	// 6. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 7. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		// Auth 路由组
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", handler.NewAuthHandler(userService).RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			// 无需认证的路由 (公开访问)
			users.POST("/register", handler.NewUserHandler(userService).Register)
			users.POST("/login", handler.NewUserHandler(userService).Login)

			// 需要认证的路由 (仅限登录用户访问)
			authed := users.Group("/")
			authed.Use(middleware.AuthMiddleware(jwtManager, userService))
			{
				authed.GET("/me", handler.NewUserHandler(userService).GetProfile)
			}
		}

		// Session 路由组，需要认证
		sessions := apiV1.Group("/sessions")
		sessions.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			sessions.POST("", handler.NewSessionHandler(sessionService).CreateSession)
			sessions.GET("", handler.NewSessionHandler(sessionService).GetSessions)
			sessions.GET("/:id/messages", handler.NewSessionHandler(sessionService).GetMessages)
			sessions.DELETE("/:id", handler.NewSessionHandler(sessionService).DeleteSession)
		}

		// Turn 路由组：同步提交一轮对话，需要认证
		turns := apiV1.Group("/turns")
		turns.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			turns.POST("", handler.NewTurnHandler(turnService).SubmitTurn)
		}

		// Artifact 路由组：查看生成产物的完整代码，需要认证
		artifacts := apiV1.Group("/artifacts")
		artifacts.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			artifacts.GET("/:id", handler.NewTurnHandler(turnService).GetArtifact)
		}

		// Search 路由组
		search := apiV1.Group("/search")
		search.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			search.GET("/turns", handler.NewSearchHandler(searchService).SearchTurns)
		}
	}

	// Chat 路由 (WebSocket)
	r.GET("/chat/:token", handler.NewChatHandler(turnService, userService, jwtManager).Handle)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
