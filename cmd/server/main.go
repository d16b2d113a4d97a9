package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devfork/arena/internal/agents"
	"github.com/devfork/arena/internal/api"
	"github.com/devfork/arena/internal/api/handler"
	"github.com/devfork/arena/internal/app/arena"
	"github.com/devfork/arena/internal/app/evaluator"
	"github.com/devfork/arena/internal/app/service"
	"github.com/devfork/arena/internal/app/worker"
	"github.com/devfork/arena/internal/common/security"
	"github.com/devfork/arena/internal/domain/repository"
	"github.com/devfork/arena/internal/platform/config"
	"github.com/devfork/arena/internal/platform/database"
	"github.com/devfork/arena/internal/platform/queue"

	"github.com/redis/go-redis/v9"
)

func main() {
	config.Load()
	security.InitJWT()

	var (
		userRepo        repository.UserRepository
		challengeRepo   repository.ChallengeRepository
		agentRepo       repository.AgentRepository
		competitionRepo repository.CompetitionRepository
		submissionRepo  repository.SubmissionRepository
	)

	if config.AppConfig.DBEnabled {
		database.Connect()
		defer database.Close()
		userRepo = repository.NewPgUserRepository(database.DB)
		challengeRepo = repository.NewPgChallengeRepository(database.DB)
		agentRepo = repository.NewPgAgentRepository(database.DB)
		competitionRepo = repository.NewPgCompetitionRepository(database.DB)
		submissionRepo = repository.NewPgSubmissionRepository(database.DB)
	} else {
		log.Println("Database disabled, using in-memory repositories")
		userRepo = repository.NewMemoryUserRepository()
		challengeRepo = repository.NewMemoryChallengeRepository()
		agentRepo = repository.NewMemoryAgentRepository()
		competitionRepo = repository.NewMemoryCompetitionRepository()
		submissionRepo = repository.NewMemorySubmissionRepository()
	}

	var rdb *redis.Client
	if config.AppConfig.RedisEnabled {
		queue.ConnectRedis()
		defer queue.CloseRedis()
		rdb = queue.RDB
	} else {
		log.Println("Redis disabled, competitions run in-process")
	}

	factory := agents.NewFactory(agents.ProviderConfig{
		AnthropicAPIKey:  config.AppConfig.AnthropicAPIKey,
		AnthropicBaseURL: config.AppConfig.AnthropicBaseURL,
		OpenAIAPIKey:     config.AppConfig.OpenAIAPIKey,
		OpenAIBaseURL:    config.AppConfig.OpenAIBaseURL,
		RequestTimeout:   config.AppConfig.LLMRequestTimeout,
	})
	registry := agents.NewRegistry(agentRepo, factory)
	pythonEval := evaluator.NewPythonEvaluator(config.AppConfig.EvaluatorPythonBinary, config.AppConfig.EvaluatorTimeout)
	runner := arena.NewRunner(registry, pythonEval, submissionRepo)
	orchestrator := arena.NewOrchestrator(runner, registry, competitionRepo)

	authService := service.NewAuthService(userRepo)
	challengeService := service.NewChallengeService(challengeRepo)
	agentService := service.NewAgentService(agentRepo, config.AppConfig.DefaultMaxIterations)
	competitionService := service.NewCompetitionService(
		competitionRepo, challengeRepo, agentRepo, submissionRepo, orchestrator,
		rdb, config.AppConfig.CompetitionQueueName, config.AppConfig.ResultsCacheTTL,
		config.AppConfig.DefaultAgentTimeout,
	)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	if rdb != nil {
		competitionWorker := worker.NewCompetitionWorker(rdb, competitionService, config.AppConfig.CompetitionQueueName)
		go competitionWorker.Start(workerCtx)
	}

	router := api.NewRouter(
		handler.NewAuthHandler(authService),
		handler.NewChallengeHandler(challengeService),
		handler.NewAgentHandler(agentService),
		handler.NewCompetitionHandler(competitionService),
	)

	server := &http.Server{
		Addr:    ":" + config.AppConfig.APIPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stopWorker()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
