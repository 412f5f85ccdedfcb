package main

// @title           LoanVault Core API
// @version         1.0
// @description     Privacy-focused retrieval API for mortgage documents. LoanVault Core redacts PII before indexing and answers questions over the redacted corpus.

// @contact.name   LoanVault OSS
// @contact.url    https://github.com/loanvault-labs/loanvault-core/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loanvault-labs/loanvault-core/internal/adapters/driven/ai"
	"github.com/loanvault-labs/loanvault-core/internal/adapters/driven/auth"
	"github.com/loanvault-labs/loanvault-core/internal/adapters/driven/memory"
	"github.com/loanvault-labs/loanvault-core/internal/adapters/driven/postgres"
	redisqueue "github.com/loanvault-labs/loanvault-core/internal/adapters/driven/queue/redis"
	redisadapter "github.com/loanvault-labs/loanvault-core/internal/adapters/driven/redis"
	"github.com/loanvault-labs/loanvault-core/internal/adapters/driven/vector/local"
	"github.com/loanvault-labs/loanvault-core/internal/adapters/driven/vector/opensearch"
	"github.com/loanvault-labs/loanvault-core/internal/adapters/driving/http"
	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driving"
	"github.com/loanvault-labs/loanvault-core/internal/core/services"
	"github.com/loanvault-labs/loanvault-core/internal/postprocessors"
	"github.com/loanvault-labs/loanvault-core/internal/runtime"
	"github.com/loanvault-labs/loanvault-core/internal/worker"
	"github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	// Get run mode from environment (RUN_MODE) or command line arg
	mode := getEnv("RUN_MODE", "all")
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	log.Printf("loanvault-core %s starting in %s mode", version, mode)

	// Configuration from environment
	jwtSecret := getEnv("JWT_SECRET", "development-secret-change-in-production")
	port := getEnvInt("PORT", 8080)
	databaseURL := getEnv("DATABASE_URL", "")
	redisURL := getEnv("REDIS_URL", "")
	vectorBackend := getEnv("VECTOR_BACKEND", "local")

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutdown signal received, stopping...")
		cancel()
	}()

	// ===== Initialize PostgreSQL (optional) =====
	var db *postgres.DB
	if databaseURL != "" {
		log.Println("Connecting to PostgreSQL...")
		dbConfig := postgres.Config{
			URL:             databaseURL,
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300)) * time.Second,
			ConnMaxIdleTime: time.Duration(getEnvInt("DB_CONN_MAX_IDLE_SEC", 60)) * time.Second,
		}
		var err error
		db, err = postgres.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		// Initialize schema (idempotent)
		if err := db.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		log.Println("PostgreSQL connected and schema initialized")
	}

	// ===== Initialize Redis (optional) =====
	var redisClient *redis.Client
	if redisURL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	// ===== AI services =====
	aiFactory := ai.NewFactory()
	aiRPS := getEnvFloat("AI_REQUESTS_PER_SECOND", 5)

	embeddingService, err := aiFactory.CreateEmbeddingService(&ai.EmbeddingSettings{
		Provider:          getEnv("EMBEDDING_PROVIDER", ai.ProviderOllama),
		APIKey:            getEnv("EMBEDDING_API_KEY", ""),
		Model:             getEnv("EMBEDDING_MODEL", ""),
		BaseURL:           getEnv("EMBEDDING_BASE_URL", ""),
		RequestsPerSecond: aiRPS,
	})
	if err != nil {
		log.Fatalf("Failed to create embedding service: %v", err)
	}

	safeChat, err := aiFactory.CreateChatService(&ai.ChatSettings{
		Provider:          getEnv("SAFE_CHAT_PROVIDER", ai.ProviderOllama),
		APIKey:            getEnv("SAFE_CHAT_API_KEY", ""),
		Model:             getEnv("SAFE_CHAT_MODEL", ""),
		BaseURL:           getEnv("SAFE_CHAT_BASE_URL", ""),
		RequestsPerSecond: aiRPS,
	})
	if err != nil {
		log.Fatalf("Failed to create safe chat service: %v", err)
	}

	capabilityChat, err := aiFactory.CreateChatService(&ai.ChatSettings{
		Provider:          getEnv("CAPABILITY_CHAT_PROVIDER", ""),
		APIKey:            getEnv("CAPABILITY_CHAT_API_KEY", ""),
		Model:             getEnv("CAPABILITY_CHAT_MODEL", ""),
		BaseURL:           getEnv("CAPABILITY_CHAT_BASE_URL", ""),
		RequestsPerSecond: aiRPS,
	})
	if err != nil {
		log.Fatalf("Failed to create capability chat service: %v", err)
	}

	recognizer, err := aiFactory.CreateRecognizer(&ai.RecognizerSettings{
		BaseURL:           getEnv("RECOGNIZER_BASE_URL", ""),
		Model:             getEnv("RECOGNIZER_MODEL", ""),
		RequestsPerSecond: aiRPS,
	})
	if err != nil {
		log.Fatalf("Failed to create recognizer: %v", err)
	}

	// Runtime configuration
	cacheBackend := "memory"
	if redisClient != nil {
		cacheBackend = "redis"
	}
	runtimeConfig := domain.NewRuntimeConfig(cacheBackend)
	runtimeServices := runtime.NewServices(runtimeConfig)
	runtimeServices.SetEmbeddingService(embeddingService)
	runtimeServices.SetChatService(domain.ProviderSafe, safeChat)
	runtimeServices.SetChatService(domain.ProviderCapability, capabilityChat)
	runtimeServices.SetRecognizer(recognizer)

	// ===== Vector index =====
	var vectorIndex driven.VectorIndex
	switch vectorBackend {
	case "opensearch":
		dimensions := 768
		if embeddingService != nil {
			dimensions = embeddingService.Dimensions()
		}
		osURL := getEnv("OPENSEARCH_URL", "http://localhost:9200")
		osIndex := opensearch.NewIndex(opensearch.DefaultConfig(osURL, dimensions))
		if err := osIndex.EnsureIndex(ctx); err != nil {
			log.Fatalf("Failed to ensure OpenSearch index: %v", err)
		}
		vectorIndex = osIndex
		log.Println("Using OpenSearch vector index")
	case "local":
		dataDir := getEnv("VECTOR_DATA_DIR", "./data/index")
		localIndex, err := local.Open(dataDir, slog.Default())
		if err != nil {
			log.Fatalf("Failed to open local vector index: %v", err)
		}
		vectorIndex = localIndex
		log.Printf("Using local vector index at %s", dataDir)
	default:
		log.Fatalf("Unknown vector backend: %s (use: local or opensearch)", vectorBackend)
	}

	// ===== Stores (PostgreSQL if available, otherwise in-memory) =====
	var documentStore driven.DocumentStore
	var vault driven.TokenVault
	if db != nil {
		encryptor, err := postgres.NewVaultEncryptor(vaultKey(jwtSecret))
		if err != nil {
			log.Fatalf("Failed to create vault encryptor: %v", err)
		}
		documentStore = postgres.NewDocumentStore(db)
		vault = postgres.NewTokenVault(db, encryptor)
		log.Println("Using PostgreSQL document store and token vault")
	} else {
		documentStore = memory.NewDocumentStore()
		vault = memory.NewTokenVault()
		log.Println("Using in-memory document store and token vault")
	}

	// ===== Cache, lock, queue (Redis if available, otherwise in-memory) =====
	var embeddingCache driven.EmbeddingCache
	var distributedLock driven.DistributedLock
	var taskQueue driven.TaskQueue
	if redisClient != nil {
		embeddingCache = redisadapter.NewEmbeddingCache(redisClient)
		distributedLock = redisadapter.NewLock(redisClient)
		var err error
		taskQueue, err = redisqueue.NewQueue(redisClient, fmt.Sprintf("worker-%d", os.Getpid()))
		if err != nil {
			log.Fatalf("Failed to create task queue: %v", err)
		}
		log.Println("Using Redis cache, lock, and task queue")
	} else {
		embeddingCache = memory.NewEmbeddingCache()
		distributedLock = memory.NewLock()
		taskQueue = memory.NewTaskQueue()
		log.Println("Using in-memory cache, lock, and task queue")
	}

	// ===== Driven adapters =====
	authAdapter := auth.NewAdapter(jwtSecret)
	pipeline := postprocessors.DefaultPipeline()

	// Service accounts
	accounts := serviceAccounts(authAdapter)

	// Services (core business logic)
	authService := services.NewAuthService(authAdapter, accounts,
		time.Duration(getEnvInt("TOKEN_TTL_MINUTES", 60))*time.Minute)
	detectionService := services.NewDetectionService(runtimeServices)
	redactionService := services.NewRedactionService(detectionService, vault, distributedLock)
	documentService := services.NewDocumentService(documentStore, taskQueue)
	routerService := services.NewRouterService(runtimeServices, slog.Default(),
		getEnvInt("ROUTER_CAPACITY", 32))

	ingestConfig := services.DefaultIngestConfig()
	ingestConfig.MaxConcurrency = getEnvInt("INGEST_CONCURRENCY", 4)
	ingestConfig.Logger = slog.Default()
	ingestService := services.NewIngestService(
		documentStore, vectorIndex, embeddingCache, pipeline,
		redactionService, runtimeServices, ingestConfig)

	queryConfig := services.DefaultQueryConfig()
	queryConfig.AllowCapability = getEnvBool("ALLOW_CAPABILITY_PROVIDER", true)
	queryConfig.Logger = slog.Default()
	queryService := services.NewQueryService(
		vectorIndex, documentStore, embeddingCache,
		redactionService, routerService, runtimeServices, queryConfig)

	// Log startup configuration
	log.Printf("Runtime config: cache_backend=%s, embedding=%t, recognizer=%t, safe_chat=%t, capability_chat=%t",
		runtimeConfig.CacheBackend,
		runtimeConfig.EmbeddingAvailable(),
		runtimeConfig.RecognizerAvailable(),
		runtimeConfig.ChatAvailable(domain.ProviderSafe),
		runtimeConfig.ChatAvailable(domain.ProviderCapability))

	var dbPinger http.Pinger
	if db != nil {
		dbPinger = db
	}
	var redisPinger http.Pinger
	if redisClient != nil {
		redisPinger = pingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	switch mode {
	case "api":
		// API-only mode: HTTP server, no worker
		runAPI(port, authService, documentService, redactionService, queryService, dbPinger, redisPinger)

	case "worker":
		// Worker-only mode: task processing, no HTTP server
		runWorkerMode(ctx, taskQueue, ingestService)

	case "all":
		// Combined mode: run both API and worker
		go runWorkerMode(ctx, taskQueue, ingestService)
		runAPI(port, authService, documentService, redactionService, queryService, dbPinger, redisPinger)

	default:
		log.Fatalf("Unknown mode: %s (use: api, worker, or all)", mode)
	}
}

// pingerFunc adapts a function to the http.Pinger interface
type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// vaultKey derives the 32-byte vault encryption key. VAULT_KEY takes
// precedence; without it the key is derived from the JWT secret so
// development setups work with a single secret.
func vaultKey(jwtSecret string) []byte {
	material := getEnv("VAULT_KEY", jwtSecret)
	key := sha256.Sum256([]byte(material))
	return key[:]
}

// serviceAccounts builds the fixed service account table from the
// environment. Passwords are hashed at startup; plaintext never leaves
// this function.
func serviceAccounts(authAdapter driven.AuthAdapter) []services.ServiceAccount {
	auths := []struct {
		name     string
		password string
		role     domain.Role
	}{
		{
			name:     getEnv("INTERNAL_ACCOUNT", "underwriting"),
			password: getEnv("INTERNAL_ACCOUNT_PASSWORD", "internal-dev-password"),
			role:     domain.RoleInternal,
		},
		{
			name:     getEnv("EXTERNAL_ACCOUNT", "broker-portal"),
			password: getEnv("EXTERNAL_ACCOUNT_PASSWORD", "external-dev-password"),
			role:     domain.RoleExternal,
		},
	}

	accounts := make([]services.ServiceAccount, 0, len(auths))
	for _, a := range auths {
		hash, err := authAdapter.HashPassword(a.password)
		if err != nil {
			log.Fatalf("Failed to hash password for account %s: %v", a.name, err)
		}
		accounts = append(accounts, services.ServiceAccount{
			Name:         a.name,
			PasswordHash: hash,
			Role:         a.role,
		})
	}
	return accounts
}

func runAPI(
	port int,
	authService driving.AuthService,
	documentService driving.DocumentService,
	redactionService driving.RedactionService,
	queryService driving.QueryService,
	db http.Pinger,
	redisClient http.Pinger,
) {
	cfg := http.Config{
		Host:            "0.0.0.0",
		Port:            port,
		Version:         version,
		UploadRateLimit: getEnvInt("UPLOAD_RATE_LIMIT", 5),
	}

	server := http.NewServer(
		cfg,
		authService,
		documentService,
		redactionService,
		queryService,
		db,
		redisClient,
		slog.Default(),
	)

	log.Printf("API server starting on :%d", port)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// runWorkerMode starts the ingest worker.
// It processes queued documents through the redaction and indexing pipeline.
func runWorkerMode(
	ctx context.Context,
	taskQueue driven.TaskQueue,
	ingestService driving.IngestService,
) {
	log.Println("Starting worker mode...")

	w := worker.NewWorker(worker.WorkerConfig{
		TaskQueue:      taskQueue,
		Ingest:         ingestService,
		Logger:         slog.Default(),
		Concurrency:    getEnvInt("WORKER_CONCURRENCY", 2),
		DequeueTimeout: getEnvInt("WORKER_DEQUEUE_TIMEOUT", 5),
	})

	if err := w.Start(ctx); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}

	log.Println("Worker started, processing tasks...")
	log.Println("Worker handles:")
	log.Println("  - ingest_document: Redact, chunk, embed, and index one document")

	// Wait for context cancellation
	<-ctx.Done()

	// Graceful shutdown
	log.Println("Stopping worker...")
	w.Stop()
	log.Println("Worker stopped")
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
