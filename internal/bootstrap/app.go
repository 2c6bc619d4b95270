package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"botgpt/internal/ai"
	"botgpt/internal/app"
	"botgpt/internal/cache"
	"botgpt/internal/config"
	mysqlClient "botgpt/internal/platform/mysql"
	rabbitmqClient "botgpt/internal/platform/rabbitmq"
	redisClient "botgpt/internal/platform/redis"
	sqliteClient "botgpt/internal/platform/sqlite"
	"botgpt/internal/rag"
	"botgpt/internal/repository"
	"botgpt/internal/worker"
)

type App struct {
	Config        *config.Config
	DB            *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	HistoryWorker *worker.HistoryWarmWorker

	Conversations *app.ConversationService
	Documents     *app.DocumentService

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return NewWithConfig(ctx, cfg, nil)
}

// NewWithConfig wires the application from cfg. A nil llm builds the
// OpenAI-compatible client from cfg.LLM.
func NewWithConfig(ctx context.Context, cfg *config.Config, llm app.ModelCaller) (*App, error) {
	a := &App{Config: cfg, StartedAt: time.Now()}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.DB = db
	if err := repository.AutoMigrate(db); err != nil {
		_ = a.Close()
		return nil, err
	}

	if a.Redis, err = redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		_ = a.Close()
		return nil, err
	}
	if a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL); err != nil {
		_ = a.Close()
		return nil, err
	}

	if llm == nil {
		llm = ai.NewOpenAICompatibleClient(ai.ChatConfig{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLMTimeout(),
		})
		if cfg.LLM.APIKey == "" {
			log.Printf("llm api key is empty, replies will be the dummy response")
		}
	}

	ragCfg := cfg.RAGSettings()
	userRepo := repository.NewUserRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	chunkRepo := repository.NewChunkRepository(db)
	assembler := rag.NewAssembler(messageRepo, rag.NewRetriever(chunkRepo, ragCfg), ragCfg)

	var opts []app.ConversationOption
	if a.Redis != nil {
		historyCache := cache.NewHistoryCache(
			a.Redis,
			time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
			time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
		)
		opts = append(opts, app.WithHistoryCache(historyCache))

		if a.MQConn != nil {
			opts = append(opts, app.WithMessagePublisher(rabbitmqClient.NewMessagePublisher(a.MQConn, cfg.RabbitMQ.MessageQueue)))
			a.HistoryWorker = worker.NewHistoryWarmWorker(a.MQConn, messageRepo, historyCache, cfg.RabbitMQ.MessageQueue)
			if err := a.HistoryWorker.Start(ctx); err != nil {
				_ = a.Close()
				return nil, fmt.Errorf("start history worker failed: %w", err)
			}
		}
	} else if a.MQConn != nil {
		opts = append(opts, app.WithMessagePublisher(rabbitmqClient.NewMessagePublisher(a.MQConn, cfg.RabbitMQ.MessageQueue)))
	}

	a.Conversations = app.NewConversationService(userRepo, conversationRepo, messageRepo, assembler, llm, opts...)
	a.Documents = app.NewDocumentService(conversationRepo, documentRepo, ragCfg)

	log.Printf("bootstrap done: db=%s redis=%t rabbitmq=%t", cfg.Database.Driver, a.Redis != nil, a.MQConn != nil)
	return a, nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	switch cfg.Database.Driver {
	case "mysql":
		return mysqlClient.New(ctx, cfg.MySQLDSN(), mysqlClient.DefaultPoolOptions())
	case "sqlite":
		return sqliteClient.New(ctx, cfg.Database.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.HistoryWorker != nil {
		a.HistoryWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
