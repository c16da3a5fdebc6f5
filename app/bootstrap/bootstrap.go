package bootstrap

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/supporthub/backend-go/internal/config"
	"github.com/supporthub/backend-go/internal/database"
	"github.com/supporthub/backend-go/internal/kafka"
	"github.com/supporthub/backend-go/internal/logger"
	"github.com/supporthub/backend-go/internal/services"
	"go.uber.org/zap"
)

// App encapsulates lifecycle resources that need to be cleaned up on shutdown.
type App struct {
	cleanupTasks []func() error
}

// Global app instance for controllers to access
var globalApp *App

// GetApp returns the global app instance
func GetApp() *App {
	return globalApp
}

// SetGlobalApp sets the global app instance
func SetGlobalApp(app *App) {
	globalApp = app
}

// Init bootstraps configuration, logger, database connections and other shared
// infrastructure components required by the Beego application.
func Init() (*App, error) {
	// Load environment variables from .env if present (non-fatal if missing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize structured logger.
	if err := logger.InitLogger(); err != nil {
		return nil, err
	}

	// Load dynamic configuration.
	if err := config.LoadConfig(); err != nil {
		return nil, err
	}

	app := &App{}

	// Initialize database.
	if _, err := database.InitDB(); err != nil {
		return nil, err
	}
	app.cleanupTasks = append(app.cleanupTasks, func() error {
		return database.NewDatabase(database.DB).Close()
	})

	// Initialize Redis (optional). Failure shouldn't block the app;
	// the reprocess lock degrades to claim-only serialization.
	if _, err := database.InitRedis(); err != nil {
		logger.Warn("Failed to initialize Redis", zap.Error(err))
	} else {
		app.cleanupTasks = append(app.cleanupTasks, func() error {
			return database.CloseRedis()
		})
	}

	// Initialize Kafka (optional). Failure shouldn't block the app.
	if config.AppConfig.Kafka.Enabled {
		if err := kafka.InitProducer(config.AppConfig.Kafka.Brokers, config.AppConfig.Kafka.Topic); err != nil {
			logger.Warn("Failed to initialize Kafka producer", zap.Error(err))
		} else {
			app.cleanupTasks = append(app.cleanupTasks, func() error {
				producer := kafka.GetProducer()
				if producer != nil {
					return producer.Close()
				}
				return nil
			})
		}
	}

	// Warm up the retrieval engine so the first request doesn't pay
	// for embedder and vector store construction.
	engine := services.GetRetrievalEngine()
	logger.Info("Retrieval engine ready",
		zap.Int("top_k", engine.TopK()),
		zap.Bool("vector_ready", engine.VectorStore() != nil && engine.VectorStore().Ready()))

	app.cleanupTasks = append(app.cleanupTasks, func() error {
		logger.Sync()
		return nil
	})

	return app, nil
}

// Cleanup runs registered cleanup tasks in reverse order.
func (a *App) Cleanup() {
	for i := len(a.cleanupTasks) - 1; i >= 0; i-- {
		if err := a.cleanupTasks[i](); err != nil {
			logger.Error("Cleanup task failed", zap.Error(err))
		}
	}
}
