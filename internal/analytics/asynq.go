package analytics

import (
	"log"

	"github.com/nyx-moment/moment/internal/config"
	"github.com/hibiken/asynq"
)

// client is the global asynq client used by Writer.Emit to enqueue
// fire-and-forget analytics tasks.
var client *asynq.Client

// InitAsynq dials the analytics Redis instance and starts the task server
// in a background goroutine.
func InitAsynq(cfg *config.AnalyticsConfig) error {
	client = asynq.NewClient(asynq.RedisClientOpt{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	go run(cfg)
	return nil
}

// GetAsynqClient returns the global asynq client.
func GetAsynqClient() *asynq.Client {
	return client
}

var handleFunc = map[string]asynq.HandlerFunc{}

// RegisterHandlerFunc registers a handler for a task type, called during
// container wiring before InitAsynq starts the server.
func RegisterHandlerFunc(taskType string, handlerFunc asynq.HandlerFunc) {
	handleFunc[taskType] = handlerFunc
}

func run(cfg *config.AnalyticsConfig) {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:         cfg.Addr,
			Username:     cfg.Username,
			Password:     cfg.Password,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	mux := asynq.NewServeMux()
	for typ, handler := range handleFunc {
		mux.HandleFunc(typ, handler)
	}

	if err := srv.Run(mux); err != nil {
		log.Fatalf("analytics task server stopped: %v", err)
	}
}
