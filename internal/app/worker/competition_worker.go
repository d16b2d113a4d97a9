package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/devfork/arena/internal/app/service"

	"github.com/redis/go-redis/v9"
)

// CompetitionWorker drains the competition start queue and runs each job to
// completion. One worker goroutine is enough: competitions fan out internally,
// so the queue only serializes admission, not agent execution.
type CompetitionWorker struct {
	rdb          *redis.Client
	competitions *service.CompetitionService
	queueName    string
}

func NewCompetitionWorker(rdb *redis.Client, competitions *service.CompetitionService, queueName string) *CompetitionWorker {
	return &CompetitionWorker{rdb: rdb, competitions: competitions, queueName: queueName}
}

// Start blocks on the queue until the context is cancelled. Call it in its own
// goroutine.
func (w *CompetitionWorker) Start(ctx context.Context) {
	log.Printf("Competition worker listening on %s", w.queueName)
	for {
		if ctx.Err() != nil {
			log.Println("Competition worker stopping")
			return
		}

		res, err := w.rdb.BRPop(ctx, 5*time.Second, w.queueName).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // poll timeout, nothing queued
			}
			if ctx.Err() != nil {
				log.Println("Competition worker stopping")
				return
			}
			log.Printf("Queue read failed: %v", err)
			time.Sleep(time.Second)
			continue
		}

		// BRPop returns [key, value].
		var job service.CompetitionJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			log.Printf("Dropping malformed competition job %q: %v", res[1], err)
			continue
		}

		log.Printf("Worker picked up competition %s", job.CompetitionID)
		if err := w.competitions.Run(ctx, job.CompetitionID); err != nil {
			log.Printf("Competition %s failed in worker: %v", job.CompetitionID, err)
		}
	}
}
