package controllers

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/RefTrackApp/RefTrack/app/repository"
	"github.com/RefTrackApp/RefTrack/internal/pkg/jobqueue"
)

// HandleQueueStats reports the webhook delivery queue: job counts per
// status, list sizes and whether workers are running.
func HandleQueueStats(c *fiber.Ctx) error {
	manager := jobqueue.GetManager()
	queue := manager.GetQueue()

	stats, err := queue.GetJobStats(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	queueSize, err := queue.GetQueueSize(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	processingSize, err := queue.GetProcessingSize(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"running":    manager.IsRunning(),
		"queued":     queueSize,
		"processing": processingSize,
		"jobs":       stats,
	})
}

type queueEntry struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
	TTL   int64  `json:"ttl_seconds"`
}

// HandleQueueEntries lists the redis keys the queue and the counters own,
// for the admin cache monitor.
func HandleQueueEntries(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetQueueRepository()

	keys, err := repo.FindKeysByPatterns([]string{
		jobqueue.JobKeyPrefix + "*",
		jobqueue.JobQueueKey,
		jobqueue.JobProcessingKey,
		jobqueue.JobStatsKey,
		"statistics:*",
		"affiliate:counters:*",
	})
	if err != nil {
		return respondError(c, err)
	}

	entries := make([]queueEntry, 0, len(keys))
	for _, key := range keys {
		entry := queueEntry{Key: key, Type: classifyQueueKey(key)}

		if key == jobqueue.JobQueueKey || key == jobqueue.JobProcessingKey {
			if length, err := repo.GetListLength(key); err == nil {
				entry.Value = "jobs: " + strconv.FormatInt(length, 10)
			}
		} else if value, err := repo.GetValue(key); err == nil {
			entry.Value = value
		}

		if ttl, err := repo.GetTTL(key); err == nil {
			entry.TTL = int64(ttl.Seconds())
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Type != entries[j].Type {
			return entries[i].Type < entries[j].Type
		}
		return entries[i].Key < entries[j].Key
	})

	return c.JSON(fiber.Map{"entries": entries, "total": len(entries)})
}

// HandleQueueEntryDelete removes one redis key, typically a dead job.
func HandleQueueEntryDelete(c *fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return badRequest(c, "key is required")
	}

	deleted, err := repository.GetGlobalFactory().GetQueueRepository().DeleteKey(key)
	if err != nil {
		return respondError(c, err)
	}
	if deleted == 0 {
		return notFound(c, "Key not found")
	}
	return c.JSON(fiber.Map{"deleted": deleted})
}

type queueBulkDeleteRequest struct {
	Keys []string `json:"keys"`
}

// HandleQueueBulkDelete removes a set of redis keys in one call.
func HandleQueueBulkDelete(c *fiber.Ctx) error {
	var req queueBulkDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if len(req.Keys) == 0 {
		return badRequest(c, "keys must not be empty")
	}

	deleted, err := repository.GetGlobalFactory().GetQueueRepository().DeleteKeys(req.Keys)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": deleted})
}

func classifyQueueKey(key string) string {
	switch {
	case key == jobqueue.JobQueueKey:
		return "job_queue"
	case key == jobqueue.JobProcessingKey:
		return "job_processing"
	case key == jobqueue.JobStatsKey:
		return "job_stats"
	case strings.HasPrefix(key, jobqueue.JobKeyPrefix):
		return "job"
	case strings.HasPrefix(key, "statistics:"):
		return "statistics"
	case strings.HasPrefix(key, "affiliate:counters:"):
		return "counter"
	default:
		return "other"
	}
}
