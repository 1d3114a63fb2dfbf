package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/RefTrackApp/RefTrack/app/models"
	"github.com/RefTrackApp/RefTrack/app/repository"
	"github.com/RefTrackApp/RefTrack/internal/pkg/database"
	"github.com/RefTrackApp/RefTrack/internal/pkg/webhooknotify"
)

var (
	webhookSenderOnce sync.Once
	webhookSender     *webhooknotify.Sender
)

func getWebhookSender() *webhooknotify.Sender {
	webhookSenderOnce.Do(func() {
		webhookSender = webhooknotify.NewSenderFromEnv()
	})
	return webhookSender
}

// EnqueueWebhookDelivery queues an affiliate postback for the commission.
// Deliveries are fire-and-forget from the caller's perspective; the queue
// retries failed ones up to MaxRetries.
func (q *Queue) EnqueueWebhookDelivery(commissionID uint, event string) (*Job, error) {
	payload := WebhookDeliveryJobPayload{
		CommissionID: commissionID,
		Event:        event,
	}
	return q.EnqueueJob(JobTypeWebhookDelivery, payload.ToMap())
}

// processWebhookDeliveryJob loads the commission and its affiliate and
// fires the postback. A commission or affiliate that vanished since the
// job was enqueued completes the job without a delivery; retrying would
// never succeed.
func (q *Queue) processWebhookDeliveryJob(ctx context.Context, job *Job) error {
	payload, err := WebhookDeliveryJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid webhook delivery payload: %w", err)
	}
	if payload.CommissionID == 0 {
		return fmt.Errorf("webhook delivery payload is missing the commission id")
	}

	db := database.GetDB()
	if db == nil {
		return fmt.Errorf("database not available")
	}

	var commission models.Commission
	if err := db.First(&commission, payload.CommissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[JobQueue] Commission %d no longer exists, dropping %s delivery", payload.CommissionID, payload.Event)
			return nil
		}
		return fmt.Errorf("failed to load commission %d: %w", payload.CommissionID, err)
	}

	affiliate, err := repository.NewAffiliateRepository(db).GetByID(commission.ShopID, commission.AffiliateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[JobQueue] Affiliate %d of commission %d no longer exists, dropping %s delivery", commission.AffiliateID, commission.ID, payload.Event)
			return nil
		}
		return fmt.Errorf("failed to load affiliate %d: %w", commission.AffiliateID, err)
	}

	return getWebhookSender().Send(ctx, &webhooknotify.Delivery{
		Commission: &commission,
		Affiliate:  affiliate,
		Event:      payload.Event,
	})
}
