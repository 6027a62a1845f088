package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chalkboardhq/chalkboard/internal/services"
	"github.com/chalkboardhq/chalkboard/internal/webhook"
	appErrors "github.com/chalkboardhq/chalkboard/pkg/errors"
	"github.com/chalkboardhq/chalkboard/pkg/logger"
	"github.com/chalkboardhq/chalkboard/pkg/metrics"
	"github.com/chalkboardhq/chalkboard/pkg/response"
)

// maxWebhookBody bounds webhook payload reads.
const maxWebhookBody = 1 << 20

// WebhookHandler ingests identity-provider webhook deliveries and mirrors
// user records into the local database.
type WebhookHandler struct {
	verifier webhook.Verifier
	users    *services.UserSyncService
}

// NewWebhookHandler constructs a WebhookHandler instance.
func NewWebhookHandler(db *gorm.DB, verifier webhook.Verifier) (*WebhookHandler, error) {
	if verifier == nil {
		return nil, errors.New("webhook handler: verifier is required")
	}
	users, err := services.NewUserSyncService(db)
	if err != nil {
		return nil, err
	}
	return &WebhookHandler{verifier: verifier, users: users}, nil
}

type webhookEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type webhookUserData struct {
	ID                    string `json:"id"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	ImageURL              string `json:"image_url"`
	PrimaryEmailAddressID string `json:"primary_email_address_id"`
	EmailAddresses        []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

// primaryEmail resolves the address flagged primary, falling back to the
// first one delivered.
func (d webhookUserData) primaryEmail() string {
	for _, addr := range d.EmailAddresses {
		if addr.ID == d.PrimaryEmailAddressID {
			return addr.EmailAddress
		}
	}
	if len(d.EmailAddresses) > 0 {
		return d.EmailAddresses[0].EmailAddress
	}
	return ""
}

// POST /api/webhooks/identity
func (h *WebhookHandler) Receive(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("unreadable payload"))
		return
	}

	delivery, err := h.verifier.Verify(payload, c.Request.Header)
	if err != nil {
		logger.WithModule("webhook").Warn("rejected delivery", zap.Error(err))
		metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		response.Error(c, appErrors.ErrWebhookSignature)
		return
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil || envelope.Type == "" {
		response.Error(c, appErrors.NewBadRequest("invalid event payload"))
		return
	}

	ctx := requestContext(c)

	// Replayed deliveries are acknowledged without reprocessing.
	fresh, err := h.users.MarkProcessed(ctx, delivery.MessageID, envelope.Type)
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}
	if !fresh {
		metrics.WebhookEvents.WithLabelValues(envelope.Type, "duplicate").Inc()
		response.Success(c, http.StatusOK, gin.H{"received": true, "duplicate": true})
		return
	}

	if err := h.dispatch(ctx, envelope); err != nil {
		logger.WithModule("webhook").Error("event processing failed",
			zap.String("type", envelope.Type),
			zap.String("message_id", delivery.MessageID),
			zap.Error(err),
		)
		metrics.WebhookEvents.WithLabelValues(envelope.Type, "error").Inc()
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	metrics.WebhookEvents.WithLabelValues(envelope.Type, "processed").Inc()
	response.Success(c, http.StatusOK, gin.H{"received": true})
}

func (h *WebhookHandler) dispatch(ctx context.Context, envelope webhookEnvelope) error {
	switch envelope.Type {
	case "user.created", "user.updated":
		var data webhookUserData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return err
		}
		if data.primaryEmail() == "" {
			// Provider users without an email address cannot be mirrored;
			// acknowledge so the delivery is not retried forever.
			logger.WithModule("webhook").Warn("user event without email", zap.String("user_id", data.ID))
			return nil
		}
		return h.users.UpsertFromProvider(ctx, services.IdentityUser{
			ID:        data.ID,
			Email:     data.primaryEmail(),
			FirstName: data.FirstName,
			LastName:  data.LastName,
			ImageURL:  data.ImageURL,
		})
	case "user.deleted":
		var data webhookUserData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return err
		}
		return h.users.Delete(ctx, data.ID)
	default:
		// Unhandled event types are acknowledged so the provider stops retrying.
		logger.WithModule("webhook").Debug("ignoring event type", zap.String("type", envelope.Type))
		return nil
	}
}
