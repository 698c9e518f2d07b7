package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gsPatrick/garimponos-sign/internal/database"
	dispatchDomain "github.com/gsPatrick/garimponos-sign/internal/dispatch/domain"
	dispatchService "github.com/gsPatrick/garimponos-sign/internal/dispatch/service"
	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	apperrors "github.com/gsPatrick/garimponos-sign/internal/errors"
	timelineDomain "github.com/gsPatrick/garimponos-sign/internal/timeline/domain"
)

// Config holds dispatch worker configuration.
type Config struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

// dispatchUseCase implements the DispatchUseCase interface.
type dispatchUseCase struct {
	config       Config
	txManager    database.TxManager
	deliveryRepo DeliveryRepository
	signerRepo   SignerRepository
	documentRepo DocumentRepository
	timeline     TimelineRecorder
	notifier     dispatchService.Notifier
	logger       *slog.Logger
}

type invitationPayload struct {
	DocumentTitle string `json:"document_title"`
	SigningLink   string `json:"signing_link"`
	SignerName    string `json:"signer_name"`
}

type otpPayload struct {
	Code string `json:"code"`
}

// recipientFor returns the contact address for a channel.
func recipientFor(signer *documentDomain.Signer, channel documentDomain.AuthChannel) string {
	if channel == documentDomain.AuthChannelWhatsApp {
		return signer.Phone
	}
	return signer.Email
}

// EnqueueInvitation queues an invitation carrying the signing link. One
// delivery is created per enabled channel.
func (d *dispatchUseCase) EnqueueInvitation(
	ctx context.Context,
	document *documentDomain.Document,
	signer *documentDomain.Signer,
	signingLink string,
	resend bool,
) (*dispatchDomain.Delivery, error) {
	payload, err := json.Marshal(invitationPayload{
		DocumentTitle: document.Title,
		SigningLink:   signingLink,
		SignerName:    signer.Name,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal invitation payload")
	}

	kind := dispatchDomain.DeliveryKindInvitation
	if resend {
		kind = dispatchDomain.DeliveryKindInvitationResend
	}

	var first *dispatchDomain.Delivery
	for _, channel := range signer.AuthChannels {
		delivery := dispatchDomain.NewDelivery(
			document.ID,
			signer.ID,
			kind,
			string(channel),
			recipientFor(signer, channel),
			string(payload),
		)
		if err := d.deliveryRepo.Create(ctx, delivery); err != nil {
			return nil, err
		}
		if first == nil {
			first = delivery
		}
	}

	return first, nil
}

// SendCode queues an OTP code delivery on the requested channel.
func (d *dispatchUseCase) SendCode(
	ctx context.Context,
	signer *documentDomain.Signer,
	channel documentDomain.AuthChannel,
	code string,
) error {
	payload, err := json.Marshal(otpPayload{Code: code})
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal otp payload")
	}

	delivery := dispatchDomain.NewDelivery(
		signer.DocumentID,
		signer.ID,
		dispatchDomain.DeliveryKindOtpCode,
		string(channel),
		recipientFor(signer, channel),
		string(payload),
	)

	return d.deliveryRepo.Create(ctx, delivery)
}

// HandleResult applies the outcome reported by the notification service.
func (d *dispatchUseCase) HandleResult(
	ctx context.Context,
	deliveryID uuid.UUID,
	delivered bool,
	reason string,
) (*dispatchDomain.Delivery, error) {
	var delivery *dispatchDomain.Delivery

	err := d.txManager.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		delivery, err = d.deliveryRepo.Get(txCtx, deliveryID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				return dispatchDomain.ErrDeliveryNotFound
			}
			return err
		}

		// Lock the document so the callback serializes with signing flows.
		if _, err := d.documentRepo.GetForUpdate(txCtx, delivery.DocumentID); err != nil {
			return err
		}

		if err := delivery.ApplyResult(delivered, reason); err != nil {
			return err
		}
		if err := d.deliveryRepo.Update(txCtx, delivery); err != nil {
			return err
		}

		signer, err := d.signerRepo.Get(txCtx, delivery.SignerID)
		if err != nil {
			return err
		}

		if delivered {
			signer.SetDeliveryStatus(documentDomain.DeliveryStatusDelivered)
		} else {
			signer.SetDeliveryStatus(documentDomain.DeliveryStatusFailed)
		}
		if err := d.signerRepo.Update(txCtx, signer); err != nil {
			return err
		}

		_, err = d.timeline.Record(txCtx, delivery.DocumentID, &delivery.SignerID,
			timelineDomain.EventDeliveryUpdated, timelineDomain.ActorSystem,
			map[string]any{
				"delivery_id": delivery.ID.String(),
				"kind":        string(delivery.Kind),
				"channel":     delivery.Channel,
				"status":      string(delivery.Status),
			})
		return err
	})
	if err != nil {
		return nil, err
	}

	return delivery, nil
}

// Start runs the polling worker until the context is cancelled.
func (d *dispatchUseCase) Start(ctx context.Context) error {
	d.logger.Info("starting dispatch worker",
		slog.Duration("interval", d.config.Interval),
		slog.Int("batch_size", d.config.BatchSize),
	)

	ticker := time.NewTicker(d.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("stopping dispatch worker")
			return ctx.Err()
		case <-ticker.C:
			if err := d.ProcessDeliveries(ctx); err != nil {
				d.logger.Error("failed to process deliveries", slog.Any("error", err))
			}
		}
	}
}

// ProcessDeliveries dispatches one batch of pending deliveries in a
// transaction. A notify failure burns one attempt; the delivery stays pending
// until MaxAttempts, then fails permanently.
func (d *dispatchUseCase) ProcessDeliveries(ctx context.Context) error {
	return d.txManager.WithTx(ctx, func(txCtx context.Context) error {
		deliveries, err := d.deliveryRepo.GetPending(txCtx, d.config.BatchSize)
		if err != nil {
			return err
		}
		if len(deliveries) == 0 {
			return nil
		}

		d.logger.Info("processing deliveries", slog.Int("count", len(deliveries)))

		for _, delivery := range deliveries {
			if err := d.notifier.Notify(txCtx, delivery); err != nil {
				d.logger.Error("failed to dispatch delivery",
					slog.String("delivery_id", delivery.ID.String()),
					slog.String("kind", string(delivery.Kind)),
					slog.Any("error", err),
				)

				delivery.RegisterFailure(err.Error(), d.config.MaxAttempts)
				if err := d.deliveryRepo.Update(txCtx, delivery); err != nil {
					return err
				}
				continue
			}

			delivery.MarkRequested(time.Now())
			if err := d.deliveryRepo.Update(txCtx, delivery); err != nil {
				return err
			}

			signer, err := d.signerRepo.Get(txCtx, delivery.SignerID)
			if err != nil {
				return err
			}
			signer.SetDeliveryStatus(documentDomain.DeliveryStatusRequested)
			if err := d.signerRepo.Update(txCtx, signer); err != nil {
				return err
			}
		}

		return nil
	})
}

// NewDispatchUseCase creates a new dispatch use case instance.
func NewDispatchUseCase(
	config Config,
	txManager database.TxManager,
	deliveryRepo DeliveryRepository,
	signerRepo SignerRepository,
	documentRepo DocumentRepository,
	timeline TimelineRecorder,
	notifier dispatchService.Notifier,
	logger *slog.Logger,
) DispatchUseCase {
	return &dispatchUseCase{
		config:       config,
		txManager:    txManager,
		deliveryRepo: deliveryRepo,
		signerRepo:   signerRepo,
		documentRepo: documentRepo,
		timeline:     timeline,
		notifier:     notifier,
		logger:       logger,
	}
}
