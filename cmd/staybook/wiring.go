package main

import (
	"context"
	"log/slog"
	"time"

	"staybook/internal/app/availability"
	"staybook/internal/app/commands"
	"staybook/internal/app/compensate"
	"staybook/internal/app/counters"
	availabilityapp "staybook/internal/app/handlers/availability"
	notificationsapp "staybook/internal/app/handlers/notifications"
	reservationsapp "staybook/internal/app/handlers/reservations"
	reviewsapp "staybook/internal/app/handlers/reviews"
	"staybook/internal/app/middleware"
	"staybook/internal/app/notify"
	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/queries"
	"staybook/internal/app/reconcile"
	"staybook/internal/app/uow"
	"staybook/internal/domain/compensation"
	"staybook/internal/domain/payment"
	brokerkafka "staybook/internal/infra/broker/kafka"
	brokermemory "staybook/internal/infra/broker/memory"
	"staybook/internal/infra/config"
	mongostore "staybook/internal/infra/db/mongo"
	ginserver "staybook/internal/infra/http/gin"
	infraoutbox "staybook/internal/infra/outbox"
	paymemory "staybook/internal/infra/payments/memory"
	paystripe "staybook/internal/infra/payments/stripe"
	"staybook/internal/infra/realtime"
	"staybook/internal/infra/storage/memory"
	"staybook/internal/infra/validation"
)

// outcomeQueue carries processor outcomes from the webhook to the
// reconciliation workers.
type outcomeQueue interface {
	policies.OutcomePublisher
	reconcile.Queue
}

type worker struct {
	name string
	run  func(ctx context.Context) error
}

type application struct {
	handlers ginserver.Handlers
	factory  uow.UoWFactory
	workers  []worker
	ready    func(ctx context.Context) error
	closers  []func(ctx context.Context) error
}

func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown step failed", "err", err)
		}
	}
}

// storage groups everything backed by the configured store.
type storage struct {
	factory     uow.UoWFactory
	outbox      appoutbox.Outbox
	idempotency middleware.IdempotencyStore
	events      payment.EventLog
	tasks       compensation.Store
	// relay is nil when committed outbox records stay in process.
	relay infraoutbox.Source
	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
	if cfg.StorageMode != config.StorageMongo {
		store := memory.NewStore()
		return storage{
			factory:     memory.Factory{Store: store},
			outbox:      memory.NewOutbox(),
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			events:      memory.NewPaymentEventLog(),
			tasks:       memory.CompensationStore{Store: store},
		}, nil
	}
	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoTimeout)
	if err != nil {
		return storage{}, err
	}
	if err := client.EnsureIndexes(ctx); err != nil {
		_ = client.Close(context.Background())
		return storage{}, err
	}
	idem, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		_ = client.Close(context.Background())
		return storage{}, err
	}
	box := infraoutbox.NewStore(client.DB)
	logger.Info("mongo storage ready", "database", cfg.MongoDB)
	return storage{
		factory:     mongostore.Factory{DB: client.DB},
		outbox:      box,
		idempotency: idem,
		events:      mongostore.NewPaymentEventLog(client.DB),
		tasks:       mongostore.NewCompensationStore(client.DB, time.Minute),
		relay:       box,
		ping:        client.Ping,
		close:       client.Close,
	}, nil
}

// payments is the processor port plus the parser for its callbacks.
type payments struct {
	port   policies.PaymentsPort
	parser ginserver.OutcomeParser
}

func openPayments(cfg config.Config, logger *slog.Logger) payments {
	if cfg.PaymentsMode == config.PaymentsStripe {
		return payments{
			port: paystripe.NewBroker(paystripe.Config{
				SecretKey: cfg.StripeSecretKey,
				BaseURL:   cfg.StripeBaseURL,
				Logger:    logger.With("component", "stripe"),
			}),
			parser: paystripe.WebhookParser{Secret: cfg.StripeWebhookSecret},
		}
	}
	return payments{port: paymemory.NewProcessor(), parser: paymemory.JSONParser{}}
}

// messaging holds the outcome queue and, with Kafka, the producer shared by
// the queue and the outbox relay.
type messaging struct {
	queue     outcomeQueue
	consumers int
	producer  *brokerkafka.Producer
	close     func(ctx context.Context) error
}

func openMessaging(cfg config.Config, logger *slog.Logger) (messaging, error) {
	if !cfg.KafkaEnabled() {
		q := brokermemory.NewQueue(cfg.ReconcileWorkers, 256)
		return messaging{
			queue:     q,
			consumers: 1,
			close: func(context.Context) error {
				q.Close()
				return nil
			},
		}, nil
	}
	kcfg := brokerkafka.NewConfig("staybook")
	producer, err := brokerkafka.NewProducer(cfg.KafkaBrokers, kcfg)
	if err != nil {
		return messaging{}, err
	}
	return messaging{
		queue: &brokerkafka.OutcomeQueue{
			Producer: producer,
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaGroupID,
			Config:   kcfg,
			Prefix:   cfg.KafkaTopicPrefix,
			Logger:   logger.With("component", "outcomes"),
		},
		consumers: cfg.ReconcileWorkers,
		producer:  producer,
		close:     func(context.Context) error { return producer.Close() },
	}, nil
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app := &application{factory: st.factory}
	if st.close != nil {
		app.closers = append(app.closers, st.close)
	}
	msg, err := openMessaging(cfg, logger)
	if err != nil {
		app.close(logger)
		return nil, err
	}
	app.closers = append(app.closers, msg.close)
	app.ready = func(ctx context.Context) error {
		if st.ping == nil {
			return nil
		}
		return st.ping(ctx)
	}

	pay := openPayments(cfg, logger)
	hub := realtime.NewHub(32)
	encoder := appoutbox.JSONEventEncoder{}
	oracle := availability.Oracle{}
	updater := counters.Updater{}

	executor := &compensate.Executor{
		Payments: pay.port,
		Store:    st.tasks,
		Logger:   logger.With("component", "compensate"),
		Backoff:  cfg.RetryBackoff,
	}
	dispatcher := &notify.Dispatcher{Notifier: hub, Logger: logger.With("component", "notify")}

	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()

	(&reservationsapp.CreateHandler{
		Oracle:   oracle,
		Payments: pay.port,
		Outbox:   st.outbox,
		Encoder:  encoder,
		Logger:   logger,
	}).Register(commandBus)
	(&reservationsapp.TransitionHandler{
		Compensator: executor,
		Outbox:      st.outbox,
		Encoder:     encoder,
		Logger:      logger,
	}).Register(commandBus)
	(&reservationsapp.QueryHandler{UoWFactory: st.factory}).Register(queryBus)
	(&availabilityapp.CheckHandler{UoWFactory: st.factory, Oracle: oracle}).Register(queryBus)
	(&reviewsapp.Handler{
		Counters: updater,
		Outbox:   st.outbox,
		Encoder:  encoder,
		Logger:   logger,
	}).Register(commandBus)
	(&notificationsapp.Handler{UoWFactory: st.factory}).Register(commandBus, queryBus)

	logger.Debug("buses ready", "commands", commandBus.Keys(), "queries", queryBus.Keys())

	validator := validation.New()
	authorizer := middleware.PrincipalAuthorizer{}
	cmds := middleware.ChainCommands(
		commandBus,
		middleware.Validation(validator),
		middleware.Authorization(authorizer),
		middleware.RetryOnConflict(cfg.ConflictRetries, logger),
		middleware.Idempotency(st.idempotency, nil),
		middleware.Transaction(st.factory, nil),
		middleware.OutboxFlush(st.outbox),
	)
	qs := middleware.ChainQueries(
		queryBus,
		middleware.QueryValidation(validator),
		middleware.QueryAuthorization(authorizer),
	)

	reconciler := &reconcile.Reconciler{
		UoWFactory:  st.factory,
		Oracle:      oracle,
		Counters:    updater,
		Compensator: executor,
		Notify:      dispatcher,
		Events:      st.events,
		Outbox:      st.outbox,
		Encoder:     encoder,
		Logger:      logger.With("component", "reconcile"),
		Attempts:    cfg.ConflictRetries,
	}
	reconcileWorker := &reconcile.Worker{
		Queue:      msg.queue,
		Reconciler: reconciler,
		Logger:     logger.With("component", "reconcile"),
		Backoff:    firstDelay(cfg.RetryBackoff),
	}
	for i := 0; i < msg.consumers; i++ {
		app.workers = append(app.workers, worker{name: "reconcile", run: reconcileWorker.Run})
	}
	compWorker := &compensate.Worker{Executor: executor, Interval: cfg.CompensationPollInterval}
	app.workers = append(app.workers, worker{name: "compensate", run: compWorker.Run})

	switch {
	case st.relay != nil && msg.producer != nil:
		relay := &infraoutbox.Worker{
			Store:       st.relay,
			Producer:    msg.producer,
			Logger:      logger.With("component", "outbox"),
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
		app.workers = append(app.workers, worker{name: "outbox", run: relay.Run})
	case msg.producer != nil:
		logger.Warn("outbox relay disabled: in-memory storage keeps events in process")
	}

	app.handlers = ginserver.Handlers{
		Reservations:  ginserver.ReservationsHandler{Commands: cmds, Queries: qs, Logger: logger},
		Availability:  ginserver.AvailabilityHandler{Queries: qs, Logger: logger},
		Reviews:       ginserver.ReviewsHandler{Commands: cmds, Logger: logger},
		Notifications: ginserver.NotificationsHandler{Commands: cmds, Queries: qs, Live: hub, Logger: logger},
		Webhook:       ginserver.PaymentsWebhookHandler{Parser: pay.parser, Publisher: msg.queue, Logger: logger},
		Identity:      ginserver.HeaderIdentity{},
	}
	return app, nil
}

func firstDelay(backoff []time.Duration) time.Duration {
	if len(backoff) == 0 {
		return 0
	}
	return backoff[0]
}
