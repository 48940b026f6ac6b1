// Package app wires configuration, AWS clients, a record store and the
// catalog service into the values every binary needs.
package app

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/catalog"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/config"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/handler"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/idempotency"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/logging"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/notify"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/objects"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/s3url"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/store"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/store/dynamostore"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/store/memstore"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/store/sqlitestore"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/streamwatch"
)

// Error is the class of wiring failures.
var Error = errs.Class("app")

// ConfigPathEnv names the optional TOML file read by FromEnv.
const ConfigPathEnv = "BIRDTAG_CONFIG"

// Clients holds AWS service clients, built once per process.
type Clients struct {
	DynamoDB *dynamodb.Client
	Streams  *dynamodbstreams.Client
	S3       *s3.Client
	Presign  *s3.PresignClient
	SES      *ses.Client
	SNS      *sns.Client
}

// NewClients builds every client from one aws.Config.
func NewClients(cfg aws.Config) *Clients {
	s3Client := s3.NewFromConfig(cfg)
	return &Clients{
		DynamoDB: dynamodb.NewFromConfig(cfg),
		Streams:  dynamodbstreams.NewFromConfig(cfg),
		S3:       s3Client,
		Presign:  s3.NewPresignClient(s3Client),
		SES:      ses.NewFromConfig(cfg),
		SNS:      sns.NewFromConfig(cfg),
	}
}

// App is a fully wired process.
type App struct {
	Config     *config.Config
	Log        *zap.Logger
	Clients    *Clients
	Store      store.Backend
	Objects    objects.Store
	Service    *catalog.Service
	API        *handler.API
	Dispatcher *notify.Dispatcher
	Notifier   *handler.Notifier

	closers []func() error
}

// Lambda loads configuration from the environment, forces the DynamoDB
// store and wires an App. name becomes the logger name.
func Lambda(ctx context.Context, name string) (*App, error) {
	return FromEnv(ctx, name, func(cfg *config.Config) {
		cfg.Server.Store = config.StoreDynamoDB
	})
}

// FromEnv is FromFile with the path named by BIRDTAG_CONFIG.
func FromEnv(ctx context.Context, name string, overrides ...func(*config.Config)) (*App, error) {
	return FromFile(ctx, name, os.Getenv(ConfigPathEnv), overrides...)
}

// FromFile loads configuration from path and the environment, applies
// overrides, builds the logger and wires an App.
func FromFile(ctx context.Context, name, path string, overrides ...func(*config.Config)) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(cfg)
	}
	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg, log.Named(name))
}

// New wires an App. AWS clients are built only for the dynamodb store;
// the memory and sqlite stores run with in-memory objects and no-op
// notifications.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (_ *App, err error) {
	a := &App{Config: cfg, Log: log}
	defer func() {
		if err != nil {
			err = errs.Combine(err, a.Close())
		}
	}()

	if cfg.Server.Store == config.StoreDynamoDB {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return nil, Error.New("load aws config: %w", err)
		}
		a.Clients = NewClients(awsCfg)
	}

	a.Store, err = a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mailer    notify.Mailer
		publisher notify.Publisher
	)
	if a.Clients != nil {
		a.Objects = objects.NewS3(a.Clients.S3, a.Clients.Presign, log.Named("objects"))
		mailer = notify.NewMailer(a.Clients.SES, cfg.Notifications.Sender, log.Named("mailer"))
		publisher = notify.NewPublisher(a.Clients.SNS, cfg.Notifications.TopicARN, log.Named("publisher"))
	} else {
		a.Objects = objects.NewMemory()
		mailer = notify.NewMailer(nil, "", log.Named("mailer"))
		publisher = notify.NewPublisher(nil, "", log.Named("publisher"))
	}

	a.Service = catalog.New(catalog.Deps{
		Records:       a.Store,
		Subscriptions: a.Store,
		Guard:         idempotency.New(a.Store, cfg.IdempotencyWindow()),
		Objects:       a.Objects,
		Publisher:     publisher,
		URLs:          s3url.New(cfg.AWS.Region),
		Log:           log.Named("catalog"),
		Bucket:        cfg.Storage.Bucket,
		PresignTTL:    cfg.PresignTTL(),
	})
	a.API = handler.New(a.Service, log.Named("handler"))
	a.Dispatcher = notify.NewDispatcher(a.Store, mailer, log.Named("dispatcher"))
	a.Notifier = handler.NewNotifier(a.Dispatcher, log.Named("notifier"))
	return a, nil
}

func (a *App) openStore(ctx context.Context) (store.Backend, error) {
	switch a.Config.Server.Store {
	case config.StoreDynamoDB:
		return dynamostore.New(a.Clients.DynamoDB, dynamostore.Tables{
			Media:         a.Config.Tables.Media,
			Idempotency:   a.Config.Tables.Idempotency,
			Subscriptions: a.Config.Tables.Subscriptions,
		}, a.Log.Named("dynamostore")), nil
	case config.StoreSQLite:
		db, err := sqlitestore.Open(ctx, a.Config.Server.SQLitePath, a.Log.Named("sqlitestore"))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return db, nil
	case config.StoreMemory:
		return memstore.New(), nil
	}
	return nil, Error.New("unknown store %q", a.Config.Server.Store)
}

// Watcher returns a stream watcher feeding the dispatcher. It needs the
// dynamodb store and notifications.stream_arn.
func (a *App) Watcher() (*streamwatch.Watcher, error) {
	if a.Clients == nil {
		return nil, Error.New("stream watching needs the dynamodb store")
	}
	if a.Config.Notifications.StreamARN == "" {
		return nil, Error.New("notifications.stream_arn must be set to watch the stream")
	}
	return streamwatch.New(a.Clients.Streams, a.Config.Notifications.StreamARN,
		a.Dispatcher, a.Config.PollInterval(), a.Log.Named("streamwatch")), nil
}

// Close releases the store and flushes the logger.
func (a *App) Close() error {
	var group errs.Group
	for _, closer := range a.closers {
		group.Add(closer())
	}
	a.closers = nil
	if a.Log != nil {
		_ = a.Log.Sync()
	}
	return group.Err()
}
