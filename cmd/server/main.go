package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"terrastore/internal/auth"
	"terrastore/internal/config"
	"terrastore/internal/db"
	"terrastore/internal/extauth"
	"terrastore/internal/httpapi"
	"terrastore/internal/service"
	"terrastore/internal/staging"
	"terrastore/internal/storage"
	"terrastore/internal/store"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	archive, err := newArchive(ctx, cfg)
	if err != nil {
		log.Fatalf("init archive: %v", err)
	}
	if archive != nil {
		log.Printf("raw upload archive enabled (backend: %s)", cfg.ArchiveBackend)
	}

	stagingDir, err := staging.NewDir(cfg.StagingDir, cfg.StagingMaxAge, log.Default())
	if err != nil {
		log.Fatalf("init staging dir: %v", err)
	}
	go stagingDir.Run(ctx, cfg.StagingSweepInterval)

	st := store.New(pool)
	svc := service.New(st, archive, log.Default())

	var ldapAuth *extauth.LDAPAuthenticator
	if cfg.LDAPEnabled {
		ldapAuth = extauth.NewLDAPAuthenticator(extauth.LDAPConfig{
			URL:          cfg.LDAPURL,
			BaseDN:       cfg.LDAPBaseDN,
			BindDN:       cfg.LDAPBindDN,
			BindPassword: cfg.LDAPBindPassword,
			UserFilter:   cfg.LDAPUserFilter,
			UserAttr:     cfg.LDAPUserAttr,
			DisplayAttr:  cfg.LDAPDisplayAttr,
			StartTLS:     cfg.LDAPStartTLS,
			SkipVerify:   cfg.LDAPSkipVerify,
		})
		log.Printf("LDAP login enabled (%s)", cfg.LDAPURL)
	}

	authn := auth.NewAuthenticator(pool)

	api := httpapi.New(cfg, svc, authn, ldapAuth, stagingDir)
	echoServer := api.NewEcho()

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      echoServer,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Printf("listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
		os.Exit(1)
	}
}

// newArchive builds the optional write-through blob archive. A nil return
// with nil error means archiving is disabled.
func newArchive(ctx context.Context, cfg config.Config) (storage.BlobStorage, error) {
	switch cfg.ArchiveBackend {
	case config.ArchiveBackendNone:
		return nil, nil
	case config.ArchiveBackendLocal:
		return storage.NewLocalStore(cfg.ArchiveRoot)
	case config.ArchiveBackendS3:
		return newS3Archive(ctx, cfg)
	default:
		return nil, nil
	}
}

func newS3Archive(ctx context.Context, cfg config.Config) (storage.BlobStorage, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKeyID != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = &cfg.S3Endpoint
			// MinIO and most self-hosted S3 endpoints require path-style.
			o.UsePathStyle = true
		}
	})

	return storage.NewS3Store(storage.S3Options{
		Client: client,
		Bucket: cfg.S3Bucket,
		Prefix: cfg.S3Prefix,
	}), nil
}
