package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/brightline/coi-tracker/internal/api"
	"github.com/brightline/coi-tracker/internal/config"
	"github.com/brightline/coi-tracker/internal/extraction"
	"github.com/brightline/coi-tracker/internal/notify"
	"github.com/brightline/coi-tracker/internal/pkg/logger"
	"github.com/brightline/coi-tracker/internal/repository/postgres"
	"github.com/brightline/coi-tracker/internal/ses"
	certsvc "github.com/brightline/coi-tracker/internal/service/certificate"
	compliancesvc "github.com/brightline/coi-tracker/internal/service/compliance"
	entitysvc "github.com/brightline/coi-tracker/internal/service/entity"
	templatesvc "github.com/brightline/coi-tracker/internal/service/template"
	"github.com/brightline/coi-tracker/internal/storage"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// checkPortAvailable verifies that the target port is not already in use,
// so a stale process on the port fails fast instead of shadowing us.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func main() {
	log.Println("Starting COI Tracker API server...")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetRedactPII(true)

	if err := checkPortAvailable(cfg.Server.Host, cfg.Server.Port); err != nil {
		log.Fatalf("%v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancelPing()
		log.Fatalf("Failed to ping database at %s: %v", extractHost(cfg.Database.URL), err)
	}
	cancelPing()
	log.Printf("Connected to database at %s", extractHost(cfg.Database.URL))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sender, err := ses.NewSender(ctx, cfg.SES.AccessKey, cfg.SES.SecretKey, cfg.SES.Region, cfg.SES.FromEmail, cfg.SES.FromName)
	if err != nil {
		log.Fatalf("Failed to initialize SES sender: %v", err)
	}

	files, err := storage.NewS3Store(ctx, cfg.Storage.Region, cfg.Storage.Bucket, cfg.Storage.Prefix)
	if err != nil {
		log.Fatalf("Failed to initialize S3 storage: %v", err)
	}

	extractor, err := extraction.NewClient(ctx, cfg.Extraction.Region, cfg.Extraction.ModelID)
	if err != nil {
		log.Fatalf("Failed to initialize extraction client: %v", err)
	}

	templateRepo := postgres.NewTemplateRepo(db)
	entityRepo := postgres.NewEntityRepo(db)
	certificateRepo := postgres.NewCertificateRepo(db)
	complianceRepo := postgres.NewComplianceRepo(db)
	emailLogRepo := postgres.NewEmailLogRepo(db)

	engine := notify.NewEngine(emailLogRepo, sender, nil, notify.Config{
		FollowUpInterval: cfg.Notifications.FollowUpInterval(),
		MaxFollowUps:     cfg.Notifications.MaxFollowUps,
		FromName:         cfg.SES.FromName,
	})
	compliance := compliancesvc.NewService(complianceRepo, engine)
	engine.SetStatusRefresher(compliance)

	templates := templatesvc.NewService(templateRepo, compliance)
	entities := entitysvc.NewService(entityRepo, compliance)
	certificates := certsvc.NewService(certificateRepo, files, extractor, compliance, cfg.Extraction.ExtractionTimeout())

	sweep := func(ctx context.Context) (interface{}, error) {
		return engine.Run(ctx)
	}

	srv := api.NewServer(db, templates, entities, certificates, compliance, emailLogRepo, sweep)
	log.Printf("Listening on %s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := srv.ListenAndServe(ctx, cfg.Server.Host, cfg.Server.Port); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}
