package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/aesanjagral/caseledger/pkg/models/file"
	"github.com/aesanjagral/caseledger/pkg/storage"
)

type application struct {
	errorLog   *log.Logger
	infoLog    *log.Logger
	secret     []byte
	s3id       string
	s3secret   string
	s3endpoint string
	s3region   string
	s3bucket   string
	runtimeEnv string
	store      *storage.Store
	user       *file.UserModel
	cases      *file.CaseModel
	payment    *file.PaymentModel
	activity   *file.ActivityModel
	reporting  *file.ReportingModel
}

func main() {
	godotenv.Load()

	addr := flag.String("addr", ":4000", "HTTP network address")
	dataDir := flag.String("datadir", defaultDataDir(), "Directory holding the data files")
	secret := flag.String("secret", "caseledger", "Secret key for generating jwts")
	s3id := flag.String("id", os.Getenv("S3_ID"), "S3 identification")
	s3secret := flag.String("s3secret", os.Getenv("S3_SECRET"), "S3 secret")
	s3endpoint := flag.String("endpoint", "sgp1.digitaloceanspaces.com", "S3 endpoint")
	s3region := flag.String("region", "sgp1", "S3 region")
	s3bucket := flag.String("bucket", "caseledger", "S3 bucket")
	runtimeEnv := flag.String("renv", "prod", "Runtime environment mode")
	logPath := flag.String("logpath", "", "Path to create or alter log files; empty disables the payment log")
	flag.Parse()

	infoLog := log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime)
	errorLog := log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile)

	var paymentLog *log.Logger
	if *logPath != "" {
		paymentLogFile, err := openLogFile(*logPath + time.Now().Format("2006-01-02") + "_payments.log")
		if err != nil {
			fmt.Println("Failed to open payment log file")
			os.Exit(1)
		}
		paymentLog = log.New(paymentLogFile, "", log.Ldate|log.Ltime)
	}

	store := storage.New(filepath.Join(*dataDir, "data.json"))

	app := &application{
		errorLog:   errorLog,
		infoLog:    infoLog,
		secret:     []byte(*secret),
		s3id:       *s3id,
		s3secret:   *s3secret,
		s3endpoint: *s3endpoint,
		s3region:   *s3region,
		s3bucket:   *s3bucket,
		runtimeEnv: *runtimeEnv,
		store:      store,
		user:       &file.UserModel{Path: filepath.Join(*dataDir, "users.json")},
		cases:      &file.CaseModel{Store: store},
		payment:    &file.PaymentModel{Store: store, PaymentLogger: paymentLog},
		activity:   &file.ActivityModel{Path: filepath.Join(*dataDir, "activities.json")},
		reporting:  &file.ReportingModel{Store: store},
	}

	scheduler := cron.New()
	scheduler.AddFunc("@every 15m", app.backgroundSync)
	scheduler.AddFunc("@daily", app.purgeActivities)
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:     *addr,
		ErrorLog: errorLog,
		Handler:  app.routes(),
	}

	infoLog.Printf("Starting server on %s", *addr)
	err := srv.ListenAndServe()
	errorLog.Fatal(err)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".caseledger")
}

func openLogFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}
