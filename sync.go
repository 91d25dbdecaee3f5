package main

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

func (app *application) getS3Session(endpoint, region string) (*session.Session, error) {
	return session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(app.s3id, app.s3secret, ""),
		Endpoint:    aws.String(endpoint),
		Region:      aws.String(region),
	})
}

// syncStore pushes the saved data file to the remote bucket. Best effort:
// failure degrades to local-only data and never blocks or reverts the
// local save.
func (app *application) syncStore() bool {
	if app.s3id == "" {
		return false
	}

	data, err := os.ReadFile(app.store.Path())
	if err != nil {
		app.errorLog.Printf("remote sync: read store: %v", err)
		return false
	}

	sess, err := app.getS3Session(app.s3endpoint, app.s3region)
	if err != nil {
		app.errorLog.Printf("remote sync: session: %v", err)
		return false
	}

	s3c := s3.New(sess)
	_, err = s3c.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(app.s3bucket),
		Key:    aws.String(filepath.Base(app.store.Path())),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		app.errorLog.Printf("remote sync: upload: %v", err)
		return false
	}
	return true
}

// backgroundSync re-pushes the data file on a schedule, standing aside
// while a logical operation holds the store.
func (app *application) backgroundSync() {
	if app.store.Busy() {
		return
	}
	app.syncStore()
}

func (app *application) purgeActivities() {
	if err := app.activity.Purge(); err != nil {
		app.errorLog.Printf("activity purge: %v", err)
	}
}
