// Command clickwatch prints live click updates for the signed-in user's short URLs.
//
//	clickwatch -server ws://localhost:8080/ws -token <access token>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"shortly-live/internal/live"
)

func main() {
	server := flag.String("server", "ws://localhost:8080/ws", "live channel URL")
	token := flag.String("token", os.Getenv("SHORTLY_TOKEN"), "access token (default $SHORTLY_TOKEN)")
	userID := flag.String("user", "", "user id to watch (default: the token's subject)")
	retries := flag.Uint64("retries", 5, "reconnection attempts per outage")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if *token == "" {
		logrus.Fatal("an access token is required (-token or SHORTLY_TOKEN)")
	}
	if *userID == "" {
		subject, err := tokenSubject(*token)
		if err != nil {
			logrus.WithError(err).Fatal("cannot determine user id; pass -user")
		}
		*userID = subject
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := live.NewWatcher(*server, *token, *userID, live.WithReconnect(*retries, time.Second, 5*time.Second))
	watcher.On(live.EventJoined, func(json.RawMessage) {
		logrus.WithField("user_id", *userID).Info("watching for clicks")
	})
	watcher.On(live.EventError, func(data json.RawMessage) {
		var e live.ErrorData
		_ = json.Unmarshal(data, &e)
		logrus.WithField("kind", e.Error).Warn(e.Message)
	})
	watcher.OnClick(func(update live.ClickUpdate) {
		logrus.WithFields(logrus.Fields{
			"url_id": update.URLID,
			"clicks": update.Clicks,
			"at":     update.Timestamp.Local().Format(time.TimeOnly),
		}).Info("click")
	})

	if err := watcher.Run(ctx); err != nil {
		logrus.WithError(err).Fatal("watcher stopped")
	}
}

// tokenSubject reads the subject without verifying the signature; the server verifies it.
func tokenSubject(token string) (string, error) {
	claims := &gojwt.RegisteredClaims{}
	if _, _, err := gojwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}
