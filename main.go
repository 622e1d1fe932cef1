package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mailflow/ai"
	"mailflow/config"
	"mailflow/gmail"
	"mailflow/logging"
	"mailflow/service"
	"mailflow/store"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		userID     = flag.String("user", "", "user id to act on behalf of")
		fetch      = flag.Bool("fetch", false, "fetch and cache new messages")
		maxResults = flag.Int64("max", 0, "max messages to fetch (0 = config default)")
		unreadOnly = flag.Bool("unread", true, "fetch unread messages only")
		sender     = flag.String("sender", "", "filter by sender")
		keywords   = flag.String("keywords", "", "free-text search terms")
		limit      = flag.Int("limit", 0, "max cached messages to list (0 = default)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)

	if *userID == "" {
		log.Fatal("-user is required")
	}

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("opening store")
	}
	defer db.Close()

	tokens := gmail.NewTokenManager(cfg.Google, db, log)
	transport := gmail.NewClient(tokens, log)
	generator := ai.NewClient(cfg.AI, log)

	svc := service.New(service.Deps{
		Transport: transport,
		Generator: generator,
		Cache:     db,
		Logger:    log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *fetch {
		max := *maxResults
		if max <= 0 {
			max = cfg.MaxResults
		}
		details, err := svc.FetchAndCache(ctx, *userID, gmail.FetchOptions{
			MaxResults: max,
			UnreadOnly: *unreadOnly,
			Sender:     *sender,
			Keywords:   *keywords,
		})
		if err != nil {
			log.WithError(err).Fatal("fetching messages")
		}
		log.WithField("count", len(details)).Info("fetch complete")
	}

	emails, err := svc.CachedEmails(ctx, *userID, store.EmailQuery{
		SenderContains: *sender,
		Limit:          *limit,
	})
	if err != nil {
		log.WithError(err).Fatal("reading cache")
	}

	for _, email := range emails {
		replied := " "
		if email.Replied {
			replied = "R"
		}
		fmt.Printf("[%s] %s  %s\n    %s\n    %s\n",
			replied,
			email.ReceivedAt.Format("2006-01-02 15:04"),
			email.Sender,
			email.Subject,
			email.Summary,
		)
	}
}
