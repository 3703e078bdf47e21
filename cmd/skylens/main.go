package main

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/skylens/go-api-client/apiclient"
	"github.com/skylens/go-api-client/auth"
	"github.com/skylens/go-api-client/internal/config"
	"github.com/skylens/go-api-client/sessions"
	"github.com/skylens/go-api-client/token"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.tokens.Close()

	return newRootCmd(a).Execute()
}

// app is the composition root: the session store, token manager, API client,
// and auth service are constructed once here and passed by reference.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	store   *sessions.Store
	client  *apiclient.Client
	tokens  *token.Manager
	service *auth.Service
}

func newApp() (*app, error) {
	cfg := config.New()

	level := zerolog.WarnLevel
	if config.GetEnv("DEBUG", "") != "" {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	store := sessions.NewStore()

	client, err := apiclient.New(cfg.GetAPIBaseURL(), store,
		apiclient.WithTimeout(cfg.GetHTTPTimeout()),
		apiclient.WithLogger(log),
		apiclient.WithLanguage(cfg.GetLanguage()),
	)
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(store, client,
		token.WithLogger(log),
		token.WithLanguage(cfg.GetLanguage()),
	)
	if err != nil {
		return nil, err
	}
	client.SetTokenManager(tokens)

	service, err := auth.NewService(
		auth.Deps{Client: client, Tokens: tokens, Sessions: store},
		auth.WithLogger(log),
		auth.WithLanguage(cfg.GetLanguage()),
	)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		log:     log,
		store:   store,
		client:  client,
		tokens:  tokens,
		service: service,
	}, nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
