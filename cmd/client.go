package cmd

import (
	"context"
	"fmt"

	"github.com/jayteealao/gitbean/internal/gitfacade"
	"github.com/jayteealao/gitbean/internal/jolokia"
	"github.com/jayteealao/gitbean/internal/logging"
	"github.com/jayteealao/gitbean/internal/prefs"
	"github.com/jayteealao/gitbean/internal/repository"
	"github.com/jayteealao/gitbean/internal/validate"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/oauth2/clientcredentials"
)

// session bundles the repository client with the resources it holds.
type session struct {
	client *repository.Client
	store  *prefs.Store
	close  func() error
}

// Close releases the transport and the preference store.
func (s *session) Close() error {
	err := s.close()
	if cerr := s.store.Close(); err == nil {
		err = cerr
	}
	return err
}

// initStore opens the persistent preference store.
func initStore(ctx context.Context) (*prefs.Store, error) {
	dir, err := getDataDir()
	if err != nil {
		return nil, err
	}

	store, err := prefs.New(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize preference store: %w", err)
	}
	return store, nil
}

// preferences layers config/env values over the persistent store.
func preferences(store *prefs.Store) prefs.Getter {
	return prefs.Chain(prefs.NewViper(nil), store)
}

func newLogger() *logrus.Logger {
	return logging.New(isVerbose())
}

// newTransport builds the bean transport: the local git facade when --repo is
// set, otherwise a Jolokia client.
func newTransport(ctx context.Context, log logrus.FieldLogger) (jolokia.Transport, func() error, error) {
	if repo := viper.GetString("repo"); repo != "" {
		root, err := validate.RepoPath(repo)
		if err != nil {
			return nil, nil, err
		}
		f, err := gitfacade.Open(root, log)
		if err != nil {
			return nil, nil, err
		}
		printVerbose("Using local repository %s", root)
		return f, func() error { return nil }, nil
	}

	url := viper.GetString("jolokia.url")
	if err := validate.AgentURL(url); err != nil {
		return nil, nil, err
	}

	opts := []jolokia.Option{
		jolokia.WithTimeout(timeout()),
		jolokia.WithLogger(log),
	}
	if tokenURL := viper.GetString("jolokia.oauth2.token-url"); tokenURL != "" {
		opts = append(opts, jolokia.WithOAuth2(ctx, &clientcredentials.Config{
			ClientID:     viper.GetString("jolokia.oauth2.client-id"),
			ClientSecret: viper.GetString("jolokia.oauth2.client-secret"),
			TokenURL:     tokenURL,
			Scopes:       viper.GetStringSlice("jolokia.oauth2.scopes"),
		}))
	}
	if user := viper.GetString("jolokia.user"); user != "" {
		opts = append(opts, jolokia.WithBasicAuth(user, viper.GetString("jolokia.password")))
	}
	if headers := viper.GetStringMapString("jolokia.headers"); len(headers) > 0 {
		opts = append(opts, jolokia.WithHeaders(headers))
	}

	c := jolokia.New(url, opts...)
	printVerbose("Using Jolokia agent %s", url)
	return c, c.Close, nil
}

// openSession validates the connection settings and builds a repository client.
func openSession(ctx context.Context) (*session, error) {
	mbean := viper.GetString("jolokia.mbean")
	if err := validate.MBean(mbean); err != nil {
		return nil, err
	}
	branch := viper.GetString("branch")
	if err := validate.Branch(branch); err != nil {
		return nil, err
	}

	store, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	transport, closeTransport, err := newTransport(ctx, newLogger())
	if err != nil {
		store.Close()
		return nil, err
	}

	client := repository.New(mbean, transport, preferences(store), repository.WithBranch(branch))
	return &session{client: client, store: store, close: closeTransport}, nil
}
