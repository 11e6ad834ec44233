package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samvad-hq/api-mastery/internal/config"
	"github.com/samvad-hq/api-mastery/internal/domain"
	"github.com/samvad-hq/api-mastery/internal/logger"
	"github.com/samvad-hq/api-mastery/internal/storage"
	"github.com/samvad-hq/api-mastery/pkg/clients/httpbin"
	"github.com/samvad-hq/api-mastery/pkg/clients/pokeapi"
	"github.com/samvad-hq/api-mastery/pkg/clients/rickmorty"
	"github.com/samvad-hq/api-mastery/pkg/httpclient"
	"github.com/samvad-hq/api-mastery/pkg/publishers"
)

// Demo represents the demo runtime. It owns one client per upstream API, the
// optional response cache and the record publishers.
type Demo struct {
	cfg       *config.Config
	log       logger.Logger
	out       io.Writer
	httpbin   *httpbin.Client
	pokeapi   *pokeapi.Client
	rickmorty *rickmorty.Client
	fanout    *publishers.Fanout
	store     storage.Store
}

// NewDemo builds the demo runtime from config. Output meant for humans goes to out.
func NewDemo(ctx context.Context, cfg *config.Config, log logger.Logger, out io.Writer) (*Demo, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if out == nil {
		out = io.Discard
	}
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := storage.NewStore(cfg.StorageType, storage.Options{
		Path:            cfg.BBoltPath,
		RedisAddr:       cfg.RedisAddr,
		TTL:             cfg.CacheTTL,
		CleanupInterval: cfg.CacheCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"ttl_seconds":              int(cfg.CacheTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.CacheCleanupInterval.Seconds()),
	})

	d := &Demo{cfg: cfg, log: log, out: out, store: store}
	if err := d.buildClients(); err != nil {
		d.closeStore()
		return nil, err
	}
	if err := d.buildPublishers(ctx); err != nil {
		d.closeStore()
		return nil, err
	}
	return d, nil
}

func (d *Demo) buildClients() error {
	var cache httpclient.Cache
	if storage.Enabled(d.store) {
		cache = d.store
	}

	requester := func(name, baseURL, userAgent string) (httpclient.Requester, error) {
		dcfg := dispatcherConfig(d.cfg, baseURL, d.log)
		if strings.TrimSpace(dcfg.UserAgent) == "" {
			dcfg.UserAgent = userAgent
		}
		disp, err := httpclient.New(dcfg)
		if err != nil {
			return nil, fmt.Errorf("%s dispatcher: %w", name, err)
		}
		return httpclient.NewCachingRequester(disp, cache, disp.BaseURL(), d.log), nil
	}

	hb, err := requester("httpbin", d.cfg.HTTPBinURL, httpbin.DefaultUserAgent)
	if err != nil {
		return err
	}
	pk, err := requester("pokeapi", d.cfg.PokeAPIURL, pokeapi.DefaultUserAgent)
	if err != nil {
		return err
	}
	rm, err := requester("rickmorty", d.cfg.RickMortyURL, rickmorty.DefaultUserAgent)
	if err != nil {
		return err
	}

	d.httpbin = httpbin.NewWithRequester(hb)
	d.pokeapi = pokeapi.NewWithRequester(pk)
	d.rickmorty = rickmorty.NewWithRequester(rm)
	return nil
}

func (d *Demo) buildPublishers(ctx context.Context) error {
	publisherReg := publishers.DefaultConfigRegistry()
	if strings.TrimSpace(d.cfg.PublishersFile) != "" {
		reg, err := publishers.LoadRegistry(d.cfg.PublishersFile)
		if err != nil {
			return fmt.Errorf("load publishers registry: %w", err)
		}
		publisherReg = reg
	}

	enabled := publisherReg.Enabled()
	if len(enabled) == 0 {
		return fmt.Errorf("no publishers enabled")
	}

	access := publishers.CloudAccess{UseAWS: d.cfg.UseAWS, UseGCP: d.cfg.UseGCP}
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(access), enabled, d.log)
	if err != nil {
		return fmt.Errorf("build publishers: %w", err)
	}
	d.fanout = publishers.NewFanout(pubs)

	summaries := make([]map[string]string, 0, len(enabled))
	for _, cfg := range enabled {
		summaries = append(summaries, map[string]string{"id": cfg.ID, "type": cfg.Type})
	}
	d.log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
		"use_aws":    d.cfg.UseAWS,
		"use_gcp":    d.cfg.UseGCP,
	})
	return nil
}

// dispatcherConfig maps application settings onto an explicit dispatcher config.
func dispatcherConfig(cfg *config.Config, baseURL string, log logger.Logger) httpclient.Config {
	return httpclient.Config{
		BaseURL:   baseURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.RequestTimeout,
		Retry: httpclient.RetryPolicy{
			MaxRetries:        cfg.MaxRetries,
			RetryServerErrors: cfg.RetryServerErrors,
			Backoff: httpclient.BackoffConfig{
				Strategy:  httpclient.Strategy(cfg.BackoffStrategy),
				BaseDelay: cfg.RetryBaseDelay,
				MaxDelay:  cfg.RetryMaxDelay,
				Jitter:    cfg.RetryJitter,
			},
		},
		RateLimit: httpclient.RateLimit{
			PerSecond: cfg.RateLimitRPS,
			Burst:     cfg.RateLimitBurst,
		},
		Logger: log,
	}
}

// RunHTTPBin prints the Host header httpbin saw.
func (d *Demo) RunHTTPBin(ctx context.Context) error {
	h, err := d.httpbin.Headers(ctx)
	if err != nil {
		return fmt.Errorf("httpbin headers: %w", err)
	}
	fmt.Fprintln(d.out, "Host header:", h.Host)
	d.publish(ctx, domain.Record{Source: "httpbin", Kind: "headers", Key: h.Host, Data: h})
	return nil
}

// RunPokeAPI lists a page, fetches ditto and provokes a 404.
func (d *Demo) RunPokeAPI(ctx context.Context) error {
	fmt.Fprintln(d.out, "Listing 5 Pokémon starting at offset 10...")
	page, err := d.pokeapi.ListPokemon(ctx, 5, 10)
	if err != nil {
		return fmt.Errorf("list pokemon: %w", err)
	}
	names := make([]string, 0, len(page.Results))
	for _, p := range page.Results {
		names = append(names, p.Name)
	}
	fmt.Fprintln(d.out, "count:", page.Count)
	fmt.Fprintln(d.out, "first 5 names:", names)
	d.publish(ctx, domain.Record{Source: "pokeapi", Kind: "pokemon_list", Key: "offset=10&limit=5", Data: names})

	fmt.Fprintln(d.out, "\nFetching 'ditto' details...")
	ditto, err := d.pokeapi.GetPokemon(ctx, "ditto")
	if err != nil {
		return fmt.Errorf("get pokemon ditto: %w", err)
	}
	fmt.Fprintf(d.out, "%+v\n", ditto)
	d.publish(ctx, domain.Record{Source: "pokeapi", Kind: "pokemon", Key: ditto.Name, Data: ditto})

	fmt.Fprintln(d.out, "\nProvoking an error (should be graceful):")
	_, err = d.pokeapi.GetPokemon(ctx, "notapokemon")
	switch {
	case err == nil:
		return errors.New("lookup of notapokemon unexpectedly succeeded")
	case httpclient.IsKind(err, httpclient.KindClient):
		fmt.Fprintln(d.out, "Caught APIError as expected:", err)
		d.publish(ctx, domain.Record{Source: "pokeapi", Kind: "error", Key: "notapokemon", Data: err.Error()})
		return nil
	default:
		return fmt.Errorf("get pokemon notapokemon: %w", err)
	}
}

// RunRickMorty lists page 2 and looks characters up by id and by name.
func (d *Demo) RunRickMorty(ctx context.Context) error {
	p2, err := d.rickmorty.ListCharacters(ctx, 2, "")
	if err != nil {
		return fmt.Errorf("list characters: %w", err)
	}
	fmt.Fprintln(d.out, "count:", p2.Info.Count, "pages:", p2.Info.Pages, "has_next:", p2.Info.Next != nil)

	first := p2.Results
	if len(first) > 5 {
		first = first[:5]
	}
	names := make([]string, 0, len(first))
	for _, c := range first {
		names = append(names, c.Name)
	}
	fmt.Fprintln(d.out, "first 5:", names)
	d.publish(ctx, domain.Record{Source: "rickmorty", Kind: "character_page", Key: "page=2", Data: names})

	for _, key := range []string{"1", "birdperson"} {
		ch, err := d.rickmorty.GetCharacter(ctx, key)
		if err != nil {
			return fmt.Errorf("get character %s: %w", key, err)
		}
		fmt.Fprintf(d.out, "%+v\n", ch)
		d.publish(ctx, domain.Record{Source: "rickmorty", Kind: "character", Key: key, Data: ch})
	}
	return nil
}

// RunAll runs every demo and joins their failures.
func (d *Demo) RunAll(ctx context.Context) error {
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"httpbin", d.RunHTTPBin},
		{"pokeapi", d.RunPokeAPI},
		{"rickmorty", d.RunRickMorty},
	}

	var errs []error
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		fmt.Fprintf(d.out, "== %s ==\n", s.name)
		if err := s.run(ctx); err != nil {
			d.log.ErrorObj("demo failed", "demo_error", map[string]any{
				"demo":  s.name,
				"error": err.Error(),
			})
			errs = append(errs, err)
		}
		fmt.Fprintln(d.out)
	}
	return errors.Join(errs...)
}

// publish hands a record to every sink. Sink failures are logged, never fatal.
func (d *Demo) publish(ctx context.Context, rec domain.Record) {
	n, err := d.fanout.Publish(ctx, publishers.NewEvent(rec))
	if err != nil {
		d.log.WarnObj("record publish failed", "publish_error", map[string]any{
			"source":     rec.Source,
			"kind":       rec.Kind,
			"key":        rec.Key,
			"successful": n,
			"error":      err.Error(),
		})
	}
}

// Close releases publishers and the cache store.
func (d *Demo) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	if err := d.fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}

// closeStore safely closes the storage backend, logging any errors encountered.
func (d *Demo) closeStore() {
	if d == nil || d.store == nil {
		return
	}
	if err := d.store.Close(); err != nil {
		d.log.ErrorObj("storage close failed", "error", err)
	}
}
